// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package nearby

import (
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"

	ma "github.com/multiformats/go-multiaddr"

	"github.com/bitmark-inc/wya/fault"
)

// listenAddresses - convert "host:port" strings to TCP multiaddrs
//
// "*:port" expands to both 0.0.0.0:port and [::]:port, duplicates are
// merged
func listenAddresses(hostPorts []string) ([]ma.Multiaddr, error) {
	unique := make(map[string]struct{})
	for _, hostPort := range hostPorts {
		hostPort = strings.TrimSpace(hostPort)
		if strings.HasPrefix(hostPort, "*:") {
			port := strings.TrimPrefix(hostPort, "*:")
			unique["0.0.0.0:"+port] = struct{}{}
			unique["[::]:"+port] = struct{}{}
		} else if "" != hostPort {
			unique[hostPort] = struct{}{}
		}
	}

	if 0 == len(unique) {
		return nil, fault.ErrMissingListen
	}

	sorted := make([]string, 0, len(unique))
	for hostPort := range unique {
		sorted = append(sorted, hostPort)
	}
	sort.Strings(sorted)

	addresses := make([]ma.Multiaddr, 0, len(sorted))
	for _, hostPort := range sorted {
		version, ip, port, err := parseHostPort(hostPort)
		if nil != err {
			return nil, err
		}
		address, err := ma.NewMultiaddr(fmt.Sprintf("/%s/%s/tcp/%s", version, ip, port))
		if nil != err {
			return nil, err
		}
		addresses = append(addresses, address)
	}
	return addresses, nil
}

// split host:port, port zero selects any free port
func parseHostPort(hostPort string) (string, string, string, error) {
	host, port, err := net.SplitHostPort(hostPort)
	if nil != err {
		return "", "", "", err
	}
	numericPort, err := strconv.Atoi(strings.TrimSpace(port))
	if nil != err {
		return "", "", "", err
	}
	if numericPort < 0 || numericPort > 65535 {
		return "", "", "", fmt.Errorf("invalid port number: %d", numericPort)
	}
	ip := net.ParseIP(strings.TrimSpace(host))
	if nil == ip {
		return "", "", "", fmt.Errorf("invalid IP address: %q", host)
	}
	version := "ip6"
	if nil != ip.To4() {
		version = "ip4"
	}
	return version, ip.String(), strconv.Itoa(numericPort), nil
}
