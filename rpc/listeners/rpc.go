// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package listeners

import (
	"crypto/tls"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"strings"
	"sync"

	"github.com/bitmark-inc/logger"
	"golang.org/x/sync/semaphore"

	"github.com/bitmark-inc/wya/fault"
)

const (
	logName                   = "client_rpc"
	minConnectionCount        = 1
	DefaultMaximumConnections = 10
)

// RPCConfiguration - configuration file data for RPC setup
type RPCConfiguration struct {
	MaximumConnections int64    `gluamapper:"maximum_connections" json:"maximum_connections"`
	Listen             []string `gluamapper:"listen" json:"listen"`
	Certificate        string   `gluamapper:"certificate" json:"certificate"`
	PrivateKey         string   `gluamapper:"private_key" json:"private_key"`
}

type listenAddress struct {
	network string
	address string
}

// Listener - TLS JSON-RPC acceptor with a bounded number of clients
type Listener struct {
	sync.Mutex

	log         *logger.L
	server      *rpc.Server
	tlsConfig   *tls.Config
	connections *semaphore.Weighted
	addresses   []listenAddress
	listeners   []net.Listener
	wg          sync.WaitGroup
}

// NewRPC - validate the configuration and prepare a listener
func NewRPC(
	configuration *RPCConfiguration,
	log *logger.L,
	server *rpc.Server,
	tlsConfig *tls.Config,
) (*Listener, error) {
	if configuration.MaximumConnections < minConnectionCount {
		log.Errorf("invalid %s maximum connection limit: %d", logName, configuration.MaximumConnections)
		return nil, fault.ErrTooManyConnections
	}

	if 0 == len(configuration.Listen) {
		log.Errorf("missing %s listen", logName)
		return nil, fault.ErrMissingListen
	}

	addresses, err := parseListenAddress(configuration.Listen)
	if nil != err {
		log.Errorf("rpc server listen error: %s", err)
		return nil, err
	}

	return &Listener{
		log:         log,
		server:      server,
		tlsConfig:   tlsConfig,
		connections: semaphore.NewWeighted(configuration.MaximumConnections),
		addresses:   addresses,
	}, nil
}

// Serve - open every listen address and accept in the background
func (r *Listener) Serve() error {
	r.Lock()
	defer r.Unlock()

	if 0 != len(r.listeners) {
		return fault.ErrAlreadyInitialised
	}

	for _, a := range r.addresses {
		r.log.Infof("starting RPC server: %s", a.address)
		l, err := tls.Listen(a.network, a.address, r.tlsConfig)
		if nil != err {
			r.log.Errorf("rpc server listen error: %s", err)
			for _, opened := range r.listeners {
				_ = opened.Close()
			}
			r.listeners = nil
			return err
		}
		r.listeners = append(r.listeners, l)

		r.wg.Add(1)
		go r.accept(l)
	}
	return nil
}

// Addresses - the bound addresses, resolving any zero ports
func (r *Listener) Addresses() []net.Addr {
	r.Lock()
	defer r.Unlock()

	addrs := make([]net.Addr, 0, len(r.listeners))
	for _, l := range r.listeners {
		addrs = append(addrs, l.Addr())
	}
	return addrs
}

// Close - stop accepting; connected clients finish their current call
func (r *Listener) Close() {
	r.Lock()
	listeners := r.listeners
	r.listeners = nil
	r.Unlock()

	for _, l := range listeners {
		_ = l.Close()
	}
	r.wg.Wait()
}

func (r *Listener) accept(listen net.Listener) {
	defer r.wg.Done()

	for {
		conn, err := listen.Accept()
		if nil != err {
			r.log.Debugf("rpc accept terminated: %s", err)
			return
		}
		if !r.connections.TryAcquire(1) {
			r.log.Warnf("refused connection from: %s", conn.RemoteAddr())
			_ = conn.Close()
			continue
		}
		go func() {
			r.server.ServeCodec(jsonrpc.NewServerCodec(conn))
			_ = conn.Close()
			r.connections.Release(1)
		}()
	}
}

// convert the configured addresses to network and address pairs
//
// "*:PORT" listens on both IPv4 and IPv6
func parseListenAddress(addrs []string) ([]listenAddress, error) {
	parsed := make([]listenAddress, 0, len(addrs))
	for _, listen := range addrs {
		if "" == listen {
			continue
		}

		host, port, err := net.SplitHostPort(listen)
		if nil != err {
			return nil, fault.ErrMissingListen
		}

		network := "tcp4"
		switch {
		case "*" == host:
			parsed = append(parsed, listenAddress{network: "tcp", address: net.JoinHostPort("::", port)})
			continue
		case strings.Contains(host, ":"):
			network = "tcp6"
		}

		if ip := net.ParseIP(host); nil == ip {
			return nil, fault.ErrMissingListen
		}
		parsed = append(parsed, listenAddress{network: network, address: listen})
	}
	if 0 == len(parsed) {
		return nil, fault.ErrMissingListen
	}

	return parsed, nil
}
