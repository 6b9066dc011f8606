// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli"
)

func runRoster(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	reply, err := m.client.Roster()
	if nil != err {
		return err
	}

	return printJson(m.w, reply.People)
}

func runRemove(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	identity := strings.TrimSpace(c.String("identity"))
	if "" == identity {
		return fmt.Errorf("identity is required")
	}

	return m.client.Remove(identity)
}

func runPeers(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	reply, err := m.client.Peers()
	if nil != err {
		return err
	}

	return printJson(m.w, reply.Peers)
}
