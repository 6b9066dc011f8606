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

func runInvite(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	reply, err := m.client.Prepare()
	if nil != err {
		return err
	}

	return printJson(m.w, reply)
}

func runAccept(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	url := strings.TrimSpace(c.String("url"))
	if "" == url {
		url = strings.TrimSpace(c.Args().First())
	}
	if "" == url {
		return fmt.Errorf("invitation url is required")
	}

	reply, err := m.client.Accept(url)
	if nil != err {
		return err
	}

	return printJson(m.w, reply)
}

func runRevoke(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	if err := m.client.Revoke(); nil != err {
		return err
	}

	if m.verbose {
		fmt.Fprintf(m.e, "invitation revoked\n")
	}
	return nil
}
