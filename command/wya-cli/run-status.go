// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli"
)

func runStatus(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	reply, err := m.client.Status()
	if nil != err {
		return err
	}

	return printJson(m.w, reply)
}

func runClearError(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	return m.client.ClearError()
}

func runReport(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	if !c.IsSet("latitude") || !c.IsSet("longitude") {
		return fmt.Errorf("both latitude and longitude are required")
	}

	return m.client.Report(c.Float64("latitude"), c.Float64("longitude"), time.Now())
}
