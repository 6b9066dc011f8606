// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/wya/command/wya-cli/rpccalls"
)

const defaultConnect = "127.0.0.1:2150"

type metadata struct {
	client  *rpccalls.Client
	verbose bool
	e       io.Writer
	w       io.Writer
}

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

func main() {

	app := cli.NewApp()
	app.Name = "wya-cli"
	app.Usage = "control a running wyad"
	app.Version = version
	app.HideVersion = true

	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: " verbose result",
		},
		cli.StringFlag{
			Name:   "connect, c",
			Value:  defaultConnect,
			Usage:  " wyad RPC `HOST:PORT`",
			EnvVar: "WYA_CONNECT",
		},
		cli.StringFlag{
			Name:   "fingerprint, f",
			Value:  "",
			Usage:  " expected SHA3-256 certificate `HEX` from: wyad fingerprint",
			EnvVar: "WYA_FINGERPRINT",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:   "invite",
			Usage:  "create or show the invitation link for this location",
			Action: runInvite,
		},
		{
			Name:      "accept",
			Usage:     "follow the location behind an invitation link",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "url, u",
					Value: "",
					Usage: "*invitation `URL`",
				},
			},
			Action: runAccept,
		},
		{
			Name:   "revoke",
			Usage:  "withdraw the invitation link",
			Action: runRevoke,
		},
		{
			Name:   "roster",
			Usage:  "list everyone with a known location",
			Action: runRoster,
		},
		{
			Name:      "remove",
			Usage:     "forget a person until heard from again",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "identity, i",
					Value: "",
					Usage: "*person `NAME`",
				},
			},
			Action: runRemove,
		},
		{
			Name:   "peers",
			Usage:  "list connected nearby devices",
			Action: runPeers,
		},
		{
			Name:   "status",
			Usage:  "display daemon status",
			Action: runStatus,
		},
		{
			Name:   "clear-error",
			Usage:  "dismiss the pending error",
			Action: runClearError,
		},
		{
			Name:      "report",
			Usage:     "set the location of this device",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.Float64Flag{
					Name:  "latitude, lat",
					Usage: "*decimal `DEGREES` north",
				},
				cli.Float64Flag{
					Name:  "longitude, lon",
					Usage: "*decimal `DEGREES` east",
				},
			},
			Action: runReport,
		},
		{
			Name: "version",
			Action: func(c *cli.Context) error {
				fmt.Fprintf(c.App.Writer, "%s\n", version)
				return nil
			},
		},
	}

	// connect to the daemon
	app.Before = func(c *cli.Context) error {

		e := c.App.ErrWriter
		w := c.App.Writer
		verbose := c.GlobalBool("verbose")

		// no connection needed
		switch c.Args().Get(0) {
		case "", "version", "help", "h":
			return nil
		}

		connect := c.GlobalString("connect")
		if verbose {
			fmt.Fprintf(e, "connect: %q\n", connect)
		}

		client, err := rpccalls.NewClient(connect, c.GlobalString("fingerprint"), verbose, e)
		if nil != err {
			return err
		}

		c.App.Metadata["config"] = &metadata{
			client:  client,
			verbose: verbose,
			e:       e,
			w:       w,
		}
		return nil
	}

	app.After = func(c *cli.Context) error {
		m, ok := c.App.Metadata["config"].(*metadata)
		if ok && nil != m.client {
			m.client.Close()
		}
		return nil
	}

	err := app.Run(os.Args)
	if nil != err {
		fmt.Fprintf(app.ErrWriter, "terminated with error: %s\n", err)
		os.Exit(1)
	}
}
