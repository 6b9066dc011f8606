// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/wya/background"
	"github.com/bitmark-inc/wya/cloud"
	"github.com/bitmark-inc/wya/cloud/dynamo"
	"github.com/bitmark-inc/wya/cloud/ldbstore"
	"github.com/bitmark-inc/wya/configuration"
	"github.com/bitmark-inc/wya/engine"
	"github.com/bitmark-inc/wya/fault"
	"github.com/bitmark-inc/wya/inbox"
	"github.com/bitmark-inc/wya/nearby"
	"github.com/bitmark-inc/wya/publish"
	"github.com/bitmark-inc/wya/record"
	"github.com/bitmark-inc/wya/rpc"
	"github.com/bitmark-inc/wya/share"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

// limit on loading AWS credentials and region
const cloudConnectTimeout = 30 * time.Second

// main program
func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "verbose", HasArg: getoptions.NO_ARGUMENT, Short: 'v'},
		{Long: "quiet", HasArg: getoptions.NO_ARGUMENT, Short: 'q'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "config-file", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'c'},
	}

	program, options, arguments, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		processSetupCommand(program, []string{"version"})
		return
	}

	if len(options["help"]) > 0 {
		processSetupCommand(program, []string{"help"})
		return
	}

	// these commands do not require the configuration and
	// process data needed for initial setup
	if len(arguments) > 0 && processSetupCommand(program, arguments) {
		return
	}

	if 1 != len(options["config-file"]) {
		exitwithstatus.Message("%s: only one config-file option is required, %d were detected", program, len(options["config-file"]))
	}

	// read options and parse the configuration file
	configurationFile := options["config-file"][0]
	theConfiguration, err := configuration.GetConfiguration(configurationFile)
	if nil != err {
		exitwithstatus.Message("%s: failed to read configuration from: %q  error: %s", program, configurationFile, err)
	}

	// these commands require the configuration and
	// perform enquiries on the configuration
	if len(arguments) > 0 && processConfigCommand(arguments, theConfiguration) {
		return
	}

	// start logging
	if err = logger.Initialise(theConfiguration.Logging); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	// last chance logging for fatal errors
	if err = fault.Initialise(); nil != err {
		exitwithstatus.Message("%s: fault setup failed with error: %s", program, err)
	}
	defer fault.Finalise()

	// create a logger channel for the main program
	log := logger.New("main")
	defer log.Info("finished")
	log.Info("starting…")
	log.Infof("version: %s", version)
	log.Debugf("theConfiguration: %v", theConfiguration)

	// ------------------
	// start of real main
	// ------------------

	// optional PID file
	// use if not running under a supervisor program like daemon(8)
	if "" != theConfiguration.PidFile {
		lockFile, err := os.OpenFile(theConfiguration.PidFile, os.O_WRONLY|os.O_EXCL|os.O_CREATE, os.ModeExclusive|0600)
		if err != nil {
			if os.IsExist(err) {
				exitwithstatus.Message("%s: another instance is already running", program)
			}
			exitwithstatus.Message("%s: PID file: %q creation failed, error: %s", program, theConfiguration.PidFile, err)
		}
		fmt.Fprintf(lockFile, "%d\n", os.Getpid())
		lockFile.Close()
		defer os.Remove(theConfiguration.PidFile)
	}

	// the cloud backend
	log.Infof("cloud backend: %s", theConfiguration.Cloud.Backend)
	db, closeCloud, err := openCloud(&theConfiguration.Cloud, theConfiguration.Account)
	if nil != err {
		fatal("cloud initialise error: %s", err)
	}
	defer closeCloud()

	// nearby host, listening but not yet discoverable
	log.Debugf("%s = %#v", "Nearby", theConfiguration.Nearby)
	node, err := nearby.NewNode(&theConfiguration.Nearby)
	if nil != err {
		fatal("nearby initialise error: %s", err)
	}
	defer node.Close()
	log.Infof("nearby peer id: %s", node.ID())

	cloudConfiguration := &theConfiguration.Cloud
	e := engine.New(db, node, engine.Configuration{
		Name:         theConfiguration.Name,
		PollInterval: cloudConfiguration.PollInterval.Value(),
		Liveness:     theConfiguration.Liveness.Value(),
		OutboundSize: theConfiguration.Nearby.QueueSize,
		Record: record.Options{
			UpdateInterval:   cloudConfiguration.UpdateInterval.Value(),
			ProvisionTimeout: cloudConfiguration.ProvisionTimeout.Value(),
		},
		Share: share.Options{
			ProvisionCeiling: cloudConfiguration.ProvisionCeiling.Value(),
			FallbackDelay:    cloudConfiguration.FallbackDelay.Value(),
		},
	})
	if err = e.Start(); nil != err {
		fatal("engine start error: %s", err)
	}
	defer e.Stop()

	if err = node.Start(e.Handler()); nil != err {
		fatal("nearby start error: %s", err)
	}

	processes := background.Processes{}

	// start up the rpc server
	log.Debugf("%s = %#v", "ClientRPC", theConfiguration.ClientRPC)
	server, err := rpc.New(&theConfiguration.ClientRPC, version, e)
	if nil != err {
		fatal("rpc initialise error: %s", err)
	}
	processes = append(processes, server)

	// optional change notifications
	if 0 != len(theConfiguration.Publishing.Broadcast) {
		log.Debugf("%s = %#v", "Publishing", theConfiguration.Publishing)
		if "" != theConfiguration.Publishing.PrivateKey {
			if err := publish.StartAuthentication(); nil != err {
				fatal("zmq.AuthStart: error: %s", err)
			}
			defer publish.StopAuthentication()
		}
		publisher, err := publish.New(&theConfiguration.Publishing, e)
		if nil != err {
			fatal("publish initialise error: %s", err)
		}
		processes = append(processes, publisher)
	}

	// optional invitation drop file
	if "" != theConfiguration.Inbox.File {
		in, err := inbox.New(&theConfiguration.Inbox, e)
		if nil != err {
			fatal("inbox initialise error: %s", err)
		}
		processes = append(processes, in)
	}

	bg := background.Start(processes, nil)
	defer bg.Stop()

	// wait for CTRL-C before shutting down to allow manual testing
	if 0 == len(options["quiet"]) {
		fmt.Printf("\n\nWaiting for CTRL-C (SIGINT) or 'kill <pid>' (SIGTERM)…")
	}

	// turn Signals into channel messages
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	sig := <-ch
	log.Infof("received signal: %v", sig)
	if 0 == len(options["quiet"]) {
		fmt.Printf("\nreceived signal: %v\n", sig)
		fmt.Printf("\nshutting down…\n")
	}

	log.Info("shutting down…")
}

// open the configured backend as seen by one account
func openCloud(c *configuration.CloudType, account string) (cloud.Database, func(), error) {
	switch c.Backend {
	case configuration.BackendDynamoDB:
		ctx, cancel := context.WithTimeout(context.Background(), cloudConnectTimeout)
		defer cancel()

		store, err := dynamo.New(ctx, &c.DynamoDB)
		if nil != err {
			return nil, nil, err
		}
		return store.Account(account), func() {}, nil

	default:
		store, err := ldbstore.Open(c.Database, ldbstore.Options{
			ZoneWriteInterval: c.ZoneWriteInterval.Value(),
		})
		if nil != err {
			return nil, nil, err
		}
		return store.Account(account), func() { _ = store.Close() }, nil
	}
}

// log to the critical channel then exit
func fatal(format string, arguments ...interface{}) {
	exitwithstatus.Message("%s", fault.Criticalf(format, arguments...))
}
