// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"net"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/wya/rpc/certificate"
	"github.com/bitmark-inc/wya/rpc/listeners"
	"github.com/bitmark-inc/wya/rpc/server"
)

const (
	tlsName = "client_rpc"
)

// RPC - the client facing server
type RPC struct {
	log         *logger.L
	listener    *listeners.Listener
	fingerprint [32]byte
}

// New - load the certificate, register the handlers and start listening
func New(configuration *listeners.RPCConfiguration, version string, engine server.Engine) (*RPC, error) {

	log := logger.New("rpc")
	log.Info("starting…")

	tlsConfig, fingerprint, err := certificate.Get(log, tlsName, configuration.Certificate, configuration.PrivateKey)
	if nil != err {
		return nil, err
	}

	listener, err := listeners.NewRPC(
		configuration,
		log,
		server.Create(log, version, engine),
		tlsConfig,
	)
	if nil != err {
		return nil, err
	}

	if err := listener.Serve(); nil != err {
		return nil, err
	}

	return &RPC{
		log:         log,
		listener:    listener,
		fingerprint: fingerprint,
	}, nil
}

// Fingerprint - SHA3-256 of the server certificate
func (r *RPC) Fingerprint() [32]byte {
	return r.fingerprint
}

// Addresses - where the server is listening
func (r *RPC) Addresses() []net.Addr {
	return r.listener.Addresses()
}

// Run - background process that closes the listeners on shutdown
func (r *RPC) Run(args interface{}, shutdown <-chan struct{}) {
	<-shutdown
	r.log.Info("shutting down…")
	r.listener.Close()
	r.log.Info("stopped")
}
