// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package server

import (
	"net/rpc"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/wya/rpc/invite"
	"github.com/bitmark-inc/wya/rpc/location"
	"github.com/bitmark-inc/wya/rpc/people"
	"github.com/bitmark-inc/wya/rpc/status"
)

// Engine - everything the RPC handlers call
type Engine interface {
	invite.Sharer
	people.Directory
	status.Reporter
	location.Sensor
}

// Create - an RPC server with every handler registered
func Create(log *logger.L, version string, engine Engine) *rpc.Server {

	start := time.Now().UTC()

	server := rpc.NewServer()

	_ = server.Register(invite.New(log, engine))
	_ = server.Register(people.New(log, engine))
	_ = server.Register(status.New(log, start, version, engine))
	_ = server.Register(status.NewPeers(log, engine))
	_ = server.Register(location.New(log, engine))

	return server
}
