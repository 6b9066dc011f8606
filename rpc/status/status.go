// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package status

import (
	"time"

	"github.com/bitmark-inc/logger"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/wya/engine"
	"github.com/bitmark-inc/wya/rpc/ratelimit"
)

const (
	rateLimitStatus = 20
	rateBurstStatus = 40
)

// Reporter - the daemon state exposed to clients
type Reporter interface {
	Status() engine.Status
	ClearError()
	Peers() []string
}

// Status - type for RPC calls
type Status struct {
	Log      *logger.L
	Limiter  *rate.Limiter
	Start    time.Time
	Version  string
	reporter Reporter
}

// New - create status handler
func New(log *logger.L, start time.Time, version string, reporter Reporter) *Status {
	return &Status{
		Log:      log,
		Limiter:  ratelimit.New(rateLimitStatus, rateBurstStatus),
		Start:    start,
		Version:  version,
		reporter: reporter,
	}
}

// ---

// GetArguments - arguments for RPC
type GetArguments struct{}

// GetReply - result from RPC
type GetReply struct {
	engine.Status
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// Get - daemon state
func (s *Status) Get(arguments *GetArguments, reply *GetReply) error {
	if err := ratelimit.Limit(s.Limiter); nil != err {
		return err
	}

	reply.Status = s.reporter.Status()
	reply.Version = s.Version
	reply.Uptime = time.Since(s.Start).Round(time.Second).String()
	return nil
}

// ---

// ClearErrorArguments - arguments for RPC
type ClearErrorArguments struct{}

// ClearErrorReply - result from RPC
type ClearErrorReply struct{}

// ClearError - dismiss the pending error
func (s *Status) ClearError(arguments *ClearErrorArguments, reply *ClearErrorReply) error {
	if err := ratelimit.Limit(s.Limiter); nil != err {
		return err
	}
	s.reporter.ClearError()
	return nil
}

// Peers - type for RPC calls
type Peers struct {
	Log      *logger.L
	Limiter  *rate.Limiter
	reporter Reporter
}

// NewPeers - create peer list handler
func NewPeers(log *logger.L, reporter Reporter) *Peers {
	return &Peers{
		Log:      log,
		Limiter:  ratelimit.New(rateLimitStatus, rateBurstStatus),
		reporter: reporter,
	}
}

// ---

// PeersArguments - arguments for RPC
type PeersArguments struct{}

// PeersReply - result from RPC
type PeersReply struct {
	Peers []string `json:"peers"`
}

// List - names of the connected nearby peers
func (p *Peers) List(arguments *PeersArguments, reply *PeersReply) error {
	if err := ratelimit.Limit(p.Limiter); nil != err {
		return err
	}

	peers := p.reporter.Peers()
	if nil == peers {
		peers = []string{}
	}
	reply.Peers = peers
	return nil
}
