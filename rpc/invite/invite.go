// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package invite

import (
	"context"
	"time"

	"github.com/bitmark-inc/logger"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/wya/fault"
	"github.com/bitmark-inc/wya/rpc/ratelimit"
	"github.com/bitmark-inc/wya/share"
)

const (
	rateLimitInvite = 2
	rateBurstInvite = 4

	// each call may wait for zone creation and share retries
	requestTimeout = 2 * time.Minute
)

// Sharer - the share operations behind the invitation calls
type Sharer interface {
	PrepareShare(context.Context) (string, error)
	AcceptInvitation(context.Context, string) (*share.Acceptance, error)
	RevokeShare(context.Context) error
}

// Invite - type for RPC calls
type Invite struct {
	Log     *logger.L
	Limiter *rate.Limiter
	sharer  Sharer
}

// New - create invitation handler
func New(log *logger.L, sharer Sharer) *Invite {
	return &Invite{
		Log:     log,
		Limiter: ratelimit.New(rateLimitInvite, rateBurstInvite),
		sharer:  sharer,
	}
}

// ---

// PrepareArguments - arguments for RPC
type PrepareArguments struct{}

// PrepareReply - result from RPC
type PrepareReply struct {
	URL string `json:"url"`
}

// Prepare - create or reuse the invitation URL for this device
func (invite *Invite) Prepare(arguments *PrepareArguments, reply *PrepareReply) error {
	if err := ratelimit.Limit(invite.Limiter); nil != err {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	url, err := invite.sharer.PrepareShare(ctx)
	if nil != err {
		invite.Log.Warnf("prepare share error: %s", err)
		return err
	}

	reply.URL = url
	return nil
}

// ---

// AcceptArguments - arguments for RPC
type AcceptArguments struct {
	URL string `json:"url"`
}

// AcceptReply - result from RPC
type AcceptReply struct {
	Identity        string `json:"identity"`
	Owner           string `json:"owner"`
	Title           string `json:"title"`
	AlreadyAccepted bool   `json:"already_accepted"`
	Warning         string `json:"warning,omitempty"`
}

// Accept - follow the location behind an invitation URL
func (invite *Invite) Accept(arguments *AcceptArguments, reply *AcceptReply) error {
	if nil == arguments || "" == arguments.URL {
		return fault.ErrInvalidLink
	}

	if err := ratelimit.Limit(invite.Limiter); nil != err {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	acceptance, err := invite.sharer.AcceptInvitation(ctx, arguments.URL)
	if nil != err {
		invite.Log.Warnf("accept invitation error: %s", err)
		return err
	}

	reply.Identity = acceptance.Identity
	reply.Owner = acceptance.Metadata.OwnerName
	reply.Title = acceptance.Metadata.Title
	reply.AlreadyAccepted = acceptance.AlreadyAccepted
	if nil != acceptance.RootFetchErr {
		reply.Warning = acceptance.RootFetchErr.Error()
	}
	return nil
}

// ---

// RevokeArguments - arguments for RPC
type RevokeArguments struct{}

// RevokeReply - result from RPC
type RevokeReply struct{}

// Revoke - withdraw the invitation URL
func (invite *Invite) Revoke(arguments *RevokeArguments, reply *RevokeReply) error {
	if err := ratelimit.Limit(invite.Limiter); nil != err {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	return invite.sharer.RevokeShare(ctx)
}
