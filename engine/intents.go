// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package engine

import (
	"context"
	"time"

	"github.com/bitmark-inc/wya/coordinate"
	"github.com/bitmark-inc/wya/fault"
	"github.com/bitmark-inc/wya/messagebus"
	"github.com/bitmark-inc/wya/roster"
	"github.com/bitmark-inc/wya/share"
)

// Status - summary for a user interface
type Status struct {
	Name          string   `json:"name"`
	Account       string   `json:"account"`
	Record        bool     `json:"record"`
	ShareState    string   `json:"share_state"`
	ShareURL      string   `json:"share_url,omitempty"`
	IncomingState string   `json:"incoming_state"`
	Following     string   `json:"following,omitempty"`
	Peers         []string `json:"peers"`
	LastError     string   `json:"last_error,omitempty"`
}

// ReportLocation - a sample from the position sensor
func (e *Engine) ReportLocation(sample coordinate.Sample) error {
	if err := sample.Coordinate.Validate(); nil != err {
		return err
	}
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now()
	}
	if !e.post(cmdLocation, sample) {
		return fault.ErrNotInitialised
	}
	return nil
}

// PrepareShare - the invitation URL for this device's location
func (e *Engine) PrepareShare(ctx context.Context) (string, error) {
	url, err := e.shares.PrepareShare(ctx)
	if nil != err && nil == ctx.Err() {
		e.report(err)
	}
	return url, err
}

// RevokeShare - invalidate the invitation URL
func (e *Engine) RevokeShare(ctx context.Context) error {
	err := e.shares.RevokeShare(ctx)
	if nil != err && !fault.IsErrNotFound(err) {
		e.report(err)
	}
	return err
}

// AcceptInvitation - follow the location behind an invitation URL
//
// a failed first fetch of the shared record is reported as the
// pending error but the acceptance itself succeeds
func (e *Engine) AcceptInvitation(ctx context.Context, url string) (*share.Acceptance, error) {
	acceptance, err := e.shares.AcceptInvitation(ctx, url)
	if nil != err {
		e.report(err)
		return nil, err
	}
	if nil != acceptance.RootFetchErr {
		e.report(acceptance.RootFetchErr)
	}
	return acceptance, nil
}

// Remove - forget a person
func (e *Engine) Remove(identity string) error {
	if roster.Self == identity {
		return fault.ErrCannotRemoveSelf
	}
	if !e.post(cmdRemove, identity) {
		return fault.ErrNotInitialised
	}
	return nil
}

// ClearError - dismiss the pending error
func (e *Engine) ClearError() {
	e.post(cmdClearError, nil)
}

// Roster - snapshot of every known person
func (e *Engine) Roster() []roster.PersonState {
	return e.roster.Snapshot()
}

// Peers - identities of the connected nearby peers
func (e *Engine) Peers() []string {
	return e.channel.Connected()
}

// Subscribe - roster change notifications
func (e *Engine) Subscribe(size int) <-chan messagebus.Message {
	return e.roster.Subscribe(size)
}

// Unsubscribe - release a notification channel
func (e *Engine) Unsubscribe(c <-chan messagebus.Message) {
	e.roster.Unsubscribe(c)
}

// Status - current state of sharing, following and peers
func (e *Engine) Status() Status {
	status := Status{
		Name:          e.name,
		Account:       e.db.Account(),
		ShareState:    e.shares.State().String(),
		IncomingState: e.shares.IncomingState().String(),
		Peers:         e.channel.Connected(),
	}

	if r := e.records.Record(); nil != r {
		status.Record = true
	}
	if s := e.shares.Share(); nil != s {
		status.ShareURL = s.URL
	}
	if id, ok := e.poller.Subscribed(); ok {
		status.Following = id.String()
	}
	if err := e.roster.LastError(); nil != err {
		status.LastError = err.Error()
	}
	return status
}
