// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpccalls

import (
	"time"

	"github.com/bitmark-inc/wya/rpc/location"
	"github.com/bitmark-inc/wya/rpc/people"
	"github.com/bitmark-inc/wya/rpc/status"
)

// Roster - every person the daemon knows
func (c *Client) Roster() (*people.ListReply, error) {
	var reply people.ListReply
	if err := c.call("Roster.List", &people.ListArguments{}, &reply); nil != err {
		return nil, err
	}
	return &reply, nil
}

// Remove - forget a person
func (c *Client) Remove(identity string) error {
	return c.call("Roster.Remove", &people.RemoveArguments{Identity: identity}, &people.RemoveReply{})
}

// Peers - names of the connected nearby peers
func (c *Client) Peers() (*status.PeersReply, error) {
	var reply status.PeersReply
	if err := c.call("Peers.List", &status.PeersArguments{}, &reply); nil != err {
		return nil, err
	}
	return &reply, nil
}

// Status - daemon state
func (c *Client) Status() (*status.GetReply, error) {
	var reply status.GetReply
	if err := c.call("Status.Get", &status.GetArguments{}, &reply); nil != err {
		return nil, err
	}
	return &reply, nil
}

// ClearError - dismiss the pending error
func (c *Client) ClearError() error {
	return c.call("Status.ClearError", &status.ClearErrorArguments{}, &status.ClearErrorReply{})
}

// Report - send a position for the daemon's device
func (c *Client) Report(latitude float64, longitude float64, timestamp time.Time) error {
	arguments := location.ReportArguments{
		Latitude:  latitude,
		Longitude: longitude,
		Timestamp: timestamp,
	}
	return c.call("Location.Report", &arguments, &location.ReportReply{})
}
