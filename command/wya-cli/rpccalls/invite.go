// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpccalls

import (
	"github.com/bitmark-inc/wya/rpc/invite"
)

// Prepare - the invitation URL of the daemon's location
func (c *Client) Prepare() (*invite.PrepareReply, error) {
	var reply invite.PrepareReply
	if err := c.call("Invite.Prepare", &invite.PrepareArguments{}, &reply); nil != err {
		return nil, err
	}
	return &reply, nil
}

// Accept - follow the location behind an invitation URL
func (c *Client) Accept(url string) (*invite.AcceptReply, error) {
	var reply invite.AcceptReply
	if err := c.call("Invite.Accept", &invite.AcceptArguments{URL: url}, &reply); nil != err {
		return nil, err
	}
	return &reply, nil
}

// Revoke - withdraw the invitation URL
func (c *Client) Revoke() error {
	return c.call("Invite.Revoke", &invite.RevokeArguments{}, &invite.RevokeReply{})
}
