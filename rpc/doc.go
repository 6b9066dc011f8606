// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package rpc - TLS JSON RPC control surface for a running wyad
//
// services: Invite, Roster, Peers, Status and Location; each method
// takes a pointer to its arguments and fills a reply, so any JSON RPC
// 1.0 client (wya-cli, a phone UI bridge) can drive the daemon
package rpc
