// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package messagebus - a queuing system for all messages whether
// internally generated, produced by cloud completions or received
// from peers
//
// The engine owns one Queue and is its only reader; every state
// change is posted to it so that state is only mutated from one
// goroutine.  A BroadcastQueue fans change notifications out to any
// number of listeners.
package messagebus
