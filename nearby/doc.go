// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package nearby - direct device to device location broadcast
//
// A Channel encodes the local position and hands it to a Transport;
// payloads from peers are decoded into roster updates.  Node is the
// libp2p transport: mDNS discovery on the local network, automatic
// connection to every discovered peer and a gossipsub topic carrying
// the payloads.
package nearby
