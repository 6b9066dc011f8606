// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package publish - roster changes on a ZeroMQ PUB socket
//
// Each change is one three part message:
//
//   "roster"  command  JSON
//
// where command is one of update, remove, expire or error.  With a key
// pair configured the socket is a CURVE server and subscribers need
// the public key.
package publish
