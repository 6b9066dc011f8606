// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package engine - connects the location sources to the roster
//
// All roster mutations happen on one goroutine that reads a message
// queue: local samples, cloud poll results, nearby payloads, removal
// requests and failures are all posted to it.  Cloud and peer work
// runs elsewhere and only the outcome is queued.
package engine
