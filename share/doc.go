// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package share - invitation links for the local record and
// acceptance of links from other accounts
//
// Outgoing:
//
//   NoRecord → Provisioning → Ready → CreatingShare → ShareReady
//                                        ↑    ↓
//                                        Busy (wait advertised delay)
//
// Incoming:
//
//   Idle → ResolvingMetadata → Accepting → FetchingRootRecord → Subscribed
package share
