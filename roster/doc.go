// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package roster - merge of cloud, peer and local positions
//
// Entries are keyed by identity and the newest timestamp wins; an
// update with the same timestamp as the stored entry replaces it.
// The local device is the reserved identity "self" and each of its
// positions is also handed to the registered sinks (cloud record
// update and peer broadcast).
package roster
