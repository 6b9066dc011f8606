// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package record - the account's single location record
//
// Provisioning creates the zone (an existing zone is fine), then
// fetches the record and creates it at (0, 0) when it is missing.
// Position updates are saved in the background: they are rate
// limited, coalesced while a save is running and never retried, a
// revision conflict only refreshes the cached record.
package record
