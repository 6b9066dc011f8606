// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package poller - follow a record shared by another account
//
// There is at most one poll loop; subscribing again replaces it.
package poller
