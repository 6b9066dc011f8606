// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package coordinate - geographic coordinates and their wire form
//
// Peers exchange a small protobuf message {name, latitude, longitude}
// with both axes as fixed64 doubles.
package coordinate
