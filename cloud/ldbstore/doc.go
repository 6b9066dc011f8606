// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package ldbstore - a cloud database kept in one LevelDB
//
// All accounts share the same database, which makes it suitable for
// a group of daemons on one host and for tests.  Each kind of item is
// kept in its own key space, selected by a one byte prefix:
//
//   Z  owner zone                 → creation time
//   R  owner zone record          → storedRecord
//   S  share token                → storedShare
//   T  owner zone record          → share token
//   A  share token account        → acceptance time
//
// key parts are separated by a zero byte
package ldbstore
