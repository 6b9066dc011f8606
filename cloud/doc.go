// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package cloud - the cloud record store contract
//
// Each account owns one zone holding one location record.  A share
// turns that record into a read capability identified by a URL;
// another account resolves the URL to metadata, accepts it and can
// then fetch the owner's record.
//
// Backends are in the sub-packages ldbstore (LevelDB, one host) and
// dynamo (DynamoDB).
package cloud
