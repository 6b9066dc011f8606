// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package inbox - invitation links dropped into a file
//
// Whatever opens links on the host appends the invitation URL as a
// line to the drop file; every complete, non-empty line appended after
// start up is accepted once.
package inbox
