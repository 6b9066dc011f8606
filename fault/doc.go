// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fault - error instances
//
// Provides a single instance of errors to allow easy comparison
// without having to resort to partial string matches.
//
// Each class of failure is its own type so a caller can branch on the
// class (IsErrContention, IsErrAcceptance, …) while the instance still
// names the exact failure.  Wrap attaches a class to a lower level
// error from a cloud backend or transport.
package fault
