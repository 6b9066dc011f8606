// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package share

// State - progress of the outgoing share
type State int

// outgoing states
const (
	NoRecord State = iota
	Provisioning
	Ready
	CreatingShare
	Busy
	ShareReady
)

// IncomingState - progress of the latest invitation acceptance
type IncomingState int

// incoming states
const (
	Idle IncomingState = iota
	ResolvingMetadata
	Accepting
	FetchingRootRecord
	Subscribed
)

func (s State) String() string {
	switch s {
	case NoRecord:
		return "NoRecord"
	case Provisioning:
		return "Provisioning"
	case Ready:
		return "Ready"
	case CreatingShare:
		return "CreatingShare"
	case Busy:
		return "Busy"
	case ShareReady:
		return "ShareReady"
	default:
		return "*unknown*"
	}
}

func (s IncomingState) String() string {
	switch s {
	case Idle:
		return "Idle"
	case ResolvingMetadata:
		return "ResolvingMetadata"
	case Accepting:
		return "Accepting"
	case FetchingRootRecord:
		return "FetchingRootRecord"
	case Subscribed:
		return "Subscribed"
	default:
		return "*unknown*"
	}
}
