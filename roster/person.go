// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package roster

import (
	"fmt"
	"time"

	"github.com/bitmark-inc/wya/coordinate"
)

// Self - identity reserved for the local device
const Self = "self"

// SelfDisplayName - how the local device is shown
const SelfDisplayName = "Me"

// Source - the path an update arrived by
type Source int

// the sources
const (
	SourceSelf Source = iota
	SourceCloud
	SourcePeer
)

var sourceNames = []string{"self", "cloud", "peer"}

// PersonState - last known state of one person
type PersonState struct {
	Identity   string                `json:"identity"`
	Coordinate coordinate.Coordinate `json:"coordinate"`
	Updated    time.Time             `json:"updated"`
	Source     Source                `json:"source"`
	Active     bool                  `json:"active"`
}

// DisplayName - the name to show for the person
func (p PersonState) DisplayName() string {
	if Self == p.Identity {
		return SelfDisplayName
	}
	return p.Identity
}

func (s Source) String() string {
	if s < 0 || int(s) >= len(sourceNames) {
		return fmt.Sprintf("source(%d)", int(s))
	}
	return sourceNames[s]
}

// MarshalText - JSON as the name
func (s Source) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(sourceNames) {
		return nil, fmt.Errorf("invalid source: %d", int(s))
	}
	return []byte(sourceNames[s]), nil
}

// UnmarshalText - from the name
func (s *Source) UnmarshalText(b []byte) error {
	for i, name := range sourceNames {
		if name == string(b) {
			*s = Source(i)
			return nil
		}
	}
	return fmt.Errorf("invalid source: %q", b)
}
