// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coordinate

import (
	"fmt"
	"math"
	"time"

	"github.com/bitmark-inc/wya/fault"
)

// Coordinate - a geographic position in decimal degrees
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Sample - a sensor reading
type Sample struct {
	Coordinate
	Timestamp time.Time `json:"timestamp"`
}

// Zero - the neutral coordinate used to seed a new record
var Zero = Coordinate{}

// Validate - check both axes are finite and within range
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) {
		return fault.ErrInvalidCoordinate
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fault.ErrInvalidCoordinate
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fault.ErrInvalidCoordinate
	}
	return nil
}

// String - format for logging
func (c Coordinate) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", c.Latitude, c.Longitude)
}
