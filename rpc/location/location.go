// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package location

import (
	"time"

	"github.com/bitmark-inc/logger"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/wya/coordinate"
	"github.com/bitmark-inc/wya/rpc/ratelimit"
)

// a sensor may report about once a second
const (
	rateLimitLocation = 5
	rateBurstLocation = 10
)

// Sensor - accepts position samples
type Sensor interface {
	ReportLocation(coordinate.Sample) error
}

// Location - type for RPC calls
type Location struct {
	Log     *logger.L
	Limiter *rate.Limiter
	sensor  Sensor
}

// New - create location handler
func New(log *logger.L, sensor Sensor) *Location {
	return &Location{
		Log:     log,
		Limiter: ratelimit.New(rateLimitLocation, rateBurstLocation),
		sensor:  sensor,
	}
}

// ---

// ReportArguments - arguments for RPC
//
// a zero timestamp means now
type ReportArguments struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

// ReportReply - result from RPC
type ReportReply struct{}

// Report - a new position for this device
func (l *Location) Report(arguments *ReportArguments, reply *ReportReply) error {
	if err := ratelimit.Limit(l.Limiter); nil != err {
		return err
	}

	sample := coordinate.Sample{
		Coordinate: coordinate.Coordinate{
			Latitude:  arguments.Latitude,
			Longitude: arguments.Longitude,
		},
		Timestamp: arguments.Timestamp,
	}

	if err := l.sensor.ReportLocation(sample); nil != err {
		l.Log.Debugf("report location error: %s", err)
		return err
	}
	return nil
}
