// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fixtures - shared test set up
package fixtures

import (
	"fmt"
	"io/ioutil"
	"os"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/wya/coordinate"
)

const (
	dir         = "testing"
	LogCategory = "testing"
)

// sample positions
var (
	SanFrancisco = coordinate.Coordinate{Latitude: 37.77, Longitude: -122.41}
	Taipei       = coordinate.Coordinate{Latitude: 25.03, Longitude: 121.56}
	TenTwenty    = coordinate.Coordinate{Latitude: 10, Longitude: 20}
)

// Epoch - a fixed base time for ordering tests
var Epoch = time.Date(2020, time.March, 1, 12, 0, 0, 0, time.UTC)

// SetupTestLogger - log to a scratch directory at critical level
func SetupTestLogger() {
	removeFiles()
	_ = os.Mkdir(dir, 0700)

	logging := logger.Configuration{
		Directory: dir,
		File:      fmt.Sprintf("%s.log", LogCategory),
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}

	// start logging
	_ = logger.Initialise(logging)
}

// TeardownTestLogger - close the log and remove its directory
func TeardownTestLogger() {
	logger.Finalise()
	removeFiles()
}

// TempDatabase - a fresh directory for a LevelDB database and a
// function to remove it
func TempDatabase(prefix string) (string, func()) {
	d, err := ioutil.TempDir("", prefix)
	if nil != err {
		panic(fmt.Sprintf("temporary directory error: %s", err))
	}
	return d, func() {
		_ = os.RemoveAll(d)
	}
}

func removeFiles() {
	err := os.RemoveAll(dir)
	if nil != err {
		fmt.Println("remove dir with error: ", err)
	}
}
