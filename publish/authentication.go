// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package publish

import (
	"sync"

	zmq "github.com/pebbe/zmq4"
)

var authentication struct {
	once sync.Once
	err  error
}

// StartAuthentication - start the ZAP handler needed for CURVE
//
// only the first call starts it, later calls return the same result
func StartAuthentication() error {
	authentication.once.Do(func() {
		zmq.AuthSetVerbose(false)
		authentication.err = zmq.AuthStart()
	})
	return authentication.err
}

// StopAuthentication - stop the ZAP handler after every secure socket is closed
func StopAuthentication() {
	zmq.AuthStop()
}
