// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/wya/fault"
)

var (
	ErrExistsOne       = fault.ExistsError("exists one")
	ErrInvalidOne      = fault.InvalidError("invalid one")
	ErrNotFoundOne     = fault.NotFoundError("not found one")
	ErrProcessOne      = fault.ProcessError("process one")
	ErrProvisioningOne = fault.ProvisioningError("provisioning one")
	ErrContentionOne   = fault.ContentionError("contention one")
	ErrShareOne        = fault.ShareError("share one")
	ErrAcceptanceOne   = fault.AcceptanceError("acceptance one")
	ErrTransportOne    = fault.TransportError("transport one")
	ErrDecodeOne       = fault.DecodeError("decode one")
)

// test that the various errors classify only as themselves
func TestClasses(t *testing.T) {
	errorList := []struct {
		err          error
		exists       bool
		invalid      bool
		notFound     bool
		process      bool
		provisioning bool
		contention   bool
		share        bool
		acceptance   bool
		transport    bool
		decode       bool
	}{
		{ErrExistsOne, true, false, false, false, false, false, false, false, false, false},
		{ErrInvalidOne, false, true, false, false, false, false, false, false, false, false},
		{ErrNotFoundOne, false, false, true, false, false, false, false, false, false, false},
		{ErrProcessOne, false, false, false, true, false, false, false, false, false, false},
		{ErrProvisioningOne, false, false, false, false, true, false, false, false, false, false},
		{ErrContentionOne, false, false, false, false, false, true, false, false, false, false},
		{ErrShareOne, false, false, false, false, false, false, true, false, false, false},
		{ErrAcceptanceOne, false, false, false, false, false, false, false, true, false, false},
		{ErrTransportOne, false, false, false, false, false, false, false, false, true, false},
		{ErrDecodeOne, false, false, false, false, false, false, false, false, false, true},
	}

	for i, e := range errorList {
		err := e.err
		if fault.IsErrExists(err) != e.exists {
			t.Errorf("%d: expected 'exists' == %v for err = %v", i, e.exists, err)
		}
		if fault.IsErrInvalid(err) != e.invalid {
			t.Errorf("%d: expected 'invalid' == %v for err = %v", i, e.invalid, err)
		}
		if fault.IsErrNotFound(err) != e.notFound {
			t.Errorf("%d: expected 'not found' == %v for err = %v", i, e.notFound, err)
		}
		if fault.IsErrProcess(err) != e.process {
			t.Errorf("%d: expected 'process' == %v for err = %v", i, e.process, err)
		}
		if fault.IsErrProvisioning(err) != e.provisioning {
			t.Errorf("%d: expected 'provisioning' == %v for err = %v", i, e.provisioning, err)
		}
		if fault.IsErrContention(err) != e.contention {
			t.Errorf("%d: expected 'contention' == %v for err = %v", i, e.contention, err)
		}
		if fault.IsErrShare(err) != e.share {
			t.Errorf("%d: expected 'share' == %v for err = %v", i, e.share, err)
		}
		if fault.IsErrAcceptance(err) != e.acceptance {
			t.Errorf("%d: expected 'acceptance' == %v for err = %v", i, e.acceptance, err)
		}
		if fault.IsErrTransport(err) != e.transport {
			t.Errorf("%d: expected 'transport' == %v for err = %v", i, e.transport, err)
		}
		if fault.IsErrDecode(err) != e.decode {
			t.Errorf("%d: expected 'decode' == %v for err = %v", i, e.decode, err)
		}
	}
}

func TestWrapKeepsClassAndCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := fault.Wrap(fault.ErrZoneFailed, cause)

	assert.True(t, fault.IsErrProvisioning(err), "class lost")
	assert.True(t, errors.Is(err, cause), "cause lost")
	assert.True(t, errors.Is(err, fault.ErrZoneFailed), "instance lost")
	assert.Equal(t, "zone creation failed: connection reset", err.Error(), "wrong message")

	wrapped := fmt.Errorf("ensure: %w", err)
	assert.True(t, fault.IsErrProvisioning(wrapped), "class lost through fmt wrapping")
}

func TestWrapNilCause(t *testing.T) {
	assert.Equal(t, fault.ErrShareCreateFailed, fault.Wrap(fault.ErrShareCreateFailed, nil), "nil cause should return class")
}

func TestRetryAfter(t *testing.T) {
	d, ok := fault.RetryAfter(fault.Busy(fault.ErrZoneBusy, 3*time.Second))
	assert.True(t, ok, "busy not detected")
	assert.Equal(t, 3*time.Second, d, "wrong delay")

	d, ok = fault.RetryAfter(fmt.Errorf("save share: %w", fault.Busy(fault.ErrZoneBusy, 0)))
	assert.True(t, ok, "wrapped busy not detected")
	assert.Equal(t, time.Duration(0), d, "unexpected delay")

	d, ok = fault.RetryAfter(fault.ErrRecordChanged)
	assert.True(t, ok, "plain contention not detected")
	assert.Equal(t, time.Duration(0), d, "unexpected delay")

	_, ok = fault.RetryAfter(fault.ErrShareCreateFailed)
	assert.False(t, ok, "share failure must not be retryable")

	assert.True(t, fault.IsErrContention(fault.Busy(fault.ErrZoneBusy, time.Second)), "busy must be contention")
}
