// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

import (
	"errors"
	"fmt"
	"time"
)

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type ExistsError GenericError
type InvalidError GenericError
type NotFoundError GenericError
type ProcessError GenericError

// the synchronisation failure classes
type ProvisioningError GenericError
type ContentionError GenericError
type ShareError GenericError
type AcceptanceError GenericError
type TransportError GenericError
type DecodeError GenericError

// common errors - keep in alphabetic order
var (
	ErrAcceptFailed            = AcceptanceError("share acceptance failed")
	ErrAlreadyInitialised      = ProcessError("already initialised")
	ErrCannotRemoveSelf        = InvalidError("cannot remove the local device")
	ErrCertificateFileExists   = ExistsError("certificate file already exists")
	ErrCloudBackendUnknown     = InvalidError("cloud backend is not recognised")
	ErrFetchFailed             = ProvisioningError("location record fetch failed")
	ErrInvalidCoordinate       = InvalidError("coordinate is out of range")
	ErrInvalidDataDirectory    = InvalidError("invalid data directory")
	ErrInvalidDuration         = InvalidError("invalid duration")
	ErrInvalidKeyFile          = InvalidError("invalid key file")
	ErrInvalidLoggerChannel    = InvalidError("invalid logger channel")
	ErrInvalidLink             = AcceptanceError("invitation link is invalid")
	ErrInvalidStructPointer    = InvalidError("invalid struct pointer")
	ErrInvitationAlreadyQueued = ExistsError("invitation is already queued")
	ErrKeyFileAlreadyExists    = ExistsError("key file already exists")
	ErrMalformedPayload        = DecodeError("malformed location payload")
	ErrMetadataFailed          = AcceptanceError("share metadata resolution failed")
	ErrMissingListen           = InvalidError("missing listen address")
	ErrMissingName             = InvalidError("missing display name")
	ErrNoPeers                 = TransportError("no connected peers")
	ErrNotConfigurationTable   = InvalidError("configuration file must return a table")
	ErrNotInitialised          = ProcessError("not initialised")
	ErrNotShared               = NotFoundError("record is not shared with this account")
	ErrOutboundQueueFull       = TransportError("outbound queue is full")
	ErrProvisioningTimeout     = ProvisioningError("location record provisioning timed out")
	ErrRateLimiting            = ProcessError("rate limiting")
	ErrRecordChanged           = ContentionError("record was changed by another writer")
	ErrRecordCreateFailed      = ProvisioningError("location record creation failed")
	ErrRecordNotFound          = NotFoundError("record not found")
	ErrRootFetchFailed         = AcceptanceError("shared record fetch failed")
	ErrShareCreateFailed       = ShareError("share creation failed")
	ErrShareInProgress         = ProcessError("share creation in progress")
	ErrShareNotFound           = NotFoundError("share not found")
	ErrShareRevoked            = AcceptanceError("share has been revoked")
	ErrTooManyConnections      = ProcessError("too many connections")
	ErrZoneBusy                = ContentionError("zone is busy")
	ErrZoneExists              = ExistsError("zone already exists")
	ErrZoneFailed              = ProvisioningError("zone creation failed")
	ErrZoneNotFound            = NotFoundError("zone not found")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ExistsError) Error() string       { return string(e) }
func (e InvalidError) Error() string      { return string(e) }
func (e NotFoundError) Error() string     { return string(e) }
func (e ProcessError) Error() string      { return string(e) }
func (e ProvisioningError) Error() string { return string(e) }
func (e ContentionError) Error() string   { return string(e) }
func (e ShareError) Error() string        { return string(e) }
func (e AcceptanceError) Error() string   { return string(e) }
func (e TransportError) Error() string    { return string(e) }
func (e DecodeError) Error() string       { return string(e) }

// determine the class of an error, looking through any wrapping
func IsErrExists(e error) bool       { var x ExistsError; return errors.As(e, &x) }
func IsErrInvalid(e error) bool      { var x InvalidError; return errors.As(e, &x) }
func IsErrNotFound(e error) bool     { var x NotFoundError; return errors.As(e, &x) }
func IsErrProcess(e error) bool      { var x ProcessError; return errors.As(e, &x) }
func IsErrProvisioning(e error) bool { var x ProvisioningError; return errors.As(e, &x) }
func IsErrContention(e error) bool   { var x ContentionError; return errors.As(e, &x) }
func IsErrShare(e error) bool        { var x ShareError; return errors.As(e, &x) }
func IsErrAcceptance(e error) bool   { var x AcceptanceError; return errors.As(e, &x) }
func IsErrTransport(e error) bool    { var x TransportError; return errors.As(e, &x) }
func IsErrDecode(e error) bool       { var x DecodeError; return errors.As(e, &x) }

// BusyError - a contention failure carrying the delay advertised by the server
type BusyError struct {
	Cause ContentionError
	After time.Duration
}

func (e *BusyError) Error() string {
	if e.After > 0 {
		return fmt.Sprintf("%s: retry after %s", e.Cause, e.After)
	}
	return string(e.Cause)
}

func (e *BusyError) Unwrap() error { return e.Cause }

// Busy - contention error with an advertised retry delay, zero when
// the server did not advertise one
func Busy(cause ContentionError, after time.Duration) error {
	return &BusyError{Cause: cause, After: after}
}

// RetryAfter - report whether err is a contention failure and the
// delay the server advised before retrying
func RetryAfter(err error) (time.Duration, bool) {
	var busy *BusyError
	if errors.As(err, &busy) {
		return busy.After, true
	}
	if IsErrContention(err) {
		return 0, true
	}
	return 0, false
}

// classified pairs an error class with its underlying cause
type classified struct {
	class error
	cause error
}

func (e *classified) Error() string {
	return e.class.Error() + ": " + e.cause.Error()
}

func (e *classified) Unwrap() []error { return []error{e.class, e.cause} }

// Wrap - attach a class to an underlying error so that both the class
// predicates and errors.Is/As on the cause keep working
func Wrap(class error, cause error) error {
	if nil == cause {
		return class
	}
	return &classified{class: class, cause: cause}
}
