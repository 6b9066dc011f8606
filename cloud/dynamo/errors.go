// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dynamo

import (
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/bitmark-inc/wya/fault"
)

// cancellation reason codes of a transaction
const (
	reasonNone        = "None"
	reasonCondition   = "ConditionalCheckFailed"
	reasonConflict    = "TransactionConflict"
	reasonThrottling  = "ThrottlingError"
	reasonProvisioned = "ProvisionedThroughputExceeded"
)

// DynamoDB never advertises a retry delay, so busy errors carry zero
// and callers use their fallback delay
func busy() error {
	return fault.Busy(fault.ErrZoneBusy, 0)
}

// true if the error is a throttling or write conflict
func isBusy(err error) bool {
	var conflict *types.TransactionConflictException
	if errors.As(err, &conflict) {
		return true
	}
	var throughput *types.ProvisionedThroughputExceededException
	if errors.As(err, &throughput) {
		return true
	}
	var limit *types.RequestLimitExceeded
	if errors.As(err, &limit) {
		return true
	}
	var api smithy.APIError
	if errors.As(err, &api) && "ThrottlingException" == api.ErrorCode() {
		return true
	}
	return false
}

func isConditionFailed(err error) bool {
	var condition *types.ConditionalCheckFailedException
	return errors.As(err, &condition)
}

// the cancellation reason codes, nil if err is not a cancelled transaction
func cancellationReasons(err error) []string {
	var cancelled *types.TransactionCanceledException
	if !errors.As(err, &cancelled) {
		return nil
	}
	codes := make([]string, len(cancelled.CancellationReasons))
	for i, r := range cancelled.CancellationReasons {
		codes[i] = aws.ToString(r.Code)
		if "" == codes[i] {
			codes[i] = reasonNone
		}
	}
	return codes
}

// classify a failed transaction: busy if any item conflicted or was
// throttled, otherwise the error for the first failed condition
func classifyTransaction(err error, conditionErrors ...error) error {
	if isBusy(err) {
		return busy()
	}
	codes := cancellationReasons(err)
	if nil == codes {
		return err
	}
	for _, code := range codes {
		switch code {
		case reasonConflict, reasonThrottling, reasonProvisioned:
			return busy()
		}
	}
	for i, code := range codes {
		if reasonCondition == code && i < len(conditionErrors) {
			return conditionErrors[i]
		}
	}
	return err
}
