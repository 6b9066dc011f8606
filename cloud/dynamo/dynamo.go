// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dynamo

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/wya/cloud"
	"github.com/bitmark-inc/wya/fault"
)

// API - the DynamoDB operations used by the store
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Configuration - connection settings
type Configuration struct {
	Table    string `gluamapper:"table" json:"table"`
	Region   string `gluamapper:"region" json:"region"`
	Endpoint string `gluamapper:"endpoint" json:"endpoint"`
}

// Store - cloud records kept in a single DynamoDB table
type Store struct {
	log   *logger.L
	api   API
	table string
	now   func() time.Time
}

// New - connect using the default AWS credential chain
//
// the SDK does not retry: contention is handled by the callers
func New(ctx context.Context, configuration *Configuration) (*Store, error) {
	if nil == configuration || "" == configuration.Table {
		return nil, fault.ErrCloudBackendUnknown
	}

	options := []func(*config.LoadOptions) error{
		config.WithRetryMaxAttempts(1),
	}
	if "" != configuration.Region {
		options = append(options, config.WithRegion(configuration.Region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, options...)
	if nil != err {
		return nil, err
	}

	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if "" != configuration.Endpoint {
			o.BaseEndpoint = aws.String(configuration.Endpoint)
		}
	})

	s := NewWithAPI(client, configuration.Table)
	s.log.Infof("table: %s  region: %s  endpoint: %q", configuration.Table, cfg.Region, configuration.Endpoint)
	return s, nil
}

// NewWithAPI - a store on an existing client
func NewWithAPI(api API, table string) *Store {
	return &Store{
		log:   logger.New("dynamo"),
		api:   api,
		table: table,
		now:   time.Now,
	}
}

// Account - a cloud database scoped to one account
func (s *Store) Account(owner string) cloud.Database {
	return &account{
		store: s,
		owner: owner,
	}
}
