// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ldbstore

import (
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/bitmark-inc/wya/cloud"
)

const (
	defaultTimeout    = 1 * time.Minute
	defaultExpiration = 2 * time.Minute
)

// decoded records by database key
type recordCache struct {
	cache *cache.Cache
}

func newRecordCache() *recordCache {
	return &recordCache{
		cache: cache.New(defaultExpiration, defaultTimeout),
	}
}

// a copy of the cached record
func (c *recordCache) get(key []byte) (*cloud.Record, bool) {
	obj, found := c.cache.Get(string(key))
	if !found {
		return nil, false
	}
	return obj.(*cloud.Record).Copy(), true
}

func (c *recordCache) set(key []byte, record *cloud.Record) {
	c.cache.Set(string(key), record.Copy(), defaultExpiration)
}

func (c *recordCache) clear() {
	c.cache.Flush()
}
