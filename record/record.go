// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package record

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/wya/cloud"
	"github.com/bitmark-inc/wya/coordinate"
	"github.com/bitmark-inc/wya/fault"
)

const (
	defaultProvisionTimeout = 30 * time.Second
	defaultSaveTimeout      = 30 * time.Second

	provisionKey = "provision"
)

// Options - timing for the store
type Options struct {
	// minimum time between two saves, zero for no limit
	UpdateInterval time.Duration

	// limit on one complete provisioning attempt
	ProvisionTimeout time.Duration
}

// Store - owner of the account's location record
type Store struct {
	sync.Mutex

	log       *logger.L
	db        cloud.Database
	ownerName string
	limiter   *rate.Limiter
	options   Options
	group     singleflight.Group

	// lifetime of background saves
	ctx    context.Context
	cancel context.CancelFunc
	saving sync.WaitGroup

	record  *cloud.Record
	pending *coordinate.Coordinate
	active  bool
}

// New - create the store for the database's account
func New(db cloud.Database, ownerName string, options Options) *Store {
	if options.ProvisionTimeout <= 0 {
		options.ProvisionTimeout = defaultProvisionTimeout
	}

	limit := rate.Inf
	if options.UpdateInterval > 0 {
		limit = rate.Every(options.UpdateInterval)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Store{
		log:       logger.New("record"),
		db:        db,
		ownerName: ownerName,
		limiter:   rate.NewLimiter(limit, 1),
		options:   options,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Record - copy of the cached record, nil before provisioning
func (s *Store) Record() *cloud.Record {
	s.Lock()
	defer s.Unlock()
	return s.record.Copy()
}

// EnsureRecord - provision the zone and the record if necessary
//
// concurrent callers share one provisioning attempt, which is not
// abandoned when a caller's context ends
func (s *Store) EnsureRecord(ctx context.Context) (*cloud.Record, error) {
	if r := s.Record(); nil != r {
		return r, nil
	}

	c := s.group.DoChan(provisionKey, func() (interface{}, error) {
		return s.provision()
	})

	select {
	case result := <-c:
		if nil != result.Err {
			return nil, result.Err
		}
		return result.Val.(*cloud.Record).Copy(), nil
	case <-ctx.Done():
		if context.DeadlineExceeded == ctx.Err() {
			return nil, fault.ErrProvisioningTimeout
		}
		return nil, ctx.Err()
	}
}

// zone first, then fetch or create the record
func (s *Store) provision() (*cloud.Record, error) {

	if r := s.Record(); nil != r {
		return r, nil
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.options.ProvisionTimeout)
	defer cancel()

	owner := s.db.Account()
	zone := cloud.LocationZoneOf(owner)

	err := s.db.SaveZone(ctx, zone)
	if nil != err && !fault.IsErrExists(err) {
		s.log.Errorf("zone: %s  error: %s", zone, err)
		return nil, fault.Wrap(fault.ErrZoneFailed, err)
	}

	id := cloud.LocationRecordOf(owner)
	r, err := s.db.FetchRecord(ctx, id)
	if fault.IsErrNotFound(err) {
		s.log.Infof("record: %s not found, creating", id)
		r, err = s.db.SaveRecord(ctx, cloud.NewRecord(owner, s.ownerName))

		// created elsewhere in the meantime
		if fault.IsErrContention(err) {
			r, err = s.db.FetchRecord(ctx, id)
		}
		if nil != err {
			s.log.Errorf("record: %s  create error: %s", id, err)
			return nil, fault.Wrap(fault.ErrRecordCreateFailed, err)
		}
	} else if nil != err {
		s.log.Errorf("record: %s  fetch error: %s", id, err)
		return nil, fault.Wrap(fault.ErrFetchFailed, err)
	}

	s.log.Infof("record: %s  etag: %s  at: %s", id, r.ETag, r.Coordinate())

	s.Lock()
	if nil == s.record {
		s.record = r.Copy()
	}
	cached := s.record.Copy()
	s.Unlock()

	return cached, nil
}

// Update - save a new position in the background
//
// samples arriving while a save is running are coalesced so only the
// newest is written next; failures are logged and not retried
func (s *Store) Update(c coordinate.Coordinate) {
	if err := c.Validate(); nil != err {
		s.log.Warnf("update: %s  error: %s", c, err)
		return
	}

	s.Lock()
	defer s.Unlock()

	if nil != s.ctx.Err() {
		return
	}

	s.pending = &c
	if s.active {
		return
	}
	s.active = true
	s.saving.Add(1)
	go s.saveLoop()
}

func (s *Store) saveLoop() {
	defer s.saving.Done()

	for {
		s.Lock()
		c := s.pending
		s.pending = nil
		if nil == c || nil != s.ctx.Err() {
			s.active = false
			s.Unlock()
			return
		}
		s.Unlock()

		err := s.limiter.Wait(s.ctx)
		if nil != err {
			continue
		}

		// a newer sample may have arrived during the wait
		s.Lock()
		if nil != s.pending {
			c = s.pending
			s.pending = nil
		}
		s.Unlock()

		s.save(*c)
	}
}

func (s *Store) save(c coordinate.Coordinate) {
	ctx, cancel := context.WithTimeout(s.ctx, defaultSaveTimeout)
	defer cancel()

	r, err := s.EnsureRecord(ctx)
	if nil != err {
		s.log.Warnf("update: %s dropped, no record: %s", c, err)
		return
	}

	r.Latitude = c.Latitude
	r.Longitude = c.Longitude
	if "" == r.OwnerName {
		r.OwnerName = s.ownerName
	}

	saved, err := s.db.SaveRecord(ctx, r)
	if nil == err {
		s.Lock()
		s.record = saved.Copy()
		s.Unlock()
		s.log.Debugf("update: %s saved  etag: %s", c, saved.ETag)
		return
	}

	s.log.Warnf("update: %s  error: %s", c, err)

	if !fault.IsErrContention(err) {
		return
	}

	// the cached revision is stale, refresh it so the next update applies
	fetched, err := s.db.FetchRecord(ctx, r.ID)
	if nil != err {
		s.log.Warnf("refresh: %s  error: %s", r.ID, err)
		return
	}
	s.Lock()
	s.record = fetched.Copy()
	s.Unlock()
	s.log.Infof("refresh: %s  etag: %s", r.ID, fetched.ETag)
}

// Wait - block until no background save is running
func (s *Store) Wait() {
	s.saving.Wait()
}

// Close - abandon pending saves and wait for a running one to end
func (s *Store) Close() {
	s.Lock()
	s.cancel()
	s.pending = nil
	s.Unlock()
	s.saving.Wait()
}
