// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package poller

import (
	"context"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/wya/cloud"
	"github.com/bitmark-inc/wya/fault"
	"github.com/bitmark-inc/wya/roster"
)

const (
	// DefaultInterval - time between two fetches
	DefaultInterval = 15 * time.Second

	fetchTimeout = 30 * time.Second
)

// Deliver - receives each changed record as a roster update
type Deliver func(roster.PersonState)

// Report - receives each fetch failure
type Report func(error)

type subscription struct {
	id       cloud.RecordID
	identity string
	etag     string
}

// Poller - periodic fetch of one shared record
type Poller struct {
	log      *logger.L
	db       cloud.Database
	interval time.Duration
	deliver  Deliver
	report   Report

	// serialises Subscribe and Stop
	control sync.Mutex

	sync.Mutex
	current *subscription
	cancel  context.CancelFunc
	done    chan struct{}
}

// New - create an idle poller
func New(db cloud.Database, interval time.Duration, deliver Deliver, report Report) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		log:      logger.New("poller"),
		db:       db,
		interval: interval,
		deliver:  deliver,
		report:   report,
	}
}

// Subscribe - start polling a record, stopping any previous loop
//
// identity names the roster entry; an initial record is delivered at
// once and the first fetch waits a full interval, without one the
// first fetch is immediate
func (p *Poller) Subscribe(id cloud.RecordID, identity string, initial *cloud.Record) {
	p.control.Lock()
	defer p.control.Unlock()

	p.stop()

	sub := &subscription{
		id:       id,
		identity: identity,
	}
	if "" == sub.identity {
		sub.identity = id.Zone.Owner
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	p.Lock()
	p.current = sub
	p.cancel = cancel
	p.done = done
	p.Unlock()

	p.log.Infof("subscribe: %s as: %q  interval: %s", id, sub.identity, p.interval)

	immediate := true
	if nil != initial {
		if state, ok := p.changed(sub, initial); ok {
			p.deliver(*state)
		}
		immediate = false
	}

	go p.run(ctx, sub, immediate, done)
}

// Subscribed - the record being polled
func (p *Poller) Subscribed() (cloud.RecordID, bool) {
	p.Lock()
	defer p.Unlock()
	if nil == p.current {
		return cloud.RecordID{}, false
	}
	return p.current.id, true
}

// Stop - end polling, no fetch runs after this returns
//
// safe to call repeatedly
func (p *Poller) Stop() {
	p.control.Lock()
	defer p.control.Unlock()

	p.stop()
}

func (p *Poller) stop() {
	p.Lock()
	cancel := p.cancel
	done := p.done
	id := p.current
	p.cancel = nil
	p.done = nil
	p.current = nil
	p.Unlock()

	if nil == cancel {
		return
	}
	cancel()
	<-done

	p.log.Infof("stopped: %s", id.id)
}

// Tick - one fetch of the subscribed record
//
// returns the new state only if the record changed since the last
// fetch; failures are reported and leave the subscription in place
func (p *Poller) Tick(ctx context.Context) (*roster.PersonState, bool) {
	p.Lock()
	sub := p.current
	p.Unlock()

	if nil == sub {
		return nil, false
	}
	return p.tick(ctx, sub)
}

func (p *Poller) tick(ctx context.Context, sub *subscription) (*roster.PersonState, bool) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	r, err := p.db.FetchSharedRecord(ctx, sub.id)
	if nil != err {
		if nil != ctx.Err() {
			return nil, false
		}
		p.log.Warnf("fetch: %s  error: %s", sub.id, err)
		if nil != p.report {
			p.report(fault.Wrap(fault.ErrRootFetchFailed, err))
		}
		return nil, false
	}
	return p.changed(sub, r)
}

// compare with the last seen revision
func (p *Poller) changed(sub *subscription, r *cloud.Record) (*roster.PersonState, bool) {
	p.Lock()
	defer p.Unlock()

	if r.ETag == sub.etag {
		p.log.Debugf("fetch: %s unchanged  etag: %s", sub.id, r.ETag)
		return nil, false
	}
	sub.etag = r.ETag

	p.log.Debugf("fetch: %s  etag: %s  at: %s", sub.id, r.ETag, r.Coordinate())
	return &roster.PersonState{
		Identity:   sub.identity,
		Coordinate: r.Coordinate(),
		Updated:    r.Modified,
		Source:     roster.SourceCloud,
	}, true
}

func (p *Poller) run(ctx context.Context, sub *subscription, immediate bool, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	if immediate {
		p.poll(ctx, sub)
	}

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			p.poll(ctx, sub)
		}
	}
}

func (p *Poller) poll(ctx context.Context, sub *subscription) {
	state, ok := p.tick(ctx, sub)
	if !ok || nil != ctx.Err() {
		return
	}
	p.deliver(*state)
}
