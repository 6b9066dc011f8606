// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package engine

import (
	"context"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/wya/background"
	"github.com/bitmark-inc/wya/cloud"
	"github.com/bitmark-inc/wya/coordinate"
	"github.com/bitmark-inc/wya/fault"
	"github.com/bitmark-inc/wya/messagebus"
	"github.com/bitmark-inc/wya/nearby"
	"github.com/bitmark-inc/wya/poller"
	"github.com/bitmark-inc/wya/record"
	"github.com/bitmark-inc/wya/roster"
	"github.com/bitmark-inc/wya/share"
)

// queue commands
const (
	cmdLocation   = "location"
	cmdApply      = "apply"
	cmdError      = "error"
	cmdRemove     = "remove"
	cmdClearError = "clear"
)

const (
	defaultLiveness       = 5 * time.Minute
	defaultExpireInterval = 30 * time.Second
	startupTimeout        = time.Minute
)

// Configuration - timing and sizes
type Configuration struct {
	// display name sent with every broadcast and stored in the record
	Name string

	PollInterval   time.Duration
	Liveness       time.Duration
	ExpireInterval time.Duration
	QueueSize      int // roster events, zero uses the message bus default
	OutboundSize   int

	Record record.Options
	Share  share.Options
}

// Engine - owner of every component and of the roster goroutine
type Engine struct {
	log  *logger.L
	name string

	db      cloud.Database
	queue   *messagebus.Queue
	roster  *roster.Roster
	records *record.Store
	shares  *share.Manager
	poller  *poller.Poller
	channel *nearby.Channel

	expireInterval time.Duration

	// closed when the engine stops accepting work
	stopping chan struct{}
	stopOnce sync.Once

	sync.Mutex
	background *background.T
}

// New - build the components around a cloud database and a nearby
// transport
func New(db cloud.Database, transport nearby.Transport, configuration Configuration) *Engine {
	liveness := configuration.Liveness
	if liveness <= 0 {
		liveness = defaultLiveness
	}
	expireInterval := configuration.ExpireInterval
	if expireInterval <= 0 {
		expireInterval = defaultExpireInterval
	}

	e := &Engine{
		log:            logger.New("engine"),
		name:           configuration.Name,
		db:             db,
		queue:          messagebus.New(configuration.QueueSize),
		expireInterval: expireInterval,
		stopping:       make(chan struct{}),
	}

	e.records = record.New(db, configuration.Name, configuration.Record)
	e.poller = poller.New(db, configuration.PollInterval, e.deliver, e.report)
	e.shares = share.New(db, e.records, e.poller, configuration.Share)
	e.channel = nearby.New(configuration.Name, transport, e.deliver, configuration.OutboundSize)
	e.roster = roster.New(liveness, e.records.Update, e.channel.Broadcast)

	return e
}

// Handler - the receiver of nearby transport events
func (e *Engine) Handler() nearby.Handler {
	return e.channel
}

// Start - run the roster goroutine and provision the record
func (e *Engine) Start() error {
	e.Lock()
	defer e.Unlock()

	select {
	case <-e.stopping:
		return fault.ErrNotInitialised
	default:
	}

	if nil != e.background {
		return fault.ErrAlreadyInitialised
	}

	processes := background.Processes{
		e,
		e.channel,
	}
	e.background = background.Start(processes, nil)

	go e.provision()
	return nil
}

// provision early so the first share does not wait for it
func (e *Engine) provision() {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	r, err := e.records.EnsureRecord(ctx)
	if nil != err {
		e.report(err)
		return
	}
	e.log.Infof("record: %s ready at: %s", r.ID, r.Coordinate())
}

// Run - the roster goroutine
func (e *Engine) Run(args interface{}, shutdown <-chan struct{}) {
	log := e.log
	log.Info("starting…")

	queue := e.queue.Chan()
	expiry := time.NewTicker(e.expireInterval)
	defer expiry.Stop()

loop:
	for {
		log.Debug("waiting…")
		select {
		case <-shutdown:
			break loop
		case item := <-queue:
			e.process(item)
		case <-expiry.C:
			expired := e.roster.Expire()
			if 0 != len(expired) {
				log.Infof("inactive: %v", expired)
			}
		}
	}
	log.Info("stopped")
}

func (e *Engine) process(item messagebus.Message) {
	switch item.Command {

	case cmdLocation:
		sample := item.Parameters.(coordinate.Sample)
		if !e.roster.SelfUpdate(sample.Coordinate, sample.Timestamp) {
			e.log.Debugf("location: %s at: %s superseded", sample.Coordinate, sample.Timestamp)
		}

	case cmdApply:
		e.roster.Apply(item.Parameters.(roster.PersonState))

	case cmdError:
		e.roster.SetError(item.Parameters.(error))

	case cmdRemove:
		e.roster.Remove(item.Parameters.(string))

	case cmdClearError:
		e.roster.ClearError()

	default:
		e.log.Warnf("unknown command: %q", item.Command)
	}
}

// post to the roster goroutine, false once stopping
func (e *Engine) post(command string, parameters interface{}) bool {
	select {
	case <-e.stopping:
		return false
	default:
	}
	return e.queue.SendUntil(command, parameters, e.stopping)
}

// remote update from the poller or the nearby channel
func (e *Engine) deliver(state roster.PersonState) {
	e.post(cmdApply, state)
}

// a failure to show the user, contention is retried elsewhere
func (e *Engine) report(err error) {
	if nil == err {
		return
	}
	e.post(cmdError, err)
}

// Stop - stop every component, safe to call repeatedly
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		e.log.Info("shutting down…")

		// workers first while the roster goroutine still drains the queue
		e.shares.Close()
		e.poller.Stop()
		e.records.Close()

		close(e.stopping)

		e.Lock()
		bg := e.background
		e.Unlock()
		bg.Stop()

		e.roster.Close()
		e.log.Info("finished")
		e.log.Flush()
	})
}
