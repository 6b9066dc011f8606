// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package roster

import (
	"sort"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/wya/coordinate"
	"github.com/bitmark-inc/wya/messagebus"
)

// change notification commands
const (
	ChangeUpdate = "update"
	ChangeRemove = "remove"
	ChangeError  = "error"
	ChangeExpire = "expire"
)

// Sink - receives every accepted position of the local device
type Sink func(coordinate.Coordinate)

// Roster - merged state of every known person
type Roster struct {
	sync.RWMutex

	log      *logger.L
	people   map[string]PersonState
	sinks    []Sink
	changes  messagebus.BroadcastQueue
	liveness time.Duration
	now      func() time.Time

	lastError error
}

// New - empty roster, a person not updated within liveness is
// inactive; zero keeps everyone active
func New(liveness time.Duration, sinks ...Sink) *Roster {
	return &Roster{
		log:      logger.New("roster"),
		people:   make(map[string]PersonState),
		sinks:    sinks,
		liveness: liveness,
		now:      time.Now,
	}
}

// AddSink - add a receiver of self updates
func (r *Roster) AddSink(sink Sink) {
	r.Lock()
	r.sinks = append(r.sinks, sink)
	r.Unlock()
}

// Apply - last write wins: an update replaces the stored state only
// if it is not older, regardless of its source
//
// returns true if the roster changed
func (r *Roster) Apply(update PersonState) bool {
	if "" == update.Identity {
		r.log.Warn("apply: empty identity")
		return false
	}

	r.Lock()
	existing, ok := r.people[update.Identity]
	if ok && update.Updated.Before(existing.Updated) {
		r.Unlock()
		r.log.Debugf("apply: %s  %s update at: %s older than: %s", update.Identity, update.Source, update.Updated, existing.Updated)
		return false
	}
	update.Active = r.isActive(update.Updated)
	r.people[update.Identity] = update
	r.Unlock()

	r.log.Debugf("apply: %s  %s  at: %s  source: %s", update.Identity, update.Coordinate, update.Updated, update.Source)
	r.changes.Send(ChangeUpdate, update)
	return true
}

// SelfUpdate - record the local position and pass it to every sink
func (r *Roster) SelfUpdate(c coordinate.Coordinate, at time.Time) bool {
	applied := r.Apply(PersonState{
		Identity:   Self,
		Coordinate: c,
		Updated:    at,
		Source:     SourceSelf,
	})
	if !applied {
		return false
	}

	r.RLock()
	sinks := make([]Sink, len(r.sinks))
	copy(sinks, r.sinks)
	r.RUnlock()

	for _, sink := range sinks {
		sink(c)
	}
	return true
}

// Get - state of one person
func (r *Roster) Get(identity string) (PersonState, bool) {
	r.RLock()
	defer r.RUnlock()
	p, ok := r.people[identity]
	return p, ok
}

// Snapshot - copy of all entries, self first then by identity
func (r *Roster) Snapshot() []PersonState {
	r.RLock()
	people := make([]PersonState, 0, len(r.people))
	for _, p := range r.people {
		people = append(people, p)
	}
	r.RUnlock()

	sort.Slice(people, func(i, j int) bool {
		if Self == people[i].Identity {
			return true
		}
		if Self == people[j].Identity {
			return false
		}
		return people[i].Identity < people[j].Identity
	})
	return people
}

// Remove - forget a person, later updates may add them again
func (r *Roster) Remove(identity string) bool {
	r.Lock()
	p, ok := r.people[identity]
	if ok {
		delete(r.people, identity)
	}
	r.Unlock()

	if ok {
		r.log.Infof("remove: %s", identity)
		r.changes.Send(ChangeRemove, p)
	}
	return ok
}

// SetError - record the most recent failure
func (r *Roster) SetError(err error) {
	if nil == err {
		return
	}
	r.Lock()
	r.lastError = err
	r.Unlock()

	r.log.Warnf("error: %s", err)
	r.changes.Send(ChangeError, err)
}

// LastError - the most recent failure, nil if none
func (r *Roster) LastError() error {
	r.RLock()
	defer r.RUnlock()
	return r.lastError
}

// ClearError - forget the recorded failure
func (r *Roster) ClearError() {
	r.Lock()
	r.lastError = nil
	r.Unlock()
}

// Expire - mark people not updated within the liveness window as
// inactive, returns their identities
func (r *Roster) Expire() []string {
	if r.liveness <= 0 {
		return nil
	}

	expired := make([]PersonState, 0)

	r.Lock()
	for identity, p := range r.people {
		if p.Active && !r.isActive(p.Updated) {
			p.Active = false
			r.people[identity] = p
			expired = append(expired, p)
		}
	}
	r.Unlock()

	identities := make([]string, len(expired))
	for i, p := range expired {
		identities[i] = p.Identity
		r.log.Debugf("expire: %s  last update: %s", p.Identity, p.Updated)
		r.changes.Send(ChangeExpire, p)
	}
	sort.Strings(identities)
	return identities
}

// Subscribe - a channel of change notifications
func (r *Roster) Subscribe(size int) <-chan messagebus.Message {
	return r.changes.Chan(size)
}

// Unsubscribe - release a subscription channel
func (r *Roster) Unsubscribe(c <-chan messagebus.Message) {
	r.changes.Release(c)
}

// Close - close all subscription channels
func (r *Roster) Close() {
	r.changes.Close()
}

func (r *Roster) isActive(updated time.Time) bool {
	if r.liveness <= 0 {
		return true
	}
	return r.now().Sub(updated) < r.liveness
}
