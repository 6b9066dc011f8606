// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package people

import (
	"strings"
	"time"

	"github.com/bitmark-inc/logger"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/wya/fault"
	"github.com/bitmark-inc/wya/roster"
	"github.com/bitmark-inc/wya/rpc/ratelimit"
)

const (
	rateLimitRoster = 20
	rateBurstRoster = 40
)

// Directory - the roster operations exposed to clients
type Directory interface {
	Roster() []roster.PersonState
	Remove(string) error
}

// Roster - type for RPC calls
type Roster struct {
	Log       *logger.L
	Limiter   *rate.Limiter
	directory Directory
}

// New - create roster handler
func New(log *logger.L, directory Directory) *Roster {
	return &Roster{
		Log:       log,
		Limiter:   ratelimit.New(rateLimitRoster, rateBurstRoster),
		directory: directory,
	}
}

// Person - one roster entry as shown to a client
type Person struct {
	Identity  string    `json:"identity"`
	Name      string    `json:"name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Updated   time.Time `json:"updated"`
	Source    string    `json:"source"`
	Active    bool      `json:"active"`
}

// ---

// ListArguments - arguments for RPC
type ListArguments struct{}

// ListReply - result from RPC
type ListReply struct {
	People []Person `json:"people"`
}

// List - every known person, the local device first
func (r *Roster) List(arguments *ListArguments, reply *ListReply) error {
	if err := ratelimit.Limit(r.Limiter); nil != err {
		return err
	}

	snapshot := r.directory.Roster()
	people := make([]Person, 0, len(snapshot))
	for _, p := range snapshot {
		people = append(people, Person{
			Identity:  p.Identity,
			Name:      p.DisplayName(),
			Latitude:  p.Coordinate.Latitude,
			Longitude: p.Coordinate.Longitude,
			Updated:   p.Updated.UTC(),
			Source:    p.Source.String(),
			Active:    p.Active,
		})
	}
	reply.People = people
	return nil
}

// ---

// RemoveArguments - arguments for RPC
type RemoveArguments struct {
	Identity string `json:"identity"`
}

// RemoveReply - result from RPC
type RemoveReply struct{}

// Remove - forget a person until they are heard from again
func (r *Roster) Remove(arguments *RemoveArguments, reply *RemoveReply) error {
	if nil == arguments || "" == strings.TrimSpace(arguments.Identity) {
		return fault.ErrMissingName
	}

	if err := ratelimit.Limit(r.Limiter); nil != err {
		return err
	}

	identity := strings.TrimSpace(arguments.Identity)
	if roster.SelfDisplayName == identity {
		identity = roster.Self
	}

	r.Log.Infof("remove: %q", identity)
	return r.directory.Remove(identity)
}
