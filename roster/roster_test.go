// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package roster_test

import (
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/wya/coordinate"
	"github.com/bitmark-inc/wya/fixtures"
	"github.com/bitmark-inc/wya/roster"
)

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	rc := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(rc)
}

func person(identity string, c coordinate.Coordinate, offset time.Duration, source roster.Source) roster.PersonState {
	return roster.PersonState{
		Identity:   identity,
		Coordinate: c,
		Updated:    fixtures.Epoch.Add(offset),
		Source:     source,
	}
}

func TestApplyInsert(t *testing.T) {
	r := roster.New(0)

	assert.True(t, r.Apply(person("A", fixtures.TenTwenty, 0, roster.SourcePeer)), "insert")
	p, ok := r.Get("A")
	assert.True(t, ok, "not found")
	assert.Equal(t, fixtures.TenTwenty, p.Coordinate, "coordinate")
	assert.True(t, p.Active, "active")
}

func TestApplyCommutative(t *testing.T) {
	u1 := person("A", fixtures.TenTwenty, 0, roster.SourcePeer)
	u2 := person("A", fixtures.Taipei, time.Second, roster.SourceCloud)

	forward := roster.New(0)
	forward.Apply(u1)
	forward.Apply(u2)

	reverse := roster.New(0)
	reverse.Apply(u2)
	assert.False(t, reverse.Apply(u1), "older update applied")

	f, _ := forward.Get("A")
	b, _ := reverse.Get("A")
	assert.Equal(t, f, b, "order dependent result")
	assert.Equal(t, fixtures.Taipei, f.Coordinate, "newer update lost")
	assert.Equal(t, roster.SourceCloud, f.Source, "source")
}

func TestApplyEqualTimestampReplaces(t *testing.T) {
	r := roster.New(0)
	r.Apply(person("A", fixtures.TenTwenty, 0, roster.SourcePeer))
	assert.True(t, r.Apply(person("A", fixtures.Taipei, 0, roster.SourceCloud)), "equal timestamp")

	p, _ := r.Get("A")
	assert.Equal(t, fixtures.Taipei, p.Coordinate, "coordinate")
}

func TestApplyNeverRegresses(t *testing.T) {
	r := roster.New(0)
	r.Apply(person("A", fixtures.TenTwenty, time.Minute, roster.SourcePeer))

	for i := 0; i < 5; i += 1 {
		r.Apply(person("A", fixtures.SanFrancisco, time.Duration(i)*time.Second, roster.SourceCloud))
	}

	p, _ := r.Get("A")
	assert.Equal(t, fixtures.TenTwenty, p.Coordinate, "regressed")
	assert.Equal(t, fixtures.Epoch.Add(time.Minute), p.Updated, "timestamp regressed")
}

func TestApplyEmptyIdentity(t *testing.T) {
	r := roster.New(0)
	assert.False(t, r.Apply(person("", fixtures.TenTwenty, 0, roster.SourcePeer)), "empty identity")
	assert.Equal(t, 0, len(r.Snapshot()), "snapshot")
}

func TestSelfUpdateFeedsSinks(t *testing.T) {
	var toCloud, toPeers []coordinate.Coordinate
	r := roster.New(0, func(c coordinate.Coordinate) {
		toCloud = append(toCloud, c)
	})
	r.AddSink(func(c coordinate.Coordinate) {
		toPeers = append(toPeers, c)
	})

	assert.True(t, r.SelfUpdate(fixtures.SanFrancisco, fixtures.Epoch), "self update")
	assert.False(t, r.SelfUpdate(fixtures.Taipei, fixtures.Epoch.Add(-time.Second)), "older self update")

	expected := []coordinate.Coordinate{fixtures.SanFrancisco}
	assert.Equal(t, expected, toCloud, "cloud sink")
	assert.Equal(t, expected, toPeers, "peer sink")

	p, ok := r.Get(roster.Self)
	assert.True(t, ok, "self missing")
	assert.Equal(t, roster.SourceSelf, p.Source, "source")
	assert.Equal(t, roster.SelfDisplayName, p.DisplayName(), "display name")
}

func TestSnapshotOrder(t *testing.T) {
	r := roster.New(0)
	r.Apply(person("zoe", fixtures.TenTwenty, 0, roster.SourcePeer))
	r.Apply(person("amy", fixtures.TenTwenty, 0, roster.SourceCloud))
	r.SelfUpdate(fixtures.Taipei, fixtures.Epoch)

	s := r.Snapshot()
	names := make([]string, len(s))
	for i, p := range s {
		names[i] = p.Identity
	}
	assert.Equal(t, []string{roster.Self, "amy", "zoe"}, names, "order")

	// snapshot is a copy
	s[1].Identity = "changed"
	_, ok := r.Get("amy")
	assert.True(t, ok, "snapshot shares storage")
}

func TestRemove(t *testing.T) {
	r := roster.New(0)
	r.Apply(person("A", fixtures.TenTwenty, 0, roster.SourcePeer))

	assert.True(t, r.Remove("A"), "remove")
	assert.False(t, r.Remove("A"), "remove twice")
	_, ok := r.Get("A")
	assert.False(t, ok, "still present")

	// a later update adds the person again
	assert.True(t, r.Apply(person("A", fixtures.TenTwenty, -time.Hour, roster.SourceCloud)), "re-add")
}

func TestSubscribe(t *testing.T) {
	r := roster.New(0)
	c := r.Subscribe(10)

	r.Apply(person("A", fixtures.TenTwenty, 0, roster.SourcePeer))
	r.Remove("A")
	r.SetError(errors.New("invite failed"))

	expected := []string{roster.ChangeUpdate, roster.ChangeRemove, roster.ChangeError}
	for _, command := range expected {
		select {
		case m := <-c:
			assert.Equal(t, command, m.Command, "command")
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for: %s", command)
		}
	}

	r.Unsubscribe(c)
	_, ok := <-c
	assert.False(t, ok, "channel open after unsubscribe")
}

func TestPendingError(t *testing.T) {
	r := roster.New(0)
	assert.Nil(t, r.LastError(), "initial error")

	r.SetError(errors.New("first"))
	r.SetError(errors.New("record creation failed"))
	r.SetError(nil)
	assert.Equal(t, "record creation failed", r.LastError().Error(), "last error")

	r.ClearError()
	assert.Nil(t, r.LastError(), "cleared")
}

func TestExpire(t *testing.T) {
	r := roster.New(time.Minute)

	r.Apply(roster.PersonState{Identity: "old", Updated: time.Now().Add(-2 * time.Minute), Source: roster.SourceCloud})
	r.Apply(roster.PersonState{Identity: "new", Updated: time.Now(), Source: roster.SourcePeer})

	p, _ := r.Get("old")
	assert.False(t, p.Active, "stale entry should be inactive on apply")

	r.Apply(roster.PersonState{Identity: "soon", Updated: time.Now().Add(-59 * time.Second), Source: roster.SourcePeer})
	time.Sleep(1100 * time.Millisecond)

	assert.Equal(t, []string{"soon"}, r.Expire(), "expired")
	assert.Equal(t, 0, len(r.Expire()), "expire twice")

	p, _ = r.Get("new")
	assert.True(t, p.Active, "fresh entry expired")
}

func TestSourceJSON(t *testing.T) {
	b, err := json.Marshal(person("A", fixtures.TenTwenty, 0, roster.SourcePeer))
	assert.Nil(t, err, "marshal")
	assert.Contains(t, string(b), `"source":"peer"`, "source text")

	var p roster.PersonState
	assert.Nil(t, json.Unmarshal(b, &p), "unmarshal")
	assert.Equal(t, roster.SourcePeer, p.Source, "source")
}
