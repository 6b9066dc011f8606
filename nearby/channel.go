// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package nearby

import (
	"sort"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/wya/coordinate"
	"github.com/bitmark-inc/wya/roster"
)

// DefaultQueueSize - outbound payloads waiting for the transport
const DefaultQueueSize = 16

// Transport - sends one payload to every connected peer
type Transport interface {
	Publish(payload []byte) error
}

// Handler - the transport's view of a channel
type Handler interface {
	Receive(from string, payload []byte)
	PeerJoined(id string)
	PeerLeft(id string)
}

// Deliver - receives each decoded peer update
type Deliver func(roster.PersonState)

// Channel - broadcast session with the nearby peers
type Channel struct {
	log       *logger.L
	name      string
	transport Transport
	deliver   Deliver
	outbound  chan []byte
	now       func() time.Time

	sync.RWMutex
	peers map[string]string // peer id → last display name seen
}

// New - create a channel broadcasting under the given display name
func New(name string, transport Transport, deliver Deliver, queueSize int) *Channel {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Channel{
		log:       logger.New("nearby"),
		name:      name,
		transport: transport,
		deliver:   deliver,
		outbound:  make(chan []byte, queueSize),
		now:       time.Now,
		peers:     make(map[string]string),
	}
}

// Broadcast - queue the coordinate for every connected peer
//
// does nothing without peers and never blocks: a sample that does not
// fit in the queue is dropped, the next one supersedes it
func (c *Channel) Broadcast(at coordinate.Coordinate) {
	if 0 == c.PeerCount() {
		return
	}

	payload, err := coordinate.Pack(c.name, at)
	if nil != err {
		c.log.Warnf("broadcast: pack error: %s", err)
		return
	}

	select {
	case c.outbound <- payload:
	default:
		c.log.Debug("broadcast: outbound queue full, sample dropped")
	}
}

// Run - drain the outbound queue into the transport
func (c *Channel) Run(args interface{}, shutdown <-chan struct{}) {
	log := c.log
	log.Info("starting…")

loop:
	for {
		select {
		case <-shutdown:
			break loop
		case payload := <-c.outbound:
			err := c.transport.Publish(payload)
			if nil != err {
				log.Warnf("publish error: %s", err)
			}
		}
	}
	log.Info("stopped")
}

// Receive - decode a payload from a peer
//
// anything that does not decode is dropped without further effect
func (c *Channel) Receive(from string, payload []byte) {
	name, at, err := coordinate.Unpack(payload)
	if nil != err {
		c.log.Debugf("receive from: %s dropped: %s", from, err)
		return
	}

	// the reserved local identity can never come from a peer
	identity := name
	if "" == identity || roster.Self == identity {
		identity = from
	}

	c.Lock()
	if _, ok := c.peers[from]; ok {
		c.peers[from] = identity
	}
	c.Unlock()

	if nil == c.deliver {
		return
	}
	c.deliver(roster.PersonState{
		Identity:   identity,
		Coordinate: at,
		Updated:    c.now(),
		Source:     roster.SourcePeer,
	})
}

// PeerJoined - a peer connected
func (c *Channel) PeerJoined(id string) {
	c.Lock()
	defer c.Unlock()
	if _, ok := c.peers[id]; ok {
		return
	}
	c.peers[id] = ""
	c.log.Infof("peer joined: %s  count: %d", id, len(c.peers))
}

// PeerLeft - a peer disconnected
func (c *Channel) PeerLeft(id string) {
	c.Lock()
	defer c.Unlock()
	if _, ok := c.peers[id]; !ok {
		return
	}
	delete(c.peers, id)
	c.log.Infof("peer left: %s  count: %d", id, len(c.peers))
}

// PeerCount - number of connected peers
func (c *Channel) PeerCount() int {
	c.RLock()
	defer c.RUnlock()
	return len(c.peers)
}

// Connected - sorted identities of the connected peers, the display
// name once one has been received, otherwise the peer id
func (c *Channel) Connected() []string {
	c.RLock()
	connected := make([]string, 0, len(c.peers))
	for id, name := range c.peers {
		if "" == name {
			name = id
		}
		connected = append(connected, name)
	}
	c.RUnlock()

	sort.Strings(connected)
	return connected
}
