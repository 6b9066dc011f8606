// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package nearby

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	peerlib "github.com/libp2p/go-libp2p-core/peer"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/wya/fault"
)

// records what a node reports
type fakeHandler struct {
	joined   chan string
	payloads chan []byte
}

func newFakeHandler() *fakeHandler {
	return &fakeHandler{
		joined:   make(chan string, 10),
		payloads: make(chan []byte, 100),
	}
}

func (h *fakeHandler) Receive(from string, payload []byte) { h.payloads <- payload }
func (h *fakeHandler) PeerJoined(id string) {
	select {
	case h.joined <- id:
	default:
	}
}
func (h *fakeHandler) PeerLeft(id string) {}

func tempDir(t *testing.T) (string, func()) {
	dir, err := ioutil.TempDir("", "nearby")
	if nil != err {
		t.Fatalf("temporary directory error: %s", err)
	}
	return dir, func() { os.RemoveAll(dir) }
}

func TestIdentityFile(t *testing.T) {
	dir, remove := tempDir(t)
	defer remove()

	filename := filepath.Join(dir, "identity.private")

	err := MakeIdentityFile(filename)
	assert.Nil(t, err, "make")

	err = MakeIdentityFile(filename)
	assert.Equal(t, fault.ErrKeyFileAlreadyExists, err, "overwrite")

	first, err := ReadIdentityFile(filename)
	assert.Nil(t, err, "read")

	second, err := LoadOrCreateIdentity(filename)
	assert.Nil(t, err, "load")
	assert.True(t, first.Equals(second), "different keys")

	created, err := LoadOrCreateIdentity(filepath.Join(dir, "new.private"))
	assert.Nil(t, err, "create")
	assert.False(t, first.Equals(created), "same key generated")
}

func TestListenAddresses(t *testing.T) {
	addresses, err := listenAddresses([]string{"*:2136", "127.0.0.1:0", "0.0.0.0:2136"})
	assert.Nil(t, err, "listen addresses")

	text := make([]string, len(addresses))
	for i, a := range addresses {
		text[i] = a.String()
	}
	assert.Equal(t, []string{"/ip4/0.0.0.0/tcp/2136", "/ip4/127.0.0.1/tcp/0", "/ip6/::/tcp/2136"}, text, "addresses")

	_, err = listenAddresses(nil)
	assert.Equal(t, fault.ErrMissingListen, err, "empty")

	_, err = listenAddresses([]string{"localhost:80"})
	assert.NotNil(t, err, "host name accepted")

	_, err = listenAddresses([]string{"127.0.0.1:70000"})
	assert.NotNil(t, err, "port out of range")
}

func startNode(t *testing.T, dir string, name string, handler Handler) *Node {
	n, err := NewNode(&Configuration{
		Listen:           []string{"127.0.0.1:0"},
		PrivateKey:       filepath.Join(dir, name+".private"),
		DisableDiscovery: true,
	})
	if nil != err {
		t.Fatalf("%s: new node error: %s", name, err)
	}
	err = n.Start(handler)
	if nil != err {
		t.Fatalf("%s: start error: %s", name, err)
	}
	return n
}

func TestNodesExchangePayloads(t *testing.T) {
	dir, remove := tempDir(t)
	defer remove()

	h1 := newFakeHandler()
	n1 := startNode(t, dir, "one", h1)
	defer n1.Close()

	h2 := newFakeHandler()
	n2 := startNode(t, dir, "two", h2)
	defer n2.Close()

	assert.Equal(t, fault.ErrAlreadyInitialised, n1.Start(h1), "second start")

	n1.HandlePeerFound(peerlib.AddrInfo{ID: n2.host.ID(), Addrs: n2.host.Addrs()})

	select {
	case id := <-h1.joined:
		assert.Equal(t, n2.ID(), id, "joined id")
	case <-time.After(10 * time.Second):
		t.Fatal("no connection")
	}

	// the topic subscription reaches the peer shortly after connecting
	payload := []byte{0x01, 0x02}
	deadline := time.After(10 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case got := <-h2.payloads:
			assert.Equal(t, payload, got, "payload")
			return
		case <-tick.C:
			_ = n1.Publish(payload)
		case <-deadline:
			t.Fatal("payload not received")
		}
	}
}

func TestPublishBeforeStart(t *testing.T) {
	dir, remove := tempDir(t)
	defer remove()

	n, err := NewNode(&Configuration{
		Listen:     []string{"127.0.0.1:0"},
		PrivateKey: filepath.Join(dir, "idle.private"),
	})
	if nil != err {
		t.Fatalf("new node error: %s", err)
	}
	defer n.Close()

	assert.Equal(t, fault.ErrNotInitialised, n.Publish([]byte{1}), "publish")
	assert.Equal(t, DefaultServiceTag, n.tag, "tag")
	assert.Equal(t, DefaultTopic, n.topic, "topic")
}

func TestCloseReturns(t *testing.T) {
	dir, remove := tempDir(t)
	defer remove()

	n := startNode(t, dir, "closing", newFakeHandler())

	closed := make(chan error, 1)
	go func() {
		closed <- n.Close()
	}()

	select {
	case err := <-closed:
		assert.Nil(t, err, "close")
	case <-time.After(5 * time.Second):
		t.Fatal("close did not return")
	}

	assert.Equal(t, fault.ErrNotInitialised, n.Publish([]byte{1}), "publish after close")
}
