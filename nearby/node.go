// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package nearby

import (
	"context"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	libp2p "github.com/libp2p/go-libp2p"
	connmgr "github.com/libp2p/go-libp2p-connmgr"
	p2pcore "github.com/libp2p/go-libp2p-core"
	p2pnet "github.com/libp2p/go-libp2p-core/network"
	peerlib "github.com/libp2p/go-libp2p-core/peer"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	tls "github.com/libp2p/go-libp2p-tls"
	"github.com/libp2p/go-libp2p/p2p/discovery"

	"github.com/bitmark-inc/wya/fault"
)

// defaults for an unset configuration item
const (
	DefaultServiceTag = "wya-location"
	DefaultTopic      = "/wya/location/1.0.0"
	DefaultLowWater   = 8
	DefaultHighWater  = 16

	discoveryInterval = 10 * time.Second
	connectTimeout    = 15 * time.Second
	graceTime         = 30 * time.Second
)

// Configuration - a block of configuration data
// this is read from the configuration file
type Configuration struct {
	Listen     []string `gluamapper:"listen" json:"listen"`
	ServiceTag string   `gluamapper:"service_tag" json:"service_tag"`
	Topic      string   `gluamapper:"topic" json:"topic"`
	PrivateKey string   `gluamapper:"private_key" json:"private_key"`
	LowWater   int      `gluamapper:"low_water" json:"low_water"`
	HighWater  int      `gluamapper:"high_water" json:"high_water"`
	QueueSize  int      `gluamapper:"queue_size" json:"queue_size"`

	// connect only to peers given to HandlePeerFound
	DisableDiscovery bool `gluamapper:"disable_discovery" json:"disable_discovery"`
}

// Node - libp2p host advertising itself and connecting to every
// nearby peer it discovers
type Node struct {
	log   *logger.L
	host  p2pcore.Host
	topic string
	tag   string // empty when discovery is disabled

	sync.Mutex
	handler   Handler
	multicast *pubsub.PubSub
	mdns      discovery.Service
	cancel    context.CancelFunc // pubsub and mDNS
	stop      context.CancelFunc // topic reader
	done      chan struct{}
}

// NewNode - create the host, listening but not yet discoverable
func NewNode(configuration *Configuration) (*Node, error) {
	log := logger.New("nearby")

	addresses, err := listenAddresses(configuration.Listen)
	if nil != err {
		return nil, err
	}

	privateKey, err := LoadOrCreateIdentity(configuration.PrivateKey)
	if nil != err {
		return nil, err
	}

	low := configuration.LowWater
	if low <= 0 {
		low = DefaultLowWater
	}
	high := configuration.HighWater
	if high < low {
		high = DefaultHighWater
		if high < low {
			high = low
		}
	}

	options := []libp2p.Option{
		libp2p.Identity(privateKey),
		libp2p.Security(tls.ID, tls.New),
		libp2p.ListenAddrs(addresses...),
		libp2p.ConnectionManager(connmgr.NewConnManager(low, high, graceTime)),
	}
	host, err := libp2p.New(context.Background(), options...)
	if nil != err {
		return nil, err
	}

	for _, a := range host.Addrs() {
		log.Infof("host address: %s/p2p/%s", a, host.ID().Pretty())
	}

	n := &Node{
		log:   log,
		host:  host,
		topic: configuration.Topic,
		tag:   configuration.ServiceTag,
	}
	if "" == n.topic {
		n.topic = DefaultTopic
	}
	if "" == n.tag {
		n.tag = DefaultServiceTag
	}
	if configuration.DisableDiscovery {
		n.tag = ""
	}
	return n, nil
}

// ID - this host's peer id
func (n *Node) ID() string {
	return n.host.ID().Pretty()
}

// Start - join the topic, watch connections and begin discovery
func (n *Node) Start(handler Handler) error {
	n.Lock()
	defer n.Unlock()

	if nil != n.handler {
		return fault.ErrAlreadyInitialised
	}

	ctx, cancel := context.WithCancel(context.Background())

	multicast, err := pubsub.NewGossipSub(ctx, n.host)
	if nil != err {
		cancel()
		return err
	}
	sub, err := multicast.Subscribe(n.topic)
	if nil != err {
		cancel()
		return err
	}

	n.host.Network().Notify(&p2pnet.NotifyBundle{
		ConnectedF: func(net p2pnet.Network, conn p2pnet.Conn) {
			handler.PeerJoined(conn.RemotePeer().Pretty())
		},
		DisconnectedF: func(net p2pnet.Network, conn p2pnet.Conn) {
			id := conn.RemotePeer()
			if p2pnet.Connected != net.Connectedness(id) {
				handler.PeerLeft(id.Pretty())
			}
		},
	})

	// the reader stops first so its unsubscribe reaches a live pubsub
	readCtx, stop := context.WithCancel(ctx)

	n.handler = handler
	n.multicast = multicast
	n.cancel = cancel
	n.stop = stop
	n.done = make(chan struct{})

	go n.subscription(readCtx, sub, handler, n.done)

	if "" == n.tag {
		n.log.Infof("discovery disabled  topic: %q", n.topic)
		return nil
	}

	// without multicast on the interface the node still serves peers
	// that connect to it
	mdns, err := discovery.NewMdnsService(ctx, n.host, discoveryInterval, n.tag)
	if nil != err {
		n.log.Warnf("mDNS unavailable: %s", err)
		return nil
	}
	mdns.RegisterNotifee(n)
	n.mdns = mdns

	n.log.Infof("advertising: %q  topic: %q", n.tag, n.topic)
	return nil
}

// Publish - send a payload to every peer on the topic
func (n *Node) Publish(payload []byte) error {
	n.Lock()
	multicast := n.multicast
	n.Unlock()

	if nil == multicast {
		return fault.ErrNotInitialised
	}
	err := multicast.Publish(n.topic, payload)
	if nil != err {
		return fault.Wrap(fault.ErrNoPeers, err)
	}
	return nil
}

// HandlePeerFound - mDNS notification, connect to the new peer
func (n *Node) HandlePeerFound(info peerlib.AddrInfo) {
	if info.ID == n.host.ID() {
		return
	}
	if p2pnet.Connected == n.host.Network().Connectedness(info.ID) {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		err := n.host.Connect(ctx, info)
		if nil != err {
			n.log.Warnf("connect to: %s  error: %s", info.ID.Pretty(), err)
			return
		}
		n.log.Infof("connected to: %s", info.ID.Pretty())
	}()
}

// Close - stop discovery and shut the host down
func (n *Node) Close() error {
	n.Lock()
	cancel := n.cancel
	stop := n.stop
	done := n.done
	mdns := n.mdns
	n.cancel = nil
	n.stop = nil
	n.multicast = nil
	n.mdns = nil
	n.Unlock()

	if nil != mdns {
		mdns.Close()
	}
	if nil != stop {
		stop()
		<-done
	}
	if nil != cancel {
		cancel()
	}
	return n.host.Close()
}

// read the topic until the context ends, the pubsub context must
// outlive this so the deferred unsubscribe is received
func (n *Node) subscription(ctx context.Context, sub *pubsub.Subscription, handler Handler, done chan<- struct{}) {
	defer close(done)
	defer sub.Cancel()

	self := n.host.ID()
	for {
		msg, err := sub.Next(ctx)
		if nil != err {
			if nil == ctx.Err() {
				n.log.Errorf("subscription error: %s", err)
			}
			return
		}
		from := msg.GetFrom()
		if from == self {
			continue
		}
		handler.Receive(from.Pretty(), msg.Data)
	}
}
