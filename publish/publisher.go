// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package publish

import (
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/bitmark-inc/logger"
	zmq "github.com/pebbe/zmq4"

	"github.com/bitmark-inc/wya/fault"
	"github.com/bitmark-inc/wya/messagebus"
	"github.com/bitmark-inc/wya/roster"
)

// Topic - first frame of every message
const Topic = "roster"

const (
	zapDomain         = "publish"
	subscriptionSize  = 100
	heartbeatInterval = 15 * time.Second
	heartbeatTimeout  = 60 * time.Second
	heartbeatTTL      = 120 * time.Second
)

// Configuration - a block of configuration data
// this is read from the configuration file
type Configuration struct {
	Broadcast  []string `gluamapper:"broadcast" json:"broadcast"`
	PrivateKey string   `gluamapper:"private_key" json:"private_key"`
	PublicKey  string   `gluamapper:"public_key" json:"public_key"`
}

// Source - where the changes come from
type Source interface {
	Subscribe(size int) <-chan messagebus.Message
	Unsubscribe(c <-chan messagebus.Message)
}

// Event - the JSON part of a message
type Event struct {
	Person      *roster.PersonState `json:"person,omitempty"`
	DisplayName string              `json:"display_name,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// Publisher - background process sending every roster change
type Publisher struct {
	log    *logger.L
	socket *zmq.Socket
	source Source
	queue  <-chan messagebus.Message
}

// New - bind the socket and subscribe to the source
//
// CURVE authentication needs zmq.AuthStart to have been called
func New(configuration *Configuration, source Source) (*Publisher, error) {
	log := logger.New("publish")

	if 0 == len(configuration.Broadcast) {
		return nil, fault.ErrMissingListen
	}

	socket, err := zmq.NewSocket(zmq.PUB)
	if nil != err {
		return nil, err
	}

	if "" != configuration.PrivateKey {
		err = secure(socket, configuration)
		if nil != err {
			socket.Close()
			return nil, err
		}
	}

	socket.SetLinger(0)
	socket.SetIpv6(true)
	socket.SetHeartbeatIvl(heartbeatInterval)
	socket.SetHeartbeatTimeout(heartbeatTimeout)
	socket.SetHeartbeatTtl(heartbeatTTL)

	for i, address := range configuration.Broadcast {
		bindTo, err := endpoint(address)
		if nil != err {
			log.Errorf("broadcast[%d]: %q  error: %s", i, address, err)
			socket.Close()
			return nil, err
		}
		err = socket.Bind(bindTo)
		if nil != err {
			log.Errorf("cannot bind[%d]: %q  error: %s", i, bindTo, err)
			socket.Close()
			return nil, err
		}
		log.Infof("bind[%d]: %q", i, bindTo)
	}

	return &Publisher{
		log:    log,
		socket: socket,
		source: source,
		queue:  source.Subscribe(subscriptionSize),
	}, nil
}

// make the socket a CURVE server
func secure(socket *zmq.Socket, configuration *Configuration) error {
	privateKey, err := ReadPrivateKeyFile(configuration.PrivateKey)
	if nil != err {
		return err
	}
	publicKey, err := ReadPublicKeyFile(configuration.PublicKey)
	if nil != err {
		return err
	}

	zmq.AuthCurveAdd(zapDomain, zmq.CURVE_ALLOW_ANY)

	socket.SetCurveServer(1)
	socket.SetCurveSecretkey(string(privateKey))
	socket.SetZapDomain(zapDomain)
	socket.SetIdentity(string(publicKey))
	return nil
}

// Run - send changes until shutdown
func (pub *Publisher) Run(args interface{}, shutdown <-chan struct{}) {
	log := pub.log
	log.Info("starting…")

	queue := pub.queue

loop:
	for {
		select {
		case <-shutdown:
			break loop
		case item, ok := <-queue:
			if !ok {
				// source closed, wait for shutdown
				queue = nil
				continue loop
			}
			pub.send(item)
		}
	}

	pub.source.Unsubscribe(pub.queue)
	pub.socket.Close()
	log.Info("stopped")
}

func (pub *Publisher) send(item messagebus.Message) {
	body, err := Encode(item)
	if nil != err {
		pub.log.Errorf("encode: %s  error: %s", item.Command, err)
		return
	}

	_, err = pub.socket.SendMessageDontwait(Topic, item.Command, body)
	if nil != err {
		pub.log.Warnf("send: %s  error: %s", item.Command, err)
		return
	}
	pub.log.Debugf("sent: %s  data: %s", item.Command, body)
}

// Encode - the JSON part for a roster change
func Encode(item messagebus.Message) ([]byte, error) {
	event := Event{}

	switch p := item.Parameters.(type) {
	case roster.PersonState:
		event.Person = &p
		event.DisplayName = p.DisplayName()
	case error:
		event.Error = p.Error()
	default:
		return nil, fmt.Errorf("unsupported parameters: %T", item.Parameters)
	}
	return json.Marshal(event)
}

// host:port to a zmq tcp endpoint, "*" binds every interface
func endpoint(address string) (string, error) {
	host, port, err := net.SplitHostPort(strings.TrimSpace(address))
	if nil != err {
		return "", err
	}
	if "*" != host && nil == net.ParseIP(host) {
		return "", fmt.Errorf("invalid IP address: %q", host)
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return "tcp://" + host + ":" + port, nil
}
