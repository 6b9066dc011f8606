// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package publish_test

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	zmq "github.com/pebbe/zmq4"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/wya/background"
	"github.com/bitmark-inc/wya/fault"
	"github.com/bitmark-inc/wya/fixtures"
	"github.com/bitmark-inc/wya/messagebus"
	"github.com/bitmark-inc/wya/publish"
	"github.com/bitmark-inc/wya/roster"
)

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	rc := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(rc)
}

type source struct {
	messagebus.BroadcastQueue
}

func (s *source) Subscribe(size int) <-chan messagebus.Message {
	return s.Chan(size)
}

func (s *source) Unsubscribe(c <-chan messagebus.Message) {
	s.Release(c)
}

func TestEncodePerson(t *testing.T) {
	p := roster.PersonState{
		Identity:   roster.Self,
		Coordinate: fixtures.TenTwenty,
		Updated:    fixtures.Epoch,
		Source:     roster.SourceSelf,
		Active:     true,
	}
	body, err := publish.Encode(messagebus.Message{Command: roster.ChangeUpdate, Parameters: p})
	assert.Nil(t, err, "encode")

	expected := `{"person":{"identity":"self","coordinate":{"latitude":10,"longitude":20},"updated":"2020-03-01T12:00:00Z","source":"self","active":true},"display_name":"Me"}`
	assert.Equal(t, expected, string(body), "json")
}

func TestEncodeError(t *testing.T) {
	body, err := publish.Encode(messagebus.Message{Command: roster.ChangeError, Parameters: fault.ErrShareCreateFailed})
	assert.Nil(t, err, "encode")

	event := publish.Event{}
	assert.Nil(t, json.Unmarshal(body, &event), "decode")
	assert.Equal(t, fault.ErrShareCreateFailed.Error(), event.Error, "error")
	assert.Nil(t, event.Person, "person")
}

func TestEncodeUnsupported(t *testing.T) {
	_, err := publish.Encode(messagebus.Message{Command: "x", Parameters: 42})
	assert.NotNil(t, err, "integer accepted")
}

func TestKeyPair(t *testing.T) {
	dir, err := ioutil.TempDir("", "publish")
	if nil != err {
		t.Fatalf("temporary directory error: %s", err)
	}
	defer os.RemoveAll(dir)

	public := filepath.Join(dir, "publish.public")
	private := filepath.Join(dir, "publish.private")

	assert.Nil(t, publish.MakeKeyPair(public, private), "make")
	assert.Equal(t, fault.ErrKeyFileAlreadyExists, publish.MakeKeyPair(public, private), "overwrite")

	publicKey, err := publish.ReadPublicKeyFile(public)
	assert.Nil(t, err, "read public")
	assert.Equal(t, 32, len(publicKey), "public length")

	privateKey, err := publish.ReadPrivateKeyFile(private)
	assert.Nil(t, err, "read private")
	assert.Equal(t, 32, len(privateKey), "private length")

	_, err = publish.ReadPrivateKeyFile(public)
	assert.Equal(t, fault.ErrInvalidKeyFile, err, "public read as private")
}

func TestMissingBroadcast(t *testing.T) {
	_, err := publish.New(&publish.Configuration{}, &source{})
	assert.Equal(t, fault.ErrMissingListen, err, "no addresses")

	_, err = publish.New(&publish.Configuration{Broadcast: []string{"localhost:2140"}}, &source{})
	assert.NotNil(t, err, "host name accepted")
}

func TestPublishChanges(t *testing.T) {
	const address = "127.0.0.1:21439"

	src := &source{}
	pub, err := publish.New(&publish.Configuration{Broadcast: []string{address}}, src)
	if !assert.Nil(t, err, "new") {
		return
	}
	bg := background.Start(background.Processes{pub}, nil)
	defer bg.Stop()

	sub, err := zmq.NewSocket(zmq.SUB)
	if !assert.Nil(t, err, "subscriber socket") {
		return
	}
	defer sub.Close()
	sub.SetLinger(0)
	sub.SetRcvtimeo(100 * time.Millisecond)
	assert.Nil(t, sub.SetSubscribe(publish.Topic), "subscribe")
	assert.Nil(t, sub.Connect("tcp://"+address), "connect")

	p := roster.PersonState{Identity: "A", Coordinate: fixtures.Taipei, Updated: fixtures.Epoch, Source: roster.SourcePeer}

	// a new subscriber misses messages sent before it is connected
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		src.Send(roster.ChangeUpdate, p)

		parts, err := sub.RecvMessageBytes(0)
		if nil != err {
			continue
		}
		if !assert.Equal(t, 3, len(parts), "parts") {
			return
		}
		assert.Equal(t, publish.Topic, string(parts[0]), "topic")
		assert.Equal(t, roster.ChangeUpdate, string(parts[1]), "command")

		event := publish.Event{}
		assert.Nil(t, json.Unmarshal(parts[2], &event), "decode")
		if assert.NotNil(t, event.Person, "person") {
			assert.Equal(t, "A", event.Person.Identity, "identity")
			assert.Equal(t, fixtures.Taipei, event.Person.Coordinate, "coordinate")
		}
		return
	}
	t.Error("nothing received")
}

func TestPublishSecure(t *testing.T) {
	const address = "127.0.0.1:21440"

	assert.Nil(t, publish.StartAuthentication(), "start authentication")
	assert.Nil(t, publish.StartAuthentication(), "second start")

	dir, err := ioutil.TempDir("", "wya-curve")
	assert.Nil(t, err, "temp dir")
	defer os.RemoveAll(dir)

	conf := publish.Configuration{
		Broadcast:  []string{address},
		PublicKey:  filepath.Join(dir, "publish.public"),
		PrivateKey: filepath.Join(dir, "publish.private"),
	}
	assert.Nil(t, publish.MakeKeyPair(conf.PublicKey, conf.PrivateKey), "make key pair")
	serverKey, err := publish.ReadPublicKeyFile(conf.PublicKey)
	assert.Nil(t, err, "read public key")

	src := &source{}
	pub, err := publish.New(&conf, src)
	if !assert.Nil(t, err, "new") {
		return
	}
	bg := background.Start(background.Processes{pub}, nil)
	defer bg.Stop()

	clientPublic, clientPrivate, err := zmq.NewCurveKeypair()
	assert.Nil(t, err, "client key pair")

	sub, err := zmq.NewSocket(zmq.SUB)
	if !assert.Nil(t, err, "subscriber socket") {
		return
	}
	defer sub.Close()
	sub.SetLinger(0)
	sub.SetRcvtimeo(100 * time.Millisecond)
	assert.Nil(t, sub.SetCurveServerkey(string(serverKey)), "server key")
	assert.Nil(t, sub.SetCurvePublickey(clientPublic), "client public key")
	assert.Nil(t, sub.SetCurveSecretkey(clientPrivate), "client private key")
	assert.Nil(t, sub.SetSubscribe(publish.Topic), "subscribe")
	assert.Nil(t, sub.Connect("tcp://"+address), "connect")

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		src.Send(roster.ChangeRemove, roster.PersonState{Identity: "B"})

		parts, err := sub.RecvMessageBytes(0)
		if nil != err {
			continue
		}
		assert.Equal(t, roster.ChangeRemove, string(parts[1]), "command")
		return
	}
	t.Error("nothing received over CURVE")
}
