// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc_test

import (
	"crypto/tls"
	"io/ioutil"
	netrpc "net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/wya/background"
	"github.com/bitmark-inc/wya/cloud"
	"github.com/bitmark-inc/wya/coordinate"
	"github.com/bitmark-inc/wya/engine"
	"github.com/bitmark-inc/wya/fixtures"
	"github.com/bitmark-inc/wya/roster"
	"github.com/bitmark-inc/wya/rpc"
	"github.com/bitmark-inc/wya/rpc/certificate"
	"github.com/bitmark-inc/wya/rpc/invite"
	"github.com/bitmark-inc/wya/rpc/listeners"
	"github.com/bitmark-inc/wya/rpc/location"
	"github.com/bitmark-inc/wya/rpc/mocks"
	"github.com/bitmark-inc/wya/rpc/people"
	"github.com/bitmark-inc/wya/rpc/status"
	"github.com/bitmark-inc/wya/share"
)

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	rc := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(rc)
}

func TestMethodsOverTLS(t *testing.T) {
	dir, err := ioutil.TempDir("", "wya-rpc")
	assert.Nil(t, err, "temp dir")
	defer os.RemoveAll(dir)

	conf := listeners.RPCConfiguration{
		MaximumConnections: 2,
		Listen:             []string{"127.0.0.1:0"},
		Certificate:        filepath.Join(dir, "rpc.crt"),
		PrivateKey:         filepath.Join(dir, "rpc.key"),
	}
	err = certificate.MakeSelfSigned("test", conf.Certificate, conf.PrivateKey, []string{"127.0.0.1"})
	assert.Nil(t, err, "make certificate")

	ctl := gomock.NewController(t)
	defer ctl.Finish()

	const url = "wya://share/3yZe7d"
	e := mocks.NewMockEngine(ctl)
	e.EXPECT().PrepareShare(gomock.Any()).Return(url, nil).Times(1)
	e.EXPECT().AcceptInvitation(gomock.Any(), url).Return(&share.Acceptance{
		Metadata: cloud.ShareMetadata{OwnerName: "alice", Title: cloud.ShareTitle},
		Identity: "alice",
	}, nil).Times(1)
	e.EXPECT().RevokeShare(gomock.Any()).Return(nil).Times(1)
	e.EXPECT().Roster().Return([]roster.PersonState{{Identity: roster.Self, Active: true}}).Times(1)
	e.EXPECT().Remove("alice").Return(nil).Times(1)
	e.EXPECT().Peers().Return([]string{"bob"}).Times(1)
	e.EXPECT().Status().Return(engine.Status{Name: "carol"}).Times(1)
	e.EXPECT().ReportLocation(coordinate.Sample{Coordinate: fixtures.Taipei}).Return(nil).Times(1)

	server, err := rpc.New(&conf, "test", e)
	assert.Nil(t, err, "wrong New")
	bg := background.Start(background.Processes{server}, nil)
	defer bg.Stop()

	conn, err := tls.Dial("tcp", server.Addresses()[0].String(), &tls.Config{InsecureSkipVerify: true})
	assert.Nil(t, err, "dial")
	state := conn.ConnectionState()
	assert.Equal(t, server.Fingerprint(), certificate.Fingerprint(state.PeerCertificates[0].Raw), "wrong fingerprint")

	client := jsonrpc.NewClient(conn)
	defer client.Close()

	var prepare invite.PrepareReply
	assert.Nil(t, client.Call("Invite.Prepare", &invite.PrepareArguments{}, &prepare), "Invite.Prepare")
	assert.Equal(t, url, prepare.URL, "wrong URL")

	var accept invite.AcceptReply
	assert.Nil(t, client.Call("Invite.Accept", &invite.AcceptArguments{URL: url}, &accept), "Invite.Accept")
	assert.Equal(t, "alice", accept.Identity, "wrong identity")

	assert.Nil(t, client.Call("Invite.Revoke", &invite.RevokeArguments{}, &invite.RevokeReply{}), "Invite.Revoke")

	var list people.ListReply
	assert.Nil(t, client.Call("Roster.List", &people.ListArguments{}, &list), "Roster.List")
	assert.Equal(t, 1, len(list.People), "wrong people count")
	assert.Equal(t, roster.SelfDisplayName, list.People[0].Name, "wrong name")

	assert.Nil(t, client.Call("Roster.Remove", &people.RemoveArguments{Identity: "alice"}, &people.RemoveReply{}), "Roster.Remove")

	var peers status.PeersReply
	assert.Nil(t, client.Call("Peers.List", &status.PeersArguments{}, &peers), "Peers.List")
	assert.Equal(t, []string{"bob"}, peers.Peers, "wrong peers")

	var st status.GetReply
	assert.Nil(t, client.Call("Status.Get", &status.GetArguments{}, &st), "Status.Get")
	assert.Equal(t, "carol", st.Name, "wrong name")
	assert.Equal(t, "test", st.Version, "wrong version")

	args := location.ReportArguments{
		Latitude:  fixtures.Taipei.Latitude,
		Longitude: fixtures.Taipei.Longitude,
	}
	assert.Nil(t, client.Call("Location.Report", &args, &location.ReportReply{}), "Location.Report")

	err = client.Call("Location.Missing", &args, &location.ReportReply{})
	_, isServerError := err.(netrpc.ServerError)
	assert.True(t, isServerError, "unknown method accepted")
}

func TestNewMissingCertificate(t *testing.T) {
	conf := listeners.RPCConfiguration{
		MaximumConnections: 1,
		Listen:             []string{"127.0.0.1:0"},
		Certificate:        "/nonexistent/rpc.crt",
		PrivateKey:         "/nonexistent/rpc.key",
	}
	_, err := rpc.New(&conf, "test", nil)
	assert.NotNil(t, err, "missing certificate accepted")
}
