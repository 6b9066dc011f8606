// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/wya/configuration"
	"github.com/bitmark-inc/wya/fault"
)

const sampleFile = "../command/wyad/wyad.conf.sample"

// write a configuration into a fresh data directory
func setup(t *testing.T, text string) (string, string) {
	dir, err := ioutil.TempDir("", "wya-config")
	if nil != err {
		t.Fatalf("temp dir error: %s", err)
	}
	dir, _ = filepath.EvalSymlinks(dir)
	name := filepath.Join(dir, "wyad.conf")
	if err := ioutil.WriteFile(name, []byte(text), 0600); nil != err {
		t.Fatalf("write error: %s", err)
	}
	return dir, name
}

func TestSampleConfiguration(t *testing.T) {
	sample, err := ioutil.ReadFile(sampleFile)
	assert.Nil(t, err, "read sample")

	dir, name := setup(t, string(sample))
	defer os.RemoveAll(dir)

	_ = os.Setenv("WYA_NAME", "alice")
	defer os.Unsetenv("WYA_NAME")

	c, err := configuration.GetConfiguration(name)
	assert.Nil(t, err, "wrong GetConfiguration")

	assert.Equal(t, dir, c.DataDirectory, "wrong data directory")
	assert.Equal(t, "alice", c.Name, "wrong name")
	assert.Equal(t, "alice", c.Account, "account did not default to name")
	assert.Equal(t, 5*time.Minute, c.Liveness.Value(), "wrong liveness")

	assert.Equal(t, configuration.BackendLevelDB, c.Cloud.Backend, "wrong backend")
	assert.Equal(t, filepath.Join(dir, "cloud.leveldb"), c.Cloud.Database, "wrong database")
	assert.Equal(t, "wya-location", c.Cloud.DynamoDB.Table, "wrong table")
	assert.Equal(t, 15*time.Second, c.Cloud.PollInterval.Value(), "wrong poll interval")
	assert.Equal(t, 2*time.Second, c.Cloud.ProvisionCeiling.Value(), "wrong ceiling")
	assert.Equal(t, time.Duration(0), c.Cloud.ZoneWriteInterval.Value(), "blank duration not zero")

	assert.Equal(t, []string{"*:2140"}, c.Nearby.Listen, "wrong nearby listen")
	assert.Equal(t, "wya-location", c.Nearby.ServiceTag, "wrong service tag")
	assert.Equal(t, filepath.Join(dir, "nearby.private"), c.Nearby.PrivateKey, "wrong identity file")
	assert.Equal(t, 16, c.Nearby.HighWater, "wrong high water")

	assert.Equal(t, int64(10), c.ClientRPC.MaximumConnections, "wrong rpc connections")
	assert.Equal(t, []string{"127.0.0.1:2150", "[::1]:2150"}, c.ClientRPC.Listen, "wrong rpc listen")
	assert.Equal(t, filepath.Join(dir, "rpc.crt"), c.ClientRPC.Certificate, "wrong certificate")

	assert.Equal(t, []string{"127.0.0.1:2155"}, c.Publishing.Broadcast, "wrong broadcast")
	assert.Equal(t, "", c.Publishing.PrivateKey, "blank key was expanded")

	assert.Equal(t, filepath.Join(dir, "invitations"), c.Inbox.File, "wrong inbox")
	assert.Equal(t, "wyad.log", c.Logging.File, "wrong log file")

	info, err := os.Stat(filepath.Join(dir, "log"))
	assert.Nil(t, err, "log directory not created")
	assert.True(t, info.IsDir(), "log is not a directory")
}

func TestDynamoBackend(t *testing.T) {
	dir, name := setup(t, `
return {
    data_directory = ".",
    name = "bob",
    account = "bob@example.com",
    cloud = {
        backend = "DynamoDB",
        dynamodb = { table = "people", endpoint = "http://127.0.0.1:8000" },
    },
}
`)
	defer os.RemoveAll(dir)

	c, err := configuration.GetConfiguration(name)
	assert.Nil(t, err, "wrong GetConfiguration")
	assert.Equal(t, configuration.BackendDynamoDB, c.Cloud.Backend, "backend not lower cased")
	assert.Equal(t, "people", c.Cloud.DynamoDB.Table, "wrong table")
	assert.Equal(t, "bob@example.com", c.Account, "wrong account")
	assert.Equal(t, 15*time.Second, c.Cloud.PollInterval.Value(), "default poll interval lost")
}

func TestInvalidConfigurations(t *testing.T) {
	items := []struct {
		text    string
		class   func(error) bool
		message string
	}{
		{`return { data_directory = ".", name = "  " }`, fault.IsErrInvalid, "blank name"},
		{`return { data_directory = ".", name = "a", cloud = { backend = "s3" } }`, fault.IsErrInvalid, "unknown backend"},
		{`return { data_directory = ".", name = "a", cloud = { backend = "dynamodb" } }`, fault.IsErrInvalid, "missing table"},
		{`return { data_directory = ".", name = "a", liveness = "soon" }`, fault.IsErrInvalid, "bad duration"},
		{`return { data_directory = ".", name = "a", cloud = { poll_interval = "-1s" } }`, fault.IsErrInvalid, "negative duration"},
		{`return { data_directory = "", name = "a" }`, fault.IsErrInvalid, "blank data directory"},
		{`return 42`, fault.IsErrInvalid, "not a table"},
	}

	for _, item := range items {
		dir, name := setup(t, item.text)
		_, err := configuration.GetConfiguration(name)
		assert.NotNil(t, err, item.message)
		assert.True(t, item.class(err), "%s: wrong error: %v", item.message, err)
		_ = os.RemoveAll(dir)
	}
}

func TestLuaSyntaxError(t *testing.T) {
	dir, name := setup(t, `return {`)
	defer os.RemoveAll(dir)

	_, err := configuration.GetConfiguration(name)
	assert.NotNil(t, err, "syntax error accepted")
}

func TestParseRequiresStructPointer(t *testing.T) {
	dir, name := setup(t, `return { name = "a" }`)
	defer os.RemoveAll(dir)

	var s struct {
		Name string `gluamapper:"name"`
	}
	assert.Equal(t, fault.ErrInvalidStructPointer, configuration.ParseConfigurationFile(name, s), "struct value accepted")
	assert.Nil(t, configuration.ParseConfigurationFile(name, &s), "wrong parse")
	assert.Equal(t, "a", s.Name, "wrong name")
}
