// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/wya/cloud/dynamo"
	"github.com/bitmark-inc/wya/fault"
	"github.com/bitmark-inc/wya/inbox"
	"github.com/bitmark-inc/wya/nearby"
	"github.com/bitmark-inc/wya/publish"
	"github.com/bitmark-inc/wya/rpc/listeners"
)

// basic defaults (directories and files are relative to the "DataDirectory" from Configuration file)
const (
	defaultDataDirectory = "" // this will error; use "." for the same directory as the config file

	defaultIdentityFile    = "nearby.private"
	defaultKeyFile         = "rpc.key"
	defaultCertificateFile = "rpc.crt"
	defaultDatabase        = "cloud.leveldb"
	defaultInboxFile       = "invitations"

	defaultPollInterval = "15s"
	defaultLiveness     = "5m"

	defaultLogDirectory = "log"
	defaultLogFile      = "wyad.log"
	defaultLogCount     = 10          //  number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size

	defaultRPCClients = listeners.DefaultMaximumConnections
)

// cloud backends
const (
	BackendLevelDB  = "leveldb"
	BackendDynamoDB = "dynamodb"
)

// LoglevelMap - to hold log levels
type LoglevelMap map[string]string

// path expanded or calculated defaults
var (
	defaultLogLevels = LoglevelMap{
		logger.DefaultTag: "critical",
	}
)

// Duration - text accepted by time.ParseDuration e.g. "15s", "2m"
//
// blank means the component default
type Duration string

// Value - the parsed duration, zero if blank
func (d Duration) Value() time.Duration {
	v, _ := time.ParseDuration(string(d))
	return v
}

func (d Duration) validate() error {
	if "" == d {
		return nil
	}
	v, err := time.ParseDuration(string(d))
	if nil != err || v < 0 {
		return fmt.Errorf("%w: %q", fault.ErrInvalidDuration, string(d))
	}
	return nil
}

// CloudType - where the location record and shares are kept
type CloudType struct {
	Backend           string               `gluamapper:"backend" json:"backend"`
	Database          string               `gluamapper:"database" json:"database"`
	ZoneWriteInterval Duration             `gluamapper:"zone_write_interval" json:"zone_write_interval"`
	DynamoDB          dynamo.Configuration `gluamapper:"dynamodb" json:"dynamodb"`

	PollInterval     Duration `gluamapper:"poll_interval" json:"poll_interval"`
	UpdateInterval   Duration `gluamapper:"update_interval" json:"update_interval"`
	ProvisionTimeout Duration `gluamapper:"provision_timeout" json:"provision_timeout"`
	ProvisionCeiling Duration `gluamapper:"provision_ceiling" json:"provision_ceiling"`
	FallbackDelay    Duration `gluamapper:"fallback_delay" json:"fallback_delay"`
}

// Configuration - the complete daemon setup
type Configuration struct {
	DataDirectory string   `gluamapper:"data_directory" json:"data_directory"`
	PidFile       string   `gluamapper:"pidfile" json:"pidfile"`
	Name          string   `gluamapper:"name" json:"name"`
	Account       string   `gluamapper:"account" json:"account"`
	Liveness      Duration `gluamapper:"liveness" json:"liveness"`

	Cloud      CloudType                  `gluamapper:"cloud" json:"cloud"`
	Nearby     nearby.Configuration       `gluamapper:"nearby" json:"nearby"`
	ClientRPC  listeners.RPCConfiguration `gluamapper:"rpc" json:"rpc"`
	Publishing publish.Configuration      `gluamapper:"publish" json:"publish"`
	Inbox      inbox.Configuration        `gluamapper:"inbox" json:"inbox"`
	Logging    logger.Configuration       `gluamapper:"logging" json:"logging"`
}

// GetConfiguration - will read decode and verify the configuration
func GetConfiguration(configurationFileName string) (*Configuration, error) {

	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return nil, err
	}

	// absolute path to the main directory
	dataDirectory, _ := filepath.Split(configurationFileName)

	options := &Configuration{

		DataDirectory: defaultDataDirectory,
		PidFile:       "", // no PidFile by default
		Liveness:      defaultLiveness,

		Cloud: CloudType{
			Backend:      BackendLevelDB,
			Database:     defaultDatabase,
			PollInterval: defaultPollInterval,
		},

		Nearby: nearby.Configuration{
			ServiceTag: nearby.DefaultServiceTag,
			Topic:      nearby.DefaultTopic,
			PrivateKey: defaultIdentityFile,
			LowWater:   nearby.DefaultLowWater,
			HighWater:  nearby.DefaultHighWater,
			QueueSize:  nearby.DefaultQueueSize,
		},

		ClientRPC: listeners.RPCConfiguration{
			MaximumConnections: defaultRPCClients,
			Certificate:        defaultCertificateFile,
			PrivateKey:         defaultKeyFile,
		},

		Inbox: inbox.Configuration{
			File: defaultInboxFile,
		},

		Logging: logger.Configuration{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels:    defaultLogLevels,
		},
	}

	if err := ParseConfigurationFile(configurationFileName, options); err != nil {
		return nil, err
	}

	options.Name = strings.TrimSpace(options.Name)
	if "" == options.Name {
		return nil, fault.ErrMissingName
	}
	options.Account = strings.TrimSpace(options.Account)
	if "" == options.Account {
		options.Account = options.Name
	}

	options.Cloud.Backend = strings.ToLower(options.Cloud.Backend)
	switch options.Cloud.Backend {
	case BackendLevelDB:
	case BackendDynamoDB:
		if "" == options.Cloud.DynamoDB.Table {
			return nil, fmt.Errorf("%w: dynamodb table is required", fault.ErrCloudBackendUnknown)
		}
	default:
		return nil, fmt.Errorf("%w: %q", fault.ErrCloudBackendUnknown, options.Cloud.Backend)
	}

	for _, d := range []Duration{
		options.Liveness,
		options.Cloud.ZoneWriteInterval,
		options.Cloud.PollInterval,
		options.Cloud.UpdateInterval,
		options.Cloud.ProvisionTimeout,
		options.Cloud.ProvisionCeiling,
		options.Cloud.FallbackDelay,
	} {
		if err := d.validate(); nil != err {
			return nil, err
		}
	}

	// ensure absolute data directory
	if "" == options.DataDirectory || "~" == options.DataDirectory {
		return nil, fmt.Errorf("%w: %q", fault.ErrInvalidDataDirectory, options.DataDirectory)
	} else if "." == options.DataDirectory {
		options.DataDirectory = dataDirectory // same directory as the configuration file
	}
	options.DataDirectory = filepath.Clean(options.DataDirectory)

	// this directory must exist - i.e. must be created prior to running
	if fileInfo, err := os.Stat(options.DataDirectory); nil != err {
		return nil, err
	} else if !fileInfo.IsDir() {
		return nil, fmt.Errorf("%w: %q is not a directory", fault.ErrInvalidDataDirectory, options.DataDirectory)
	}

	// force all relevant items to be absolute paths
	// if not, assign them to the data directory
	mustBeAbsolute := []*string{
		&options.Cloud.Database,
		&options.Nearby.PrivateKey,
		&options.ClientRPC.Certificate,
		&options.ClientRPC.PrivateKey,
		&options.Logging.Directory,
	}
	for _, f := range mustBeAbsolute {
		*f = ensureAbsolute(options.DataDirectory, *f)
	}

	// optional absolute paths i.e. blank or an absolute path
	optionalAbsolute := []*string{
		&options.PidFile,
		&options.Publishing.PrivateKey,
		&options.Publishing.PublicKey,
		&options.Inbox.File,
	}
	for _, f := range optionalAbsolute {
		if "" != *f {
			*f = ensureAbsolute(options.DataDirectory, *f)
		}
	}

	// the log file must be a plain name inside the log directory
	switch filepath.Dir(options.Logging.File) {
	case "", ".":
	default:
		return nil, fmt.Errorf("Files: %q is not plain name", options.Logging.File)
	}

	// create directories if they do not already exist
	if err := os.MkdirAll(options.Logging.Directory, 0700); nil != err {
		return nil, err
	}

	// done
	return options, nil
}

// relative paths are taken from directory
func ensureAbsolute(directory string, filePath string) string {
	if !filepath.IsAbs(filePath) {
		filePath = filepath.Join(directory, filePath)
	}
	return filepath.Clean(filePath)
}
