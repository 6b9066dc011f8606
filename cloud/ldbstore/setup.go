// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ldbstore

import (
	"encoding/binary"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/bitmark-inc/logger"
)

// storage pools
//
// note all must be exported (i.e. initial capital) or initialisation will panic
type pools struct {
	Zones         *poolHandle `prefix:"Z"`
	Records       *poolHandle `prefix:"R"`
	Shares        *poolHandle `prefix:"S"`
	RecordShare   *poolHandle `prefix:"T"`
	ShareAccepted *poolHandle `prefix:"A"`
}

// for database version
var versionKey = []byte{0x00, 'V', 'E', 'R', 'S', 'I', 'O', 'N'}

const (
	currentVersion = 0x100
)

// Options - tuning for the store
type Options struct {
	// minimum time between two writes to the same zone, a write
	// arriving sooner is rejected as busy with the remaining time
	// advertised; zero disables
	ZoneWriteInterval time.Duration
}

// Store - a LevelDB database holding the zones, records and shares
// of every account
type Store struct {
	sync.Mutex

	log     *logger.L
	db      *leveldb.DB
	pool    pools
	cache   *recordCache
	options Options

	// last write time per zone
	lastWrite map[string]time.Time
	now       func() time.Time
}

// Open - open or create the database
func Open(database string, options Options) (*Store, error) {

	log := logger.New("ldbstore")

	db, version, err := getDB(database)
	if nil != err {
		return nil, err
	}

	ok := false
	defer func() {
		if !ok {
			db.Close()
		}
	}()

	// ensure no database downgrade
	if version > currentVersion {
		log.Criticalf("database version: %d > current version: %d", version, currentVersion)
		return nil, fmt.Errorf("database version: %d > current version: %d", version, currentVersion)
	}

	if 0 == version {
		// database was empty so tag as current version
		err = putVersion(db, currentVersion)
		if nil != err {
			return nil, err
		}
	}

	s := &Store{
		log:       log,
		db:        db,
		cache:     newRecordCache(),
		options:   options,
		lastWrite: make(map[string]time.Time),
		now:       time.Now,
	}

	err = s.setupPools()
	if nil != err {
		return nil, err
	}

	log.Infof("opened: %s  version: 0x%x", database, currentVersion)

	ok = true // prevent db close
	return s, nil
}

// Close - close the database
func (s *Store) Close() error {
	s.Lock()
	defer s.Unlock()

	if nil == s.db {
		return nil
	}
	s.cache.clear()
	err := s.db.Close()
	s.db = nil
	s.log.Info("closed")
	s.log.Flush()
	return err
}

// scan the pools struct and give each field its prefix
func (s *Store) setupPools() error {

	// this will be a struct type
	poolType := reflect.TypeOf(s.pool)

	// get write access by using pointer + Elem()
	poolValue := reflect.ValueOf(&s.pool).Elem()

	for i := 0; i < poolType.NumField(); i += 1 {

		fieldInfo := poolType.Field(i)

		prefixTag := fieldInfo.Tag.Get("prefix")
		if 1 != len(prefixTag) {
			return fmt.Errorf("pool: %v has invalid prefix: %q", fieldInfo, prefixTag)
		}

		prefix := prefixTag[0]
		limit := []byte(nil)
		if prefix < 255 {
			limit = []byte{prefix + 1}
		}

		p := &poolHandle{
			prefix: prefix,
			limit:  limit,
			db:     s.db,
		}
		poolValue.Field(i).Set(reflect.ValueOf(p))
	}
	return nil
}

// return:
//   database handle
//   version number
func getDB(name string) (*leveldb.DB, int, error) {
	opt := &ldb_opt.Options{
		ErrorIfExist:   false,
		ErrorIfMissing: false,
	}

	db, err := leveldb.OpenFile(name, opt)
	if nil != err {
		return nil, 0, err
	}

	versionValue, err := db.Get(versionKey, nil)
	if leveldb.ErrNotFound == err {
		return db, 0, nil
	} else if nil != err {
		db.Close()
		return nil, 0, err
	}

	if 4 != len(versionValue) {
		db.Close()
		return nil, 0, fmt.Errorf("incompatible database version length: expected: %d  actual: %d", 4, len(versionValue))
	}

	version := int(binary.BigEndian.Uint32(versionValue))
	return db, version, nil
}

func putVersion(db *leveldb.DB, version int) error {
	v := make([]byte, 4)
	binary.BigEndian.PutUint32(v, uint32(version))

	return db.Put(versionKey, v, nil)
}
