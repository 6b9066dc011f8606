// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ldbstore

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/syndtr/goleveldb/leveldb"
	"golang.org/x/crypto/sha3"

	"github.com/bitmark-inc/wya/cloud"
	"github.com/bitmark-inc/wya/fault"
)

// account - the store as seen by one account
type account struct {
	store *Store
	owner string
}

// Account - a cloud database scoped to one account
func (s *Store) Account(owner string) cloud.Database {
	return &account{
		store: s,
		owner: owner,
	}
}

func (a *account) Account() string {
	return a.owner
}

// SaveZone - create a zone owned by this account
func (a *account) SaveZone(ctx context.Context, zone cloud.ZoneID) error {
	if err := ctx.Err(); nil != err {
		return err
	}
	if zone.Owner != a.owner {
		return fault.ErrZoneNotFound
	}

	s := a.store
	s.Lock()
	defer s.Unlock()

	if nil == s.db {
		return fault.ErrNotInitialised
	}

	key := zoneKey(zone)
	found, err := s.pool.Zones.has(key)
	if nil != err {
		return err
	}
	if found {
		return fault.ErrZoneExists
	}

	batch := new(leveldb.Batch)
	s.pool.Zones.put(batch, key, packTime(s.now().UnixNano()))
	err = s.db.Write(batch, nil)
	if nil != err {
		return err
	}
	s.log.Infof("zone: %s created", zone)
	return nil
}

// FetchRecord - read a record in one of this account's zones
func (a *account) FetchRecord(ctx context.Context, id cloud.RecordID) (*cloud.Record, error) {
	if err := ctx.Err(); nil != err {
		return nil, err
	}
	if id.Zone.Owner != a.owner {
		return nil, fault.ErrRecordNotFound
	}

	s := a.store
	s.Lock()
	defer s.Unlock()

	if nil == s.db {
		return nil, fault.ErrNotInitialised
	}

	found, err := s.pool.Zones.has(zoneKey(id.Zone))
	if nil != err {
		return nil, err
	}
	if !found {
		return nil, fault.ErrZoneNotFound
	}

	return s.readRecord(id)
}

// SaveRecord - create or update a record
//
// an empty ETag only creates, otherwise the ETag must match the stored one
func (a *account) SaveRecord(ctx context.Context, record *cloud.Record) (*cloud.Record, error) {
	if err := ctx.Err(); nil != err {
		return nil, err
	}
	if nil == record {
		return nil, fault.ErrInvalidStructPointer
	}
	if err := record.Coordinate().Validate(); nil != err {
		return nil, err
	}
	id := record.ID
	if id.Zone.Owner != a.owner {
		return nil, fault.ErrZoneNotFound
	}

	s := a.store
	s.Lock()
	defer s.Unlock()

	if nil == s.db {
		return nil, fault.ErrNotInitialised
	}

	found, err := s.pool.Zones.has(zoneKey(id.Zone))
	if nil != err {
		return nil, err
	}
	if !found {
		return nil, fault.ErrZoneNotFound
	}

	if err := s.zoneWritable(id.Zone); nil != err {
		return nil, err
	}

	key := recordKey(id)
	packed, err := s.pool.Records.get(key)
	if nil != err {
		return nil, err
	}

	previous := &storedRecord{}
	if nil != packed {
		err = proto.Unmarshal(packed, previous)
		if nil != err {
			return nil, err
		}
		if record.ETag != previous.ETag {
			return nil, fault.ErrRecordChanged
		}
	} else if "" != record.ETag {
		return nil, fault.ErrRecordNotFound
	}

	now := s.now()
	stored := &storedRecord{
		Latitude:  record.Latitude,
		Longitude: record.Longitude,
		OwnerName: record.OwnerName,
		Modified:  now.UnixNano(),
		Revision:  previous.Revision + 1,
	}
	stored.ETag = makeETag(key, stored)

	value, err := proto.Marshal(stored)
	if nil != err {
		return nil, err
	}

	batch := new(leveldb.Batch)
	s.pool.Records.put(batch, key, value)
	err = s.db.Write(batch, nil)
	if nil != err {
		return nil, err
	}
	s.lastWrite[zoneKeyString(id.Zone)] = now

	result := unpackRecord(id, stored)
	s.cache.set(key, result)

	s.log.Debugf("record: %s saved  revision: %d", id, stored.Revision)
	return result.Copy(), nil
}

// SaveShare - create a share for a record, replacing any previous share
//
// saving the same share a second time returns the stored share
func (a *account) SaveShare(ctx context.Context, root *cloud.Record, share *cloud.Share) (*cloud.Share, error) {
	if err := ctx.Err(); nil != err {
		return nil, err
	}
	if nil == root || nil == share {
		return nil, fault.ErrInvalidStructPointer
	}
	id := root.ID
	if id.Zone.Owner != a.owner || share.Root != id {
		return nil, fault.ErrShareCreateFailed
	}

	s := a.store
	s.Lock()
	defer s.Unlock()

	if nil == s.db {
		return nil, fault.ErrNotInitialised
	}

	rKey := recordKey(id)
	found, err := s.pool.Records.has(rKey)
	if nil != err {
		return nil, err
	}
	if !found {
		return nil, fault.ErrRecordNotFound
	}

	// check for a current share
	currentToken, err := s.pool.RecordShare.get(rKey)
	if nil != err {
		return nil, err
	}
	var current *cloud.Share
	if nil != currentToken {
		current, err = s.readShare(currentToken)
		if nil != err {
			return nil, err
		}
		if nil != current && current.ID == share.ID {
			return current, nil
		}
	}

	if err := s.zoneWritable(id.Zone); nil != err {
		return nil, err
	}

	batch := new(leveldb.Batch)
	if nil != current {
		s.log.Infof("record: %s  share: %s superseded", id, current.ID)
		err = s.removeShare(batch, currentToken)
		if nil != err {
			return nil, err
		}
	}

	url := share.URL
	if "" == url {
		url, err = cloud.NewShareURL()
		if nil != err {
			return nil, err
		}
	}
	token, err := cloud.ParseShareURL(url)
	if nil != err {
		return nil, fault.Wrap(fault.ErrShareCreateFailed, err)
	}

	now := s.now()
	stored := &storedShare{
		ID:      share.ID[:],
		Owner:   id.Zone.Owner,
		Zone:    id.Zone.Name,
		Record:  id.Name,
		Title:   share.Title,
		URL:     url,
		Created: now.UnixNano(),
	}
	value, err := proto.Marshal(stored)
	if nil != err {
		return nil, err
	}

	s.pool.Shares.put(batch, []byte(token), value)
	s.pool.RecordShare.put(batch, rKey, []byte(token))
	err = s.db.Write(batch, nil)
	if nil != err {
		return nil, err
	}
	s.lastWrite[zoneKeyString(id.Zone)] = now

	s.log.Infof("record: %s  share: %s created", id, share.ID)

	result := *share
	result.URL = url
	return &result, nil
}

// DeleteShare - revoke a share, any account that accepted it loses access
func (a *account) DeleteShare(ctx context.Context, share *cloud.Share) error {
	if err := ctx.Err(); nil != err {
		return err
	}
	if nil == share {
		return fault.ErrInvalidStructPointer
	}
	if share.Root.Zone.Owner != a.owner {
		return fault.ErrShareNotFound
	}
	token, err := cloud.ParseShareURL(share.URL)
	if nil != err {
		return fault.ErrShareNotFound
	}

	s := a.store
	s.Lock()
	defer s.Unlock()

	if nil == s.db {
		return fault.ErrNotInitialised
	}

	current, err := s.readShare([]byte(token))
	if nil != err {
		return err
	}
	if nil == current || current.ID != share.ID {
		return fault.ErrShareNotFound
	}

	batch := new(leveldb.Batch)
	err = s.removeShare(batch, []byte(token))
	if nil != err {
		return err
	}

	rKey := recordKey(share.Root)
	currentToken, err := s.pool.RecordShare.get(rKey)
	if nil != err {
		return err
	}
	if string(currentToken) == token {
		s.pool.RecordShare.remove(batch, rKey)
	}

	err = s.db.Write(batch, nil)
	if nil != err {
		return err
	}
	s.log.Infof("record: %s  share: %s revoked", share.Root, share.ID)
	return nil
}

// FetchShare - the current share of one of this account's records
func (a *account) FetchShare(ctx context.Context, id cloud.RecordID) (*cloud.Share, error) {
	if err := ctx.Err(); nil != err {
		return nil, err
	}
	if id.Zone.Owner != a.owner {
		return nil, fault.ErrShareNotFound
	}

	s := a.store
	s.Lock()
	defer s.Unlock()

	if nil == s.db {
		return nil, fault.ErrNotInitialised
	}

	token, err := s.pool.RecordShare.get(recordKey(id))
	if nil != err {
		return nil, err
	}
	if nil == token {
		return nil, fault.ErrShareNotFound
	}

	share, err := s.readShare(token)
	if nil != err {
		return nil, err
	}
	if nil == share {
		return nil, fault.ErrShareNotFound
	}
	return share, nil
}

// FetchShareMetadata - resolve an invitation URL
func (a *account) FetchShareMetadata(ctx context.Context, url string) (*cloud.ShareMetadata, error) {
	if err := ctx.Err(); nil != err {
		return nil, err
	}
	token, err := cloud.ParseShareURL(url)
	if nil != err {
		return nil, err
	}

	s := a.store
	s.Lock()
	defer s.Unlock()

	if nil == s.db {
		return nil, fault.ErrNotInitialised
	}

	share, err := s.readShare([]byte(token))
	if nil != err {
		return nil, err
	}
	if nil == share {
		return nil, fault.ErrShareNotFound
	}

	ownerName := ""
	record, err := s.readRecord(share.Root)
	if nil == err {
		ownerName = record.OwnerName
	}

	return &cloud.ShareMetadata{
		ShareID:   share.ID,
		URL:       share.URL,
		Root:      share.Root,
		OwnerName: ownerName,
		Title:     share.Title,
	}, nil
}

// AcceptShare - record that this account accepted a share
//
// accepting again only refreshes the acceptance time
func (a *account) AcceptShare(ctx context.Context, metadata *cloud.ShareMetadata) error {
	if err := ctx.Err(); nil != err {
		return err
	}
	if nil == metadata {
		return fault.ErrInvalidStructPointer
	}
	token, err := cloud.ParseShareURL(metadata.URL)
	if nil != err {
		return err
	}

	s := a.store
	s.Lock()
	defer s.Unlock()

	if nil == s.db {
		return fault.ErrNotInitialised
	}

	share, err := s.readShare([]byte(token))
	if nil != err {
		return err
	}
	if nil == share || share.ID != metadata.ShareID {
		return fault.ErrShareRevoked
	}

	batch := new(leveldb.Batch)
	s.pool.ShareAccepted.put(batch, makeKey(token, a.owner), packTime(s.now().UnixNano()))
	err = s.db.Write(batch, nil)
	if nil != err {
		return err
	}
	s.log.Infof("account: %s accepted share: %s", a.owner, share.ID)
	return nil
}

// FetchSharedRecord - read a record through an accepted share
func (a *account) FetchSharedRecord(ctx context.Context, id cloud.RecordID) (*cloud.Record, error) {
	if err := ctx.Err(); nil != err {
		return nil, err
	}

	s := a.store
	s.Lock()
	defer s.Unlock()

	if nil == s.db {
		return nil, fault.ErrNotInitialised
	}

	token, err := s.pool.RecordShare.get(recordKey(id))
	if nil != err {
		return nil, err
	}
	if nil == token {
		return nil, fault.ErrNotShared
	}
	found, err := s.pool.ShareAccepted.has(makeKey(string(token), a.owner))
	if nil != err {
		return nil, err
	}
	if !found {
		return nil, fault.ErrNotShared
	}
	return s.readRecord(id)
}

// add the removal of a share and all of its acceptances to a batch
func (s *Store) removeShare(batch *leveldb.Batch, token []byte) error {
	s.pool.Shares.remove(batch, token)

	accepted, err := s.pool.ShareAccepted.keysWithPrefix(append(append([]byte{}, token...), separator))
	if nil != err {
		return err
	}
	for _, k := range accepted {
		s.pool.ShareAccepted.remove(batch, k)
	}
	return nil
}

// a write to a zone too soon after the previous one is busy
func (s *Store) zoneWritable(zone cloud.ZoneID) error {
	if s.options.ZoneWriteInterval <= 0 {
		return nil
	}
	last, ok := s.lastWrite[zoneKeyString(zone)]
	if !ok {
		return nil
	}
	wait := s.options.ZoneWriteInterval - s.now().Sub(last)
	if wait > 0 {
		s.log.Debugf("zone: %s busy for: %s", zone, wait)
		return fault.Busy(fault.ErrZoneBusy, wait)
	}
	return nil
}

// read a record, using the cache
func (s *Store) readRecord(id cloud.RecordID) (*cloud.Record, error) {
	key := recordKey(id)
	if r, ok := s.cache.get(key); ok {
		return r, nil
	}

	packed, err := s.pool.Records.get(key)
	if nil != err {
		return nil, err
	}
	if nil == packed {
		return nil, fault.ErrRecordNotFound
	}

	stored := &storedRecord{}
	err = proto.Unmarshal(packed, stored)
	if nil != err {
		return nil, err
	}

	r := unpackRecord(id, stored)
	s.cache.set(key, r)
	return r, nil
}

// read a share by token, nil if it does not exist
func (s *Store) readShare(token []byte) (*cloud.Share, error) {
	packed, err := s.pool.Shares.get(token)
	if nil != err || nil == packed {
		return nil, err
	}

	stored := &storedShare{}
	err = proto.Unmarshal(packed, stored)
	if nil != err {
		return nil, err
	}

	id, err := uuid.FromBytes(stored.ID)
	if nil != err {
		return nil, err
	}

	return &cloud.Share{
		ID: id,
		Root: cloud.RecordID{
			Zone: cloud.ZoneID{
				Name:  stored.Zone,
				Owner: stored.Owner,
			},
			Name: stored.Record,
		},
		Title: stored.Title,
		URL:   stored.URL,
	}, nil
}

func unpackRecord(id cloud.RecordID, stored *storedRecord) *cloud.Record {
	return &cloud.Record{
		ID:        id,
		Latitude:  stored.Latitude,
		Longitude: stored.Longitude,
		OwnerName: stored.OwnerName,
		ETag:      stored.ETag,
		Modified:  time.Unix(0, stored.Modified).UTC(),
	}
}

// digest of the key, revision and content
func makeETag(key []byte, stored *storedRecord) string {
	n := make([]byte, 8)
	binary.BigEndian.PutUint64(n, stored.Revision)

	h := sha3.New256()
	h.Write(key)
	h.Write(n)
	h.Write(packTime(stored.Modified))
	h.Write([]byte(stored.OwnerName))
	binary.Write(h, binary.BigEndian, stored.Latitude)
	binary.Write(h, binary.BigEndian, stored.Longitude)
	return base58.Encode(h.Sum(nil)[:16])
}

func zoneKey(zone cloud.ZoneID) []byte {
	return makeKey(zone.Owner, zone.Name)
}

func zoneKeyString(zone cloud.ZoneID) string {
	return string(zoneKey(zone))
}

func recordKey(id cloud.RecordID) []byte {
	return makeKey(id.Zone.Owner, id.Zone.Name, id.Name)
}
