// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ldbstore

import (
	"bytes"
	"encoding/binary"

	"github.com/syndtr/goleveldb/leveldb"
	ldb_util "github.com/syndtr/goleveldb/leveldb/util"
)

// key separator, never part of an account or a name
const separator = 0x00

type poolHandle struct {
	prefix byte
	limit  []byte
	db     *leveldb.DB
}

// prepend the prefix onto the key
func (p *poolHandle) prefixKey(key []byte) []byte {
	prefixedKey := make([]byte, 1, len(key)+1)
	prefixedKey[0] = p.prefix
	return append(prefixedKey, key...)
}

// read a value for a given key, nil if not found
func (p *poolHandle) get(key []byte) ([]byte, error) {
	value, err := p.db.Get(p.prefixKey(key), nil)
	if leveldb.ErrNotFound == err {
		return nil, nil
	}
	return value, err
}

func (p *poolHandle) has(key []byte) (bool, error) {
	return p.db.Has(p.prefixKey(key), nil)
}

// add a put to a batch
func (p *poolHandle) put(batch *leveldb.Batch, key []byte, value []byte) {
	batch.Put(p.prefixKey(key), value)
}

// add a delete to a batch
func (p *poolHandle) remove(batch *leveldb.Batch, key []byte) {
	batch.Delete(p.prefixKey(key))
}

// keys beginning with a given prefix, the pool prefix is removed
func (p *poolHandle) keysWithPrefix(prefix []byte) ([][]byte, error) {
	r := ldb_util.BytesPrefix(p.prefixKey(prefix))
	iter := p.db.NewIterator(r, nil)
	defer iter.Release()

	keys := make([][]byte, 0, 4)
	for iter.Next() {
		k := iter.Key()
		keys = append(keys, append([]byte{}, k[1:]...))
	}
	return keys, iter.Error()
}

// join key parts with the separator
func makeKey(parts ...string) []byte {
	return bytes.Join(stringsToBytes(parts), []byte{separator})
}

func stringsToBytes(parts []string) [][]byte {
	b := make([][]byte, len(parts))
	for i, s := range parts {
		b[i] = []byte(s)
	}
	return b
}

// encode a time stamp as big endian nanoseconds
func packTime(n int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(n))
	return b
}
