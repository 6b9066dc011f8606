// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package nearby

import (
	"crypto/rand"
	"encoding/hex"
	"io/ioutil"
	"os"
	"strings"

	crypto "github.com/libp2p/go-libp2p-core/crypto"

	"github.com/bitmark-inc/wya/fault"
)

// MakeIdentityFile - write a new random ED25519 key as hex to a file
// that must not already exist
func MakeIdentityFile(filename string) error {
	if _, err := os.Stat(filename); nil == err {
		return fault.ErrKeyFileAlreadyExists
	}

	privateKey, _, err := crypto.GenerateKeyPairWithReader(crypto.Ed25519, 0, rand.Reader)
	if nil != err {
		return err
	}

	text, err := encodePrivateKey(privateKey)
	if nil != err {
		return err
	}
	return ioutil.WriteFile(filename, []byte(text+"\n"), 0600)
}

// ReadIdentityFile - read the hex key written by MakeIdentityFile
func ReadIdentityFile(filename string) (crypto.PrivKey, error) {
	text, err := ioutil.ReadFile(filename)
	if nil != err {
		return nil, err
	}
	return decodePrivateKey(strings.TrimSpace(string(text)))
}

// LoadOrCreateIdentity - read the key file, creating it on first use
func LoadOrCreateIdentity(filename string) (crypto.PrivKey, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		err := MakeIdentityFile(filename)
		if nil != err {
			return nil, err
		}
	}
	return ReadIdentityFile(filename)
}

func decodePrivateKey(text string) (crypto.PrivKey, error) {
	keyBytes, err := hex.DecodeString(text)
	if nil != err {
		return nil, err
	}
	return crypto.UnmarshalPrivateKey(keyBytes)
}

func encodePrivateKey(privateKey crypto.PrivKey) (string, error) {
	keyBytes, err := crypto.MarshalPrivateKey(privateKey)
	if nil != err {
		return "", err
	}
	return hex.EncodeToString(keyBytes), nil
}
