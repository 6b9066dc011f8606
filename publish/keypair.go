// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package publish

import (
	"encoding/hex"
	"io/ioutil"
	"os"
	"strings"

	zmq "github.com/pebbe/zmq4"

	"github.com/bitmark-inc/wya/fault"
)

const (
	taggedPublic  = "PUBLIC:"
	taggedPrivate = "PRIVATE:"
	keyLength     = 32
)

// MakeKeyPair - create a CURVE key pair and write each half to its
// own file, neither may exist already
func MakeKeyPair(publicKeyFileName string, privateKeyFileName string) error {
	if fileExists(publicKeyFileName) || fileExists(privateKeyFileName) {
		return fault.ErrKeyFileAlreadyExists
	}

	// the library returns Z85 text
	publicKey, privateKey, err := zmq.NewCurveKeypair()
	if nil != err {
		return err
	}

	publicText := taggedPublic + hex.EncodeToString([]byte(zmq.Z85decode(publicKey))) + "\n"
	privateText := taggedPrivate + hex.EncodeToString([]byte(zmq.Z85decode(privateKey))) + "\n"

	err = ioutil.WriteFile(publicKeyFileName, []byte(publicText), 0666)
	if nil != err {
		return err
	}

	err = ioutil.WriteFile(privateKeyFileName, []byte(privateText), 0600)
	if nil != err {
		os.Remove(publicKeyFileName)
		return err
	}
	return nil
}

// ReadPublicKeyFile - the 32 byte key from a public key file
func ReadPublicKeyFile(filename string) ([]byte, error) {
	return readKeyFile(filename, taggedPublic)
}

// ReadPrivateKeyFile - the 32 byte key from a private key file
func ReadPrivateKeyFile(filename string) ([]byte, error) {
	return readKeyFile(filename, taggedPrivate)
}

func readKeyFile(filename string, tag string) ([]byte, error) {
	data, err := ioutil.ReadFile(filename)
	if nil != err {
		return nil, err
	}

	s := strings.TrimSpace(string(data))
	if !strings.HasPrefix(s, tag) {
		return nil, fault.ErrInvalidKeyFile
	}
	key, err := hex.DecodeString(strings.TrimPrefix(s, tag))
	if nil != err || keyLength != len(key) {
		return nil, fault.ErrInvalidKeyFile
	}
	return key, nil
}

func fileExists(name string) bool {
	_, err := os.Stat(name)
	return nil == err
}
