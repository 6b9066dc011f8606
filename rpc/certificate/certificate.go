// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package certificate

import (
	"crypto/tls"
	"io/ioutil"
	"os"
	"time"

	"github.com/bitmark-inc/certgen"
	"github.com/bitmark-inc/logger"
	"golang.org/x/crypto/sha3"

	"github.com/bitmark-inc/wya/fault"
)

// how long a generated certificate remains valid
const validity = 10 * 365 * 24 * time.Hour

// Get - load a certificate and key pair from PEM files and return
// the server TLS configuration with the certificate fingerprint
func Get(log *logger.L, name string, certificateFile string, keyFile string) (*tls.Config, [32]byte, error) {
	var fin [32]byte

	keyPair, err := tls.LoadX509KeyPair(certificateFile, keyFile)
	if nil != err {
		log.Errorf("%s failed to load keypair: %s", name, err)
		return nil, fin, err
	}

	tlsConfiguration := &tls.Config{
		Certificates: []tls.Certificate{
			keyPair,
		},
		MinVersion: tls.VersionTLS12,
	}

	fin = Fingerprint(keyPair.Certificate[0])
	log.Infof("%s: SHA3-256 fingerprint: %x", name, fin)

	return tlsConfiguration, fin, nil
}

// Fingerprint - SHA3-256 of a DER encoded certificate
//
// openssl x509 -outform DER -in wyad-rpc.crt | sha3sum -a 256
func Fingerprint(certificate []byte) [32]byte {
	return sha3.Sum256(certificate)
}

// MakeSelfSigned - write a new self-signed certificate and private key
//
// neither file may exist beforehand
func MakeSelfSigned(name string, certificateFile string, keyFile string, extraHosts []string) error {

	if exists(certificateFile) {
		return fault.ErrCertificateFileExists
	}
	if exists(keyFile) {
		return fault.ErrKeyFileAlreadyExists
	}

	org := "wyad self signed cert for: " + name
	cert, key, err := certgen.NewTLSCertPair(org, time.Now().Add(validity), false, extraHosts)
	if nil != err {
		return err
	}

	if err = ioutil.WriteFile(certificateFile, cert, 0666); nil != err {
		return err
	}

	if err = ioutil.WriteFile(keyFile, key, 0600); nil != err {
		_ = os.Remove(certificateFile)
		return err
	}

	return nil
}

func exists(name string) bool {
	_, err := os.Stat(name)
	return nil == err
}
