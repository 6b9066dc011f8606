// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cloud

import (
	"crypto/rand"
	"strings"

	"github.com/mr-tron/base58"

	"github.com/bitmark-inc/wya/fault"
)

const tokenLength = 24

// NewShareURL - a fresh random invitation URL
func NewShareURL() (string, error) {
	token := make([]byte, tokenLength)
	if _, err := rand.Read(token); nil != err {
		return "", err
	}
	return URLPrefix + base58.Encode(token), nil
}

// ParseShareURL - extract and check the token of an invitation URL
//
// surrounding white space from copy and paste is ignored
func ParseShareURL(url string) (string, error) {
	url = strings.TrimSpace(url)
	if !strings.HasPrefix(url, URLPrefix) {
		return "", fault.ErrInvalidLink
	}
	token := strings.TrimPrefix(url, URLPrefix)
	b, err := base58.Decode(token)
	if nil != err || tokenLength != len(b) {
		return "", fault.ErrInvalidLink
	}
	return token, nil
}
