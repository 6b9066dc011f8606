// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cloud_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/wya/cloud"
	"github.com/bitmark-inc/wya/fault"
)

func TestShareURLRoundTrip(t *testing.T) {
	url, err := cloud.NewShareURL()
	assert.Nil(t, err, "new url")

	token, err := cloud.ParseShareURL(url)
	assert.Nil(t, err, "parse url")
	assert.Equal(t, cloud.URLPrefix+token, url, "token mismatch")

	token2, err := cloud.ParseShareURL("  " + url + "\n")
	assert.Nil(t, err, "parse padded url")
	assert.Equal(t, token, token2, "padded token mismatch")
}

func TestShareURLDistinct(t *testing.T) {
	u1, _ := cloud.NewShareURL()
	u2, _ := cloud.NewShareURL()
	assert.NotEqual(t, u1, u2, "urls should differ")
}

func TestParseInvalidShareURL(t *testing.T) {
	urls := []string{
		"",
		"https://example.com/share/abc",
		"wya://share/",
		"wya://share/0OIl",
		"wya://share/abc",
	}
	for _, u := range urls {
		_, err := cloud.ParseShareURL(u)
		assert.Equal(t, fault.ErrInvalidLink, err, "url: %q", u)
	}
}

func TestWellKnownIdentities(t *testing.T) {
	id := cloud.LocationRecordOf("alice")
	assert.Equal(t, "alice/LocationZone/MyLocation", id.String(), "record id")

	r := cloud.NewRecord("alice", "Alice")
	assert.Equal(t, id, r.ID, "record id")
	assert.Equal(t, 0.0, r.Latitude, "latitude")
	assert.Equal(t, 0.0, r.Longitude, "longitude")
	assert.Equal(t, "", r.ETag, "new record has no etag")

	s := cloud.NewShare(id)
	assert.Equal(t, cloud.ShareTitle, s.Title, "title")
	assert.Equal(t, id, s.Root, "root")
}
