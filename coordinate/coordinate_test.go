// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coordinate_test

import (
	"math"
	"testing"

	"github.com/golang/protobuf/proto"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/wya/coordinate"
	"github.com/bitmark-inc/wya/fault"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		c     coordinate.Coordinate
		valid bool
	}{
		{coordinate.Zero, true},
		{coordinate.Coordinate{Latitude: 37.77, Longitude: -122.41}, true},
		{coordinate.Coordinate{Latitude: 90, Longitude: 180}, true},
		{coordinate.Coordinate{Latitude: -90, Longitude: -180}, true},
		{coordinate.Coordinate{Latitude: 90.0001, Longitude: 0}, false},
		{coordinate.Coordinate{Latitude: 0, Longitude: -180.5}, false},
		{coordinate.Coordinate{Latitude: math.NaN(), Longitude: 0}, false},
	}

	for i, item := range tests {
		err := item.c.Validate()
		if item.valid {
			assert.Nil(t, err, "%d: unexpected error", i)
		} else {
			assert.Equal(t, fault.ErrInvalidCoordinate, err, "%d: wrong error", i)
		}
	}
}

func TestPackUnpack(t *testing.T) {
	c := coordinate.Coordinate{Latitude: 10, Longitude: 20}

	packed, err := coordinate.Pack("A", c)
	assert.Nil(t, err, "pack error")

	name, unpacked, err := coordinate.Unpack(packed)
	assert.Nil(t, err, "unpack error")
	assert.Equal(t, "A", name, "wrong name")
	assert.Equal(t, c, unpacked, "wrong coordinate")
}

func TestPackWithoutName(t *testing.T) {
	packed, err := coordinate.Pack("", coordinate.Zero)
	assert.Nil(t, err, "pack error")

	name, _, err := coordinate.Unpack(packed)
	assert.Nil(t, err, "unpack error")
	assert.Equal(t, "", name, "name should be empty")
}

func TestPackInvalid(t *testing.T) {
	_, err := coordinate.Pack("A", coordinate.Coordinate{Latitude: 100})
	assert.Equal(t, fault.ErrInvalidCoordinate, err, "wrong error")
}

func TestUnpackMissingLongitude(t *testing.T) {
	m := &coordinate.Location{
		Name:     proto.String("A"),
		Latitude: proto.Float64(10),
	}
	// hand encode so the required field check on marshal is bypassed
	buffer := proto.NewBuffer(nil)
	buffer.EncodeVarint(1<<3 | proto.WireBytes)
	buffer.EncodeStringBytes(m.GetName())
	buffer.EncodeVarint(2<<3 | proto.WireFixed64)
	buffer.EncodeFixed64(math.Float64bits(m.GetLatitude()))

	_, _, err := coordinate.Unpack(buffer.Bytes())
	assert.True(t, fault.IsErrDecode(err), "expected decode error, got: %v", err)
}

func TestUnpackGarbage(t *testing.T) {
	payloads := [][]byte{
		nil,
		{},
		[]byte(`{"lat": 10}`),
		{0xff, 0xff, 0xff},
	}
	for i, p := range payloads {
		_, _, err := coordinate.Unpack(p)
		assert.True(t, fault.IsErrDecode(err), "%d: expected decode error, got: %v", i, err)
	}
}

func TestUnpackOutOfRange(t *testing.T) {
	buffer := proto.NewBuffer(nil)
	buffer.EncodeVarint(2<<3 | proto.WireFixed64)
	buffer.EncodeFixed64(math.Float64bits(91))
	buffer.EncodeVarint(3<<3 | proto.WireFixed64)
	buffer.EncodeFixed64(math.Float64bits(0))

	_, _, err := coordinate.Unpack(buffer.Bytes())
	assert.True(t, fault.IsErrDecode(err), "expected decode error, got: %v", err)
}
