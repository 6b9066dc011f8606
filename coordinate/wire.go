// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coordinate

import (
	"github.com/golang/protobuf/proto"

	"github.com/bitmark-inc/wya/fault"
)

// Location - the peer wire message
//
// both axes are required: a payload missing either one does not decode
type Location struct {
	Name      *string  `protobuf:"bytes,1,opt,name=name" json:"name,omitempty"`
	Latitude  *float64 `protobuf:"fixed64,2,req,name=latitude" json:"latitude,omitempty"`
	Longitude *float64 `protobuf:"fixed64,3,req,name=longitude" json:"longitude,omitempty"`
}

func (m *Location) Reset()         { *m = Location{} }
func (m *Location) String() string { return proto.CompactTextString(m) }
func (*Location) ProtoMessage()    {}

// Pack - encode a named coordinate for transmission
func Pack(name string, c Coordinate) ([]byte, error) {
	if err := c.Validate(); nil != err {
		return nil, err
	}
	m := &Location{
		Latitude:  proto.Float64(c.Latitude),
		Longitude: proto.Float64(c.Longitude),
	}
	if "" != name {
		m.Name = proto.String(name)
	}
	return proto.Marshal(m)
}

// Unpack - decode a received payload, name is empty if the sender
// did not include one
func Unpack(payload []byte) (string, Coordinate, error) {
	if 0 == len(payload) {
		return "", Zero, fault.ErrMalformedPayload
	}

	m := &Location{}
	if err := proto.Unmarshal(payload, m); nil != err {
		return "", Zero, fault.Wrap(fault.ErrMalformedPayload, err)
	}
	if nil == m.Latitude || nil == m.Longitude {
		return "", Zero, fault.ErrMalformedPayload
	}

	c := Coordinate{
		Latitude:  m.GetLatitude(),
		Longitude: m.GetLongitude(),
	}
	if err := c.Validate(); nil != err {
		return "", Zero, fault.Wrap(fault.ErrMalformedPayload, err)
	}
	return m.GetName(), c, nil
}

func (m *Location) GetName() string {
	if nil != m && nil != m.Name {
		return *m.Name
	}
	return ""
}

func (m *Location) GetLatitude() float64 {
	if nil != m && nil != m.Latitude {
		return *m.Latitude
	}
	return 0
}

func (m *Location) GetLongitude() float64 {
	if nil != m && nil != m.Longitude {
		return *m.Longitude
	}
	return 0
}
