// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ldbstore

import (
	"github.com/golang/protobuf/proto"
)

// stored form of a location record
type storedRecord struct {
	Latitude  float64 `protobuf:"fixed64,1,opt,name=latitude,proto3" json:"latitude,omitempty"`
	Longitude float64 `protobuf:"fixed64,2,opt,name=longitude,proto3" json:"longitude,omitempty"`
	OwnerName string  `protobuf:"bytes,3,opt,name=owner_name,proto3" json:"owner_name,omitempty"`
	ETag      string  `protobuf:"bytes,4,opt,name=etag,proto3" json:"etag,omitempty"`
	Modified  int64   `protobuf:"varint,5,opt,name=modified,proto3" json:"modified,omitempty"`
	Revision  uint64  `protobuf:"varint,6,opt,name=revision,proto3" json:"revision,omitempty"`
}

func (m *storedRecord) Reset()         { *m = storedRecord{} }
func (m *storedRecord) String() string { return proto.CompactTextString(m) }
func (*storedRecord) ProtoMessage()    {}

// stored form of a share, keyed by its token
type storedShare struct {
	ID      []byte `protobuf:"bytes,1,opt,name=id,proto3" json:"id,omitempty"`
	Owner   string `protobuf:"bytes,2,opt,name=owner,proto3" json:"owner,omitempty"`
	Zone    string `protobuf:"bytes,3,opt,name=zone,proto3" json:"zone,omitempty"`
	Record  string `protobuf:"bytes,4,opt,name=record,proto3" json:"record,omitempty"`
	Title   string `protobuf:"bytes,5,opt,name=title,proto3" json:"title,omitempty"`
	URL     string `protobuf:"bytes,6,opt,name=url,proto3" json:"url,omitempty"`
	Created int64  `protobuf:"varint,7,opt,name=created,proto3" json:"created,omitempty"`
}

func (m *storedShare) Reset()         { *m = storedShare{} }
func (m *storedShare) String() string { return proto.CompactTextString(m) }
func (*storedShare) ProtoMessage()    {}
