// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cloud

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bitmark-inc/wya/coordinate"
)

// well known names
const (
	LocationZone   = "LocationZone"
	LocationRecord = "MyLocation"
	ShareTitle     = "Wya Location"
	URLPrefix      = "wya://share/"
)

// ZoneID - a namespace owned by one account
type ZoneID struct {
	Name  string `json:"name"`
	Owner string `json:"owner"`
}

// RecordID - a record inside a zone
type RecordID struct {
	Zone ZoneID `json:"zone"`
	Name string `json:"name"`
}

// Record - the location record
type Record struct {
	ID        RecordID  `json:"id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	OwnerName string    `json:"ownerName"`
	ETag      string    `json:"etag"`
	Modified  time.Time `json:"modified"`
}

// Share - a read capability for one record
type Share struct {
	ID    uuid.UUID `json:"id"`
	Root  RecordID  `json:"root"`
	Title string    `json:"title"`
	URL   string    `json:"url"`
}

// ShareMetadata - what an invitation URL resolves to
type ShareMetadata struct {
	ShareID   uuid.UUID `json:"shareId"`
	URL       string    `json:"url"`
	Root      RecordID  `json:"root"`
	OwnerName string    `json:"ownerName"`
	Title     string    `json:"title"`
}

// Database - cloud operations as seen by one signed in account
//
// ETag on a saved record must match the stored one, an empty ETag
// creates the record and fails if one already exists
type Database interface {
	Account() string
	SaveZone(ctx context.Context, zone ZoneID) error
	FetchRecord(ctx context.Context, id RecordID) (*Record, error)
	SaveRecord(ctx context.Context, record *Record) (*Record, error)
	SaveShare(ctx context.Context, root *Record, share *Share) (*Share, error)
	DeleteShare(ctx context.Context, share *Share) error
	FetchShare(ctx context.Context, id RecordID) (*Share, error)
	FetchShareMetadata(ctx context.Context, url string) (*ShareMetadata, error)
	AcceptShare(ctx context.Context, metadata *ShareMetadata) error
	FetchSharedRecord(ctx context.Context, id RecordID) (*Record, error)
}

// LocationZoneOf - the location zone of an account
func LocationZoneOf(owner string) ZoneID {
	return ZoneID{
		Name:  LocationZone,
		Owner: owner,
	}
}

// LocationRecordOf - the well known record of an account
func LocationRecordOf(owner string) RecordID {
	return RecordID{
		Zone: LocationZoneOf(owner),
		Name: LocationRecord,
	}
}

// NewRecord - a record seeded at the neutral coordinate
func NewRecord(owner string, ownerName string) *Record {
	return &Record{
		ID:        LocationRecordOf(owner),
		Latitude:  coordinate.Zero.Latitude,
		Longitude: coordinate.Zero.Longitude,
		OwnerName: ownerName,
	}
}

// NewShare - an unsaved share for a root record
func NewShare(root RecordID) *Share {
	return &Share{
		ID:    uuid.New(),
		Root:  root,
		Title: ShareTitle,
	}
}

// Coordinate - the record's position
func (r *Record) Coordinate() coordinate.Coordinate {
	return coordinate.Coordinate{
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
	}
}

// Copy - a detached copy
func (r *Record) Copy() *Record {
	if nil == r {
		return nil
	}
	c := *r
	return &c
}

func (id ZoneID) String() string {
	return fmt.Sprintf("%s/%s", id.Owner, id.Name)
}

func (id RecordID) String() string {
	return fmt.Sprintf("%s/%s", id.Zone, id.Name)
}
