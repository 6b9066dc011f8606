// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dynamo

import (
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/bitmark-inc/wya/cloud"
)

// item kinds, the sort key
const (
	zoneKind     = "ZONE"
	recordKind   = "RECORD"
	shareKind    = "SHARE"
	acceptPrefix = "ACCEPT#"
)

type zoneItem struct {
	PK      string `dynamodbav:"pk"`
	SK      string `dynamodbav:"sk"`
	Owner   string `dynamodbav:"owner"`
	Name    string `dynamodbav:"name"`
	Created int64  `dynamodbav:"created"`
}

type recordItem struct {
	PK         string  `dynamodbav:"pk"`
	SK         string  `dynamodbav:"sk"`
	Owner      string  `dynamodbav:"owner"`
	Zone       string  `dynamodbav:"zone"`
	Name       string  `dynamodbav:"name"`
	Latitude   float64 `dynamodbav:"latitude"`
	Longitude  float64 `dynamodbav:"longitude"`
	OwnerName  string  `dynamodbav:"owner_name"`
	ETag       string  `dynamodbav:"etag"`
	Modified   int64   `dynamodbav:"modified"`
	ShareToken string  `dynamodbav:"share_token,omitempty"`
}

type shareItem struct {
	PK      string `dynamodbav:"pk"`
	SK      string `dynamodbav:"sk"`
	ID      string `dynamodbav:"id"`
	Owner   string `dynamodbav:"owner"`
	Zone    string `dynamodbav:"zone"`
	Record  string `dynamodbav:"record"`
	Title   string `dynamodbav:"title"`
	URL     string `dynamodbav:"url"`
	Created int64  `dynamodbav:"created"`
}

type acceptItem struct {
	PK       string `dynamodbav:"pk"`
	SK       string `dynamodbav:"sk"`
	Account  string `dynamodbav:"account"`
	Accepted int64  `dynamodbav:"accepted"`
}

func zonePK(zone cloud.ZoneID) string {
	return strings.Join([]string{zoneKind, zone.Owner, zone.Name}, "#")
}

func recordPK(id cloud.RecordID) string {
	return strings.Join([]string{recordKind, id.Zone.Owner, id.Zone.Name, id.Name}, "#")
}

func sharePK(token string) string {
	return shareKind + "#" + token
}

func key(pk string, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: pk},
		"sk": &types.AttributeValueMemberS{Value: sk},
	}
}

func (item *recordItem) record() *cloud.Record {
	return &cloud.Record{
		ID: cloud.RecordID{
			Zone: cloud.ZoneID{
				Name:  item.Zone,
				Owner: item.Owner,
			},
			Name: item.Name,
		},
		Latitude:  item.Latitude,
		Longitude: item.Longitude,
		OwnerName: item.OwnerName,
		ETag:      item.ETag,
		Modified:  time.Unix(0, item.Modified*int64(time.Millisecond)).UTC(),
	}
}

func millis(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}
