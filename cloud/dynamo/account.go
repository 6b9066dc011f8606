// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/bitmark-inc/wya/cloud"
	"github.com/bitmark-inc/wya/fault"
)

type account struct {
	store *Store
	owner string
}

func (a *account) Account() string {
	return a.owner
}

// SaveZone - create a zone, conditional on it not existing
func (a *account) SaveZone(ctx context.Context, zone cloud.ZoneID) error {
	if zone.Owner != a.owner {
		return fault.ErrZoneNotFound
	}
	s := a.store

	item, err := attributevalue.MarshalMap(zoneItem{
		PK:      zonePK(zone),
		SK:      zoneKind,
		Owner:   zone.Owner,
		Name:    zone.Name,
		Created: millis(s.now()),
	})
	if nil != err {
		return fmt.Errorf("marshal zone: %w", err)
	}

	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(pk)"),
	})
	if isConditionFailed(err) {
		return fault.ErrZoneExists
	}
	if isBusy(err) {
		return busy()
	}
	if nil != err {
		return err
	}
	s.log.Infof("zone: %s created", zone)
	return nil
}

// FetchRecord - read one of this account's records
func (a *account) FetchRecord(ctx context.Context, id cloud.RecordID) (*cloud.Record, error) {
	if id.Zone.Owner != a.owner {
		return nil, fault.ErrRecordNotFound
	}
	item, err := a.store.getRecord(ctx, id)
	if nil != err {
		return nil, err
	}
	return item.record(), nil
}

// SaveRecord - create a record in an existing zone or update it when
// the ETag matches
func (a *account) SaveRecord(ctx context.Context, record *cloud.Record) (*cloud.Record, error) {
	if nil == record {
		return nil, fault.ErrInvalidStructPointer
	}
	if err := record.Coordinate().Validate(); nil != err {
		return nil, err
	}
	id := record.ID
	if id.Zone.Owner != a.owner {
		return nil, fault.ErrZoneNotFound
	}
	s := a.store

	now := s.now()
	item := recordItem{
		PK:        recordPK(id),
		SK:        recordKind,
		Owner:     id.Zone.Owner,
		Zone:      id.Zone.Name,
		Name:      id.Name,
		Latitude:  record.Latitude,
		Longitude: record.Longitude,
		OwnerName: record.OwnerName,
		ETag:      uuid.New().String(),
		Modified:  millis(now),
	}

	if "" == record.ETag {
		err := s.createRecord(ctx, &item)
		if nil != err {
			return nil, err
		}
		s.log.Infof("record: %s created", id)
		return item.record(), nil
	}

	values, err := attributevalue.MarshalMap(map[string]interface{}{
		":lat":  item.Latitude,
		":lon":  item.Longitude,
		":name": item.OwnerName,
		":etag": item.ETag,
		":old":  record.ETag,
		":mod":  item.Modified,
	})
	if nil != err {
		return nil, fmt.Errorf("marshal record update: %w", err)
	}

	out, err := s.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       key(item.PK, item.SK),
		UpdateExpression:          aws.String("SET latitude = :lat, longitude = :lon, owner_name = :name, etag = :etag, modified = :mod"),
		ConditionExpression:       aws.String("etag = :old"),
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if isConditionFailed(err) {
		return nil, fault.ErrRecordChanged
	}
	if isBusy(err) {
		return nil, busy()
	}
	if nil != err {
		return nil, err
	}

	updated := recordItem{}
	err = attributevalue.UnmarshalMap(out.Attributes, &updated)
	if nil != err {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	s.log.Debugf("record: %s saved", id)
	return updated.record(), nil
}

// SaveShare - point the record at a new share token, replacing any
// previous share
func (a *account) SaveShare(ctx context.Context, root *cloud.Record, share *cloud.Share) (*cloud.Share, error) {
	if nil == root || nil == share {
		return nil, fault.ErrInvalidStructPointer
	}
	id := root.ID
	if id.Zone.Owner != a.owner || share.Root != id {
		return nil, fault.ErrShareCreateFailed
	}
	s := a.store

	current, err := s.getRecord(ctx, id)
	if nil != err {
		return nil, err
	}

	// a retry after an unseen success
	if "" != current.ShareToken {
		existing, err := s.getShare(ctx, current.ShareToken)
		if nil != err && !fault.IsErrNotFound(err) {
			return nil, err
		}
		if nil != existing && existing.ID == share.ID {
			return existing, nil
		}
	}

	url := share.URL
	if "" == url {
		url, err = cloud.NewShareURL()
		if nil != err {
			return nil, err
		}
	}
	token, err := cloud.ParseShareURL(url)
	if nil != err {
		return nil, fault.Wrap(fault.ErrShareCreateFailed, err)
	}

	item, err := attributevalue.MarshalMap(shareItem{
		PK:      sharePK(token),
		SK:      shareKind,
		ID:      share.ID.String(),
		Owner:   id.Zone.Owner,
		Zone:    id.Zone.Name,
		Record:  id.Name,
		Title:   share.Title,
		URL:     url,
		Created: millis(s.now()),
	})
	if nil != err {
		return nil, fmt.Errorf("marshal share: %w", err)
	}

	// the record must still point at the share seen above
	condition := "attribute_not_exists(share_token)"
	values := map[string]types.AttributeValue{
		":token": &types.AttributeValueMemberS{Value: token},
	}
	if "" != current.ShareToken {
		condition = "share_token = :previous"
		values[":previous"] = &types.AttributeValueMemberS{Value: current.ShareToken}
	}

	transaction := []types.TransactWriteItem{
		{
			Put: &types.Put{
				TableName:           aws.String(s.table),
				Item:                item,
				ConditionExpression: aws.String("attribute_not_exists(pk)"),
			},
		},
		{
			Update: &types.Update{
				TableName:                 aws.String(s.table),
				Key:                       key(recordPK(id), recordKind),
				UpdateExpression:          aws.String("SET share_token = :token"),
				ConditionExpression:       aws.String("attribute_exists(pk) AND " + condition),
				ExpressionAttributeValues: values,
			},
		},
	}
	if "" != current.ShareToken {
		transaction = append(transaction, types.TransactWriteItem{
			Delete: &types.Delete{
				TableName: aws.String(s.table),
				Key:       key(sharePK(current.ShareToken), shareKind),
			},
		})
	}

	_, err = s.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: transaction,
	})
	if nil != err {
		return nil, classifyTransaction(err, fault.ErrShareCreateFailed, fault.ErrRecordChanged)
	}

	if "" != current.ShareToken {
		s.log.Infof("record: %s  share token: %s superseded", id, current.ShareToken)
		s.removeAcceptances(ctx, current.ShareToken)
	}
	s.log.Infof("record: %s  share: %s created", id, share.ID)

	result := *share
	result.URL = url
	return &result, nil
}

// DeleteShare - revoke a share and its acceptances
func (a *account) DeleteShare(ctx context.Context, share *cloud.Share) error {
	if nil == share {
		return fault.ErrInvalidStructPointer
	}
	if share.Root.Zone.Owner != a.owner {
		return fault.ErrShareNotFound
	}
	token, err := cloud.ParseShareURL(share.URL)
	if nil != err {
		return fault.ErrShareNotFound
	}
	s := a.store

	values := map[string]types.AttributeValue{
		":token": &types.AttributeValueMemberS{Value: token},
		":id":    &types.AttributeValueMemberS{Value: share.ID.String()},
	}
	_, err = s.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Delete: &types.Delete{
					TableName:                 aws.String(s.table),
					Key:                       key(sharePK(token), shareKind),
					ConditionExpression:       aws.String("id = :id"),
					ExpressionAttributeValues: map[string]types.AttributeValue{":id": values[":id"]},
				},
			},
			{
				Update: &types.Update{
					TableName:                 aws.String(s.table),
					Key:                       key(recordPK(share.Root), recordKind),
					UpdateExpression:          aws.String("REMOVE share_token"),
					ConditionExpression:       aws.String("share_token = :token"),
					ExpressionAttributeValues: map[string]types.AttributeValue{":token": values[":token"]},
				},
			},
		},
	})
	if nil != err {
		return classifyTransaction(err, fault.ErrShareNotFound, fault.ErrShareNotFound)
	}

	s.removeAcceptances(ctx, token)
	s.log.Infof("record: %s  share: %s revoked", share.Root, share.ID)
	return nil
}

// FetchShare - the share the record's share_token points at
func (a *account) FetchShare(ctx context.Context, id cloud.RecordID) (*cloud.Share, error) {
	if id.Zone.Owner != a.owner {
		return nil, fault.ErrShareNotFound
	}
	s := a.store

	item, err := s.getRecord(ctx, id)
	if nil != err {
		if fault.IsErrNotFound(err) {
			return nil, fault.ErrShareNotFound
		}
		return nil, err
	}
	if "" == item.ShareToken {
		return nil, fault.ErrShareNotFound
	}
	return s.getShare(ctx, item.ShareToken)
}

// FetchShareMetadata - resolve an invitation URL
func (a *account) FetchShareMetadata(ctx context.Context, url string) (*cloud.ShareMetadata, error) {
	token, err := cloud.ParseShareURL(url)
	if nil != err {
		return nil, err
	}
	s := a.store

	share, err := s.getShare(ctx, token)
	if nil != err {
		return nil, err
	}

	ownerName := ""
	item, err := s.getRecord(ctx, share.Root)
	if nil == err {
		ownerName = item.OwnerName
	}

	return &cloud.ShareMetadata{
		ShareID:   share.ID,
		URL:       share.URL,
		Root:      share.Root,
		OwnerName: ownerName,
		Title:     share.Title,
	}, nil
}

// AcceptShare - add or refresh this account's acceptance item,
// conditional on the share still existing
func (a *account) AcceptShare(ctx context.Context, metadata *cloud.ShareMetadata) error {
	if nil == metadata {
		return fault.ErrInvalidStructPointer
	}
	token, err := cloud.ParseShareURL(metadata.URL)
	if nil != err {
		return err
	}
	s := a.store

	item, err := attributevalue.MarshalMap(acceptItem{
		PK:       sharePK(token),
		SK:       acceptPrefix + a.owner,
		Account:  a.owner,
		Accepted: millis(s.now()),
	})
	if nil != err {
		return fmt.Errorf("marshal acceptance: %w", err)
	}

	_, err = s.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				ConditionCheck: &types.ConditionCheck{
					TableName:           aws.String(s.table),
					Key:                 key(sharePK(token), shareKind),
					ConditionExpression: aws.String("id = :id"),
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":id": &types.AttributeValueMemberS{Value: metadata.ShareID.String()},
					},
				},
			},
			{
				Put: &types.Put{
					TableName: aws.String(s.table),
					Item:      item,
				},
			},
		},
	})
	if nil != err {
		return classifyTransaction(err, fault.ErrShareRevoked)
	}
	s.log.Infof("account: %s accepted share: %s", a.owner, metadata.ShareID)
	return nil
}

// FetchSharedRecord - read a record through an accepted share
func (a *account) FetchSharedRecord(ctx context.Context, id cloud.RecordID) (*cloud.Record, error) {
	s := a.store

	item, err := s.getRecord(ctx, id)
	if nil != err {
		return nil, err
	}
	if "" == item.ShareToken {
		return nil, fault.ErrNotShared
	}

	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            key(sharePK(item.ShareToken), acceptPrefix+a.owner),
		ConsistentRead: aws.Bool(true),
	})
	if nil != err {
		return nil, err
	}
	if nil == out.Item {
		return nil, fault.ErrNotShared
	}
	return item.record(), nil
}

// create a record, conditional on its zone existing and it not
func (s *Store) createRecord(ctx context.Context, item *recordItem) error {
	value, err := attributevalue.MarshalMap(item)
	if nil != err {
		return fmt.Errorf("marshal record: %w", err)
	}

	zone := cloud.ZoneID{
		Name:  item.Zone,
		Owner: item.Owner,
	}
	_, err = s.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				ConditionCheck: &types.ConditionCheck{
					TableName:           aws.String(s.table),
					Key:                 key(zonePK(zone), zoneKind),
					ConditionExpression: aws.String("attribute_exists(pk)"),
				},
			},
			{
				Put: &types.Put{
					TableName:           aws.String(s.table),
					Item:                value,
					ConditionExpression: aws.String("attribute_not_exists(pk)"),
				},
			},
		},
	})
	if nil != err {
		return classifyTransaction(err, fault.ErrZoneNotFound, fault.ErrRecordChanged)
	}
	return nil
}

func (s *Store) getRecord(ctx context.Context, id cloud.RecordID) (*recordItem, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            key(recordPK(id), recordKind),
		ConsistentRead: aws.Bool(true),
	})
	if nil != err {
		return nil, err
	}
	if nil == out.Item {
		return nil, fault.ErrRecordNotFound
	}

	item := &recordItem{}
	err = attributevalue.UnmarshalMap(out.Item, item)
	if nil != err {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return item, nil
}

func (s *Store) getShare(ctx context.Context, token string) (*cloud.Share, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            key(sharePK(token), shareKind),
		ConsistentRead: aws.Bool(true),
	})
	if nil != err {
		return nil, err
	}
	if nil == out.Item {
		return nil, fault.ErrShareNotFound
	}

	item := shareItem{}
	err = attributevalue.UnmarshalMap(out.Item, &item)
	if nil != err {
		return nil, fmt.Errorf("unmarshal share: %w", err)
	}
	id, err := uuid.Parse(item.ID)
	if nil != err {
		return nil, err
	}
	return &cloud.Share{
		ID: id,
		Root: cloud.RecordID{
			Zone: cloud.ZoneID{
				Name:  item.Zone,
				Owner: item.Owner,
			},
			Name: item.Record,
		},
		Title: item.Title,
		URL:   item.URL,
	}, nil
}

// best effort removal of the acceptance items of a share, a leftover
// item grants nothing once the record no longer points at the token
func (s *Store) removeAcceptances(ctx context.Context, token string) {
	out, err := s.api.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("pk = :pk AND begins_with(sk, :accept)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: sharePK(token)},
			":accept": &types.AttributeValueMemberS{Value: acceptPrefix},
		},
		ProjectionExpression: aws.String("pk, sk"),
	})
	if nil != err {
		s.log.Warnf("share token: %s  list acceptances error: %s", token, err)
		return
	}
	if 0 == len(out.Items) {
		return
	}

	deletes := make([]types.TransactWriteItem, 0, len(out.Items))
	for _, item := range out.Items {
		deletes = append(deletes, types.TransactWriteItem{
			Delete: &types.Delete{
				TableName: aws.String(s.table),
				Key: map[string]types.AttributeValue{
					"pk": item["pk"],
					"sk": item["sk"],
				},
			},
		})
	}
	_, err = s.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: deletes,
	})
	if nil != err {
		s.log.Warnf("share token: %s  remove acceptances error: %s", token, err)
	}
}
