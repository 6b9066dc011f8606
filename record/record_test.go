// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package record_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/wya/cloud"
	"github.com/bitmark-inc/wya/cloud/ldbstore"
	"github.com/bitmark-inc/wya/cloud/mocks"
	"github.com/bitmark-inc/wya/coordinate"
	"github.com/bitmark-inc/wya/fault"
	"github.com/bitmark-inc/wya/fixtures"
	"github.com/bitmark-inc/wya/record"
)

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	rc := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(rc)
}

func openStore(t *testing.T) (*ldbstore.Store, func()) {
	dir, remove := fixtures.TempDatabase("record")
	s, err := ldbstore.Open(dir, ldbstore.Options{})
	if nil != err {
		remove()
		t.Fatalf("open error: %s", err)
	}
	return s, func() {
		s.Close()
		remove()
	}
}

func TestEnsureRecordCreates(t *testing.T) {
	s, done := openStore(t)
	defer done()

	db := s.Account("alice")
	r := record.New(db, "Alice", record.Options{})
	defer r.Close()

	assert.Nil(t, r.Record(), "record before provisioning")

	created, err := r.EnsureRecord(context.Background())
	assert.Nil(t, err, "ensure")
	assert.Equal(t, cloud.LocationRecordOf("alice"), created.ID, "id")
	assert.Equal(t, coordinate.Zero, created.Coordinate(), "seed coordinate")
	assert.Equal(t, "Alice", created.OwnerName, "owner name")

	again, err := r.EnsureRecord(context.Background())
	assert.Nil(t, err, "ensure again")
	assert.Equal(t, created, again, "second call differs")

	// a second store for the same account finds the existing record
	r2 := record.New(db, "Alice", record.Options{})
	defer r2.Close()
	found, err := r2.EnsureRecord(context.Background())
	assert.Nil(t, err, "ensure from second store")
	assert.Equal(t, created.ETag, found.ETag, "etag")
}

func TestEnsureRecordCached(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	existing := cloud.NewRecord("alice", "Alice")
	existing.ETag = "e1"

	db := mocks.NewMockDatabase(ctl)
	db.EXPECT().Account().Return("alice").AnyTimes()
	gomock.InOrder(
		db.EXPECT().SaveZone(gomock.Any(), cloud.LocationZoneOf("alice")).Return(fault.ErrZoneExists).Times(1),
		db.EXPECT().FetchRecord(gomock.Any(), cloud.LocationRecordOf("alice")).Return(existing, nil).Times(1),
	)
	db.EXPECT().SaveRecord(gomock.Any(), gomock.Any()).Times(0)

	r := record.New(db, "Alice", record.Options{})
	defer r.Close()

	for i := 0; i < 3; i += 1 {
		got, err := r.EnsureRecord(context.Background())
		assert.Nil(t, err, "%d: ensure", i)
		assert.Equal(t, "e1", got.ETag, "%d: etag", i)
	}
}

func TestEnsureRecordZoneFailure(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	cause := errors.New("network unreachable")

	db := mocks.NewMockDatabase(ctl)
	db.EXPECT().Account().Return("alice").AnyTimes()
	db.EXPECT().SaveZone(gomock.Any(), gomock.Any()).Return(cause).Times(1)
	db.EXPECT().FetchRecord(gomock.Any(), gomock.Any()).Times(0)

	r := record.New(db, "Alice", record.Options{})
	defer r.Close()

	_, err := r.EnsureRecord(context.Background())
	assert.True(t, fault.IsErrProvisioning(err), "expected provisioning error: %v", err)
	assert.True(t, errors.Is(err, fault.ErrZoneFailed), "expected zone failure: %v", err)
	assert.True(t, errors.Is(err, cause), "cause lost: %v", err)
	assert.Nil(t, r.Record(), "record cached after failure")
}

func TestEnsureRecordFetchFailure(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	db := mocks.NewMockDatabase(ctl)
	db.EXPECT().Account().Return("alice").AnyTimes()
	db.EXPECT().SaveZone(gomock.Any(), gomock.Any()).Return(nil).Times(1)
	db.EXPECT().FetchRecord(gomock.Any(), gomock.Any()).Return(nil, errors.New("internal server error")).Times(1)
	db.EXPECT().SaveRecord(gomock.Any(), gomock.Any()).Times(0)

	r := record.New(db, "Alice", record.Options{})
	defer r.Close()

	_, err := r.EnsureRecord(context.Background())
	assert.True(t, errors.Is(err, fault.ErrFetchFailed), "expected fetch failure: %v", err)
}

func TestEnsureRecordSingleFlight(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	db := mocks.NewMockDatabase(ctl)
	db.EXPECT().Account().Return("alice").AnyTimes()
	db.EXPECT().SaveZone(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, zone cloud.ZoneID) error {
			time.Sleep(50 * time.Millisecond)
			return nil
		}).Times(1)
	db.EXPECT().FetchRecord(gomock.Any(), gomock.Any()).Return(nil, fault.ErrRecordNotFound).Times(1)
	db.EXPECT().SaveRecord(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, r *cloud.Record) (*cloud.Record, error) {
			saved := r.Copy()
			saved.ETag = "e1"
			return saved, nil
		}).Times(1)

	r := record.New(db, "Alice", record.Options{})
	defer r.Close()

	const callers = 10
	var wg sync.WaitGroup
	for i := 0; i < callers; i += 1 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := r.EnsureRecord(context.Background())
			assert.Nil(t, err, "ensure")
			if nil != got {
				assert.Equal(t, "e1", got.ETag, "etag")
			}
		}()
	}
	wg.Wait()
}

func TestEnsureRecordTimeout(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	release := make(chan struct{})

	db := mocks.NewMockDatabase(ctl)
	db.EXPECT().Account().Return("alice").AnyTimes()
	db.EXPECT().SaveZone(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, zone cloud.ZoneID) error {
			<-release
			return nil
		}).Times(1)
	db.EXPECT().FetchRecord(gomock.Any(), gomock.Any()).Return(cloud.NewRecord("alice", "Alice"), nil).Times(1)

	r := record.New(db, "Alice", record.Options{})
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := r.EnsureRecord(ctx)
	assert.Equal(t, fault.ErrProvisioningTimeout, err, "wrong error")
	assert.True(t, time.Since(start) < time.Second, "did not fail fast")

	// the abandoned attempt still completes for the next caller
	close(release)
	got, err := r.EnsureRecord(context.Background())
	assert.Nil(t, err, "ensure after release")
	assert.NotNil(t, got, "record")
}

func TestUpdateCoalesces(t *testing.T) {
	s, done := openStore(t)
	defer done()

	db := s.Account("alice")
	r := record.New(db, "Alice", record.Options{UpdateInterval: 20 * time.Millisecond})
	defer r.Close()

	_, err := r.EnsureRecord(context.Background())
	assert.Nil(t, err, "ensure")

	r.Update(fixtures.TenTwenty)
	r.Update(fixtures.Taipei)
	r.Update(fixtures.SanFrancisco)
	r.Wait()

	assert.Equal(t, fixtures.SanFrancisco, r.Record().Coordinate(), "cached")

	stored, err := db.FetchRecord(context.Background(), cloud.LocationRecordOf("alice"))
	assert.Nil(t, err, "fetch")
	assert.Equal(t, fixtures.SanFrancisco, stored.Coordinate(), "stored")
	assert.Equal(t, r.Record().ETag, stored.ETag, "etag")
}

func TestUpdateProvisionsRecord(t *testing.T) {
	s, done := openStore(t)
	defer done()

	r := record.New(s.Account("alice"), "Alice", record.Options{})
	defer r.Close()

	r.Update(fixtures.Taipei)
	r.Wait()

	assert.NotNil(t, r.Record(), "record not provisioned")
	assert.Equal(t, fixtures.Taipei, r.Record().Coordinate(), "coordinate")
}

func TestUpdateInvalidIgnored(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	db := mocks.NewMockDatabase(ctl)
	db.EXPECT().SaveRecord(gomock.Any(), gomock.Any()).Times(0)

	r := record.New(db, "Alice", record.Options{})
	defer r.Close()

	r.Update(coordinate.Coordinate{Latitude: 200})
	r.Wait()
}

func TestUpdateConflictRefreshes(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	stale := cloud.NewRecord("alice", "Alice")
	stale.ETag = "e1"
	fresh := stale.Copy()
	fresh.ETag = "e2"

	db := mocks.NewMockDatabase(ctl)
	db.EXPECT().Account().Return("alice").AnyTimes()
	db.EXPECT().SaveZone(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	gomock.InOrder(
		db.EXPECT().FetchRecord(gomock.Any(), gomock.Any()).Return(stale, nil).Times(1),
		db.EXPECT().SaveRecord(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, r *cloud.Record) (*cloud.Record, error) {
				assert.Equal(t, "e1", r.ETag, "first save etag")
				return nil, fault.ErrRecordChanged
			}).Times(1),
		db.EXPECT().FetchRecord(gomock.Any(), gomock.Any()).Return(fresh, nil).Times(1),
		db.EXPECT().SaveRecord(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, r *cloud.Record) (*cloud.Record, error) {
				assert.Equal(t, "e2", r.ETag, "second save etag")
				saved := r.Copy()
				saved.ETag = "e3"
				return saved, nil
			}).Times(1),
	)

	r := record.New(db, "Alice", record.Options{})
	defer r.Close()

	r.Update(fixtures.TenTwenty)
	r.Wait()
	assert.Equal(t, "e2", r.Record().ETag, "not refreshed")
	assert.Equal(t, coordinate.Zero, r.Record().Coordinate(), "failed update must not be cached")

	r.Update(fixtures.Taipei)
	r.Wait()
	assert.Equal(t, "e3", r.Record().ETag, "second update")
	assert.Equal(t, fixtures.Taipei, r.Record().Coordinate(), "coordinate")
}

func TestUpdateAfterClose(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	db := mocks.NewMockDatabase(ctl)
	db.EXPECT().SaveRecord(gomock.Any(), gomock.Any()).Times(0)

	r := record.New(db, "Alice", record.Options{})
	r.Close()
	r.Update(fixtures.Taipei)
	r.Wait()
}
