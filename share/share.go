// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package share

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/wya/cloud"
	"github.com/bitmark-inc/wya/fault"
	"github.com/bitmark-inc/wya/roster"
)

const (
	// DefaultProvisionCeiling - longest wait for the record before
	// share creation gives up
	DefaultProvisionCeiling = 2 * time.Second

	// DefaultFallbackDelay - retry delay when a busy error does not
	// advertise one
	DefaultFallbackDelay = 2 * time.Second
)

// RecordProvider - source of the local record
type RecordProvider interface {
	Record() *cloud.Record
	EnsureRecord(ctx context.Context) (*cloud.Record, error)
}

// Subscriber - follows a shared record
type Subscriber interface {
	Subscribe(id cloud.RecordID, identity string, initial *cloud.Record)
	Stop()
}

// Options - timing
type Options struct {
	ProvisionCeiling time.Duration
	FallbackDelay    time.Duration
}

// an in-flight share creation joined by every caller
type creation struct {
	done chan struct{}
	url  string
	err  error
}

// Manager - owner of the outgoing share and of invitation acceptance
type Manager struct {
	log        *logger.L
	db         cloud.Database
	records    RecordProvider
	subscriber Subscriber
	options    Options

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// serialises acceptances
	accepting sync.Mutex

	sync.Mutex
	state    State
	incoming IncomingState
	share    *cloud.Share
	creating *creation
	accepted map[string]*cloud.ShareMetadata
}

// New - create the manager
func New(db cloud.Database, records RecordProvider, subscriber Subscriber, options Options) *Manager {
	if options.ProvisionCeiling <= 0 {
		options.ProvisionCeiling = DefaultProvisionCeiling
	}
	if options.FallbackDelay <= 0 {
		options.FallbackDelay = DefaultFallbackDelay
	}

	ctx, cancel := context.WithCancel(context.Background())

	state := NoRecord
	if nil != records.Record() {
		state = Ready
	}

	return &Manager{
		log:        logger.New("share"),
		db:         db,
		records:    records,
		subscriber: subscriber,
		options:    options,
		ctx:        ctx,
		cancel:     cancel,
		state:      state,
		incoming:   Idle,
		accepted:   make(map[string]*cloud.ShareMetadata),
	}
}

// State - current outgoing state
func (m *Manager) State() State {
	m.Lock()
	state := m.state
	m.Unlock()

	// provisioned outside of share creation
	if NoRecord == state && nil != m.records.Record() {
		return Ready
	}
	return state
}

// IncomingState - current acceptance state
func (m *Manager) IncomingState() IncomingState {
	m.Lock()
	defer m.Unlock()
	return m.incoming
}

// Share - copy of the ready share, nil if none
func (m *Manager) Share() *cloud.Share {
	m.Lock()
	defer m.Unlock()
	if nil == m.share {
		return nil
	}
	s := *m.share
	return &s
}

// PrepareShare - the invitation URL for the local record
//
// an existing share is returned as is; otherwise a single creation
// runs, retrying while the zone is busy, and every caller waits for it
func (m *Manager) PrepareShare(ctx context.Context) (string, error) {
	m.Lock()
	if nil != m.share {
		url := m.share.URL
		m.Unlock()
		return url, nil
	}

	c := m.creating
	if nil == c {
		if nil != m.ctx.Err() {
			m.Unlock()
			return "", fault.ErrNotInitialised
		}
		c = &creation{
			done: make(chan struct{}),
		}
		m.creating = c
		m.wg.Add(1)
		go m.create(c)
	}
	m.Unlock()

	select {
	case <-c.done:
		return c.url, c.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (m *Manager) create(c *creation) {
	defer m.wg.Done()

	share, err := m.createShare()

	m.Lock()
	if nil == err {
		m.share = share
		m.state = ShareReady
		c.url = share.URL
	} else {
		c.err = err
		if nil != m.records.Record() {
			m.state = Ready
		} else {
			m.state = NoRecord
		}
	}
	m.creating = nil
	m.Unlock()

	close(c.done)
}

func (m *Manager) createShare() (*cloud.Share, error) {

	root := m.records.Record()
	if nil == root {
		m.setState(Provisioning)

		ctx, cancel := context.WithTimeout(m.ctx, m.options.ProvisionCeiling)
		r, err := m.records.EnsureRecord(ctx)
		cancel()

		if nil != err {
			m.log.Errorf("provision error: %s", err)
			if context.DeadlineExceeded == err {
				return nil, fault.ErrProvisioningTimeout
			}
			return nil, err
		}
		root = r
	}
	m.setState(Ready)

	// the same share is used for every attempt
	share := cloud.NewShare(root.ID)

	for attempt := 1; ; attempt += 1 {
		m.setState(CreatingShare)

		saved, err := m.saveShare(root, share)
		if nil == err {
			m.log.Infof("share: %s ready after %d attempt(s)  url: %s", share.ID, attempt, saved.URL)
			return saved, nil
		}

		delay, busy := fault.RetryAfter(err)
		if !busy {
			m.log.Errorf("share: %s  attempt: %d  error: %s", share.ID, attempt, err)
			if fault.IsErrShare(err) {
				return nil, err
			}
			return nil, fault.Wrap(fault.ErrShareCreateFailed, err)
		}
		if delay <= 0 {
			delay = m.options.FallbackDelay
		}

		m.setState(Busy)
		m.log.Warnf("share: %s  attempt: %d busy, retry in: %s", share.ID, attempt, delay)

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-m.ctx.Done():
			timer.Stop()
			return nil, m.ctx.Err()
		}
	}
}

// adopt the record's current share so that accounts which already
// accepted it keep their access, otherwise save the new one
func (m *Manager) saveShare(root *cloud.Record, share *cloud.Share) (*cloud.Share, error) {
	current, err := m.db.FetchShare(m.ctx, root.ID)
	if nil == err {
		m.log.Infof("share: %s adopted  url: %s", current.ID, current.URL)
		return current, nil
	}
	if !fault.IsErrNotFound(err) {
		return nil, err
	}
	return m.db.SaveShare(m.ctx, root, share)
}

// RevokeShare - delete the current share so a later PrepareShare
// creates a new one
func (m *Manager) RevokeShare(ctx context.Context) error {
	m.Lock()
	if nil != m.creating {
		m.Unlock()
		return fault.ErrShareInProgress
	}
	share := m.share
	m.Unlock()

	if nil == share {
		return fault.ErrShareNotFound
	}

	err := m.db.DeleteShare(ctx, share)
	if nil != err && !fault.IsErrNotFound(err) {
		m.log.Errorf("revoke share: %s  error: %s", share.ID, err)
		return err
	}

	m.Lock()
	if m.share == share {
		m.share = nil
		m.state = Ready
	}
	m.Unlock()

	m.log.Infof("share: %s revoked", share.ID)
	return nil
}

// Acceptance - the outcome of accepting an invitation
//
// the share is accepted even when RootFetchErr is set; the poller
// keeps retrying the fetch
type Acceptance struct {
	Metadata        cloud.ShareMetadata
	Identity        string
	AlreadyAccepted bool
	RootFetchErr    error
}

// AcceptInvitation - resolve, accept and subscribe to a shared record
//
// accepting a URL a second time refreshes the single subscription
func (m *Manager) AcceptInvitation(ctx context.Context, url string) (*Acceptance, error) {
	url = strings.TrimSpace(url)
	if _, err := cloud.ParseShareURL(url); nil != err {
		return nil, fault.ErrInvalidLink
	}

	m.accepting.Lock()
	defer m.accepting.Unlock()

	m.Lock()
	previous := m.incoming
	md, already := m.accepted[url]
	m.Unlock()

	if !already {
		var err error
		md, err = m.resolveAndAccept(ctx, url)
		if nil != err {
			m.setIncoming(previous)
			return nil, err
		}
	}

	m.setIncoming(FetchingRootRecord)

	acceptance := &Acceptance{
		Metadata:        *md,
		Identity:        ownerIdentity(md),
		AlreadyAccepted: already,
	}

	root, err := m.db.FetchSharedRecord(ctx, md.Root)
	if nil != err {
		m.log.Warnf("share: %s  root: %s  fetch error: %s", md.ShareID, md.Root, err)
		acceptance.RootFetchErr = fault.Wrap(fault.ErrRootFetchFailed, err)
		root = nil
	}

	m.subscriber.Subscribe(md.Root, acceptance.Identity, root)
	m.setIncoming(Subscribed)

	m.log.Infof("share: %s  root: %s subscribed as: %q  already accepted: %t", md.ShareID, md.Root, acceptance.Identity, already)
	return acceptance, nil
}

// roster identity of a shared record's owner: the display name, else
// the account, else the record id; never the reserved local identity
func ownerIdentity(md *cloud.ShareMetadata) string {
	for _, identity := range []string{md.OwnerName, md.Root.Zone.Owner} {
		if "" != identity && roster.Self != identity {
			return identity
		}
	}
	return md.Root.String()
}

func (m *Manager) resolveAndAccept(ctx context.Context, url string) (*cloud.ShareMetadata, error) {
	m.setIncoming(ResolvingMetadata)

	md, err := m.db.FetchShareMetadata(ctx, url)
	if nil != err {
		m.log.Errorf("metadata: %s  error: %s", url, err)
		if errors.Is(err, fault.ErrInvalidLink) {
			return nil, err
		}
		return nil, fault.Wrap(fault.ErrMetadataFailed, err)
	}

	m.setIncoming(Accepting)

	err = m.db.AcceptShare(ctx, md)
	if nil != err {
		m.log.Errorf("accept: %s  error: %s", md.ShareID, err)
		return nil, fault.Wrap(fault.ErrAcceptFailed, err)
	}

	m.Lock()
	m.accepted[url] = md
	m.Unlock()

	return md, nil
}

// Close - abandon share creation and stop polling
func (m *Manager) Close() {
	m.cancel()
	m.wg.Wait()
	m.subscriber.Stop()
}

func (m *Manager) setState(state State) {
	m.Lock()
	m.state = state
	m.Unlock()
}

func (m *Manager) setIncoming(state IncomingState) {
	m.Lock()
	m.incoming = state
	m.Unlock()
}
