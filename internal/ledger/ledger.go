// Package ledger implements the expense ledger: recording expenses and
// settlements, computing balances between users, and deleting expenses
// together with the settlements that referenced them.
//
// Every operation takes the caller's user ID explicitly. An empty caller ID
// means the request is unauthenticated and fails with ErrAuthenticationRequired
// before any store access.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/splitledger/internal/blob"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// Ledger runs ledger operations against a record store.
type Ledger struct {
	store   storage.Store
	blobs   blob.Store
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithBlobStore sets the store receipts are deleted from when their
// expense is deleted. Without one, receipt references are left alone.
func WithBlobStore(b blob.Store) Option {
	return func(l *Ledger) { l.blobs = b }
}

// WithMetrics records ledger counters on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

// WithClock replaces time.Now for the calendar-based dashboard totals.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New creates a Ledger backed by store.
func New(store storage.Store, opts ...Option) *Ledger {
	l := &Ledger{store: store, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// requireMember loads groupID and checks that callerID belongs to it.
func (l *Ledger) requireMember(ctx context.Context, callerID, groupID string) (*models.Group, error) {
	group, err := l.store.GetGroup(ctx, groupID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, persistenceFailure("requireMember", err, "group_id", groupID)
	}
	if !group.HasMember(callerID) {
		return nil, ErrNotAGroupMember
	}
	return group, nil
}
