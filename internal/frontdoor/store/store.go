package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/domain"
)

var (
	// ErrIncompleteRecord is returned when a SessionRecord is saved without an
	// access credential. Records are written whole or not at all.
	ErrIncompleteRecord = errors.New("store: session record needs an access credential")
)

// Bucket is one scope of browser-like key/value storage. Drivers (memory,
// sqlite, redis, cookie) implement it.
type Bucket interface {
	// Get returns the value and whether the key is present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Put writes every pair in a single atomic step.
	Put(ctx context.Context, values map[string]string) error

	// Delete removes the keys in a single atomic step. Missing keys are not
	// an error.
	Delete(ctx context.Context, keys ...string) error
}

// CredentialStore is the only owner of the session record and of the
// same-tab handoff slot. Business logic never touches a Bucket directly.
type CredentialStore interface {
	// Save writes the whole record and mirrors the access credential into
	// the tab slot so a handoff survives a same-tab navigation.
	Save(ctx context.Context, rec domain.SessionRecord) error

	// Read returns whatever fragment of the record is stored.
	Read(ctx context.Context) (domain.SessionRecord, error)

	// Clear removes every key from both scopes. It is idempotent.
	Clear(ctx context.Context) error

	SavePending(ctx context.Context, destination string) error
	Pending(ctx context.Context) (string, error)
	DiscardPending(ctx context.Context) error

	ContinuationState(ctx context.Context) (domain.ContinuationState, error)
	SetContinuationState(ctx context.Context, s domain.ContinuationState) error
}

// ScopedStore is a driver that hands out named Buckets. Scopes prefixed with
// TabScopePrefix hold same-tab state.
type ScopedStore interface {
	Bucket(scope string) Bucket
	Close() error
}

// TabPurger is implemented by drivers whose tab scopes do not expire on their
// own.
type TabPurger interface {
	PurgeTabScopes(ctx context.Context, idleSince time.Time) (int64, error)
}

const (
	DurableScope   = "durable"
	TabScopePrefix = "tab:"
)

// TabScope returns the scope name for a tab id.
func TabScope(tabID string) string { return TabScopePrefix + tabID }

// Open wires a CredentialStore over a ScopedStore for one tab.
func Open(s ScopedStore, tabID string) *KV {
	return NewKV(s.Bucket(DurableScope), s.Bucket(TabScope(tabID)))
}
