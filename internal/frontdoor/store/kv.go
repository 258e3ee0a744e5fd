package store

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/domain"
)

// KV implements CredentialStore over a durable and a tab-lifetime Bucket.
type KV struct {
	durable Bucket
	tab     Bucket
}

var _ CredentialStore = (*KV)(nil)

// NewKV wires the two scopes together.
func NewKV(durable, tab Bucket) *KV {
	return &KV{durable: durable, tab: tab}
}

func (s *KV) Save(ctx context.Context, rec domain.SessionRecord) error {
	if !rec.HasAccess() {
		return ErrIncompleteRecord
	}

	durable := map[string]string{
		domain.KeyAccessToken:  rec.AccessToken,
		domain.KeyRefreshToken: rec.RefreshToken,
		domain.KeyTokenType:    rec.TokenType,
		domain.KeyExpiresIn:    rec.ExpiresIn,
	}
	if err := s.durable.Put(ctx, durable); err != nil {
		return fmt.Errorf("store: save session: %w", err)
	}

	if err := s.tab.Put(ctx, map[string]string{domain.KeyExternalAccessToken: rec.AccessToken}); err != nil {
		return fmt.Errorf("store: mirror access token: %w", err)
	}
	return nil
}

func (s *KV) Read(ctx context.Context) (domain.SessionRecord, error) {
	var rec domain.SessionRecord
	fields := []struct {
		key string
		dst *string
	}{
		{domain.KeyAccessToken, &rec.AccessToken},
		{domain.KeyRefreshToken, &rec.RefreshToken},
		{domain.KeyTokenType, &rec.TokenType},
		{domain.KeyExpiresIn, &rec.ExpiresIn},
	}
	for _, f := range fields {
		v, _, err := s.durable.Get(ctx, f.key)
		if err != nil {
			return domain.SessionRecord{}, fmt.Errorf("store: read %s: %w", f.key, err)
		}
		*f.dst = v
	}
	return rec, nil
}

func (s *KV) Clear(ctx context.Context) error {
	// Both deletes always run so a failure in one scope still clears the other.
	errDurable := s.durable.Delete(ctx, domain.DurableKeys...)
	errTab := s.tab.Delete(ctx, domain.TabKeys...)
	if errDurable != nil {
		return fmt.Errorf("store: clear durable: %w", errDurable)
	}
	if errTab != nil {
		return fmt.Errorf("store: clear tab: %w", errTab)
	}
	return nil
}

func (s *KV) SavePending(ctx context.Context, destination string) error {
	return s.tab.Put(ctx, map[string]string{domain.KeyPendingRedirect: destination})
}

func (s *KV) Pending(ctx context.Context) (string, error) {
	v, _, err := s.tab.Get(ctx, domain.KeyPendingRedirect)
	return v, err
}

func (s *KV) DiscardPending(ctx context.Context) error {
	return s.tab.Delete(ctx, domain.KeyPendingRedirect)
}

func (s *KV) ContinuationState(ctx context.Context) (domain.ContinuationState, error) {
	v, _, err := s.tab.Get(ctx, domain.KeyContinuationState)
	if err != nil {
		return domain.ContinuationIdle, err
	}
	return domain.ParseContinuationState(v), nil
}

func (s *KV) SetContinuationState(ctx context.Context, st domain.ContinuationState) error {
	if st == domain.ContinuationIdle {
		return s.tab.Delete(ctx, domain.KeyContinuationState)
	}
	return s.tab.Put(ctx, map[string]string{domain.KeyContinuationState: string(st)})
}
