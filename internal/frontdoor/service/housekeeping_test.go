package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/service"
	"github.com/aussiebroadwan/frontdoor/pkg/slogx"
)

type fakePurger struct {
	mu      sync.Mutex
	cutoffs []time.Time
	n       int64
	err     error
}

func (p *fakePurger) PurgeTabScopes(_ context.Context, idleSince time.Time) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cutoffs = append(p.cutoffs, idleSince)
	return p.n, p.err
}

func (p *fakePurger) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cutoffs)
}

func TestHousekeepingCleanup(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_800_000_000, 0)
	p := &fakePurger{n: 6}
	s := service.NewHousekeepingService(p, slogx.Discard(), 0, 2*time.Hour)
	s.Now = func() time.Time { return now }

	require.Equal(t, time.Hour, s.Interval)
	require.Equal(t, int64(6), s.Cleanup(context.Background()))
	require.Equal(t, []time.Time{now.Add(-2 * time.Hour)}, p.cutoffs)

	p.err = errors.New("database is locked")
	require.Zero(t, s.Cleanup(context.Background()))
}

func TestHousekeepingStartStop(t *testing.T) {
	t.Parallel()

	p := &fakePurger{}
	s := service.NewHousekeepingService(p, slogx.Discard(), 10*time.Millisecond, 0)
	require.Equal(t, service.DefaultTabIdleTimeout, s.IdleTimeout)

	s.Start()
	require.Eventually(t, func() bool { return p.calls() >= 2 }, 5*time.Second, 10*time.Millisecond)
	s.Stop()
}
