package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/store"
	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/store/drivers/redis"
	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/store/drivers/sqlite"
)

// DefaultStatePath is relative to the user config dir.
const DefaultStatePath = "frontdoor/state.db"

// openState dials the store named by raw: sqlite://PATH, redis://... or
// rediss://... An empty raw opens the default sqlite file.
func openState(ctx context.Context, raw string) (store.ScopedStore, error) {
	if raw == "" {
		path, err := defaultStatePath()
		if err != nil {
			return nil, err
		}
		raw = "sqlite://" + path
	}

	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return nil, fmt.Errorf("store %q: expected sqlite://PATH or redis://HOST", raw)
	}

	switch scheme {
	case "sqlite":
		return openSQLite(rest)
	case "redis", "rediss":
		s, err := redis.Dial(ctx, raw)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("store %q: unsupported scheme %q", raw, scheme)
	}
}

func openSQLite(path string) (*sqlite.Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite store needs a path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	s, err := sqlite.NewStore(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state file: %w", err)
	}
	if err := s.ApplyMigrations(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to apply state migrations: %w", err)
	}
	return s, nil
}

func defaultStatePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config dir: %w", err)
	}
	return filepath.Join(dir, DefaultStatePath), nil
}
