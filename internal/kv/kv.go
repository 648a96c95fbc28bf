// Package kv holds the small durable key-value state the client keeps between
// runs: the session id, the bearer token and the last metrics seen.
package kv

import (
	"context"
	"fmt"
)

// Keys shared by the client and the dashboard.
const (
	KeySession    = "studybot_session_id"
	KeyAuthToken  = "auth_token"
	KeyPieMetric  = "lastPieMetric"
	KeyBarMetrics = "lastBarMetrics"
)

// Store is a string-keyed, string-valued repository. Get reports absence with
// ok=false rather than an error.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Clear(ctx context.Context, key string) error
}

// Driver names accepted by Open.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Open builds a store for the named driver. The returned close func is never nil.
func Open(driver, path string) (Store, func() error, error) {
	noop := func() error { return nil }
	switch driver {
	case DriverMemory:
		return NewMemory(), noop, nil
	case DriverFile:
		if path == "" {
			return nil, noop, fmt.Errorf("kv: file driver requires a path")
		}
		return NewFile(path), noop, nil
	case DriverSQLite, "":
		if path == "" {
			return nil, noop, fmt.Errorf("kv: sqlite driver requires a path")
		}
		store, err := OpenSQLite(path)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	default:
		return nil, noop, fmt.Errorf("kv: unknown driver %q", driver)
	}
}
