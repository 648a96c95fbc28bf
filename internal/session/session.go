// Package session owns the server-issued session id: it is created lazily on
// first use, persisted in the kv store and dropped on "new chat".
package session

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/csheth/studybot/internal/api"
	"github.com/csheth/studybot/internal/kv"
)

const (
	createPath = "/chat/session"
	createKey  = "create"
)

// ErrNoSessionID is wrapped in the NetworkError returned when the creation
// response carries no usable id.
var ErrNoSessionID = errors.New("session id missing from response")

// Manager hands out the active session id. It is safe for concurrent use;
// concurrent callers that find no id share a single creation request.
type Manager struct {
	store  kv.Store
	client *api.Client
	log    *zap.Logger
	group  singleflight.Group

	// epoch advances on every Clear. A creation started under an older
	// epoch must not persist its id.
	mu    sync.Mutex
	epoch uint64
}

func NewManager(store kv.Store, client *api.Client, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{store: store, client: client, log: log}
}

// Current returns the persisted id without creating one.
func (m *Manager) Current(ctx context.Context) (string, bool, error) {
	id, ok, err := m.store.Get(ctx, kv.KeySession)
	if err != nil || !ok || strings.TrimSpace(id) == "" {
		return "", false, err
	}
	return id, true, nil
}

// GetOrCreate returns the persisted id, creating and persisting a new one when
// none exists.
func (m *Manager) GetOrCreate(ctx context.Context) (string, error) {
	if id, ok, err := m.Current(ctx); err != nil {
		return "", err
	} else if ok {
		return id, nil
	}

	// The flight outlives any one caller's cancellation; each caller stops
	// waiting on its own context instead.
	flightCtx := context.WithoutCancel(ctx)
	epoch := m.currentEpoch()
	ch := m.group.DoChan(createKey, func() (any, error) {
		if id, ok, err := m.Current(flightCtx); err != nil {
			return "", err
		} else if ok {
			return id, nil
		}
		return m.create(flightCtx, epoch)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (m *Manager) currentEpoch() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epoch
}

func (m *Manager) create(ctx context.Context, epoch uint64) (string, error) {
	resp, err := m.client.PostJSON(ctx, createPath, nil)
	if err != nil {
		m.log.Warn("session creation failed", zap.Error(err))
		return "", err
	}
	id, ok := resp.Object.String("sessionId")
	id = strings.TrimSpace(id)
	if !ok || id == "" {
		err := &api.NetworkError{
			Op:     http.MethodPost,
			URL:    m.client.BaseURL() + createPath,
			Status: resp.Status,
			Body:   string(resp.Body),
			Err:    ErrNoSessionID,
		}
		m.log.Warn("session creation returned no id", zap.Error(err))
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch {
		m.log.Info("discarding session created before clear", zap.String("session", id))
		return id, nil
	}
	if err := m.store.Set(ctx, kv.KeySession, id); err != nil {
		return "", err
	}
	m.log.Info("session created", zap.String("session", id))
	return id, nil
}

// Adopt persists id when the server reassigned the session mid-conversation.
func (m *Manager) Adopt(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	current, ok, err := m.Current(ctx)
	if err != nil {
		return err
	}
	if ok && current == id {
		return nil
	}
	if err := m.store.Set(ctx, kv.KeySession, id); err != nil {
		return err
	}
	m.log.Info("session adopted", zap.String("session", id), zap.String("previous", current))
	return nil
}

// Clear forgets the persisted id. A creation still in flight keeps running
// for the callers already waiting on it, but its id is not persisted and later
// callers start a new request. The backend is not notified.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.epoch++
	m.group.Forget(createKey)
	if err := m.store.Clear(ctx, kv.KeySession); err != nil {
		return err
	}
	m.log.Info("session cleared")
	return nil
}
