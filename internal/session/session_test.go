package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/csheth/studybot/internal/api"
	"github.com/csheth/studybot/internal/kv"
)

type sessionServer struct {
	*httptest.Server
	calls atomic.Int32
}

func newSessionServer(t *testing.T, handler func(n int32, w http.ResponseWriter)) *sessionServer {
	t.Helper()
	s := &sessionServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/session" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		n := s.calls.Add(1)
		handler(n, w)
	}))
	t.Cleanup(s.Close)
	return s
}

func newManager(s *sessionServer, store kv.Store) *Manager {
	client := api.New(api.Config{BaseURL: s.URL, HTTPClient: s.Client(), Token: api.StoreToken(store)})
	return NewManager(store, client, nil)
}

func TestGetOrCreateUsesPersistedID(t *testing.T) {
	server := newSessionServer(t, func(int32, http.ResponseWriter) {})
	store := kv.NewMemory()
	store.Set(context.Background(), kv.KeySession, "existing")

	id, err := newManager(server, store).GetOrCreate(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if id != "existing" {
		t.Fatalf("unexpected id %q", id)
	}
	if server.calls.Load() != 0 {
		t.Fatalf("expected no creation request, got %d", server.calls.Load())
	}
}

func TestGetOrCreateAcceptsBothEnvelopes(t *testing.T) {
	for name, body := range map[string]string{
		"envelope": `{"success":true,"data":{"sessionId":"s-1"}}`,
		"flat":     `{"sessionId":"s-1"}`,
	} {
		t.Run(name, func(t *testing.T) {
			server := newSessionServer(t, func(_ int32, w http.ResponseWriter) { w.Write([]byte(body)) })
			store := kv.NewMemory()
			id, err := newManager(server, store).GetOrCreate(context.Background())
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if id != "s-1" {
				t.Fatalf("unexpected id %q", id)
			}
			if stored, _, _ := store.Get(context.Background(), kv.KeySession); stored != "s-1" {
				t.Fatalf("id not persisted, got %q", stored)
			}
		})
	}
}

func TestConcurrentGetOrCreateIssuesOneRequest(t *testing.T) {
	release := make(chan struct{})
	server := newSessionServer(t, func(_ int32, w http.ResponseWriter) {
		<-release
		w.Write([]byte(`{"data":{"sessionId":"shared"}}`))
	})
	manager := newManager(server, kv.NewMemory())

	const callers = 8
	var wg sync.WaitGroup
	ids := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = manager.GetOrCreate(context.Background())
		}(i)
	}
	// give every caller time to join the flight before the server answers
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d failed: %v", i, errs[i])
		}
		if ids[i] != "shared" {
			t.Fatalf("caller %d got %q", i, ids[i])
		}
	}
	if got := server.calls.Load(); got != 1 {
		t.Fatalf("expected exactly one creation request, got %d", got)
	}
	server.Close()
	goleak.VerifyNone(t)
}

func TestClearThenGetOrCreateIssuesNewRequest(t *testing.T) {
	server := newSessionServer(t, func(n int32, w http.ResponseWriter) {
		fmt.Fprintf(w, `{"data":{"sessionId":"s-%d"}}`, n)
	})
	manager := newManager(server, kv.NewMemory())
	ctx := context.Background()

	first, err := manager.GetOrCreate(ctx)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := manager.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := manager.Current(ctx); ok {
		t.Fatal("session should be gone after clear")
	}
	second, err := manager.GetOrCreate(ctx)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if first == second {
		t.Fatalf("expected a fresh id, got %q twice", first)
	}
	if server.calls.Load() != 2 {
		t.Fatalf("expected two creation requests, got %d", server.calls.Load())
	}
}

func TestClearDuringCreationDiscardsLateID(t *testing.T) {
	release := make(chan struct{})
	server := newSessionServer(t, func(n int32, w http.ResponseWriter) {
		if n == 1 {
			<-release
			w.Write([]byte(`{"sessionId":"old-conversation"}`))
			return
		}
		w.Write([]byte(`{"sessionId":"fresh"}`))
	})
	t.Cleanup(func() {
		select {
		case <-release:
		default:
			close(release)
		}
	})
	manager := newManager(server, kv.NewMemory())
	ctx := context.Background()

	done := make(chan string)
	go func() {
		id, _ := manager.GetOrCreate(ctx)
		done <- id
	}()
	deadline := time.Now().Add(2 * time.Second)
	for server.calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("creation request never reached the server")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := manager.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	close(release)
	if id := <-done; id != "old-conversation" {
		t.Fatalf("waiting caller got %q", id)
	}
	if id, ok, _ := manager.Current(ctx); ok {
		t.Fatalf("late creation must not be persisted after clear, got %q", id)
	}

	id, err := manager.GetOrCreate(ctx)
	if err != nil {
		t.Fatalf("create after clear: %v", err)
	}
	if id != "fresh" {
		t.Fatalf("expected a fresh session, got %q", id)
	}
}

func TestGetOrCreateAfterClearDoesNotJoinStaleFlight(t *testing.T) {
	release := make(chan struct{})
	server := newSessionServer(t, func(n int32, w http.ResponseWriter) {
		if n == 1 {
			<-release
			w.Write([]byte(`{"sessionId":"old-conversation"}`))
			return
		}
		w.Write([]byte(`{"sessionId":"fresh"}`))
	})
	t.Cleanup(func() {
		select {
		case <-release:
		default:
			close(release)
		}
	})
	manager := newManager(server, kv.NewMemory())
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		manager.GetOrCreate(ctx)
	}()
	deadline := time.Now().Add(2 * time.Second)
	for server.calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("creation request never reached the server")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := manager.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}

	id, err := manager.GetOrCreate(ctx)
	if err != nil {
		t.Fatalf("create after clear: %v", err)
	}
	if id != "fresh" {
		t.Fatalf("new chat joined the stale creation, got %q", id)
	}

	close(release)
	<-done
	if stored, _, _ := manager.Current(ctx); stored != "fresh" {
		t.Fatalf("stale creation overwrote the new session: %q", stored)
	}
}

func TestGetOrCreateRejectedStatus(t *testing.T) {
	server := newSessionServer(t, func(_ int32, w http.ResponseWriter) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("no token"))
	})
	_, err := newManager(server, kv.NewMemory()).GetOrCreate(context.Background())
	var netErr *api.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if netErr.Status != http.StatusUnauthorized {
		t.Fatalf("unexpected status %d", netErr.Status)
	}
}

func TestGetOrCreateMissingID(t *testing.T) {
	server := newSessionServer(t, func(_ int32, w http.ResponseWriter) { w.Write([]byte(`not json`)) })
	store := kv.NewMemory()
	_, err := newManager(server, store).GetOrCreate(context.Background())
	if !errors.Is(err, ErrNoSessionID) {
		t.Fatalf("expected ErrNoSessionID, got %v", err)
	}
	var netErr *api.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError wrapper, got %T", err)
	}
	if _, ok, _ := store.Get(context.Background(), kv.KeySession); ok {
		t.Fatal("nothing should be persisted on failure")
	}
}

func TestAdopt(t *testing.T) {
	server := newSessionServer(t, func(int32, http.ResponseWriter) {})
	store := kv.NewMemory()
	manager := newManager(server, store)
	ctx := context.Background()

	if err := manager.Adopt(ctx, "  "); err != nil {
		t.Fatalf("blank adopt: %v", err)
	}
	if _, ok, _ := manager.Current(ctx); ok {
		t.Fatal("blank id must not be stored")
	}
	if err := manager.Adopt(ctx, "server-side"); err != nil {
		t.Fatalf("adopt: %v", err)
	}
	if id, _, _ := manager.Current(ctx); id != "server-side" {
		t.Fatalf("unexpected id %q", id)
	}
}
