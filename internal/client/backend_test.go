package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/devilmonastery/shopfeed/internal/api"
	"github.com/devilmonastery/shopfeed/internal/credstore"
)

// fakeBackend serves /posts guarded by access tokens and a rotating
// /users/refresh-token.
type fakeBackend struct {
	srv *httptest.Server

	mu         sync.Mutex
	valid      map[string]bool   // access tokens accepted by /posts
	rotations  map[string]string // refresh token -> next generation suffix
	postAuth   []string          // Authorization headers seen on /posts
	postIDs    []string          // X-Request-ID headers seen on /posts
	publicAuth []string          // Authorization headers seen on /public

	refreshCalls atomic.Int32
	postCalls    atomic.Int32

	// refresh overrides the default rotating refresh handler
	refresh http.HandlerFunc

	// expiredHook runs before /posts answers 401
	expiredHook func()
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()

	b := &fakeBackend{
		valid:     map[string]bool{"A1": true},
		rotations: map[string]string{"R1": "2"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /posts", b.handlePosts)
	mux.HandleFunc("GET /public", b.handlePublic)
	mux.HandleFunc("GET /broken", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusInternalServerError, "", "boom")
	})
	mux.HandleFunc("POST "+api.PathRefreshToken, func(w http.ResponseWriter, r *http.Request) {
		b.refreshCalls.Add(1)
		if b.refresh != nil {
			b.refresh(w, r)
			return
		}
		b.handleRefresh(w, r)
	})

	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)
	return b
}

func (b *fakeBackend) expire(access string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.valid, access)
}

func (b *fakeBackend) handlePosts(w http.ResponseWriter, r *http.Request) {
	b.postCalls.Add(1)
	auth := r.Header.Get("Authorization")

	b.mu.Lock()
	b.postAuth = append(b.postAuth, auth)
	b.postIDs = append(b.postIDs, r.Header.Get("X-Request-ID"))
	ok := b.valid[strings.TrimPrefix(auth, "Bearer ")]
	b.mu.Unlock()

	if !ok {
		if b.expiredHook != nil {
			b.expiredHook()
		}
		writeError(w, http.StatusUnauthorized, api.CodeAccessTokenExpired, "access token expired")
		return
	}
	writeData(w, []api.Post{{ID: "1", Body: "hello #shop"}})
}

func (b *fakeBackend) handlePublic(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.publicAuth = append(b.publicAuth, r.Header.Get("Authorization"))
	b.mu.Unlock()
	writeData(w, map[string]string{"status": "ok"})
}

func (b *fakeBackend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	refresh := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	b.mu.Lock()
	gen, ok := b.rotations[refresh]
	if ok {
		// Single use: the old refresh token is spent
		delete(b.rotations, refresh)
		b.valid["A"+gen] = true
		b.rotations["R"+gen] = gen + "'"
	}
	b.mu.Unlock()

	if !ok {
		writeError(w, http.StatusUnauthorized, api.CodeRefreshTokenInvalid, "refresh token invalid")
		return
	}

	// Give concurrent callers time to pile up on the flight
	time.Sleep(20 * time.Millisecond)
	writeData(w, api.TokenPair{AccessToken: "A" + gen, RefreshToken: "R" + gen})
}

func (b *fakeBackend) postHeaders() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.postAuth...)
}

func (b *fakeBackend) publicHeaders() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.publicAuth...)
}

func (b *fakeBackend) requestIDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.postIDs...)
}

func writeData(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(api.Envelope{Data: v})
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.ErrorBody{StatusCode: status, Code: code, Message: msg})
}

// seededStore returns a memory store holding the given pair ("" skips a half)
func seededStore(t *testing.T, access, refresh string) *credstore.MemoryStore {
	t.Helper()
	store := credstore.NewMemoryStore()
	ctx := t.Context()
	if access != "" {
		require.NoError(t, store.Set(ctx, credstore.ServiceAccessToken, access))
	}
	if refresh != "" {
		require.NoError(t, store.Set(ctx, credstore.ServiceRefreshToken, refresh))
	}
	require.NoError(t, store.Set(ctx, credstore.ServiceStoreID, "store-1"))
	return store
}

func newTestClient(t *testing.T, b *fakeBackend, store credstore.Store, refreshTimeout time.Duration) *Client {
	t.Helper()
	c, err := NewClient(Options{
		BaseURL:        b.srv.URL,
		Store:          store,
		HTTPClient:     b.srv.Client(),
		RefreshTimeout: refreshTimeout,
	})
	require.NoError(t, err)
	return c
}

func requireCleared(t *testing.T, store credstore.Store) {
	t.Helper()
	for _, service := range credstore.Services {
		_, err := store.Get(t.Context(), service)
		require.ErrorIs(t, err, credstore.ErrNotFound, "service %s should be cleared", service)
	}
}
