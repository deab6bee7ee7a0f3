package handlers

import (
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/devilmonastery/shopfeed/internal/api"
	"github.com/devilmonastery/shopfeed/internal/client"
	"github.com/devilmonastery/shopfeed/internal/credstore"
)

// expiredSession signs up a user and swaps its access token for an expired one
func (ts *testServer) expiredSession(t *testing.T, email string) (*credstore.MemoryStore, api.AuthResponse) {
	t.Helper()
	session := ts.signUp(t, email)
	expired, _, err := ts.jwt.GenerateTokenWithLifetime(session.User.ID, session.User.Email, "", session.StoreID, -time.Minute)
	require.NoError(t, err)

	store := credstore.NewMemoryStore()
	require.NoError(t, store.SetPair(t.Context(), expired, session.RefreshToken))
	session.AccessToken = expired
	return store, session
}

func (ts *testServer) client(t *testing.T, store credstore.Store) *client.Client {
	t.Helper()
	c, err := client.NewClient(client.Options{
		BaseURL:    ts.srv.URL,
		Store:      store,
		HTTPClient: ts.srv.Client(),
	})
	require.NoError(t, err)
	return c
}

func TestClientRefreshesExpiredSession(t *testing.T) {
	ts := newTestServer(t, false)
	store, session := ts.expiredSession(t, "ivan@example.com")
	c := ts.client(t, store)

	var logouts atomic.Int32
	c.OnLogout(func() { logouts.Add(1) })

	me, err := c.Me(t.Context())
	require.NoError(t, err)
	require.Equal(t, session.User.ID, me.ID)

	access, refresh, err := c.Credentials().Pair(t.Context())
	require.NoError(t, err)
	require.NotEqual(t, session.AccessToken, access)
	require.NotEqual(t, session.RefreshToken, refresh)
	require.Equal(t, client.StateSucceeded, c.Refresher().State())
	require.Zero(t, logouts.Load())
}

func TestClientConcurrentExpiryRotatesOnce(t *testing.T) {
	ts := newTestServer(t, false)
	store, _ := ts.expiredSession(t, "judy@example.com")
	c := ts.client(t, store)

	// Refresh tokens are single use: a second rotation attempt with the
	// original token would be rejected as reuse and end the session.
	var g errgroup.Group
	for range 5 {
		g.Go(func() error {
			resp, err := c.Get(t.Context(), api.PathPosts)
			if err != nil {
				return err
			}
			if resp.StatusCode != http.StatusOK {
				t.Errorf("status = %d", resp.StatusCode)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	access, refresh, err := c.Credentials().Pair(t.Context())
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
}

func TestClientTerminatesOnReusedRefresh(t *testing.T) {
	ts := newTestServer(t, false)
	store, session := ts.expiredSession(t, "mallory@example.com")

	// Someone else spends the refresh token first
	status, _, _ := ts.call(t, http.MethodPost, api.PathRefreshToken, session.RefreshToken, nil)
	require.Equal(t, http.StatusOK, status)

	c := ts.client(t, store)
	var logouts atomic.Int32
	c.OnLogout(func() { logouts.Add(1) })

	_, err := c.Get(t.Context(), api.PathMe)
	require.ErrorIs(t, err, client.ErrRefreshRejected)
	require.Equal(t, client.ReasonMismatch, client.ReasonOf(err))
	require.Equal(t, int32(1), logouts.Load())

	_, ok, err := c.Credentials().Get(t.Context(), client.KindRefresh)
	require.NoError(t, err)
	require.False(t, ok, "credentials should be cleared")
}
