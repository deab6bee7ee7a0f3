package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/devilmonastery/shopfeed/internal/api"
	"github.com/devilmonastery/shopfeed/internal/auth"
	"github.com/devilmonastery/shopfeed/internal/config"
	"github.com/devilmonastery/shopfeed/server/internal/store"
)

const testSigningKey = "0123456789abcdef"

type testServer struct {
	srv   *httptest.Server
	store *store.Store
	jwt   *auth.JWTManager
}

func newTestServer(t *testing.T, requireVerified bool) *testServer {
	t.Helper()
	st := store.New(time.Hour)
	jwtm := auth.NewJWTManager(testSigningKey, time.Minute, "test")
	h := New(st, jwtm, config.AuthConfig{
		BcryptCost:           bcrypt.MinCost,
		RequireVerifiedEmail: requireVerified,
	}, slog.New(slog.DiscardHandler))

	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, store: st, jwt: jwtm}
}

// call sends a JSON request and returns status, error body and raw body
func (ts *testServer) call(t *testing.T, method, path, bearer string, body any) (int, api.ErrorBody, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(t.Context(), method, ts.srv.URL+path, reader)
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ts.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, api.DecodeError(raw), raw
}

func decodeData(t *testing.T, raw []byte, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, &api.Envelope{Data: v}))
}

// signUp creates an account and returns its session
func (ts *testServer) signUp(t *testing.T, email string) api.AuthResponse {
	t.Helper()
	status, _, raw := ts.call(t, http.MethodPost, api.PathSignUp, "", api.SignUpRequest{
		Name: "Test", Email: email, Password: "password1",
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	var resp api.AuthResponse
	decodeData(t, raw, &resp)
	return resp
}

func TestSignUpAndSignIn(t *testing.T) {
	ts := newTestServer(t, false)

	session := ts.signUp(t, "alice@example.com")
	require.True(t, session.Complete())
	require.NotEmpty(t, session.StoreID)
	require.Equal(t, "alice@example.com", session.User.Email)

	status, body, _ := ts.call(t, http.MethodPost, api.PathSignUp, "", api.SignUpRequest{
		Email: "alice@example.com", Password: "password1",
	})
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, api.CodeEmailTaken, body.Code)

	status, body, _ = ts.call(t, http.MethodPost, api.PathSignIn, "", api.SignInRequest{
		Email: "alice@example.com", Password: "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, api.CodeInvalidCredentials, body.Code)

	status, _, raw := ts.call(t, http.MethodPost, api.PathSignIn, "", api.SignInRequest{
		Email: "Alice@Example.com", Password: "password1",
	})
	require.Equal(t, http.StatusOK, status)
	var signedIn api.AuthResponse
	decodeData(t, raw, &signedIn)
	require.True(t, signedIn.Complete())
	require.Equal(t, session.StoreID, signedIn.StoreID)
}

func TestSignUpValidation(t *testing.T) {
	ts := newTestServer(t, false)

	status, body, _ := ts.call(t, http.MethodPost, api.PathSignUp, "", api.SignUpRequest{
		Email: "not-an-email", Password: "short",
	})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, api.CodeValidation, body.Code)
	require.Contains(t, body.Message, "email must be a valid address")
	require.Contains(t, body.Message, "password must be at least 8 characters")

	status, body, _ = ts.call(t, http.MethodPost, api.PathSignUp, "", map[string]string{"unexpected": "field"})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, api.CodeValidation, body.Code)
}

func TestVerifiedEmailRequired(t *testing.T) {
	ts := newTestServer(t, true)

	session := ts.signUp(t, "bob@example.com")
	require.False(t, session.Complete(), "no session before verification")

	creds := api.SignInRequest{Email: "bob@example.com", Password: "password1"}
	status, body, _ := ts.call(t, http.MethodPost, api.PathSignIn, "", creds)
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, api.CodeEmailNotVerified, body.Code)

	status, _, _ = ts.call(t, http.MethodPost, api.PathVerifyEmail, "", api.VerifyEmailRequest{
		Email: "bob@example.com", Code: "not-it",
	})
	require.Equal(t, http.StatusBadRequest, status)

	u, err := ts.store.UserByEmail("bob@example.com")
	require.NoError(t, err)
	status, _, raw := ts.call(t, http.MethodPost, api.PathVerifyEmail, "", api.VerifyEmailRequest{
		Email: "bob@example.com", Code: u.VerifyCode,
	})
	require.Equal(t, http.StatusOK, status)
	var verified api.User
	decodeData(t, raw, &verified)
	require.True(t, verified.Verified)

	status, _, _ = ts.call(t, http.MethodPost, api.PathSignIn, "", creds)
	require.Equal(t, http.StatusOK, status)
}

func TestRefreshTokenRejections(t *testing.T) {
	ts := newTestServer(t, false)
	session := ts.signUp(t, "carol@example.com")

	// Rotate once so the original becomes a spent token
	status, _, raw := ts.call(t, http.MethodPost, api.PathRefreshToken, session.RefreshToken, nil)
	require.Equal(t, http.StatusOK, status)
	var rotated api.TokenPair
	decodeData(t, raw, &rotated)
	require.True(t, rotated.Complete())
	require.NotEqual(t, session.RefreshToken, rotated.RefreshToken)

	orphan := ts.signUp(t, "dave@example.com")
	dave, err := ts.store.UserByEmail("dave@example.com")
	require.NoError(t, err)
	require.NoError(t, ts.store.DeleteUser(dave.ID))

	tests := []struct {
		name       string
		token      string
		wantStatus int
		wantCode   string
	}{
		{"missing", "", http.StatusBadRequest, api.CodeRefreshTokenFailed},
		{"malformed", "garbage", http.StatusUnauthorized, api.CodeRefreshTokenInvalid},
		{"unknown", "6f1c2f8e-3a4b-4c5d-8e9f-0a1b2c3d4e5f", http.StatusNotFound, api.CodeRefreshTokenNotFound},
		{"reused", session.RefreshToken, http.StatusConflict, api.CodeRefreshTokenMismatch},
		{"owner deleted", orphan.RefreshToken, http.StatusNotFound, api.CodeRefreshTokenUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body, _ := ts.call(t, http.MethodPost, api.PathRefreshToken, tt.token, nil)
			require.Equal(t, tt.wantStatus, status)
			require.Equal(t, tt.wantCode, body.Code)
			require.Equal(t, tt.wantStatus, body.StatusCode)
		})
	}
}

func TestRequireAuth(t *testing.T) {
	ts := newTestServer(t, false)
	session := ts.signUp(t, "erin@example.com")

	status, body, _ := ts.call(t, http.MethodGet, api.PathMe, "", nil)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, api.CodeUnauthorized, body.Code)

	status, body, _ = ts.call(t, http.MethodGet, api.PathMe, "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, api.CodeUnauthorized, body.Code)

	expired, _, err := ts.jwt.GenerateTokenWithLifetime(session.User.ID, session.User.Email, "", session.StoreID, -time.Minute)
	require.NoError(t, err)
	status, body, _ = ts.call(t, http.MethodGet, api.PathMe, expired, nil)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, api.CodeAccessTokenExpired, body.Code)

	status, _, raw := ts.call(t, http.MethodGet, api.PathMe, session.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	var me api.User
	decodeData(t, raw, &me)
	require.Equal(t, session.User.ID, me.ID)
}

func TestPosts(t *testing.T) {
	ts := newTestServer(t, false)
	author := ts.signUp(t, "frank@example.com")
	other := ts.signUp(t, "grace@example.com")

	status, _, _ := ts.call(t, http.MethodPost, api.PathPosts, author.AccessToken, api.CreatePostRequest{Body: "  "})
	require.Equal(t, http.StatusBadRequest, status)

	status, _, raw := ts.call(t, http.MethodPost, api.PathPosts, author.AccessToken, api.CreatePostRequest{Body: "hello #shop"})
	require.Equal(t, http.StatusCreated, status)
	var post api.Post
	decodeData(t, raw, &post)
	require.Equal(t, author.User.ID, post.AuthorID)
	require.Equal(t, []string{"shop"}, post.Tags)

	status, _, raw = ts.call(t, http.MethodGet, api.PathPosts+"?limit=5", other.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	var posts []api.Post
	decodeData(t, raw, &posts)
	require.Len(t, posts, 1)

	status, _, raw = ts.call(t, http.MethodGet, api.PathPosts+"?tag=other", other.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	decodeData(t, raw, &posts)
	require.Empty(t, posts)

	status, _, _ = ts.call(t, http.MethodGet, api.PathPosts+"?limit=zero", other.AccessToken, nil)
	require.Equal(t, http.StatusBadRequest, status)

	status, body, _ := ts.call(t, http.MethodDelete, api.PathPosts+"/"+post.ID, other.AccessToken, nil)
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, api.CodeForbidden, body.Code)

	status, _, _ = ts.call(t, http.MethodDelete, api.PathPosts+"/"+post.ID, author.AccessToken, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, _, _ = ts.call(t, http.MethodGet, api.PathPosts+"/"+post.ID, author.AccessToken, nil)
	require.Equal(t, http.StatusNotFound, status)
}

func TestProductsAndHealth(t *testing.T) {
	ts := newTestServer(t, false)
	session := ts.signUp(t, "heidi@example.com")
	ts.store.AddProduct(session.StoreID, "Mug", 1200)

	status, _, raw := ts.call(t, http.MethodGet, "/stores/"+session.StoreID+"/products", session.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	var products []api.Product
	decodeData(t, raw, &products)
	require.Len(t, products, 1)
	require.Equal(t, int64(1200), products[0].Price)

	status, body, _ := ts.call(t, http.MethodGet, "/stores/nope/products", session.AccessToken, nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, api.CodeNotFound, body.Code)

	status, _, _ = ts.call(t, http.MethodGet, api.PathHealth, "", nil)
	require.Equal(t, http.StatusOK, status)

	status, _, _ = ts.call(t, http.MethodGet, "/no/such/route", "", nil)
	require.Equal(t, http.StatusNotFound, status)
}
