package credstore

import (
	"context"
	"net/http"

	"github.com/gorilla/sessions"
)

// SessionName is the name of the session cookie
const SessionName = "shopfeed_session"

// NewCookieSessions creates the gorilla cookie store used by CookieStore.
// secretKey should be 32 bytes for AES-256.
func NewCookieSessions(secretKey []byte, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore(secretKey)

	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   90 * 24 * 60 * 60, // 90 days
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}

	return store
}

// CookieStore keeps credentials in the caller's encrypted session cookie.
// It is bound to one request/response pair, so create it per request.
type CookieStore struct {
	sessions sessions.Store
	request  *http.Request
	writer   http.ResponseWriter
}

// NewCookieStore binds the session store to a single request
func NewCookieStore(store sessions.Store, r *http.Request, w http.ResponseWriter) *CookieStore {
	return &CookieStore{
		sessions: store,
		request:  r,
		writer:   w,
	}
}

func (c *CookieStore) session() (*sessions.Session, error) {
	session, err := c.sessions.Get(c.request, SessionName)
	if err != nil {
		// Undecodable cookie (rotated key, tampering): start a fresh session
		session, err = c.sessions.New(c.request, SessionName)
		if session == nil {
			return nil, err
		}
	}
	return session, nil
}

// Get returns the value for service
func (c *CookieStore) Get(ctx context.Context, service string) (string, error) {
	session, err := c.session()
	if err != nil {
		return "", &StoreError{Op: "get", Service: service, Err: err}
	}

	v, ok := session.Values[service].(string)
	if !ok || v == "" {
		return "", ErrNotFound
	}
	return v, nil
}

// Set stores value for service and writes the cookie
func (c *CookieStore) Set(ctx context.Context, service, value string) error {
	return c.save("set", service, func(s *sessions.Session) {
		s.Values[service] = value
	})
}

// SetPair writes both halves with a single Set-Cookie
func (c *CookieStore) SetPair(ctx context.Context, access, refresh string) error {
	return c.save("set", ServiceAccessToken+"+"+ServiceRefreshToken, func(s *sessions.Session) {
		s.Values[ServiceAccessToken] = access
		s.Values[ServiceRefreshToken] = refresh
	})
}

// Clear removes service from the session
func (c *CookieStore) Clear(ctx context.Context, service string) error {
	return c.save("clear", service, func(s *sessions.Session) {
		delete(s.Values, service)
	})
}

func (c *CookieStore) save(op, service string, mutate func(*sessions.Session)) error {
	session, err := c.session()
	if err != nil {
		return &StoreError{Op: op, Service: service, Err: err}
	}

	mutate(session)

	if err := session.Save(c.request, c.writer); err != nil {
		return &StoreError{Op: op, Service: service, Err: err}
	}
	return nil
}
