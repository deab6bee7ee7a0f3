package client

import (
	"context"
	"errors"

	"golang.org/x/oauth2"
)

// ErrNoSession is returned by the token source when nobody is signed in
var ErrNoSession = errors.New("no active session")

type sessionTokenSource struct {
	ctx    context.Context
	client *Client
}

// TokenSource exposes the session as an oauth2.TokenSource so other HTTP
// clients (oauth2.NewClient) share the same credentials. An access
// credential past its exp claim is refreshed through the coordinator first.
func (c *Client) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &sessionTokenSource{ctx: ctx, client: c}
}

func (s *sessionTokenSource) Token() (*oauth2.Token, error) {
	access, refresh, err := s.client.creds.Pair(s.ctx)
	if err != nil {
		return nil, err
	}
	if access == "" {
		return nil, ErrNoSession
	}

	if IsTokenExpired(access) {
		fresh, err := s.client.refresher.Refresh(s.ctx, access)
		if err != nil {
			return nil, err
		}
		access = fresh
		if _, refresh, err = s.client.creds.Pair(s.ctx); err != nil {
			return nil, err
		}
	}

	return &oauth2.Token{
		AccessToken:  access,
		TokenType:    "Bearer",
		RefreshToken: refresh,
		Expiry:       ExpiresAt(access),
	}, nil
}
