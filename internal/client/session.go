package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/devilmonastery/shopfeed/internal/api"
)

// ErrIncompleteCredentials is returned when sign-in succeeds without a full pair
var ErrIncompleteCredentials = errors.New("server returned incomplete credentials")

func (c *Client) unauthenticated(ctx context.Context, path string, body any) (*Response, error) {
	req, err := c.NewRequest(http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	req.Unauthenticated = true
	return c.Send(ctx, req)
}

// storeSession persists the credentials carried by an auth response
func (c *Client) storeSession(ctx context.Context, auth *api.AuthResponse) error {
	if err := c.creds.Replace(ctx, auth.AccessToken, auth.RefreshToken); err != nil {
		return err
	}
	if err := c.creds.SetStoreID(ctx, auth.StoreID); err != nil {
		return fmt.Errorf("store storeId: %w", err)
	}
	return nil
}

// SignIn exchanges email and password for a session and stores it
func (c *Client) SignIn(ctx context.Context, email, password string) (*api.User, error) {
	resp, err := c.unauthenticated(ctx, api.PathSignIn, api.SignInRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	var auth api.AuthResponse
	if err := resp.Decode(&auth); err != nil {
		return nil, fmt.Errorf("sign in: decode response: %w", err)
	}
	if !auth.Complete() {
		return nil, fmt.Errorf("sign in: %w", ErrIncompleteCredentials)
	}

	if err := c.storeSession(ctx, &auth); err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	c.logger.Info("signed in", slog.String("email", email))
	return auth.User, nil
}

// SignUp creates an account. When the server signs the user in immediately
// the returned session is stored as well.
func (c *Client) SignUp(ctx context.Context, name, email, password string) (*api.User, error) {
	resp, err := c.unauthenticated(ctx, api.PathSignUp, api.SignUpRequest{Name: name, Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}

	var auth api.AuthResponse
	if err := resp.Decode(&auth); err != nil {
		return nil, fmt.Errorf("sign up: decode response: %w", err)
	}

	if auth.Complete() {
		if err := c.storeSession(ctx, &auth); err != nil {
			return nil, fmt.Errorf("sign up: %w", err)
		}
	}
	return auth.User, nil
}

// VerifyEmail confirms an address with the code sent at sign-up
func (c *Client) VerifyEmail(ctx context.Context, email, code string) error {
	if _, err := c.unauthenticated(ctx, api.PathVerifyEmail, api.VerifyEmailRequest{Email: email, Code: code}); err != nil {
		return fmt.Errorf("verify email: %w", err)
	}
	return nil
}

// SignOut ends the session locally and notifies logout subscribers
func (c *Client) SignOut(ctx context.Context) error {
	return c.terminator.Terminate(ctx)
}

// Me returns the signed-in user
func (c *Client) Me(ctx context.Context) (*api.User, error) {
	resp, err := c.Get(ctx, api.PathMe)
	if err != nil {
		return nil, err
	}
	var user api.User
	if err := resp.Decode(&user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &user, nil
}
