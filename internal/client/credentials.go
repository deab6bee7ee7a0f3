package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/devilmonastery/shopfeed/internal/credstore"
)

// Kind identifies one of the stored credentials
type Kind int

const (
	KindAccess Kind = iota
	KindRefresh
	KindStoreID
)

// Service returns the credential store service name for the kind
func (k Kind) Service() string {
	switch k {
	case KindAccess:
		return credstore.ServiceAccessToken
	case KindRefresh:
		return credstore.ServiceRefreshToken
	default:
		return credstore.ServiceStoreID
	}
}

// Credential is one stored session value
type Credential struct {
	Kind         Kind
	Value        string
	PresentSince time.Time // iat of JWT values, zero otherwise
}

// Credentials guards a credstore.Store so the access/refresh pair is only
// ever read and replaced as a unit.
type Credentials struct {
	mu    sync.RWMutex
	store credstore.Store
}

// NewCredentials wraps store
func NewCredentials(store credstore.Store) *Credentials {
	return &Credentials{store: store}
}

// get reads one service; absence is not an error. Caller holds mu.
func (c *Credentials) get(ctx context.Context, service string) (string, error) {
	v, err := c.store.Get(ctx, service)
	if errors.Is(err, credstore.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

// Get returns the credential of the given kind; ok is false when absent
func (c *Credentials) Get(ctx context.Context, kind Kind) (Credential, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, err := c.get(ctx, kind.Service())
	if err != nil || v == "" {
		return Credential{}, false, err
	}

	cred := Credential{Kind: kind, Value: v}
	if kind != KindStoreID {
		cred.PresentSince = IssuedAt(v)
	}
	return cred, true, nil
}

// Access returns the current access credential or ""
func (c *Credentials) Access(ctx context.Context) (string, error) {
	cred, _, err := c.Get(ctx, KindAccess)
	return cred.Value, err
}

// StoreID returns the auxiliary store id or ""
func (c *Credentials) StoreID(ctx context.Context) (string, error) {
	cred, _, err := c.Get(ctx, KindStoreID)
	return cred.Value, err
}

// Pair reads both halves under one read lock
func (c *Credentials) Pair(ctx context.Context) (access, refresh string, err error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if access, err = c.get(ctx, credstore.ServiceAccessToken); err != nil {
		return "", "", err
	}
	if refresh, err = c.get(ctx, credstore.ServiceRefreshToken); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// Replace swaps in a new pair. Readers see either the old or the new pair,
// never a mix.
func (c *Credentials) Replace(ctx context.Context, access, refresh string) error {
	if access == "" || refresh == "" {
		return errors.New("replace credentials: both access and refresh are required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if ps, ok := c.store.(credstore.PairStore); ok {
		if err := ps.SetPair(ctx, access, refresh); err != nil {
			return fmt.Errorf("replace credentials: %w", err)
		}
		return nil
	}

	// Invalidate the old access first so a crash mid-write cannot leave an
	// old access next to a new refresh.
	if err := c.store.Clear(ctx, credstore.ServiceAccessToken); err != nil {
		return fmt.Errorf("replace credentials: %w", err)
	}
	if err := c.store.Set(ctx, credstore.ServiceRefreshToken, refresh); err != nil {
		return fmt.Errorf("replace credentials: %w", err)
	}
	if err := c.store.Set(ctx, credstore.ServiceAccessToken, access); err != nil {
		return fmt.Errorf("replace credentials: %w", err)
	}
	return nil
}

// SetStoreID stores the auxiliary store id
func (c *Credentials) SetStoreID(ctx context.Context, storeID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if storeID == "" {
		return c.store.Clear(ctx, credstore.ServiceStoreID)
	}
	return c.store.Set(ctx, credstore.ServiceStoreID, storeID)
}

// Clear removes every session credential. It reports whether anything was
// stored beforehand, so concurrent callers agree on who ended the session.
func (c *Credentials) Clear(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		had  bool
		errs []error
	)
	for _, service := range credstore.Services {
		v, err := c.get(ctx, service)
		if err != nil {
			// Unreadable counts as present; clear it anyway
			slog.Warn("reading credential before clear failed",
				slog.String("component", "credentials"),
				slog.String("service", service),
				slog.String("error", err.Error()))
			had = true
		} else if v != "" {
			had = true
		}

		if err := c.store.Clear(ctx, service); err != nil {
			errs = append(errs, err)
		}
	}

	return had, errors.Join(errs...)
}
