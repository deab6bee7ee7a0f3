// Package credstore persists session credentials under fixed service names.
//
// Backends are deliberately dumb: they get, set and clear opaque string values.
// Locking across the access/refresh pair is the caller's job (see client.Credentials);
// backends that can write both halves in one operation implement PairStore.
package credstore

import (
	"context"
	"errors"
)

// Service names used by the session pipeline
const (
	ServiceAccessToken  = "accessToken"
	ServiceRefreshToken = "refreshToken"
	ServiceStoreID      = "storeId"
)

// Services lists every service name a session may occupy
var Services = []string{ServiceAccessToken, ServiceRefreshToken, ServiceStoreID}

// ErrNotFound is returned by Get when no value is stored for the service
var ErrNotFound = errors.New("credential not found")

// Store is a service-scoped key/value store for credentials.
type Store interface {
	// Get returns the stored value or ErrNotFound
	Get(ctx context.Context, service string) (string, error)

	// Set stores value under service, replacing any previous value
	Set(ctx context.Context, service, value string) error

	// Clear removes the value. Clearing an absent service is not an error.
	Clear(ctx context.Context, service string) error
}

// PairStore is implemented by backends that can replace the access/refresh
// pair in a single write.
type PairStore interface {
	Store
	SetPair(ctx context.Context, access, refresh string) error
}

// StoreError indicates a credential storage failure.
type StoreError struct {
	Op      string // "get", "set", "clear"
	Service string
	Err     error
}

func (e *StoreError) Error() string {
	msg := e.Op + " credential"
	if e.Service != "" {
		msg += " " + e.Service
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
