package client

import (
	"context"
	"log/slog"
	"sync"

	"github.com/devilmonastery/shopfeed/internal/pkg/metrics"
)

// Logout triggers, used as metric labels
const (
	TriggerSignOut         = "sign_out"
	TriggerRefreshRejected = "refresh_rejected"
	TriggerRetryExpired    = "retry_expired"
)

// SessionTerminator clears stored credentials and notifies subscribers that
// the session is gone.
type SessionTerminator struct {
	creds  *Credentials
	logger *slog.Logger

	mu     sync.Mutex
	subs   map[uint64]func()
	nextID uint64
}

// NewSessionTerminator creates a terminator over creds
func NewSessionTerminator(creds *Credentials, log *slog.Logger) *SessionTerminator {
	if log == nil {
		log = slog.Default()
	}
	return &SessionTerminator{
		creds:  creds,
		logger: log.With(slog.String("component", "session_terminator")),
		subs:   make(map[uint64]func()),
	}
}

// Subscribe registers fn for the logout notification. The returned function
// removes the subscription.
func (t *SessionTerminator) Subscribe(fn func()) (unsubscribe func()) {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.subs[id] = fn
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.subs, id)
			t.mu.Unlock()
		})
	}
}

// Terminate ends the session on the user's request. Calling it when already
// logged out does nothing.
func (t *SessionTerminator) Terminate(ctx context.Context) error {
	return t.terminate(ctx, TriggerSignOut)
}

func (t *SessionTerminator) terminate(ctx context.Context, trigger string) error {
	had, err := t.creds.Clear(ctx)
	if err != nil {
		t.logger.Error("clearing credentials failed",
			slog.String("trigger", trigger),
			slog.String("error", err.Error()))
	}
	if !had {
		t.logger.Debug("terminate on empty session ignored", slog.String("trigger", trigger))
		return err
	}

	metrics.Logouts.WithLabelValues(trigger).Inc()
	t.logger.Info("session terminated", slog.String("trigger", trigger))

	t.mu.Lock()
	subs := make([]func(), 0, len(t.subs))
	for _, fn := range t.subs {
		subs = append(subs, fn)
	}
	t.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
	return err
}
