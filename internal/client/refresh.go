package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/devilmonastery/shopfeed/internal/api"
	"github.com/devilmonastery/shopfeed/internal/pkg/logger"
	"github.com/devilmonastery/shopfeed/internal/pkg/metrics"
)

// DefaultRefreshTimeout bounds one call to the refresh endpoint
const DefaultRefreshTimeout = 10 * time.Second

// RefreshState is the coordinator's state machine position
type RefreshState int

const (
	StateIdle RefreshState = iota
	StateRefreshing
	StateSucceeded
	StateRejected
)

func (s RefreshState) String() string {
	switch s {
	case StateRefreshing:
		return "refreshing"
	case StateSucceeded:
		return "succeeded"
	case StateRejected:
		return "rejected"
	default:
		return "idle"
	}
}

// Outcome of a RefreshAttempt
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeSucceeded
	OutcomeFailed
)

// RefreshAttempt records one refresh. All requests waiting on the same flight
// share it.
type RefreshAttempt struct {
	StartedAt time.Time
	Outcome   Outcome
	Access    string // set on success
	Refresh   string // set on success
	Reason    Reason // set on failure
	Reused    bool   // another flight had already rotated the pair
}

// SendFunc submits a request through the pipeline without recovery
type SendFunc func(ctx context.Context, req *OutgoingRequest) (*Response, error)

// RefreshCoordinator runs at most one refresh at a time and retries the
// failed request once with the new credential.
type RefreshCoordinator struct {
	creds      *Credentials
	terminator *SessionTerminator
	classifier Classifier
	http       *http.Client // bare network layer, no interceptors
	refreshURL string
	timeout    time.Duration
	logger     *slog.Logger

	group singleflight.Group

	mu    sync.Mutex
	state RefreshState
	last  *RefreshAttempt
}

// NewRefreshCoordinator creates a coordinator posting to refreshURL
func NewRefreshCoordinator(creds *Credentials, terminator *SessionTerminator, httpClient *http.Client, refreshURL string, timeout time.Duration, log *slog.Logger) *RefreshCoordinator {
	if timeout <= 0 {
		timeout = DefaultRefreshTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &RefreshCoordinator{
		creds:      creds,
		terminator: terminator,
		http:       httpClient,
		refreshURL: refreshURL,
		timeout:    timeout,
		logger:     log.With(slog.String("component", "refresh_coordinator")),
	}
}

// State returns the current state
func (rc *RefreshCoordinator) State() RefreshState {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.state
}

// LastAttempt returns a snapshot of the most recent attempt, nil before the first
func (rc *RefreshCoordinator) LastAttempt() *RefreshAttempt {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.last == nil {
		return nil
	}
	a := *rc.last
	return &a
}

func (rc *RefreshCoordinator) transition(state RefreshState, attempt *RefreshAttempt) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.state = state
	a := *attempt
	rc.last = &a
}

// Refresh obtains a fresh access credential. staleAccess is the value the
// failing request was sent with. Concurrent callers share one flight; the
// flight is detached from ctx so one caller giving up does not fail the rest.
func (rc *RefreshCoordinator) Refresh(ctx context.Context, staleAccess string) (string, error) {
	flightCtx := context.WithoutCancel(ctx)
	ch := rc.group.DoChan("refresh", func() (any, error) {
		return rc.run(flightCtx, staleAccess)
	})

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for credential refresh: %w", ctx.Err())
	case res := <-ch:
		if res.Shared {
			metrics.RefreshWaiters.Inc()
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(*RefreshAttempt).Access, nil
	}
}

// run is the body of one flight
func (rc *RefreshCoordinator) run(ctx context.Context, staleAccess string) (*RefreshAttempt, error) {
	attempt := &RefreshAttempt{StartedAt: time.Now(), Outcome: OutcomePending}
	rc.transition(StateRefreshing, attempt)

	access, refresh, err := rc.creds.Pair(ctx)
	if err != nil {
		return nil, rc.reject(ctx, attempt, rejected(ReasonUnknown, 0, "", err))
	}
	if refresh == "" {
		return nil, rc.reject(ctx, attempt, rejected(ReasonMissing, 0, "", nil))
	}

	// A flight that finished after the failing request was sent already
	// rotated the pair; reuse it instead of spending the new refresh token.
	if access != "" && access != staleAccess {
		attempt.Outcome = OutcomeSucceeded
		attempt.Access, attempt.Refresh = access, refresh
		attempt.Reused = true
		rc.transition(StateSucceeded, attempt)
		metrics.RecordRefresh("reused", "")
		rc.logger.Debug("credential already refreshed, reusing",
			slog.String("token_prefix", logger.TokenPreview(access)))
		return attempt, nil
	}

	pair, rerr := rc.call(ctx, refresh)
	if rerr != nil {
		return nil, rc.reject(ctx, attempt, rerr)
	}

	if err := rc.creds.Replace(ctx, pair.AccessToken, pair.RefreshToken); err != nil {
		return nil, rc.reject(ctx, attempt, rejected(ReasonUnknown, 0, "", err))
	}

	attempt.Outcome = OutcomeSucceeded
	attempt.Access, attempt.Refresh = pair.AccessToken, pair.RefreshToken
	rc.transition(StateSucceeded, attempt)
	metrics.RecordRefresh("succeeded", "")

	rc.logger.Info("credential refreshed",
		slog.Duration("duration", time.Since(attempt.StartedAt)),
		slog.String("token_prefix", logger.TokenPreview(pair.AccessToken)))
	return attempt, nil
}

// call issues the single refresh request on the bare client
func (rc *RefreshCoordinator) call(ctx context.Context, refresh string) (api.TokenPair, *Error) {
	metrics.RefreshInFlight.Set(1)
	defer metrics.RefreshInFlight.Set(0)

	ctx, cancel := context.WithTimeout(ctx, rc.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rc.refreshURL, nil)
	if err != nil {
		return api.TokenPair{}, rejected(ReasonUnknown, 0, "", err)
	}
	req.Header.Set("Authorization", "Bearer "+refresh)
	req.Header.Set("Accept", "application/json")

	httpResp, err := rc.http.Do(req)
	if err != nil {
		rc.logger.Warn("refresh call failed", slog.String("error", err.Error()))
		return api.TokenPair{}, rc.classifier.ClassifyRefresh(nil, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return api.TokenPair{}, rc.classifier.ClassifyRefresh(nil, err)
	}

	resp := &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: body}
	if e := rc.classifier.ClassifyRefresh(resp, nil); e != nil {
		return api.TokenPair{}, e
	}

	var pair api.TokenPair
	if err := resp.Decode(&pair); err != nil {
		return api.TokenPair{}, rejected(ReasonUnknown, resp.StatusCode, "", fmt.Errorf("decode refresh response: %w", err))
	}
	if !pair.Complete() {
		return api.TokenPair{}, rejected(ReasonUnknown, resp.StatusCode, "", errors.New("refresh response missing accessToken or refreshToken"))
	}
	return pair, nil
}

// reject terminates the session before any waiter sees the error
func (rc *RefreshCoordinator) reject(ctx context.Context, attempt *RefreshAttempt, e *Error) error {
	attempt.Outcome = OutcomeFailed
	attempt.Reason = e.Reason
	rc.transition(StateRejected, attempt)
	metrics.RecordRefresh("rejected", e.Reason.String())

	rc.logger.Warn("credential refresh rejected, ending session",
		slog.String("reason", e.Reason.String()),
		slog.Int("status", e.Status),
		slog.String("code", e.Code))

	_ = rc.terminator.terminate(ctx, TriggerRefreshRejected)
	return e
}

// Recover handles a request that failed with CategorySessionExpired: one
// refresh, then one resubmit through send. The resubmit's result is final.
func (rc *RefreshCoordinator) Recover(ctx context.Context, req *OutgoingRequest, send SendFunc) (*Response, error) {
	if req.Retried {
		return nil, &Error{Category: CategoryOther, Err: errors.New("request already retried")}
	}

	access, err := rc.Refresh(ctx, req.sentAccess)
	if err != nil {
		return nil, err
	}

	req.Retried = true
	req.Header.Set("Authorization", "Bearer "+access)
	req.sentAccess = access

	resp, err := send(ctx, req)
	if err == nil {
		metrics.RequestRetries.WithLabelValues("succeeded").Inc()
		return resp, nil
	}

	var e *Error
	if errors.As(err, &e) && e.Category == CategoryOther && ExpiryShaped(e) {
		metrics.RequestRetries.WithLabelValues("expired").Inc()
		rc.logger.Warn("retried request rejected as expired, ending session",
			slog.String("url", req.URL),
			slog.Int("status", e.Status))
		_ = rc.terminator.terminate(ctx, TriggerRetryExpired)

		out := rejected(ReasonUnknown, e.Status, e.Code, nil)
		out.Message = e.Message
		return resp, out
	}

	metrics.RequestRetries.WithLabelValues("failed").Inc()
	return resp, err
}
