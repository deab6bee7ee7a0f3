package client

import (
	"context"
	"log/slog"

	"github.com/devilmonastery/shopfeed/internal/pkg/logger"
)

// AuthInterceptor attaches the current access credential to outbound requests
type AuthInterceptor struct {
	creds  *Credentials
	logger *slog.Logger
}

// NewAuthInterceptor creates a new auth interceptor
func NewAuthInterceptor(creds *Credentials, log *slog.Logger) *AuthInterceptor {
	if log == nil {
		log = slog.Default()
	}
	return &AuthInterceptor{
		creds:  creds,
		logger: log.With(slog.String("component", "auth_interceptor")),
	}
}

// Attach sets "Authorization: Bearer <access>" when an access credential is
// stored. A missing credential is not an error; the server decides.
func (a *AuthInterceptor) Attach(ctx context.Context, req *OutgoingRequest) {
	if req.Unauthenticated {
		return
	}

	// The coordinator already set the refreshed credential on the resubmit
	if req.Retried && req.Authenticated() {
		return
	}

	access, err := a.creds.Access(ctx)
	if err != nil {
		a.logger.Warn("reading access credential failed, sending unauthenticated",
			slog.String("url", req.URL),
			slog.String("error", err.Error()))
		return
	}
	if access == "" {
		return
	}

	req.Header.Set("Authorization", "Bearer "+access)
	req.sentAccess = access

	a.logger.Debug("attached access credential",
		slog.String("url", req.URL),
		slog.String("token_prefix", logger.TokenPreview(access)))
}
