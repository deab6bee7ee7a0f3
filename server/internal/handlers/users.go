package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/devilmonastery/shopfeed/internal/api"
	"github.com/devilmonastery/shopfeed/internal/pkg/logger"
	"github.com/devilmonastery/shopfeed/internal/pkg/metrics"
	"github.com/devilmonastery/shopfeed/server/internal/middleware"
	"github.com/devilmonastery/shopfeed/server/internal/store"
)

const minPasswordLength = 8

func (h *Handler) signUp(w http.ResponseWriter, r *http.Request) {
	var req api.SignUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var problems []string
	if _, err := mail.ParseAddress(req.Email); err != nil {
		problems = append(problems, "email must be a valid address")
	}
	if len(req.Password) < minPasswordLength {
		problems = append(problems, "password must be at least 8 characters")
	}
	if len(problems) > 0 {
		writeValidation(w, problems)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.auth.BcryptCost)
	if err != nil {
		h.log.Error("failed to hash password", slog.String("error", err.Error()))
		api.WriteError(w, http.StatusInternalServerError, "", "failed to create account")
		return
	}

	u, err := h.store.CreateUser(req.Email, strings.TrimSpace(req.Name), string(hash), "")
	if errors.Is(err, store.ErrEmailTaken) {
		api.WriteError(w, http.StatusConflict, api.CodeEmailTaken, "email already registered")
		return
	}
	if err != nil {
		h.log.Error("failed to create user", slog.String("error", err.Error()))
		api.WriteError(w, http.StatusInternalServerError, "", "failed to create account")
		return
	}

	// No mailer in dev: the code goes to the log
	h.log.Info("user signed up",
		slog.String("user_id", u.ID),
		slog.String("email", u.Email),
		slog.String("verify_code", u.VerifyCode))

	resp := api.AuthResponse{StoreID: u.StoreID, User: u.Public()}
	if !h.auth.RequireVerifiedEmail {
		pair, err := h.issuePair(u)
		if err != nil {
			api.WriteError(w, http.StatusInternalServerError, "", "failed to issue session")
			return
		}
		resp.TokenPair = pair
		metrics.TokensIssued.WithLabelValues("sign_up").Inc()
	}
	api.WriteData(w, http.StatusCreated, resp)
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	var req api.SignInRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.store.UserByEmail(req.Email)
	if err != nil {
		api.WriteError(w, http.StatusUnauthorized, api.CodeInvalidCredentials, "invalid email or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		api.WriteError(w, http.StatusUnauthorized, api.CodeInvalidCredentials, "invalid email or password")
		return
	}
	if h.auth.RequireVerifiedEmail && !u.Verified {
		api.WriteError(w, http.StatusForbidden, api.CodeEmailNotVerified, "email not verified")
		return
	}

	pair, err := h.issuePair(u)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "", "failed to issue session")
		return
	}
	metrics.TokensIssued.WithLabelValues("sign_in").Inc()

	h.log.Info("user signed in", slog.String("user_id", u.ID))
	api.WriteData(w, http.StatusOK, api.AuthResponse{
		TokenPair: pair,
		StoreID:   u.StoreID,
		User:      u.Public(),
	})
}

func (h *Handler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	var req api.VerifyEmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	switch err := h.store.Verify(req.Email, req.Code); {
	case errors.Is(err, store.ErrNotFound):
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "unknown email")
		return
	case errors.Is(err, store.ErrBadCode):
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "verification code does not match")
		return
	case err != nil:
		api.WriteError(w, http.StatusInternalServerError, "", err.Error())
		return
	}

	u, err := h.store.UserByEmail(req.Email)
	if err != nil {
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "unknown email")
		return
	}
	api.WriteData(w, http.StatusOK, u.Public())
}

// refreshToken exchanges the bearer refresh token for a new pair. The
// presented token is spent whether or not the caller receives the response.
func (h *Handler) refreshToken(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if token == "" {
		api.WriteError(w, http.StatusBadRequest, api.CodeRefreshTokenFailed, "missing refresh token")
		return
	}

	u, next, err := h.store.RotateRefresh(token)
	if err != nil {
		status, code := refreshFailure(err)
		h.log.Info("refresh rejected",
			slog.String("token", logger.TokenPreview(token)),
			slog.String("code", code),
			slog.String("error", err.Error()))
		api.WriteError(w, status, code, err.Error())
		return
	}

	access, _, err := h.jwt.GenerateToken(u.ID, u.Email, u.Name, u.StoreID)
	if err != nil {
		h.log.Error("failed to sign access token", slog.String("error", err.Error()))
		api.WriteError(w, http.StatusBadRequest, api.CodeRefreshTokenFailed, "failed to issue access token")
		return
	}
	metrics.TokensIssued.WithLabelValues("refresh").Inc()

	api.WriteData(w, http.StatusOK, api.TokenPair{AccessToken: access, RefreshToken: next})
}

func refreshFailure(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrRefreshInvalid):
		return http.StatusUnauthorized, api.CodeRefreshTokenInvalid
	case errors.Is(err, store.ErrRefreshNotFound):
		return http.StatusNotFound, api.CodeRefreshTokenNotFound
	case errors.Is(err, store.ErrRefreshReused):
		return http.StatusConflict, api.CodeRefreshTokenMismatch
	case errors.Is(err, store.ErrRefreshUserMissing):
		return http.StatusNotFound, api.CodeRefreshTokenUserNotFound
	default:
		return http.StatusBadRequest, api.CodeRefreshTokenFailed
	}
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	api.WriteData(w, http.StatusOK, u.Public())
}

func (h *Handler) issuePair(u *store.User) (api.TokenPair, error) {
	access, _, err := h.jwt.GenerateToken(u.ID, u.Email, u.Name, u.StoreID)
	if err != nil {
		h.log.Error("failed to sign access token", slog.String("error", err.Error()))
		return api.TokenPair{}, err
	}
	return api.TokenPair{
		AccessToken:  access,
		RefreshToken: h.store.IssueRefresh(u.ID),
	}, nil
}
