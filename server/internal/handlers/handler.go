package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/devilmonastery/shopfeed/internal/api"
	"github.com/devilmonastery/shopfeed/internal/auth"
	"github.com/devilmonastery/shopfeed/internal/config"
	"github.com/devilmonastery/shopfeed/server/internal/middleware"
	"github.com/devilmonastery/shopfeed/server/internal/store"
)

// maxRequestBytes bounds JSON request bodies
const maxRequestBytes = 1 << 20

// Handler holds dependencies for all dev server handlers
type Handler struct {
	store *store.Store
	jwt   *auth.JWTManager
	auth  config.AuthConfig
	log   *slog.Logger
}

// New creates a new handler with dependencies
func New(st *store.Store, jwt *auth.JWTManager, cfg config.AuthConfig, logger *slog.Logger) *Handler {
	return &Handler{
		store: st,
		jwt:   jwt,
		auth:  cfg,
		log:   logger.With(slog.String("component", "handler")),
	}
}

// Routes builds the router serving the whole API
func (h *Handler) Routes() *mux.Router {
	authMiddleware := middleware.NewAuthMiddleware(h.jwt, h.log)
	authed := func(f http.HandlerFunc) http.Handler {
		return authMiddleware.RequireAuth(f)
	}

	r := mux.NewRouter()
	r.Use(middleware.RequestID, middleware.LogRequest(h.log))

	r.HandleFunc(api.PathHealth, h.health).Methods(http.MethodGet)
	r.Handle(api.PathMetrics, promhttp.Handler()).Methods(http.MethodGet)

	// Public
	r.HandleFunc(api.PathSignUp, h.signUp).Methods(http.MethodPost)
	r.HandleFunc(api.PathSignIn, h.signIn).Methods(http.MethodPost)
	r.HandleFunc(api.PathVerifyEmail, h.verifyEmail).Methods(http.MethodPost)
	r.HandleFunc(api.PathRefreshToken, h.refreshToken).Methods(http.MethodPost)

	// Authenticated
	r.Handle(api.PathMe, authed(h.me)).Methods(http.MethodGet)
	r.Handle(api.PathPosts, authed(h.listPosts)).Methods(http.MethodGet)
	r.Handle(api.PathPosts, authed(h.createPost)).Methods(http.MethodPost)
	r.Handle(api.PathPosts+"/{id}", authed(h.getPost)).Methods(http.MethodGet)
	r.Handle(api.PathPosts+"/{id}", authed(h.deletePost)).Methods(http.MethodDelete)
	r.Handle("/stores/{id}/products", authed(h.listProducts)).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "no route for "+r.URL.Path)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.WriteError(w, http.StatusMethodNotAllowed, "", r.Method+" not allowed on "+r.URL.Path)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	api.WriteData(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeJSON reads a bounded JSON body into v, writing a 400 on failure
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		msg := "invalid JSON body"
		if errors.Is(err, io.EOF) {
			msg = "request body is required"
		}
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, msg)
		return false
	}
	return true
}

// writeValidation reports field problems as a message list
func writeValidation(w http.ResponseWriter, problems []string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(struct {
		StatusCode int      `json:"statusCode"`
		Code       string   `json:"code"`
		Message    []string `json:"message"`
	}{http.StatusBadRequest, api.CodeValidation, problems})
}

// currentUser returns the authenticated account, writing an error when the
// token outlived its user
func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (*store.User, bool) {
	uc, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthorized, err.Error())
		return nil, false
	}
	u, err := h.store.UserByID(uc.UserID)
	if err != nil {
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, fmt.Sprintf("user %s not found", uc.UserID))
		return nil, false
	}
	return u, true
}
