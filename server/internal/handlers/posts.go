package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gorilla/mux"

	"github.com/devilmonastery/shopfeed/internal/api"
	"github.com/devilmonastery/shopfeed/internal/auth"
	"github.com/devilmonastery/shopfeed/server/internal/store"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxPostLength   = 1000
)

func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request) {
	limit := defaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "limit must be a positive integer")
			return
		}
		limit = min(n, maxPageSize)
	}

	api.WriteData(w, http.StatusOK, h.store.ListPosts(limit, r.URL.Query().Get("tag")))
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req api.CreatePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	body := strings.TrimSpace(req.Body)
	if body == "" {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "body is required")
		return
	}
	if utf8.RuneCountInString(body) > maxPostLength {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "body must be at most 1000 characters")
		return
	}

	post := h.store.CreatePost(u, body)
	h.log.Info("post created", slog.String("post_id", post.ID), slog.String("user_id", u.ID))
	api.WriteData(w, http.StatusCreated, post)
}

func (h *Handler) getPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.store.Post(mux.Vars(r)["id"])
	if errors.Is(err, store.ErrNotFound) {
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "post not found")
		return
	}
	api.WriteData(w, http.StatusOK, post)
}

func (h *Handler) deletePost(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	post, err := h.store.Post(id)
	if errors.Is(err, store.ErrNotFound) {
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "post not found")
		return
	}

	if err := auth.CanModifyPost(r.Context(), post.AuthorID); err != nil {
		api.WriteError(w, http.StatusForbidden, api.CodeForbidden, "only the author may delete a post")
		return
	}

	if err := h.store.DeletePost(id); err != nil {
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "post not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.Products(mux.Vars(r)["id"])
	if errors.Is(err, store.ErrNotFound) {
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "store not found")
		return
	}
	api.WriteData(w, http.StatusOK, products)
}
