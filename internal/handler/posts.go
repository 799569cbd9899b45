package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Atim-01/devblog/internal/middleware"
	"github.com/Atim-01/devblog/internal/models"
	"github.com/gorilla/mux"
)

const maxPageSize = 100

func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	posts, err := h.svc.ListPosts(r.Context(), limit, offset)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "Posts retrieved successfully", posts)
}

func (h *Handler) SearchPosts(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		h.respond(w, r, http.StatusOK, "Search query is required", []*models.Post{})
		return
	}
	posts, err := h.svc.SearchPosts(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "Search results retrieved successfully", posts)
}

func (h *Handler) PostsByTag(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.PostsByTag(r.Context(), mux.Vars(r)["tag"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "Posts by tag retrieved successfully", posts)
}

func (h *Handler) PostsByAuthor(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.PostsByAuthor(r.Context(), mux.Vars(r)["authorId"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "Posts by author retrieved successfully", posts)
}

func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.svc.GetPost(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "Post retrieved successfully", post)
}

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var in models.CreatePostInput
	if err := decode(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	caller, _ := middleware.UserFromContext(r.Context())
	post, err := h.svc.CreatePost(r.Context(), caller.ID, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, "Post created successfully", post)
}

func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	var in models.UpdatePostInput
	if err := decode(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	caller, _ := middleware.UserFromContext(r.Context())
	post, err := h.svc.UpdatePost(r.Context(), caller.ID, mux.Vars(r)["id"], in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.feed.Invalidate()
	h.respond(w, r, http.StatusOK, "Post updated successfully", post)
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.UserFromContext(r.Context())
	if err := h.svc.DeletePost(r.Context(), caller.ID, mux.Vars(r)["id"]); err != nil {
		h.fail(w, r, err)
		return
	}
	h.feed.Invalidate()
	h.respond(w, r, http.StatusNoContent, "Post deleted successfully", nil)
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, badRequest("%s must be a non-negative integer", key)
	}
	return n, nil
}
