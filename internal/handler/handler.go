package handler

import (
	"net/http"

	"github.com/Atim-01/devblog/internal/feed"
	"github.com/Atim-01/devblog/internal/middleware"
	"github.com/Atim-01/devblog/internal/models"
	"github.com/Atim-01/devblog/internal/service"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	svc  *service.Service
	feed *feed.Feed
	log  *logrus.Logger
}

func NewHandler(svc *service.Service, f *feed.Feed, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, feed: f, log: log}
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := decode(w, r, &creds); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.svc.Register(r.Context(), creds)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, "User registered successfully", res)
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := decode(w, r, &creds); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.svc.Login(r.Context(), creds)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "Login successful", res)
}

// Me returns the authenticated user
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	h.respond(w, r, http.StatusOK, "User retrieved successfully", user)
}

// CreateUser adds an account on behalf of an authenticated caller
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := decode(w, r, &creds); err != nil {
		h.fail(w, r, err)
		return
	}
	user, err := h.svc.CreateUser(r.Context(), creds)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, "User created successfully", user)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "Users retrieved successfully", users)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.GetUser(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "User retrieved successfully", user)
}

func (h *Handler) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.GetUser(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "User profile retrieved successfully", user)
}

func (h *Handler) GetUserWithPosts(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.GetUserWithPosts(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "User with posts retrieved successfully", user)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var in models.UpdateUserInput
	if err := decode(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	caller, _ := middleware.UserFromContext(r.Context())
	user, err := h.svc.UpdateUser(r.Context(), caller.ID, mux.Vars(r)["id"], in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if in.Username != nil {
		// author names are rendered into the feed
		h.feed.Invalidate()
	}
	h.respond(w, r, http.StatusOK, "User updated successfully", user)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.UserFromContext(r.Context())
	if err := h.svc.DeleteUser(r.Context(), caller.ID, mux.Vars(r)["id"]); err != nil {
		h.fail(w, r, err)
		return
	}
	h.feed.Invalidate()
	h.respond(w, r, http.StatusNoContent, "User deleted successfully", nil)
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, "OK", map[string]string{"status": "ok"})
}

// Feed serves the RSS document of recent posts
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	doc, err := h.feed.Bytes(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", feed.ContentType)
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

// NotFound answers unknown routes with the error envelope
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.respondError(w, r, http.StatusNotFound, map[string]any{"error": "Cannot " + r.Method + " " + r.URL.Path})
}

// MethodNotAllowed answers known routes hit with the wrong method
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.respondError(w, r, http.StatusMethodNotAllowed, nil)
}

// InternalError is used by the recovery middleware
func (h *Handler) InternalError(w http.ResponseWriter, r *http.Request) {
	h.respondError(w, r, http.StatusInternalServerError, nil)
}
