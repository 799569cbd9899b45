package handler

import (
	"net/http"

	"github.com/Atim-01/devblog/internal/middleware"
	"github.com/gorilla/mux"
)

// Router builds the API routes under /api
func (h *Handler) Router(corsOrigin string) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(h.NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(h.MethodNotAllowed)

	api := r.PathPrefix("/api").Subrouter()
	api.NotFoundHandler = r.NotFoundHandler
	api.MethodNotAllowedHandler = r.MethodNotAllowedHandler

	// Public routes
	api.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	api.HandleFunc("/feed.xml", h.Feed).Methods(http.MethodGet)
	api.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	api.HandleFunc("/posts", h.ListPosts).Methods(http.MethodGet)
	api.HandleFunc("/posts/search", h.SearchPosts).Methods(http.MethodGet)
	api.HandleFunc("/posts/tag/{tag}", h.PostsByTag).Methods(http.MethodGet)
	api.HandleFunc("/posts/author/{authorId}", h.PostsByAuthor).Methods(http.MethodGet)
	api.HandleFunc("/posts/{id}", h.GetPost).Methods(http.MethodGet)

	// Protected routes
	authRouter := api.NewRoute().Subrouter()
	authRouter.Use(middleware.AuthMiddleware(h.svc, h.fail))
	authRouter.HandleFunc("/auth/me", h.Me).Methods(http.MethodGet)
	authRouter.HandleFunc("/posts", h.CreatePost).Methods(http.MethodPost)
	authRouter.HandleFunc("/posts/{id}", h.UpdatePost).Methods(http.MethodPatch)
	authRouter.HandleFunc("/posts/{id}", h.DeletePost).Methods(http.MethodDelete)
	authRouter.HandleFunc("/users", h.CreateUser).Methods(http.MethodPost)
	authRouter.HandleFunc("/users", h.ListUsers).Methods(http.MethodGet)
	authRouter.HandleFunc("/users/{id}", h.GetUser).Methods(http.MethodGet)
	authRouter.HandleFunc("/users/{id}/profile", h.GetUserProfile).Methods(http.MethodGet)
	authRouter.HandleFunc("/users/{id}/posts", h.GetUserWithPosts).Methods(http.MethodGet)
	authRouter.HandleFunc("/users/{id}", h.UpdateUser).Methods(http.MethodPatch)
	authRouter.HandleFunc("/users/{id}", h.DeleteUser).Methods(http.MethodDelete)

	var handler http.Handler = r
	handler = middleware.Recovery(h.log, h.InternalError)(handler)
	handler = middleware.Logging(h.log)(handler)
	handler = middleware.CORS(corsOrigin)(handler)
	return handler
}
