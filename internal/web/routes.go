package web

import (
	"net/http"

	"github.com/Atim-01/devblog/internal/middleware"
	"github.com/gorilla/mux"
)

func (app *App) routes() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(app.NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.ClientError(w, r, http.StatusMethodNotAllowed)
	})
	r.Use(app.loadUser)

	r.HandleFunc("/", app.home).Methods(http.MethodGet)
	r.HandleFunc("/feed.xml", app.feedXML).Methods(http.MethodGet)
	r.HandleFunc("/posts", app.listPosts).Methods(http.MethodGet)
	r.HandleFunc("/posts/edit/{id}", app.requireAuth(app.editPost)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/posts/{id}/delete", app.requireAuth(app.deletePost)).Methods(http.MethodPost)
	r.HandleFunc("/posts/{id}", app.viewPost).Methods(http.MethodGet)

	// Only for guests
	r.HandleFunc("/register", app.requireGuest(app.register)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/login", app.requireGuest(app.login)).Methods(http.MethodGet, http.MethodPost)

	// Only for signed-in users
	r.HandleFunc("/logout", app.requireAuth(app.logout)).Methods(http.MethodPost)
	r.HandleFunc("/create-post", app.requireAuth(app.createPost)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/my-posts", app.requireAuth(app.myPosts)).Methods(http.MethodGet)

	var handler http.Handler = r
	handler = middleware.Recovery(app.log, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	})(handler)
	handler = middleware.Logging(app.log)(handler)
	return handler
}
