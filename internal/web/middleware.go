package web

import (
	"net/http"

	"github.com/Atim-01/devblog/internal/client"
	"github.com/Atim-01/devblog/internal/middleware"
)

// loadUser resolves the jwt cookie through the API. A rejected token is
// dropped and the request continues as a guest.
func (app *App) loadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromCookie(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, err := app.api.Me(r.Context(), token)
		if err != nil {
			if client.StatusOf(err) == http.StatusUnauthorized {
				app.clearTokenCookie(w)
			} else {
				app.log.Warnf("Failed to resolve session: %v", err)
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(middleware.WithUser(r.Context(), user)))
	})
}

func noStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
}

// requireAuth sends guests to the login page
func (app *App) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		noStore(w)
		if _, ok := middleware.UserFromContext(r.Context()); !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

// requireGuest sends signed-in users home
func (app *App) requireGuest(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		noStore(w)
		if _, ok := middleware.UserFromContext(r.Context()); ok {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}
