package web

import (
	"net/http"
	"time"

	"github.com/Atim-01/devblog/internal/middleware"
)

const cookieMaxAge = 24 * time.Hour

func (app *App) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   app.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (app *App) clearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   app.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func tokenFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(middleware.TokenCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}
