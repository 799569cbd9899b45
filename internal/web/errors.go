package web

import (
	"net/http"

	"github.com/Atim-01/devblog/internal/client"
	"github.com/sirupsen/logrus"
)

func (app *App) ServerError(w http.ResponseWriter, r *http.Request, err error) {
	app.log.WithField("path", r.URL.Path).Errorf("Page failed: %v", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func (app *App) ClientError(w http.ResponseWriter, r *http.Request, status int) {
	app.render(w, r, status, "error.page.html", &HTMLData{Title: http.StatusText(status)})
}

func (app *App) NotFound(w http.ResponseWriter, r *http.Request) {
	app.ClientError(w, r, http.StatusNotFound)
}

func (app *App) Forbidden(w http.ResponseWriter, r *http.Request) {
	app.ClientError(w, r, http.StatusForbidden)
}

// apiFailure turns an API error into the matching page response
func (app *App) apiFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch client.StatusOf(err) {
	case http.StatusUnauthorized:
		app.log.WithFields(logrus.Fields{"path": r.URL.Path}).Info("Session rejected by API, signing out")
		app.clearTokenCookie(w)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	case http.StatusForbidden:
		app.Forbidden(w, r)
	case http.StatusNotFound:
		app.NotFound(w, r)
	default:
		app.ServerError(w, r, err)
	}
}
