package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Atim-01/devblog/internal/client"
	"github.com/Atim-01/devblog/internal/models"
)

// formErrors extracts what a form should show from an API rejection.
// ok is false when err is not something the user can fix.
func formErrors(err error, userFixable ...int) (msg string, list []string, ok bool) {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return "", nil, false
	}
	for _, status := range userFixable {
		if apiErr.Status == status {
			if len(apiErr.Validation) > 0 {
				return "Please fix the following:", apiErr.Validation, true
			}
			return apiErr.Error(), nil, true
		}
	}
	return "", nil, false
}

func (app *App) register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		app.render(w, r, http.StatusOK, "register.page.html", &HTMLData{Title: "Register"})
		return
	}

	creds := models.Credentials{
		Username: strings.TrimSpace(r.FormValue("username")),
		Password: r.FormValue("password"),
	}
	if creds.Password != r.FormValue("confirm_password") {
		app.render(w, r, http.StatusUnprocessableEntity, "register.page.html", &HTMLData{
			Title:     "Register",
			FormError: "Passwords do not match",
			FormData:  map[string]string{"username": creds.Username},
		})
		return
	}

	app.log.Infof("Attempting to register user: username=%q", creds.Username)
	res, err := app.api.Register(r.Context(), creds)
	if err != nil {
		msg, list, ok := formErrors(err, http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity)
		if !ok {
			app.ServerError(w, r, err)
			return
		}
		app.render(w, r, client.StatusOf(err), "register.page.html", &HTMLData{
			Title:      "Register",
			FormError:  msg,
			FormErrors: list,
			FormData:   map[string]string{"username": creds.Username},
		})
		return
	}

	app.log.Infof("Registered user %q", res.User.Username)
	app.setTokenCookie(w, res.Token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (app *App) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		app.render(w, r, http.StatusOK, "login.page.html", &HTMLData{Title: "Login"})
		return
	}

	creds := models.Credentials{
		Username: strings.TrimSpace(r.FormValue("username")),
		Password: r.FormValue("password"),
	}
	res, err := app.api.Login(r.Context(), creds)
	if err != nil {
		msg, list, ok := formErrors(err, http.StatusBadRequest, http.StatusUnauthorized, http.StatusUnprocessableEntity)
		if !ok {
			app.ServerError(w, r, err)
			return
		}
		app.render(w, r, client.StatusOf(err), "login.page.html", &HTMLData{
			Title:      "Login",
			FormError:  msg,
			FormErrors: list,
			FormData:   map[string]string{"username": creds.Username},
		})
		return
	}

	app.log.Infof("Login successful: username=%q", res.User.Username)
	app.setTokenCookie(w, res.Token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (app *App) logout(w http.ResponseWriter, r *http.Request) {
	app.clearTokenCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
