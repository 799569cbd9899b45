package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/Atim-01/devblog/internal/middleware"
	"github.com/Atim-01/devblog/internal/models"
	"github.com/Atim-01/devblog/internal/utils"
)

//go:embed templates
var templateFS embed.FS

const layoutFile = "templates/base.layout.html"

// HTMLData is handed to every page template
type HTMLData struct {
	SiteTitle   string
	Title       string
	Path        string
	FormError   string
	FormErrors  []string
	FormData    map[string]string
	CurrentUser *models.User
	Post        *models.Post
	Posts       []*models.Post
	Query       string
	Tag         string
	IsOwner     bool
}

var functions = template.FuncMap{
	"formatDate": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("02 Jan 2006, 15:04")
	},
	"excerpt": utils.Excerpt,
	"paragraphs": func(s string) []string {
		var out []string
		for _, p := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n\n") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	},
	"edited": func(p *models.Post) bool {
		return p.UpdatedAt.Sub(p.CreatedAt) > time.Second
	},
}

// parsePages builds one template set per page, each with the layout and partials
func parsePages() (map[string]*template.Template, error) {
	pageFiles, err := fs.Glob(templateFS, "templates/*.page.html")
	if err != nil {
		return nil, err
	}
	partials, err := fs.Glob(templateFS, "templates/*.partial.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(pageFiles))
	for _, page := range pageFiles {
		files := append([]string{layoutFile, page}, partials...)
		ts, err := template.New("").Funcs(functions).ParseFS(templateFS, files...)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", page, err)
		}
		pages[path.Base(page)] = ts
	}
	return pages, nil
}

func (app *App) render(w http.ResponseWriter, r *http.Request, status int, page string, data *HTMLData) {
	ts, ok := app.pages[page]
	if !ok {
		app.ServerError(w, r, fmt.Errorf("template %s does not exist", page))
		return
	}
	if data == nil {
		data = &HTMLData{}
	}
	data.SiteTitle = app.siteTitle
	data.Path = r.URL.Path
	if data.CurrentUser == nil {
		data.CurrentUser, _ = middleware.UserFromContext(r.Context())
	}

	buf := new(bytes.Buffer)
	if err := ts.ExecuteTemplate(buf, "base", data); err != nil {
		app.ServerError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
