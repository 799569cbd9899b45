package web

import (
	"context"
	"html/template"
	"net/http"

	"github.com/Atim-01/devblog/internal/config"
	"github.com/Atim-01/devblog/internal/models"
	"github.com/sirupsen/logrus"
)

// homeSize is how many posts the landing page shows
const homeSize = 6

// API is the part of the REST client the frontend uses
type API interface {
	Register(ctx context.Context, creds models.Credentials) (*models.AuthResult, error)
	Login(ctx context.Context, creds models.Credentials) (*models.AuthResult, error)
	Me(ctx context.Context, token string) (*models.User, error)
	ListPosts(ctx context.Context, limit, offset int) ([]*models.Post, error)
	SearchPosts(ctx context.Context, query string) ([]*models.Post, error)
	PostsByTag(ctx context.Context, tag string) ([]*models.Post, error)
	PostsByAuthor(ctx context.Context, authorID string) ([]*models.Post, error)
	GetPost(ctx context.Context, id string) (*models.Post, error)
	CreatePost(ctx context.Context, token string, in models.CreatePostInput) (*models.Post, error)
	UpdatePost(ctx context.Context, token, id string, in models.UpdatePostInput) (*models.Post, error)
	DeletePost(ctx context.Context, token, id string) error
	Feed(ctx context.Context) ([]byte, error)
}

// App is the server-rendered frontend
type App struct {
	api       API
	log       *logrus.Logger
	pages     map[string]*template.Template
	siteTitle string
	secure    bool
}

// New parses the templates and returns a ready frontend
func New(api API, log *logrus.Logger, cfg *config.Config) (*App, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	return &App{
		api:       api,
		log:       log,
		pages:     pages,
		siteTitle: cfg.SiteTitle,
		secure:    cfg.SecureCookies(),
	}, nil
}

// Handler returns the frontend routes wrapped in logging and recovery
func (app *App) Handler() http.Handler {
	return app.routes()
}
