package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Atim-01/devblog/internal/config"
	"github.com/Atim-01/devblog/internal/feed"
	"github.com/Atim-01/devblog/internal/repository"
	"github.com/Atim-01/devblog/internal/service"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	StatusCode int             `json:"statusCode"`
	Path       string          `json:"path"`
	Method     string          `json:"method"`
	Timestamp  string          `json:"timestamp"`
	Details    map[string]any  `json:"details"`
}

type apiPost struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	AuthorID string `json:"authorId"`
	Author   *struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"author"`
}

type apiAuth struct {
	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
	Token string `json:"token"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg := &config.Config{
		JWTSecret:    "test-secret",
		JWTExpiresIn: "1h",
		JWTIssuer:    "devblog-api",
		JWTAudience:  "devblog-users",
		BcryptCost:   "4",
		SiteTitle:    "Dev-Blog",
		SiteURL:      "http://blog.test",
		FeedSize:     "10",
	}
	svc, err := service.NewService(repository.NewMemoryRepository(), log, cfg)
	require.NoError(t, err)
	f, err := feed.New(svc, log, cfg)
	require.NoError(t, err)
	svc.WithNotifier(f)

	srv := httptest.NewServer(NewHandler(svc, f, log).Router("http://localhost:3000"))
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path, token string, body any) (*http.Response, envelope) {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, srv.URL+path, rdr)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &env))
	}
	return resp, env
}

func registerUser(t *testing.T, srv *httptest.Server, username string) apiAuth {
	t.Helper()
	resp, env := call(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username, "password": "password123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var auth apiAuth
	require.NoError(t, json.Unmarshal(env.Data, &auth))
	return auth
}

func TestAuthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, env := call(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "johndoe", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, env.Success)
	assert.Equal(t, "User registered successfully", env.Message)
	assert.Equal(t, 201, env.StatusCode)
	assert.Equal(t, "/api/auth/register", env.Path)
	assert.Equal(t, "POST", env.Method)
	assert.NotContains(t, string(env.Data), "password")

	resp, env = call(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "johndoe", "password": "password123",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.False(t, env.Success)
	assert.Equal(t, "Conflict", env.Message)
	assert.Equal(t, "Username already exists", env.Details["error"])

	resp, env = call(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "x", "password": "1",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "Validation failed", env.Message)
	assert.Len(t, env.Details["validationErrors"], 2)

	resp, _ = call(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "janedoe", "password": "password123", "role": "admin",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "unknown fields are rejected")

	resp, _ = call(t, srv, http.MethodPost, "/api/auth/login", "", "{not json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, env = call(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "johndoe", "password": "wrong-one",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid credentials", env.Details["error"])

	resp, env = call(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "johndoe", "password": "password123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Login successful", env.Message)
	var auth apiAuth
	require.NoError(t, json.Unmarshal(env.Data, &auth))
	require.NotEmpty(t, auth.Token)

	resp, env = call(t, srv, http.MethodGet, "/api/auth/me", auth.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Data), `"username":"johndoe"`)

	resp, env = call(t, srv, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Unauthorized", env.Message)

	resp, _ = call(t, srv, http.MethodGet, "/api/auth/me", "tampered.token.value", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPostEndpoints(t *testing.T) {
	srv := newTestServer(t)
	alice := registerUser(t, srv, "alice")
	bob := registerUser(t, srv, "bob")

	resp, _ := call(t, srv, http.MethodPost, "/api/posts", "", map[string]string{"title": "t", "content": "content long enough"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, env := call(t, srv, http.MethodPost, "/api/posts", alice.Token, map[string]string{
		"title": "Understanding Go interfaces", "content": "Interfaces are satisfied implicitly.",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Post created successfully", env.Message)
	var post apiPost
	require.NoError(t, json.Unmarshal(env.Data, &post))
	assert.Equal(t, alice.User.ID, post.AuthorID)
	require.NotNil(t, post.Author)
	assert.Equal(t, "alice", post.Author.Username)

	resp, env = call(t, srv, http.MethodPost, "/api/posts", alice.Token, map[string]string{"title": "", "content": "short"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Len(t, env.Details["validationErrors"], 2)

	resp, env = call(t, srv, http.MethodGet, "/api/posts", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var posts []apiPost
	require.NoError(t, json.Unmarshal(env.Data, &posts))
	assert.Len(t, posts, 1)

	resp, _ = call(t, srv, http.MethodGet, "/api/posts?limit=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, env = call(t, srv, http.MethodGet, "/api/posts/"+post.ID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Post retrieved successfully", env.Message)

	resp, env = call(t, srv, http.MethodGet, "/api/posts/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Resource not found", env.Message)

	resp, env = call(t, srv, http.MethodGet, "/api/posts/search?q=INTERFACES", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(env.Data, &posts))
	assert.Len(t, posts, 1)

	resp, env = call(t, srv, http.MethodGet, "/api/posts/search", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Search query is required", env.Message)
	assert.JSONEq(t, "[]", string(env.Data))

	resp, env = call(t, srv, http.MethodGet, "/api/posts/tag/go", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(env.Data, &posts))
	assert.Len(t, posts, 1)

	resp, env = call(t, srv, http.MethodGet, "/api/posts/author/"+bob.User.ID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, "[]", string(env.Data))

	resp, env = call(t, srv, http.MethodPatch, "/api/posts/"+post.ID, bob.Token, map[string]string{"title": "Mine now"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "You can only update your own posts", env.Details["error"])

	resp, env = call(t, srv, http.MethodPatch, "/api/posts/"+post.ID, alice.Token, map[string]string{"title": "Go interfaces, revisited"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(env.Data, &post))
	assert.Equal(t, "Go interfaces, revisited", post.Title)
	assert.Equal(t, "Interfaces are satisfied implicitly.", post.Content)

	resp, env = call(t, srv, http.MethodDelete, "/api/posts/"+post.ID, bob.Token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "You can only delete your own posts", env.Details["error"])

	resp, _ = call(t, srv, http.MethodDelete, "/api/posts/"+post.ID, alice.Token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = call(t, srv, http.MethodDelete, "/api/posts/"+post.ID, alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = call(t, srv, http.MethodPut, "/api/posts/"+post.ID, alice.Token, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestPostPagination(t *testing.T) {
	srv := newTestServer(t)
	alice := registerUser(t, srv, "alice")
	for i := 0; i < maxPageSize+5; i++ {
		resp, _ := call(t, srv, http.MethodPost, "/api/posts", alice.Token, map[string]string{
			"title": fmt.Sprintf("Post number %d", i), "content": "Content for the pagination checks.",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	list := func(query string) []apiPost {
		t.Helper()
		resp, env := call(t, srv, http.MethodGet, "/api/posts"+query, "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var posts []apiPost
		require.NoError(t, json.Unmarshal(env.Data, &posts))
		return posts
	}

	all := list("")
	require.Len(t, all, maxPageSize+5)

	assert.Len(t, list("?limit=500"), maxPageSize)

	skipped := list("?offset=5")
	require.Len(t, skipped, maxPageSize)
	assert.Equal(t, all[5].ID, skipped[0].ID)

	page := list("?limit=2&offset=3")
	require.Len(t, page, 2)
	assert.Equal(t, all[3].ID, page[0].ID)
	assert.Equal(t, all[4].ID, page[1].ID)

	resp, _ := call(t, srv, http.MethodGet, "/api/posts?offset=-1", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUserEndpoints(t *testing.T) {
	srv := newTestServer(t)
	alice := registerUser(t, srv, "alice")
	bob := registerUser(t, srv, "bob")

	resp, _ := call(t, srv, http.MethodGet, "/api/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, env := call(t, srv, http.MethodGet, "/api/users", alice.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Users retrieved successfully", env.Message)
	assert.NotContains(t, string(env.Data), "password")

	resp, env = call(t, srv, http.MethodPost, "/api/users", alice.Token, map[string]string{"username": "carol", "password": "password123"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "User created successfully", env.Message)

	resp, env = call(t, srv, http.MethodGet, "/api/users/"+bob.User.ID+"/profile", alice.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "User profile retrieved successfully", env.Message)

	_, _ = call(t, srv, http.MethodPost, "/api/posts", bob.Token, map[string]string{"title": "Bob's first", "content": "Hello from bob, the builder."})
	resp, env = call(t, srv, http.MethodGet, "/api/users/"+bob.User.ID+"/posts", alice.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Data), "Bob's first")

	resp, _ = call(t, srv, http.MethodGet, "/api/users/00000000-0000-0000-0000-000000000000", alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = call(t, srv, http.MethodPatch, "/api/users/"+bob.User.ID, alice.Token, map[string]string{"username": "hacked"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = call(t, srv, http.MethodPatch, "/api/users/"+alice.User.ID, alice.Token, map[string]string{"username": "bob"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, env = call(t, srv, http.MethodPatch, "/api/users/"+alice.User.ID, alice.Token, map[string]string{"username": "alice_b"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Data), `"username":"alice_b"`)

	resp, _ = call(t, srv, http.MethodDelete, "/api/users/"+bob.User.ID, bob.Token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, env = call(t, srv, http.MethodGet, "/api/auth/me", bob.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "tokens of deleted users stop working")
	assert.Equal(t, "Invalid token", env.Details["error"])

	resp, env = call(t, srv, http.MethodGet, "/api/posts", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, "[]", string(env.Data), "posts are removed with their author")
}

func TestMiscEndpoints(t *testing.T) {
	srv := newTestServer(t)
	alice := registerUser(t, srv, "alice")
	_, _ = call(t, srv, http.MethodPost, "/api/posts", alice.Token, map[string]string{
		"title": "Feed me", "content": "This post should show up in the feed.",
	})

	resp, env := call(t, srv, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(env.Data))

	resp, env = call(t, srv, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Cannot GET /api/nope", env.Details["error"])

	resp, err := srv.Client().Get(srv.URL + "/api/feed.xml")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, feed.ContentType, resp.Header.Get("Content-Type"))
	assert.Contains(t, string(body), "<title>Feed me</title>")
}

func getFeed(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, err := srv.Client().Get(srv.URL + "/api/feed.xml")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return string(body)
}

func TestFeedFollowsUsernameChange(t *testing.T) {
	srv := newTestServer(t)
	alice := registerUser(t, srv, "alice")
	_, _ = call(t, srv, http.MethodPost, "/api/posts", alice.Token, map[string]string{
		"title": "Renamed author", "content": "The feed names whoever wrote this.",
	})
	assert.Contains(t, getFeed(t, srv), "<author>alice</author>")

	resp, _ := call(t, srv, http.MethodPatch, "/api/users/"+alice.User.ID, alice.Token, map[string]string{"password": "password456"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, getFeed(t, srv), "<author>alice</author>")

	resp, _ = call(t, srv, http.MethodPatch, "/api/users/"+alice.User.ID, alice.Token, map[string]string{"username": "alice_writes"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	doc := getFeed(t, srv)
	assert.Contains(t, doc, "<author>alice_writes</author>")
	assert.NotContains(t, doc, "<author>alice</author>")
}
