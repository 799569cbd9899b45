package service

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/Atim-01/devblog/internal/config"
	"github.com/Atim-01/devblog/internal/models"
	"github.com/Atim-01/devblog/internal/repository"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu    sync.Mutex
	users []string
	posts []string
}

func (n *recordingNotifier) UserRegistered(user *models.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.users = append(n.users, user.Username)
}

func (n *recordingNotifier) PostPublished(post *models.Post) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.posts = append(n.posts, post.Title)
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:    "test-secret",
		JWTExpiresIn: "1h",
		JWTIssuer:    "devblog-api",
		JWTAudience:  "devblog-users",
		BcryptCost:   "4",
	}
}

func newTestService(t *testing.T) (*Service, *recordingNotifier) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	svc, err := NewService(repository.NewMemoryRepository(), log, testConfig())
	require.NoError(t, err)
	n := &recordingNotifier{}
	return svc.WithNotifier(n), n
}

func register(t *testing.T, svc *Service, username string) *models.AuthResult {
	t.Helper()
	res, err := svc.Register(context.Background(), models.Credentials{Username: username, Password: "password123"})
	require.NoError(t, err)
	return res
}

func ptr(s string) *string { return &s }

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, n := newTestService(t)

	res := register(t, svc, "johndoe")
	assert.NotEmpty(t, res.Token)
	assert.NotEqual(t, "password123", res.User.PasswordHash)
	assert.Equal(t, []string{"johndoe"}, n.users)

	_, err := svc.Register(ctx, models.Credentials{Username: "johndoe", Password: "password123"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	login, err := svc.Login(ctx, models.Credentials{Username: "johndoe", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)

	user, err := svc.Authenticate(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, "johndoe", user.Username)

	_, err = svc.Login(ctx, models.Credentials{Username: "johndoe", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, models.Credentials{Username: "nobody", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)

	cases := []struct {
		name  string
		creds models.Credentials
		want  string
	}{
		{"short username", models.Credentials{Username: "ab", Password: "password123"}, "longer than or equal to 3"},
		{"bad characters", models.Credentials{Username: "john doe", Password: "password123"}, "letters, numbers, and underscores"},
		{"long username", models.Credentials{Username: strings.Repeat("a", 51), Password: "password123"}, "shorter than or equal to 50"},
		{"short password", models.Credentials{Username: "johndoe", Password: "12345"}, "longer than or equal to 6"},
		{"empty password", models.Credentials{Username: "johndoe"}, "password should not be empty"},
		{"password over bcrypt limit", models.Credentials{Username: "johndoe", Password: strings.Repeat("p", 80)}, "72 bytes"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.creds)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, strings.Join(verr.Errors, "|"), tc.want)
		})
	}
}

func TestAuthenticateDeletedUser(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	res := register(t, svc, "ghost")

	require.NoError(t, svc.DeleteUser(ctx, res.User.ID, res.User.ID))

	_, err := svc.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestUpdateUser(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	alice := register(t, svc, "alice").User
	bob := register(t, svc, "bob").User

	_, err := svc.UpdateUser(ctx, bob.ID, alice.ID, models.UpdateUserInput{Username: ptr("mallory")})
	assert.ErrorIs(t, err, ErrUserUpdateForbidden)

	_, err = svc.UpdateUser(ctx, alice.ID, alice.ID, models.UpdateUserInput{Username: ptr("bob")})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	updated, err := svc.UpdateUser(ctx, alice.ID, alice.ID, models.UpdateUserInput{
		Username: ptr("alice_2"),
		Password: ptr("new-password"),
	})
	require.NoError(t, err)
	assert.Equal(t, "alice_2", updated.Username)

	_, err = svc.Login(ctx, models.Credentials{Username: "alice_2", Password: "new-password"})
	assert.NoError(t, err)

	_, err = svc.UpdateUser(ctx, alice.ID, "not-a-uuid", models.UpdateUserInput{})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestPostLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, n := newTestService(t)
	author := register(t, svc, "author").User
	stranger := register(t, svc, "stranger").User

	post, err := svc.CreatePost(ctx, author.ID, models.CreatePostInput{
		Title:   "  Hello Go  ",
		Content: "Goroutines are cheap, channels are typed.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello Go", post.Title)
	require.NotNil(t, post.Author)
	assert.Equal(t, "author", post.Author.Username)
	assert.Equal(t, []string{"Hello Go"}, n.posts)

	got, err := svc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.ID)

	_, err = svc.UpdatePost(ctx, stranger.ID, post.ID, models.UpdatePostInput{Title: ptr("Hijacked")})
	assert.ErrorIs(t, err, ErrPostUpdateForbidden)

	_, err = svc.UpdatePost(ctx, author.ID, post.ID, models.UpdatePostInput{Content: ptr("short")})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	updated, err := svc.UpdatePost(ctx, author.ID, post.ID, models.UpdatePostInput{Title: ptr("Hello again")})
	require.NoError(t, err)
	assert.Equal(t, "Hello again", updated.Title)
	assert.Equal(t, post.Content, updated.Content)
	assert.NotNil(t, updated.Author)

	unchanged, err := svc.UpdatePost(ctx, author.ID, post.ID, models.UpdatePostInput{})
	require.NoError(t, err)
	assert.Equal(t, "Hello again", unchanged.Title)

	assert.ErrorIs(t, svc.DeletePost(ctx, stranger.ID, post.ID), ErrPostDeleteForbidden)
	require.NoError(t, svc.DeletePost(ctx, author.ID, post.ID))

	_, err = svc.GetPost(ctx, post.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)
	_, err = svc.GetPost(ctx, "definitely-not-an-id")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestCreatePostValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	author := register(t, svc, "author").User

	_, err := svc.CreatePost(ctx, author.ID, models.CreatePostInput{Title: "   ", Content: "tiny"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Errors, 2)

	_, err = svc.CreatePost(ctx, author.ID, models.CreatePostInput{Title: strings.Repeat("t", 201), Content: "long enough content"})
	require.ErrorAs(t, err, &verr)

	_, err = svc.CreatePost(ctx, "2f1c0d7e-59a8-4e7c-8c39-2a0c4f7d1b55", models.CreatePostInput{Title: "Orphan", Content: "nobody wrote this post"})
	assert.ErrorIs(t, err, ErrAuthorNotFound)
}

func TestListingAndSearch(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	alice := register(t, svc, "alice").User
	bob := register(t, svc, "bob").User

	for _, p := range []struct {
		author string
		title  string
	}{
		{alice.ID, "Intro to Golang"},
		{alice.ID, "Testing with testify"},
		{bob.ID, "Kubernetes operators in Go"},
	} {
		_, err := svc.CreatePost(ctx, p.author, models.CreatePostInput{Title: p.title, Content: "Some body text for the post."})
		require.NoError(t, err)
	}

	all, err := svc.ListPosts(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Kubernetes operators in Go", all[0].Title)

	page, err := svc.ListPosts(ctx, 2, -5)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	found, err := svc.SearchPosts(ctx, "golang")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Intro to Golang", found[0].Title)

	empty, err := svc.SearchPosts(ctx, "")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	tagged, err := svc.PostsByTag(ctx, "go")
	require.NoError(t, err)
	assert.Len(t, tagged, 2)

	mine, err := svc.PostsByAuthor(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	withPosts, err := svc.GetUserWithPosts(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", withPosts.Username)
	assert.Len(t, withPosts.Posts, 1)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
