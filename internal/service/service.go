package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Atim-01/devblog/internal/auth"
	"github.com/Atim-01/devblog/internal/config"
	"github.com/Atim-01/devblog/internal/models"
	"github.com/Atim-01/devblog/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// Store is the persistence the service needs. Both repository.Repository
// and repository.MemoryRepository satisfy it.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id string) error
	CreatePost(ctx context.Context, post *models.Post) error
	FindPostByID(ctx context.Context, id string) (*models.Post, error)
	ListPosts(ctx context.Context, filter models.PostFilter) ([]*models.Post, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id string) error
}

// Notifier is told about new accounts and posts
type Notifier interface {
	UserRegistered(user *models.User)
	PostPublished(post *models.Post)
}

// Service handles business logic
type Service struct {
	repo      Store
	log       *logrus.Logger
	tokens    *auth.TokenManager
	cost      int
	notifiers []Notifier
}

// NewService initializes a new service
func NewService(repo Store, log *logrus.Logger, cfg *config.Config) (*Service, error) {
	tokens, err := auth.NewTokenManager(cfg)
	if err != nil {
		return nil, err
	}
	cost, err := cfg.PasswordCost()
	if err != nil {
		return nil, err
	}
	return &Service{repo: repo, log: log, tokens: tokens, cost: cost}, nil
}

// WithNotifier attaches a notifier for new users and posts
func (s *Service) WithNotifier(n Notifier) *Service {
	s.notifiers = append(s.notifiers, n)
	return s
}

// Register creates a new user with hashed password and signs them in
func (s *Service) Register(ctx context.Context, creds models.Credentials) (*models.AuthResult, error) {
	user, err := s.createUser(ctx, creds)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, err
	}

	s.log.WithField("user_id", user.ID).Infof("User registered: %s", user.Username)
	for _, n := range s.notifiers {
		n.UserRegistered(user)
	}
	return &models.AuthResult{User: user, Token: token}, nil
}

// Login authenticates a user and returns a JWT token
func (s *Service) Login(ctx context.Context, creds models.Credentials) (*models.AuthResult, error) {
	user, err := s.repo.FindUserByUsername(ctx, creds.Username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, err
	}

	s.log.WithField("user_id", user.ID).Infof("User logged in: %s", user.Username)
	return &models.AuthResult{User: user, Token: token}, nil
}

// Authenticate resolves a bearer token to a user that still exists
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.FindUserByID(ctx, claims.Subject)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser adds an account without signing in as it
func (s *Service) CreateUser(ctx context.Context, creds models.Credentials) (*models.User, error) {
	user, err := s.createUser(ctx, creds)
	if err != nil {
		return nil, err
	}
	s.log.WithField("user_id", user.ID).Infof("User created: %s", user.Username)
	return user, nil
}

func (s *Service) createUser(ctx context.Context, creds models.Credentials) (*models.User, error) {
	if err := validateCredentials(creds); err != nil {
		return nil, err
	}

	_, err := s.repo.FindUserByUsername(ctx, creds.Username)
	if err == nil {
		return nil, ErrUsernameTaken
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := s.hashPassword(creds.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{Username: creds.Username, PasswordHash: hash}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return user, nil
}

// ListUsers returns all accounts
func (s *Service) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.repo.ListUsers(ctx)
}

// GetUser returns one account
func (s *Service) GetUser(ctx context.Context, id string) (*models.User, error) {
	if !validID(id) {
		return nil, ErrUserNotFound
	}
	user, err := s.repo.FindUserByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// GetUserWithPosts returns an account and its posts, newest first
func (s *Service) GetUserWithPosts(ctx context.Context, id string) (*models.UserWithPosts, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	posts, err := s.repo.ListPosts(ctx, models.PostFilter{AuthorID: id})
	if err != nil {
		return nil, err
	}
	return &models.UserWithPosts{User: *user, Posts: posts}, nil
}

// UpdateUser changes the caller's username and/or password
func (s *Service) UpdateUser(ctx context.Context, callerID, id string, in models.UpdateUserInput) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.ID != callerID {
		return nil, ErrUserUpdateForbidden
	}
	if err := validateUserUpdate(in); err != nil {
		return nil, err
	}

	if in.Username != nil && *in.Username != user.Username {
		_, err := s.repo.FindUserByUsername(ctx, *in.Username)
		if err == nil {
			return nil, ErrUsernameTaken
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		user.Username = *in.Username
	}
	if in.Password != nil {
		hash, err := s.hashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	s.log.WithField("user_id", user.ID).Info("User updated")
	return user, nil
}

// DeleteUser removes the caller's own account and all its posts
func (s *Service) DeleteUser(ctx context.Context, callerID, id string) error {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if user.ID != callerID {
		return ErrUserDeleteForbidden
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	s.log.WithField("user_id", id).Info("User deleted")
	return nil
}

// CreatePost publishes a post written by authorID
func (s *Service) CreatePost(ctx context.Context, authorID string, in models.CreatePostInput) (*models.Post, error) {
	if err := normalizePost(&in); err != nil {
		return nil, err
	}
	author, err := s.repo.FindUserByID(ctx, authorID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrAuthorNotFound
	}
	if err != nil {
		return nil, err
	}

	post := &models.Post{Title: in.Title, Content: in.Content, AuthorID: author.ID}
	if err := s.repo.CreatePost(ctx, post); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAuthorNotFound
		}
		return nil, err
	}
	post.Author = &models.PostAuthor{ID: author.ID, Username: author.Username}

	s.log.WithFields(logrus.Fields{"post_id": post.ID, "author": author.Username}).
		Infof("Post created: %q", post.Title)
	for _, n := range s.notifiers {
		n.PostPublished(post)
	}
	return post, nil
}

// ListPosts returns posts newest first. A non-positive limit means all.
func (s *Service) ListPosts(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListPosts(ctx, models.PostFilter{Limit: limit, Offset: offset})
}

// SearchPosts matches title or content case-insensitively
func (s *Service) SearchPosts(ctx context.Context, query string) ([]*models.Post, error) {
	if query == "" {
		return []*models.Post{}, nil
	}
	return s.repo.ListPosts(ctx, models.PostFilter{Query: query})
}

// PostsByTag finds posts mentioning the tag in title or content
func (s *Service) PostsByTag(ctx context.Context, tag string) ([]*models.Post, error) {
	return s.SearchPosts(ctx, tag)
}

// PostsByAuthor lists one author's posts
func (s *Service) PostsByAuthor(ctx context.Context, authorID string) ([]*models.Post, error) {
	if !validID(authorID) {
		return []*models.Post{}, nil
	}
	return s.repo.ListPosts(ctx, models.PostFilter{AuthorID: authorID})
}

// GetPost returns a post with its author
func (s *Service) GetPost(ctx context.Context, id string) (*models.Post, error) {
	if !validID(id) {
		return nil, ErrPostNotFound
	}
	post, err := s.repo.FindPostByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load post: %w", err)
	}
	return post, nil
}

// UpdatePost edits a post owned by callerID
func (s *Service) UpdatePost(ctx context.Context, callerID, id string, in models.UpdatePostInput) (*models.Post, error) {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != callerID {
		return nil, ErrPostUpdateForbidden
	}
	if err := normalizePostUpdate(&in); err != nil {
		return nil, err
	}
	if in.Title == nil && in.Content == nil {
		return post, nil
	}
	if in.Title != nil {
		post.Title = *in.Title
	}
	if in.Content != nil {
		post.Content = *in.Content
	}

	if err := s.repo.UpdatePost(ctx, post); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	s.log.WithField("post_id", post.ID).Infof("Post updated: %q", post.Title)
	return s.GetPost(ctx, id)
}

// DeletePost removes a post owned by callerID
func (s *Service) DeletePost(ctx context.Context, callerID, id string) error {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorID != callerID {
		return ErrPostDeleteForbidden
	}
	if err := s.repo.DeletePost(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPostNotFound
		}
		return err
	}
	s.log.WithField("post_id", id).Info("Post deleted")
	return nil
}

func (s *Service) hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
