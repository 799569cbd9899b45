package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Atim-01/devblog/internal/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps users and posts in process memory. It mirrors the
// behaviour of Repository (unique usernames, cascading deletes, newest-first
// ordering) and backs STORAGE=memory as well as the tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	seq   int64
	users map[string]*models.User
	posts map[string]*memPost
	now   func() time.Time
}

type memPost struct {
	post models.Post
	seq  int64
}

// NewMemoryRepository returns an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users: make(map[string]*models.User),
		posts: make(map[string]*memPost),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Migrate is a no-op for the in-memory store
func (m *MemoryRepository) Migrate(context.Context) error { return nil }

func (m *MemoryRepository) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.usernameTaken(user.Username, "") {
		return fmt.Errorf("failed to create user: %w: username", ErrDuplicate)
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := m.now()
	user.CreatedAt, user.UpdatedAt = now, now
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *MemoryRepository) FindUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("failed to find user: %w", ErrNotFound)
	}
	cp := *user
	return &cp, nil
}

func (m *MemoryRepository) FindUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.users {
		if user.Username == username {
			cp := *user
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("failed to find user: %w", ErrNotFound)
}

func (m *MemoryRepository) ListUsers(context.Context) ([]*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]*models.User, 0, len(m.users))
	for _, user := range m.users {
		cp := *user
		users = append(users, &cp)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

func (m *MemoryRepository) UpdateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.users[user.ID]
	if !ok {
		return fmt.Errorf("failed to update user: %w", ErrNotFound)
	}
	if m.usernameTaken(user.Username, user.ID) {
		return fmt.Errorf("failed to update user: %w: username", ErrDuplicate)
	}
	stored.Username = user.Username
	stored.PasswordHash = user.PasswordHash
	stored.UpdatedAt = m.now()
	user.UpdatedAt = stored.UpdatedAt
	return nil
}

func (m *MemoryRepository) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return fmt.Errorf("failed to delete from users: %w", ErrNotFound)
	}
	delete(m.users, id)
	for pid, p := range m.posts {
		if p.post.AuthorID == id {
			delete(m.posts, pid)
		}
	}
	return nil
}

func (m *MemoryRepository) CreatePost(_ context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[post.AuthorID]; !ok {
		return fmt.Errorf("failed to create post: %w", ErrNotFound)
	}
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	now := m.now()
	post.CreatedAt, post.UpdatedAt = now, now
	m.seq++
	stored := *post
	stored.Author = nil
	m.posts[post.ID] = &memPost{post: stored, seq: m.seq}
	return nil
}

func (m *MemoryRepository) FindPostByID(_ context.Context, id string) (*models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.posts[id]
	if !ok {
		return nil, fmt.Errorf("failed to find post: %w", ErrNotFound)
	}
	return m.withAuthor(p), nil
}

func (m *MemoryRepository) ListPosts(_ context.Context, filter models.PostFilter) ([]*models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	query := strings.ToLower(filter.Query)
	matched := make([]*memPost, 0, len(m.posts))
	for _, p := range m.posts {
		if filter.AuthorID != "" && p.post.AuthorID != filter.AuthorID {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(p.post.Title), query) &&
			!strings.Contains(strings.ToLower(p.post.Content), query) {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.post.CreatedAt.Equal(b.post.CreatedAt) {
			return a.seq > b.seq
		}
		return a.post.CreatedAt.After(b.post.CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[filter.Offset:]
		}
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}

	posts := make([]*models.Post, 0, len(matched))
	for _, p := range matched {
		posts = append(posts, m.withAuthor(p))
	}
	return posts, nil
}

func (m *MemoryRepository) UpdatePost(_ context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[post.ID]
	if !ok {
		return fmt.Errorf("failed to update post: %w", ErrNotFound)
	}
	p.post.Title = post.Title
	p.post.Content = post.Content
	p.post.UpdatedAt = m.now()
	post.UpdatedAt = p.post.UpdatedAt
	return nil
}

func (m *MemoryRepository) DeletePost(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.posts[id]; !ok {
		return fmt.Errorf("failed to delete from posts: %w", ErrNotFound)
	}
	delete(m.posts, id)
	return nil
}

// caller holds m.mu
func (m *MemoryRepository) usernameTaken(username, exceptID string) bool {
	for id, user := range m.users {
		if id != exceptID && user.Username == username {
			return true
		}
	}
	return false
}

// caller holds m.mu
func (m *MemoryRepository) withAuthor(p *memPost) *models.Post {
	cp := p.post
	if author, ok := m.users[cp.AuthorID]; ok {
		cp.Author = &models.PostAuthor{ID: author.ID, Username: author.Username}
	}
	return &cp
}
