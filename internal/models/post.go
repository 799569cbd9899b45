package models

import "time"

// Post represents a blog entry
type Post struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Content   string      `json:"content"`
	AuthorID  string      `json:"authorId"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
	Author    *PostAuthor `json:"author,omitempty"`
}

// PostAuthor is the public part of a post's author
type PostAuthor struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// CreatePostInput is the payload for a new post
type CreatePostInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// UpdatePostInput carries the optional fields of a post update
type UpdatePostInput struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

// PostFilter narrows a post listing. Zero value lists everything.
type PostFilter struct {
	AuthorID string
	Query    string
	Limit    int
	Offset   int
}
