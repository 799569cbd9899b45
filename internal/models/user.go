package models

import "time"

// User represents a user in the system
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Not serialized
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserWithPosts is a user together with everything they have written
type UserWithPosts struct {
	User
	Posts []*Post `json:"posts"`
}

// Credentials is the login/register payload
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdateUserInput carries the optional fields of a user update
type UpdateUserInput struct {
	Username *string `json:"username,omitempty"`
	Password *string `json:"password,omitempty"`
}

// AuthResult is returned by register and login
type AuthResult struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}
