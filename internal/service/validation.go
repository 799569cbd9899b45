package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Atim-01/devblog/internal/models"
	"github.com/Atim-01/devblog/internal/utils"
)

const (
	usernameMin = 3
	usernameMax = 50
	passwordMin = 6
	passwordMax = 100
	// bcrypt only looks at the first 72 bytes
	passwordMaxBytes = 72
	titleMin         = 1
	titleMax         = 200
	contentMin       = 10
	contentMax       = 10000
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

type validator struct {
	errs []string
}

func (v *validator) add(format string, args ...any) {
	v.errs = append(v.errs, fmt.Sprintf(format, args...))
}

func (v *validator) err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return &ValidationError{Errors: v.errs}
}

func (v *validator) username(username string) {
	n := utils.RuneLen(username)
	switch {
	case username == "":
		v.add("username should not be empty")
	case n < usernameMin:
		v.add("username must be longer than or equal to %d characters", usernameMin)
	case n > usernameMax:
		v.add("username must be shorter than or equal to %d characters", usernameMax)
	}
	if username != "" && !usernamePattern.MatchString(username) {
		v.add("Username can only contain letters, numbers, and underscores")
	}
}

func (v *validator) password(password string) {
	n := utils.RuneLen(password)
	switch {
	case password == "":
		v.add("password should not be empty")
	case n < passwordMin:
		v.add("password must be longer than or equal to %d characters", passwordMin)
	case n > passwordMax:
		v.add("password must be shorter than or equal to %d characters", passwordMax)
	case len(password) > passwordMaxBytes:
		v.add("password must not exceed %d bytes", passwordMaxBytes)
	}
}

func (v *validator) title(title string) {
	n := utils.RuneLen(title)
	switch {
	case n < titleMin:
		v.add("title should not be empty")
	case n > titleMax:
		v.add("title must be shorter than or equal to %d characters", titleMax)
	}
}

func (v *validator) content(content string) {
	n := utils.RuneLen(content)
	switch {
	case n == 0:
		v.add("content should not be empty")
	case n < contentMin:
		v.add("content must be longer than or equal to %d characters", contentMin)
	case n > contentMax:
		v.add("content must be shorter than or equal to %d characters", contentMax)
	}
}

func validateCredentials(c models.Credentials) error {
	v := &validator{}
	v.username(c.Username)
	v.password(c.Password)
	return v.err()
}

func validateUserUpdate(in models.UpdateUserInput) error {
	v := &validator{}
	if in.Username != nil {
		v.username(*in.Username)
	}
	if in.Password != nil {
		v.password(*in.Password)
	}
	return v.err()
}

func normalizePost(in *models.CreatePostInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	v := &validator{}
	v.title(in.Title)
	v.content(in.Content)
	return v.err()
}

func normalizePostUpdate(in *models.UpdatePostInput) error {
	v := &validator{}
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		in.Title = &t
		v.title(t)
	}
	if in.Content != nil {
		c := strings.TrimSpace(*in.Content)
		in.Content = &c
		v.content(c)
	}
	return v.err()
}
