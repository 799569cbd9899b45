package email

import (
	"fmt"
	"net/smtp"
	"sync"
	"time"

	"github.com/Atim-01/devblog/internal/config"
	"github.com/Atim-01/devblog/internal/models"
	"github.com/Atim-01/devblog/internal/utils"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   func(e *email.Email) error
	wg     sync.WaitGroup
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	s := &Sender{
		cfg:    cfg,
		logger: logger,
	}
	s.send = s.sendSMTP
	return s
}

// SendNewUserNotification tells the site owner about a new account
func (s *Sender) SendNewUserNotification(user *models.User) error {
	e := s.newEmail(fmt.Sprintf("New %s account: %s", s.cfg.SiteTitle, user.Username))
	e.Text = []byte(fmt.Sprintf(
		"Hello,\n\n"+
			"A new user has registered on %s.\n"+
			"Username: %s\n"+
			"Registered at: %s\n"+
			"\nBest regards,\n%s",
		s.cfg.SiteTitle, user.Username, user.CreatedAt.Format("2006-01-02 15:04:05"), s.cfg.SiteTitle,
	))
	return s.deliver(e)
}

// SendNewPostNotification tells the site owner about a new post
func (s *Sender) SendNewPostNotification(post *models.Post) error {
	author := "unknown author"
	if post.Author != nil {
		author = post.Author.Username
	}
	e := s.newEmail(fmt.Sprintf("New post on %s: %s", s.cfg.SiteTitle, post.Title))
	e.Text = []byte(fmt.Sprintf(
		"Hello,\n\n"+
			"%s published a new post.\n\n"+
			"%s\n%s\n\n"+
			"Read it at %s/posts/%s\n"+
			"\nBest regards,\n%s",
		author, post.Title, utils.Excerpt(post.Content, 300), s.cfg.SiteURL, post.ID, s.cfg.SiteTitle,
	))
	return s.deliver(e)
}

// UserRegistered sends the new-account notification in the background
func (s *Sender) UserRegistered(user *models.User) {
	s.async(func() error { return s.SendNewUserNotification(user) })
}

// PostPublished sends the new-post notification in the background
func (s *Sender) PostPublished(post *models.Post) {
	s.async(func() error { return s.SendNewPostNotification(post) })
}

// Wait blocks until background sends finish or timeout passes
func (s *Sender) Wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (s *Sender) async(fn func() error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		// errors are already logged by deliver
		_ = fn()
	}()
}

func (s *Sender) newEmail(subject string) *email.Email {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{s.cfg.NotifyEmail}
	e.Subject = subject
	return e
}

func (s *Sender) deliver(e *email.Email) error {
	if err := s.send(e); err != nil {
		s.logger.Errorf("Failed to send email to %v: %v", e.To, err)
		return fmt.Errorf("failed to send email: %w", err)
	}
	s.logger.Infof("Email sent to %v: %s", e.To, e.Subject)
	return nil
}

func (s *Sender) sendSMTP(e *email.Email) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	return e.Send(addr, auth)
}
