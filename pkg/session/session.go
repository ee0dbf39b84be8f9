// Package session holds who is logged in to the admin tool.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"library_admin/pkg/backend"
	"library_admin/pkg/schema"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// Session is created by Login and ends with Logout. There is no expiry.
type Session struct {
	mu        sync.RWMutex
	user      schema.Record
	startedAt time.Time
}

// Login looks the user up by username and password. The first matching
// record becomes the session user.
func Login(ctx context.Context, store backend.Store, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	users, err := store.List(ctx, schema.MustLookup(schema.User).Path, url.Values{
		"username": {username},
		"password": {password},
	})
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	if len(users) == 0 {
		return nil, ErrInvalidCredentials
	}
	return &Session{user: users[0], startedAt: time.Now()}, nil
}

// User returns the logged in user, or nil once the session has ended.
func (s *Session) User() schema.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) Username() string { return s.User().String("username") }

// DisplayName is the full name of the user, or the username when blank.
func (s *Session) DisplayName() string {
	u := s.User()
	if name := u.String("fullName"); name != "" {
		return name
	}
	return u.String("username")
}

func (s *Session) Role() string { return s.User().String("role") }

func (s *Session) StartedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.startedAt
}

func (s *Session) Active() bool {
	if s == nil {
		return false
	}
	return s.User() != nil
}

func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
}
