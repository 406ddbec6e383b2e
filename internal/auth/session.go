package auth

import (
	"sync/atomic"

	"github.com/spec-kit/help-queue/internal/domain"
)

// Session holds the currently signed-in user, if any. It is safe for concurrent use.
type Session struct {
	user atomic.Pointer[domain.User]
}

// NewSession returns a session signed in as user, or signed out when user is nil.
func NewSession(user *domain.User) *Session {
	s := &Session{}
	if user != nil {
		s.SignIn(user)
	}
	return s
}

// SignIn replaces the current user.
func (s *Session) SignIn(user *domain.User) {
	u := *user
	s.user.Store(&u)
}

// SignOut clears the current user.
func (s *Session) SignOut() {
	s.user.Store(nil)
}

// CurrentUser returns the signed-in user or nil.
func (s *Session) CurrentUser() *domain.User {
	return s.user.Load()
}
