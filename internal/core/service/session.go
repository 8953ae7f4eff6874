package service

import (
	"fmt"
	"slices"
	"sync"

	"github.com/rl1809/library-ledger/internal/core/domain"
)

// Session tracks the one actor currently signed in. Signing in under any role
// replaces whoever was signed in before.
type Session struct {
	mu      sync.Mutex
	role    domain.Role
	actorID string
}

func NewSession() *Session {
	return &Session{}
}

func (s *Session) SignInAdmin(adminID string) { s.switchTo(domain.RoleAdmin, adminID) }

func (s *Session) SignInStaff(staffID string) { s.switchTo(domain.RoleStaff, staffID) }

func (s *Session) SignInPatron(patronID string) { s.switchTo(domain.RolePatron, patronID) }

func (s *Session) SignOut() { s.switchTo(domain.RoleNone, "") }

func (s *Session) Role() domain.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role
}

func (s *Session) ActorID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.actorID
}

// ActivePatron returns the signed-in patron, if the active role is patron.
func (s *Session) ActivePatron() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.role != domain.RolePatron {
		return "", false
	}
	return s.actorID, true
}

// Require fails with ErrNotAuthorized unless one of roles is active.
func (s *Session) Require(roles ...domain.Role) error {
	current := s.Role()
	if current != domain.RoleNone && slices.Contains(roles, current) {
		return nil
	}
	return fmt.Errorf("role %s: %w", current, ErrNotAuthorized)
}

func (s *Session) switchTo(role domain.Role, actorID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.role = role
	s.actorID = actorID
}
