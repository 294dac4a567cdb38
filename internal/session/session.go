package session

import (
	"sync"

	"go-bar-manager/internal/model"

	"github.com/google/uuid"
)

// Canceler is anything the session must stop on teardown (subscriptions).
type Canceler interface {
	Cancel()
}

// Session is the authenticated principal handed to every workflow.
// It is built on login and on each authenticated request.
type Session struct {
	CredentialID uuid.UUID
	ProfileID    uuid.UUID
	Role         model.Role
	BarID        *uuid.UUID // staff only
	Name         string
	Permissions  []model.Permission

	mu       sync.Mutex
	tracked  []Canceler
	tornDown bool
}

func (s *Session) IsOwner() bool {
	return s.Role == model.RoleOwner
}

// Can reports whether the principal holds p. Owners hold every permission.
func (s *Session) Can(p model.Permission) bool {
	if s.IsOwner() {
		return true
	}
	for _, granted := range s.Permissions {
		if granted == p {
			return true
		}
	}
	return false
}

// ActorID is the id written into movements and audit fields
func (s *Session) ActorID() string {
	return s.ProfileID.String()
}

// Track registers c to be cancelled by Teardown. After teardown c is
// cancelled immediately.
func (s *Session) Track(c Canceler) {
	s.mu.Lock()
	if s.tornDown {
		s.mu.Unlock()
		c.Cancel()
		return
	}
	s.tracked = append(s.tracked, c)
	s.mu.Unlock()
}

// Teardown cancels every tracked subscription exactly once.
func (s *Session) Teardown() {
	s.mu.Lock()
	if s.tornDown {
		s.mu.Unlock()
		return
	}
	s.tornDown = true
	tracked := s.tracked
	s.tracked = nil
	s.mu.Unlock()

	for _, c := range tracked {
		c.Cancel()
	}
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tornDown
}
