// internal/state/session.go
package state

import (
	"sync"

	"github.com/user/kinobot/internal/types"
)

// slot holds one user's session together with the mutex guarding it.
type slot struct {
	mu      sync.Mutex
	session types.Session
}

// SessionStore is an in-memory, per-user session store. Sessions are
// created lazily and lost on restart. Each user's record has its own lock,
// so updates for one user never block another.
type SessionStore struct {
	mu    sync.Mutex
	slots map[types.UserID]*slot
}

// NewSessionStore creates an empty SessionStore.
func NewSessionStore() *SessionStore {
	return &SessionStore{slots: make(map[types.UserID]*slot)}
}

// getSlot returns the user's slot, creating an Idle session if needed.
func (s *SessionStore) getSlot(userID types.UserID) *slot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sl, ok := s.slots[userID]; ok {
		return sl
	}
	sl := &slot{session: types.Session{UserID: userID}}
	s.slots[userID] = sl
	return sl
}

// Get returns a copy of the user's session.
func (s *SessionStore) Get(userID types.UserID) types.Session {
	sl := s.getSlot(userID)
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.session
}

// Update applies fn to the user's session under that user's lock and
// returns the stored result.
func (s *SessionStore) Update(userID types.UserID, fn func(types.Session) types.Session) types.Session {
	sl := s.getSlot(userID)
	sl.mu.Lock()
	defer sl.mu.Unlock()

	next := fn(sl.session)
	next.UserID = userID
	sl.session = next
	return next
}

// Reset puts the user's session back into the Idle state.
func (s *SessionStore) Reset(userID types.UserID) {
	s.Update(userID, func(types.Session) types.Session {
		return types.Session{}
	})
}

// Len returns the number of sessions created so far.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}
