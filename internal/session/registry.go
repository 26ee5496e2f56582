package session

import (
	"sync"
	"sync/atomic"
)

// Registry is the process-wide table of live sessions, shared by every
// connection. The duplicate-login check and the insert happen inside one
// critical section so that two simultaneous logins for the same account can
// never both succeed, and no iteration primitives are exposed that would let
// a caller observe-then-act non-atomically.
type Registry struct {
	mu       sync.Mutex
	sessions map[uint32]*Session
	nextID   atomic.Uint32
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[uint32]*Session)}
}

// TryRegister atomically checks whether the session's account already has an
// active session and, if not, assigns a session id and inserts it. Returns
// false on conflict, in which case the session is left unregistered.
func (r *Registry) TryRegister(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.accountOnlineLocked(s.AccountID) {
		return false
	}

	s.ID = r.nextID.Add(1)
	r.sessions[s.ID] = s
	return true
}

// Remove evicts the session with the given id. Safe to call for ids that are
// no longer (or never were) registered.
func (r *Registry) Remove(id uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		s.Ended = true
		delete(r.sessions, id)
	}
}

// IsAccountOnline reports whether the account has an active, authorized,
// non-ended session.
func (r *Registry) IsAccountOnline(accountID uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accountOnlineLocked(accountID)
}

func (r *Registry) accountOnlineLocked(accountID uint64) bool {
	for _, s := range r.sessions {
		if s.AccountID == accountID && s.Authorized && !s.Ended {
			return true
		}
	}
	return false
}

// Count returns the number of registered sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
