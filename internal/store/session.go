package store

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/naveenspark/taskboard/pkg/domain"
)

// UserState is the signed-in identity and the role in the board being viewed.
type UserState struct {
	UserID    string          `json:"user_id"`
	Email     string          `json:"email"`
	Profile   *domain.Profile `json:"profile"`
	BoardRole domain.Role     `json:"board_role"`
}

// SignedIn reports whether the state carries an identity.
func (u UserState) SignedIn() bool {
	return u.UserID != ""
}

// SessionStore holds the user-side session state. Safe for concurrent use.
type SessionStore struct {
	mu      sync.Mutex
	state   UserState
	version uint64
	persist *Persister
	log     logrus.FieldLogger
}

// NewSessionStore creates an empty store. persist may be nil.
func NewSessionStore(persist *Persister, log logrus.FieldLogger) *SessionStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SessionStore{persist: persist, log: log}
}

// Load rehydrates from the persisted blob, if any.
func (s *SessionStore) Load() {
	if s.persist == nil {
		return
	}
	var st UserState
	if !s.persist.Load(NamespaceUser, &st) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = copyUser(st)
	s.version++
}

// Snapshot returns a copy of the state and its version.
func (s *SessionStore) Snapshot() (UserState, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyUser(s.state), s.version
}

// SetUser replaces the whole state.
func (s *SessionStore) SetUser(id, email string, profile *domain.Profile, role domain.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceLocked(UserState{UserID: id, Email: email, Profile: profile, BoardRole: role})
}

// SetProfile replaces only the profile.
func (s *SessionStore) SetProfile(p *domain.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state
	next.Profile = p
	s.replaceLocked(next)
}

// SetBoardRole replaces only the board role.
func (s *SessionStore) SetBoardRole(role domain.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state
	next.BoardRole = role
	s.replaceLocked(next)
}

// Clear resets to the anonymous state.
func (s *SessionStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceLocked(UserState{})
}

// CompareAndSet replaces the state only if it is still at version.
func (s *SessionStore) CompareAndSet(version uint64, next UserState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version != version {
		return false
	}
	s.replaceLocked(next)
	return true
}

func (s *SessionStore) replaceLocked(next UserState) {
	s.state = copyUser(next)
	s.version++
	if s.persist == nil {
		return
	}
	if err := s.persist.Save(NamespaceUser, s.state); err != nil {
		s.log.WithError(err).Error("persist user state")
	}
}

func copyUser(u UserState) UserState {
	if u.Profile != nil {
		p := *u.Profile
		u.Profile = &p
	}
	return u
}
