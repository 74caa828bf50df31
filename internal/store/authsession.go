package store

import (
	"github.com/naveenspark/taskboard/pkg/domain"
)

// AuthSessionStorage keeps the auth provider's session in the auth-session blob.
type AuthSessionStorage struct {
	persist *Persister
}

// NewAuthSessionStorage wraps persist for the auth provider.
func NewAuthSessionStorage(persist *Persister) *AuthSessionStorage {
	return &AuthSessionStorage{persist: persist}
}

// LoadSession returns the stored session or nil.
func (a *AuthSessionStorage) LoadSession() (*domain.Session, error) {
	var s domain.Session
	if !a.persist.Load(NamespaceAuthSession, &s) || s.AccessToken == "" {
		return nil, nil
	}
	return &s, nil
}

// SaveSession stores s.
func (a *AuthSessionStorage) SaveSession(s *domain.Session) error {
	return a.persist.Save(NamespaceAuthSession, s)
}

// ClearSession removes the stored session.
func (a *AuthSessionStorage) ClearSession() error {
	return a.persist.Remove(NamespaceAuthSession)
}
