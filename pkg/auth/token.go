package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/naveenspark/taskboard/pkg/domain"
)

// accessClaims is the subset of the provider's JWT we read.
type accessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// tokenResponse is the provider's answer to password and refresh grants.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// sessionFromToken builds a session from an access token. The signature is not
// verified here: the API verifies it on every call, the client only needs the claims.
func sessionFromToken(access, refresh string, now time.Time, expiresIn int64) (*domain.Session, error) {
	var claims accessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(access, &claims); err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("parse access token: missing subject")
	}
	s := &domain.Session{
		UserID:       claims.Subject,
		Email:        claims.Email,
		AccessToken:  access,
		RefreshToken: refresh,
	}
	switch {
	case claims.ExpiresAt != nil:
		s.ExpiresAt = claims.ExpiresAt.Time
	case expiresIn > 0:
		s.ExpiresAt = now.Add(time.Duration(expiresIn) * time.Second)
	}
	return s, nil
}

func (t tokenResponse) session(now time.Time) (*domain.Session, error) {
	s, err := sessionFromToken(t.AccessToken, t.RefreshToken, now, t.ExpiresIn)
	if err != nil {
		return nil, err
	}
	if s.Email == "" {
		s.Email = t.User.Email
	}
	if t.ExpiresAt > 0 {
		s.ExpiresAt = time.Unix(t.ExpiresAt, 0)
	}
	return s, nil
}
