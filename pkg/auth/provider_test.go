package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/naveenspark/taskboard/pkg/client"
	"github.com/naveenspark/taskboard/pkg/domain"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type memStorage struct {
	mu    sync.Mutex
	s     *domain.Session
	saves int
}

func (m *memStorage) LoadSession() (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s, nil
}

func (m *memStorage) SaveSession(s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *s
	m.s = &c
	m.saves++
	return nil
}

func (m *memStorage) ClearSession() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = nil
	return nil
}

func signToken(t *testing.T, sub, email string, exp time.Time) string {
	t.Helper()
	claims := accessClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func newTestProvider(srvURL string, store SessionStorage) *Provider {
	return New(srvURL, "anon-key", store, WithClock(func() time.Time { return testNow }))
}

func TestSignIn(t *testing.T) {
	access := signToken(t, "user-1", "ada@example.com", testNow.Add(time.Hour))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/token" {
			t.Errorf("path = %q, want /auth/v1/token", r.URL.Path)
		}
		if got := r.URL.Query().Get("grant_type"); got != "password" {
			t.Errorf("grant_type = %q, want password", got)
		}
		if got := r.Header.Get("apikey"); got != "anon-key" {
			t.Errorf("apikey = %q, want anon-key", got)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body) //nolint:errcheck
		if body["email"] != "ada@example.com" || body["password"] != "hunter22" {
			t.Errorf("body = %v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"access_token":  access,
			"refresh_token": "refresh-1",
			"expires_in":    3600,
			"user":          map[string]string{"id": "user-1", "email": "ada@example.com"},
		})
	}))
	defer srv.Close()

	store := &memStorage{}
	p := newTestProvider(srv.URL, store)
	events, unsubscribe := p.Subscribe()
	defer unsubscribe()

	s, err := p.SignIn(context.Background(), "ada@example.com", "hunter22")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if s.UserID != "user-1" || s.Email != "ada@example.com" || s.RefreshToken != "refresh-1" {
		t.Errorf("session = %+v", s)
	}
	if !s.ExpiresAt.Equal(testNow.Add(time.Hour)) {
		t.Errorf("ExpiresAt = %v, want %v", s.ExpiresAt, testNow.Add(time.Hour))
	}
	if store.s == nil || store.s.AccessToken != access {
		t.Error("session was not persisted")
	}
	select {
	case ev := <-events:
		if ev.Type != EventSignedIn {
			t.Errorf("event = %q, want %q", ev.Type, EventSignedIn)
		}
	default:
		t.Error("expected a SignedIn event")
	}

	token, err := p.AccessToken(context.Background())
	if err != nil || token != access {
		t.Errorf("AccessToken = %q, %v", token, err)
	}
}

func TestSignIn_Errors(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		invalid      bool
		notConfirmed bool
	}{
		{"current shape", `{"code":400,"error_code":"invalid_credentials","msg":"Invalid login credentials"}`, true, false},
		{"legacy invalid grant", `{"error":"invalid_grant","error_description":"Invalid login credentials"}`, true, false},
		{"not confirmed", `{"code":400,"error_code":"email_not_confirmed","msg":"Email not confirmed"}`, false, true},
		{"legacy not confirmed", `{"error":"invalid_grant","error_description":"Email not confirmed"}`, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				io.WriteString(w, tt.body) //nolint:errcheck
			}))
			defer srv.Close()

			p := newTestProvider(srv.URL, nil)
			_, err := p.SignIn(context.Background(), "a@b.co", "x")
			if err == nil {
				t.Fatal("expected error")
			}
			if got := IsInvalidCredentials(err); got != tt.invalid {
				t.Errorf("IsInvalidCredentials = %v, want %v (%v)", got, tt.invalid, err)
			}
			if got := IsEmailNotConfirmed(err); got != tt.notConfirmed {
				t.Errorf("IsEmailNotConfirmed = %v, want %v (%v)", got, tt.notConfirmed, err)
			}
			var authErr *Error
			if !errors.As(err, &authErr) || authErr.StatusCode != http.StatusBadRequest {
				t.Errorf("want *Error with status 400, got %v", err)
			}
		})
	}
}

func TestSession_NoneStored(t *testing.T) {
	p := newTestProvider("http://unused.invalid", &memStorage{})
	s, err := p.Session(context.Background())
	if err != nil || s != nil {
		t.Fatalf("Session = %v, %v; want nil, nil", s, err)
	}
	_, err = p.AccessToken(context.Background())
	if !errors.Is(err, client.ErrUnauthenticated) {
		t.Errorf("AccessToken error = %v, want ErrUnauthenticated", err)
	}
	if !errors.Is(err, ErrNoSession) {
		t.Errorf("AccessToken error = %v, want ErrNoSession", err)
	}
}

func TestSession_RefreshesNearExpiry(t *testing.T) {
	fresh := signToken(t, "user-1", "ada@example.com", testNow.Add(time.Hour))
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if got := r.URL.Query().Get("grant_type"); got != "refresh_token" {
			t.Errorf("grant_type = %q, want refresh_token", got)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body) //nolint:errcheck
		if body["refresh_token"] != "old-refresh" {
			t.Errorf("refresh_token = %q, want old-refresh", body["refresh_token"])
		}
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"access_token":  fresh,
			"refresh_token": "new-refresh",
		})
	}))
	defer srv.Close()

	store := &memStorage{s: &domain.Session{
		UserID:       "user-1",
		AccessToken:  "stale",
		RefreshToken: "old-refresh",
		ExpiresAt:    testNow.Add(10 * time.Second),
	}}
	p := newTestProvider(srv.URL, store)
	events, unsubscribe := p.Subscribe()
	defer unsubscribe()

	s, err := p.Session(context.Background())
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if s.AccessToken != fresh || s.RefreshToken != "new-refresh" {
		t.Errorf("session not refreshed: %+v", s)
	}
	if store.s.RefreshToken != "new-refresh" {
		t.Error("refreshed session was not persisted")
	}
	if ev := <-events; ev.Type != EventTokenRefreshed {
		t.Errorf("event = %q, want %q", ev.Type, EventTokenRefreshed)
	}

	// Now valid for an hour: no second refresh.
	if _, err := p.Session(context.Background()); err != nil {
		t.Fatalf("Session: %v", err)
	}
	if calls != 1 {
		t.Errorf("refresh calls = %d, want 1", calls)
	}
}

func TestSession_RejectedRefreshSignsOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error_code":"refresh_token_not_found","msg":"Invalid Refresh Token"}`) //nolint:errcheck
	}))
	defer srv.Close()

	store := &memStorage{s: &domain.Session{
		UserID:       "user-1",
		AccessToken:  "stale",
		RefreshToken: "gone",
		ExpiresAt:    testNow.Add(-time.Minute),
	}}
	p := newTestProvider(srv.URL, store)
	events, unsubscribe := p.Subscribe()
	defer unsubscribe()

	s, err := p.Session(context.Background())
	if err != nil || s != nil {
		t.Fatalf("Session = %v, %v; want nil, nil", s, err)
	}
	if store.s != nil {
		t.Error("stored session should be cleared")
	}
	if ev := <-events; ev.Type != EventSignedOut {
		t.Errorf("event = %q, want %q", ev.Type, EventSignedOut)
	}
}

func TestSignOut_ClearsEvenWhenRemoteFails(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := &memStorage{s: &domain.Session{UserID: "user-1", AccessToken: "tok-1"}}
	p := newTestProvider(srv.URL, store)

	if err := p.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if gotAuth != "Bearer tok-1" {
		t.Errorf("Authorization = %q, want Bearer tok-1", gotAuth)
	}
	if store.s != nil {
		t.Error("stored session should be cleared")
	}
	if s, _ := p.Session(context.Background()); s != nil {
		t.Errorf("Session after sign-out = %+v, want nil", s)
	}
}

func TestVerifyRecoveryLink(t *testing.T) {
	access := signToken(t, "user-9", "grace@example.com", testNow.Add(time.Hour))
	p := newTestProvider("http://unused.invalid", &memStorage{})
	events, unsubscribe := p.Subscribe()
	defer unsubscribe()

	link := "http://localhost:5173/reset-password#access_token=" + access +
		"&refresh_token=r-9&expires_in=3600&token_type=bearer&type=recovery"
	s, err := p.VerifyRecoveryLink(context.Background(), link)
	if err != nil {
		t.Fatalf("VerifyRecoveryLink: %v", err)
	}
	if s.UserID != "user-9" || s.Email != "grace@example.com" || s.RefreshToken != "r-9" {
		t.Errorf("session = %+v", s)
	}
	if ev := <-events; ev.Type != EventPasswordRecovery {
		t.Errorf("event = %q, want %q", ev.Type, EventPasswordRecovery)
	}
}

func TestVerifyRecoveryLink_Invalid(t *testing.T) {
	expired := signToken(t, "user-9", "", testNow.Add(-time.Hour))
	tests := []struct {
		name string
		link string
	}{
		{"empty", ""},
		{"no token", "http://localhost:5173/reset-password"},
		{"provider error", "http://localhost:5173/reset-password#error=access_denied&error_description=Email+link+is+invalid+or+has+expired"},
		{"garbage token", "http://localhost:5173/reset-password#access_token=nope&type=recovery"},
		{"wrong type", "http://localhost:5173/reset-password#access_token=" + expired + "&type=signup"},
		{"expired", "http://localhost:5173/reset-password#access_token=" + expired + "&type=recovery"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider("http://unused.invalid", nil)
			_, err := p.VerifyRecoveryLink(context.Background(), tt.link)
			if !errors.Is(err, ErrInvalidRecoveryLink) {
				t.Errorf("err = %v, want ErrInvalidRecoveryLink", err)
			}
		})
	}
}

func TestUpdatePassword(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/auth/v1/user" {
			t.Errorf("%s %s, want PUT /auth/v1/user", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("Authorization = %q", got)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body) //nolint:errcheck
		if body["password"] != "n3w-pass" {
			t.Errorf("password = %q", body["password"])
		}
		io.WriteString(w, `{"id":"user-1"}`) //nolint:errcheck
	}))
	defer srv.Close()

	store := &memStorage{s: &domain.Session{UserID: "user-1", AccessToken: "tok-1"}}
	p := newTestProvider(srv.URL, store)
	events, unsubscribe := p.Subscribe()
	defer unsubscribe()

	if err := p.UpdatePassword(context.Background(), "n3w-pass"); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}
	if ev := <-events; ev.Type != EventUserUpdated {
		t.Errorf("event = %q, want %q", ev.Type, EventUserUpdated)
	}
}

func TestUpdatePassword_NoSession(t *testing.T) {
	p := newTestProvider("http://unused.invalid", nil)
	if err := p.UpdatePassword(context.Background(), "x"); !errors.Is(err, ErrNoSession) {
		t.Errorf("err = %v, want ErrNoSession", err)
	}
}

func TestSignUp_SendsRedirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/signup" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("redirect_to"); got != "http://localhost:5173/login" {
			t.Errorf("redirect_to = %q", got)
		}
		io.WriteString(w, `{"id":"user-2"}`) //nolint:errcheck
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL, nil)
	if err := p.SignUp(context.Background(), "new@example.com", "secret1", "http://localhost:5173/login"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
}

func TestUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" {
			t.Errorf("path = %q", r.URL.Path)
		}
		io.WriteString(w, `{"id":"user-1","email":"ada@example.com"}`) //nolint:errcheck
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL, &memStorage{s: &domain.Session{UserID: "user-1", AccessToken: "tok"}})
	u, err := p.User(context.Background())
	if err != nil {
		t.Fatalf("User: %v", err)
	}
	if u.ID != "user-1" || u.Email != "ada@example.com" {
		t.Errorf("user = %+v", u)
	}
}

func TestSubscribe_UnsubscribeIsIdempotent(t *testing.T) {
	p := newTestProvider("http://unused.invalid", nil)
	ch, unsubscribe := p.Subscribe()
	if p.events.count() != 1 {
		t.Fatalf("subscribers = %d, want 1", p.events.count())
	}
	unsubscribe()
	unsubscribe()
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after unsubscribe")
	}
	if p.events.count() != 0 {
		t.Errorf("subscribers = %d, want 0", p.events.count())
	}
}

func TestSubscribe_FullSubscriberDropsEvents(t *testing.T) {
	b := newBroadcaster()
	ch, unsubscribe := b.subscribe()
	defer unsubscribe()
	for i := 0; i < subscriberBuffer+5; i++ {
		b.publish(Event{Type: EventTokenRefreshed})
	}
	if len(ch) != subscriberBuffer {
		t.Errorf("buffered = %d, want %d", len(ch), subscriberBuffer)
	}
}

func TestErrorMessage(t *testing.T) {
	e := &Error{StatusCode: 422, Code: "weak_password", Message: "Password should be at least 6 characters"}
	if !strings.Contains(e.Error(), "422") || !strings.Contains(e.Error(), "weak_password") {
		t.Errorf("Error() = %q", e.Error())
	}
}
