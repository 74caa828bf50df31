package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/naveenspark/taskboard/pkg/client"
	"github.com/naveenspark/taskboard/pkg/domain"
)

// refreshLeeway is how close to expiry a session is refreshed before use.
const refreshLeeway = 30 * time.Second

// SessionStorage persists the provider session between runs.
// LoadSession returns nil, nil when nothing is stored.
type SessionStorage interface {
	LoadSession() (*domain.Session, error)
	SaveSession(s *domain.Session) error
	ClearSession() error
}

// User is the auth-side account record.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Provider talks to the hosted auth service (GoTrue REST dialect) and owns the
// current session.
type Provider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	storage    SessionStorage
	log        logrus.FieldLogger
	now        func() time.Time
	events     *broadcaster

	mu      sync.Mutex
	loaded  bool
	session *domain.Session
}

var _ client.Credentials = (*Provider)(nil)

// Option configures a Provider.
type Option func(*Provider)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(p *Provider) { p.httpClient = hc }
}

// WithLogger sets the logger for best-effort failures.
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Provider) { p.log = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// New creates a Provider. storage may be nil for an in-memory session only.
func New(baseURL, apiKey string, storage SessionStorage, opts ...Option) *Provider {
	p := &Provider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{},
		storage:    storage,
		log:        logrus.StandardLogger(),
		now:        time.Now,
		events:     newBroadcaster(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Subscribe registers for auth-state changes. The returned func unsubscribes and
// closes the channel; calling it more than once is safe.
func (p *Provider) Subscribe() (<-chan Event, func()) {
	return p.events.subscribe()
}

// SignUp registers a new account. The provider emails a confirmation link that
// redirects to redirectTo.
func (p *Provider) SignUp(ctx context.Context, email, password, redirectTo string) error {
	path := "/auth/v1/signup"
	if redirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(redirectTo)
	}
	body := map[string]string{"email": email, "password": password}
	if err := p.do(ctx, http.MethodPost, path, "", body, nil); err != nil {
		return fmt.Errorf("auth.SignUp: %w", err)
	}
	return nil
}

// SignIn exchanges email and password for a session.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	var tok tokenResponse
	body := map[string]string{"email": email, "password": password}
	if err := p.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", body, &tok); err != nil {
		return nil, fmt.Errorf("auth.SignIn: %w", err)
	}
	s, err := tok.session(p.now())
	if err != nil {
		return nil, fmt.Errorf("auth.SignIn: %w", err)
	}
	p.mu.Lock()
	p.setSessionLocked(s)
	p.mu.Unlock()
	p.events.publish(Event{Type: EventSignedIn, Session: copySession(s)})
	return copySession(s), nil
}

// SignOut revokes the session remotely (best effort) and always clears it locally.
func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.ensureLoadedLocked()
	s := p.session
	p.setSessionLocked(nil)
	p.mu.Unlock()

	if s != nil {
		if err := p.do(ctx, http.MethodPost, "/auth/v1/logout", s.AccessToken, nil, nil); err != nil {
			p.log.WithError(err).Warn("remote sign-out failed")
		}
	}
	p.events.publish(Event{Type: EventSignedOut})
	return nil
}

// Session returns the current session, refreshing it when it is about to expire.
// It returns nil, nil when signed out.
func (p *Provider) Session(ctx context.Context) (*domain.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ensureLoadedLocked()
	if p.session == nil {
		return nil, nil
	}
	if !p.session.ExpiresWithin(p.now(), refreshLeeway) {
		return copySession(p.session), nil
	}
	if p.session.RefreshToken == "" {
		p.setSessionLocked(nil)
		p.events.publish(Event{Type: EventSignedOut})
		return nil, nil
	}

	var tok tokenResponse
	body := map[string]string{"refresh_token": p.session.RefreshToken}
	if err := p.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", "", body, &tok); err != nil {
		if !isAuthError(err) {
			// Transport failure: keep the session so a later call can retry.
			return nil, fmt.Errorf("auth.Session: %w", err)
		}
		p.log.WithError(err).Warn("session refresh failed, signing out")
		p.setSessionLocked(nil)
		p.events.publish(Event{Type: EventSignedOut})
		return nil, nil
	}
	s, err := tok.session(p.now())
	if err != nil {
		return nil, fmt.Errorf("auth.Session: %w", err)
	}
	p.setSessionLocked(s)
	p.events.publish(Event{Type: EventTokenRefreshed, Session: copySession(s)})
	return copySession(s), nil
}

// AccessToken implements client.Credentials.
func (p *Provider) AccessToken(ctx context.Context) (string, error) {
	s, err := p.Session(ctx)
	if err != nil {
		return "", err
	}
	if s == nil {
		return "", fmt.Errorf("%w: %w", client.ErrUnauthenticated, ErrNoSession)
	}
	return s.AccessToken, nil
}

// User fetches the signed-in account from the provider.
func (p *Provider) User(ctx context.Context) (*User, error) {
	token, err := p.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth.User: %w", err)
	}
	var u User
	if err := p.do(ctx, http.MethodGet, "/auth/v1/user", token, nil, &u); err != nil {
		return nil, fmt.Errorf("auth.User: %w", err)
	}
	return &u, nil
}

// ResetPasswordForEmail asks the provider to email a recovery link.
func (p *Provider) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	path := "/auth/v1/recover"
	if redirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(redirectTo)
	}
	if err := p.do(ctx, http.MethodPost, path, "", map[string]string{"email": email}, nil); err != nil {
		return fmt.Errorf("auth.ResetPasswordForEmail: %w", err)
	}
	return nil
}

// VerifyRecoveryLink turns a pasted recovery redirect URL into a session.
// Tokens come from the URL fragment unless the query already carries them.
func (p *Provider) VerifyRecoveryLink(ctx context.Context, link string) (*domain.Session, error) {
	params, err := linkParams(link)
	if err != nil {
		return nil, fmt.Errorf("auth.VerifyRecoveryLink: %w", err)
	}
	if msg := params.Get("error_description"); msg != "" {
		return nil, fmt.Errorf("auth.VerifyRecoveryLink: %w: %s", ErrInvalidRecoveryLink, msg)
	}
	access := params.Get("access_token")
	if access == "" || (params.Get("type") != "" && params.Get("type") != "recovery") {
		return nil, fmt.Errorf("auth.VerifyRecoveryLink: %w", ErrInvalidRecoveryLink)
	}
	expiresIn, _ := strconv.ParseInt(params.Get("expires_in"), 10, 64) //nolint:errcheck // zero falls back to the token's exp
	s, err := sessionFromToken(access, params.Get("refresh_token"), p.now(), expiresIn)
	if err != nil {
		return nil, fmt.Errorf("auth.VerifyRecoveryLink: %w: %v", ErrInvalidRecoveryLink, err)
	}
	if s.ExpiresWithin(p.now(), 0) {
		return nil, fmt.Errorf("auth.VerifyRecoveryLink: %w", ErrInvalidRecoveryLink)
	}
	p.mu.Lock()
	p.setSessionLocked(s)
	p.mu.Unlock()
	p.events.publish(Event{Type: EventPasswordRecovery, Session: copySession(s)})
	return copySession(s), nil
}

func linkParams(link string) (url.Values, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return nil, ErrInvalidRecoveryLink
	}
	u, err := url.Parse(link)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecoveryLink, err)
	}
	q := u.Query()
	if u.Fragment != "" && q.Get("access_token") == "" {
		if v, err := url.ParseQuery(u.Fragment); err == nil {
			return v, nil
		}
	}
	return q, nil
}

// UpdatePassword sets a new password for the signed-in (or recovering) user.
func (p *Provider) UpdatePassword(ctx context.Context, password string) error {
	token, err := p.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("auth.UpdatePassword: %w", err)
	}
	if err := p.do(ctx, http.MethodPut, "/auth/v1/user", token, map[string]string{"password": password}, nil); err != nil {
		return fmt.Errorf("auth.UpdatePassword: %w", err)
	}
	s, _ := p.Session(ctx) //nolint:errcheck // event payload only
	p.events.publish(Event{Type: EventUserUpdated, Session: s})
	return nil
}

func (p *Provider) ensureLoadedLocked() {
	if p.loaded {
		return
	}
	p.loaded = true
	if p.storage == nil {
		return
	}
	s, err := p.storage.LoadSession()
	if err != nil {
		p.log.WithError(err).Warn("stored session unreadable, starting signed out")
		return
	}
	p.session = s
}

func (p *Provider) setSessionLocked(s *domain.Session) {
	p.loaded = true
	p.session = s
	if p.storage == nil {
		return
	}
	var err error
	if s == nil {
		err = p.storage.ClearSession()
	} else {
		err = p.storage.SaveSession(s)
	}
	if err != nil {
		p.log.WithError(err).Error("persist session")
	}
}

func copySession(s *domain.Session) *domain.Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// providerError is the union of GoTrue error shapes (legacy OAuth and current).
type providerError struct {
	Code             json.RawMessage `json:"code"`
	ErrorCode        string          `json:"error_code"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
	Msg              string          `json:"msg"`
	Message          string          `json:"message"`
}

func (p *Provider) do(ctx context.Context, method, path, token string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	p.setHeaders(req, token)
	return p.send(req, out)
}

func (p *Provider) setHeaders(req *http.Request, token string) {
	req.Header.Set("apikey", p.apiKey)
	if token == "" {
		token = p.apiKey
	}
	req.Header.Set("Authorization", "Bearer "+token)
}

func (p *Provider) send(req *http.Request, out any) error {
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func decodeError(resp *http.Response) error {
	e := &Error{StatusCode: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		e.Message = fmt.Sprintf("failed to read body: %v", err)
		return e
	}
	var pe providerError
	if json.Unmarshal(data, &pe) != nil {
		e.Message = strings.TrimSpace(string(data))
		return e
	}
	var code string
	if json.Unmarshal(pe.Code, &code) != nil {
		code = ""
	}
	e.Code = firstNonEmpty(pe.ErrorCode, code, pe.Error)
	e.Message = firstNonEmpty(pe.Msg, pe.ErrorDescription, pe.Message, pe.Error, http.StatusText(resp.StatusCode))
	if e.Code == "invalid_grant" && strings.Contains(strings.ToLower(e.Message), "email not confirmed") {
		e.Code = "email_not_confirmed"
	}
	return e
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// isAuthError reports whether err came from the provider rather than the transport.
func isAuthError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
