package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/naveenspark/taskboard/pkg/domain"
)

// CreateBoardRequest is the payload for creating a board.
type CreateBoardRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// TaskRequest is the payload for creating or updating a task.
// Status is only sent when set.
type TaskRequest struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Status      domain.Status `json:"status,omitempty"`
}

// UpdateProfileRequest is the payload for saving a profile.
type UpdateProfileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	AvatarURL string `json:"avatar_url"`
}

// Client is the task-management API client.
type Client struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets a per-request timeout. Zero means none.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a new API client. Every call asks creds for the bearer token.
func New(baseURL string, creds Credentials, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		creds:      creds,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// --- Boards ---

// ListBoards returns the boards visible to the caller.
func (c *Client) ListBoards(ctx context.Context) ([]domain.Board, error) {
	var boards []domain.Board
	if err := c.get(ctx, "/boards", &boards); err != nil {
		return nil, fmt.Errorf("client.ListBoards: %w", err)
	}
	return boards, nil
}

// CreateBoard creates a board and returns it as stored by the API.
func (c *Client) CreateBoard(ctx context.Context, req CreateBoardRequest) (*domain.Board, error) {
	var created domain.Board
	if err := c.doRequest(ctx, http.MethodPost, "/boards", req, &created); err != nil {
		return nil, fmt.Errorf("client.CreateBoard: %w", err)
	}
	return &created, nil
}

// DeleteBoard deletes a board and its tasks.
func (c *Client) DeleteBoard(ctx context.Context, id string) error {
	if err := c.doRequest(ctx, http.MethodDelete, "/boards/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("client.DeleteBoard: %w", err)
	}
	return nil
}

// --- Members ---

// ListBoardMembers returns the members of a board with their roles.
func (c *Client) ListBoardMembers(ctx context.Context, boardID string) ([]domain.BoardMember, error) {
	var members []domain.BoardMember
	if err := c.get(ctx, "/boards/"+url.PathEscape(boardID)+"/members", &members); err != nil {
		return nil, fmt.Errorf("client.ListBoardMembers: %w", err)
	}
	return members, nil
}

// GetBoardRole returns the caller's role in a board.
// The API answers either with a bare JSON string or {"role": "..."}.
func (c *Client) GetBoardRole(ctx context.Context, boardID string) (domain.Role, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "/boards/"+url.PathEscape(boardID)+"/members/role", &raw); err != nil {
		return "", fmt.Errorf("client.GetBoardRole: %w", err)
	}
	role, err := decodeRole(raw)
	if err != nil {
		return "", fmt.Errorf("client.GetBoardRole: %w", err)
	}
	return role, nil
}

func decodeRole(raw json.RawMessage) (domain.Role, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var obj struct {
			Role string `json:"role"`
		}
		if objErr := json.Unmarshal(raw, &obj); objErr != nil {
			return "", fmt.Errorf("decode role: %w", err)
		}
		s = obj.Role
	}
	role := domain.Role(s)
	if !domain.ValidRole(role) {
		return "", fmt.Errorf("decode role: unknown role %q", s)
	}
	return role, nil
}

// --- Tasks ---

// ListTasks returns the tasks of a board.
func (c *Client) ListTasks(ctx context.Context, boardID string) ([]domain.Task, error) {
	var tasks []domain.Task
	if err := c.get(ctx, tasksPath(boardID), &tasks); err != nil {
		return nil, fmt.Errorf("client.ListTasks: %w", err)
	}
	return tasks, nil
}

// CreateTask creates a task in a board.
func (c *Client) CreateTask(ctx context.Context, boardID string, req TaskRequest) (*domain.Task, error) {
	var created domain.Task
	if err := c.doRequest(ctx, http.MethodPost, tasksPath(boardID), req, &created); err != nil {
		return nil, fmt.Errorf("client.CreateTask: %w", err)
	}
	return &created, nil
}

// UpdateTask replaces a task's editable fields.
func (c *Client) UpdateTask(ctx context.Context, boardID, taskID string, req TaskRequest) (*domain.Task, error) {
	var updated domain.Task
	path := tasksPath(boardID) + "/" + url.PathEscape(taskID)
	if err := c.doRequest(ctx, http.MethodPut, path, req, &updated); err != nil {
		return nil, fmt.Errorf("client.UpdateTask: %w", err)
	}
	return &updated, nil
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, boardID, taskID string) error {
	path := tasksPath(boardID) + "/" + url.PathEscape(taskID)
	if err := c.doRequest(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("client.DeleteTask: %w", err)
	}
	return nil
}

func tasksPath(boardID string) string {
	return "/boards/" + url.PathEscape(boardID) + "/tasks"
}

// --- Profiles ---

// GetProfile fetches a profile by user id.
func (c *Client) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	var p domain.Profile
	if err := c.get(ctx, "/profiles/"+url.PathEscape(id), &p); err != nil {
		return nil, fmt.Errorf("client.GetProfile: %w", err)
	}
	return &p, nil
}

// UpdateProfile saves a profile and returns the stored version.
func (c *Client) UpdateProfile(ctx context.Context, id string, req UpdateProfileRequest) (*domain.Profile, error) {
	var p domain.Profile
	if err := c.doRequest(ctx, http.MethodPut, "/profiles/"+url.PathEscape(id), req, &p); err != nil {
		return nil, fmt.Errorf("client.UpdateProfile: %w", err)
	}
	return &p, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	if c.creds == nil {
		return ErrUnauthenticated
	}
	token, err := c.creds.AccessToken(ctx)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if token == "" {
		return ErrUnauthenticated
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if method != http.MethodGet {
		if key := IdempotencyKeyFrom(ctx); key != "" {
			req.Header.Set("Idempotency-Key", key)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newHTTPError(resp)
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func newHTTPError(resp *http.Response) error {
	httpErr := &HTTPError{StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
	if readErr != nil {
		httpErr.Message = fmt.Sprintf("failed to read body: %v", readErr)
		return httpErr
	}
	var apiErr struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(respBody, &apiErr) == nil {
		switch {
		case apiErr.Error != "":
			httpErr.Message = apiErr.Error
		case apiErr.Message != "":
			httpErr.Message = apiErr.Message
		}
		if httpErr.Message != "" {
			return httpErr
		}
	}
	httpErr.Message = strings.TrimSpace(string(respBody))
	return httpErr
}
