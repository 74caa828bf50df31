package tui

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/naveenspark/taskboard/internal/store"
	"github.com/naveenspark/taskboard/pkg/auth"
	"github.com/naveenspark/taskboard/pkg/client"
	"github.com/naveenspark/taskboard/pkg/domain"
)

// API is the task-management backend as the pages use it. *client.Client satisfies it.
type API interface {
	ListBoards(ctx context.Context) ([]domain.Board, error)
	CreateBoard(ctx context.Context, req client.CreateBoardRequest) (*domain.Board, error)
	DeleteBoard(ctx context.Context, id string) error
	ListBoardMembers(ctx context.Context, boardID string) ([]domain.BoardMember, error)
	GetBoardRole(ctx context.Context, boardID string) (domain.Role, error)
	ListTasks(ctx context.Context, boardID string) ([]domain.Task, error)
	CreateTask(ctx context.Context, boardID string, req client.TaskRequest) (*domain.Task, error)
	UpdateTask(ctx context.Context, boardID, taskID string, req client.TaskRequest) (*domain.Task, error)
	DeleteTask(ctx context.Context, boardID, taskID string) error
	GetProfile(ctx context.Context, id string) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, id string, req client.UpdateProfileRequest) (*domain.Profile, error)
}

// Auth is the hosted auth provider. *auth.Provider satisfies it.
type Auth interface {
	SignUp(ctx context.Context, email, password, redirectTo string) error
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
	SignOut(ctx context.Context) error
	Session(ctx context.Context) (*domain.Session, error)
	User(ctx context.Context) (*auth.User, error)
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	VerifyRecoveryLink(ctx context.Context, link string) (*domain.Session, error)
	UpdatePassword(ctx context.Context, password string) error
	UploadAvatar(ctx context.Context, userID string, data []byte) (string, error)
	Subscribe() (<-chan auth.Event, func())
}

var (
	_ API  = (*client.Client)(nil)
	_ Auth = (*auth.Provider)(nil)
)

// Deps is everything the TUI needs from the outside world.
type Deps struct {
	API     API
	Auth    Auth
	Session *store.SessionStore
	Boards  *store.BoardStore
	Fs      afero.Fs // avatar files are read from here
	Log     logrus.FieldLogger
	// RedirectURL turns a route into the link sent in sign-up and reset emails.
	RedirectURL func(route string) string
	OpenURL     func(string) error
	CopyText    func(string) error
	Now         func() time.Time
	Version     string // running build; "dev" skips the release check

	// PersistDrag sends a task's new column to the API after a drag.
	PersistDrag bool
}

func (d Deps) withDefaults() Deps {
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	if d.Session == nil {
		d.Session = store.NewSessionStore(nil, d.Log)
	}
	if d.Boards == nil {
		d.Boards = store.NewBoardStore(nil, d.Log)
	}
	if d.Fs == nil {
		d.Fs = afero.NewOsFs()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.OpenURL == nil {
		d.OpenURL = func(string) error { return nil }
	}
	if d.CopyText == nil {
		d.CopyText = func(string) error { return nil }
	}
	return d
}

func (d Deps) redirect(route string) string {
	if d.RedirectURL == nil {
		return ""
	}
	return d.RedirectURL(route)
}
