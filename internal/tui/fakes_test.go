package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"

	"github.com/naveenspark/taskboard/internal/config"
	"github.com/naveenspark/taskboard/internal/store"
	"github.com/naveenspark/taskboard/pkg/auth"
	"github.com/naveenspark/taskboard/pkg/client"
	"github.com/naveenspark/taskboard/pkg/domain"
)

var errBoom = errors.New("boom")

// fakeAPI records calls and serves canned responses.
type fakeAPI struct {
	mu sync.Mutex

	boards        []domain.Board
	listBoardsErr error
	createBoard   []client.CreateBoardRequest
	createErr     error
	deleteBoard   []string
	deleteErr     error

	role    domain.Role
	members []domain.BoardMember

	tasks       []domain.Task
	tasksErr    error
	listTasks   int
	createTask  []client.TaskRequest
	updateTask  []client.TaskRequest
	updateErr   error
	deleteTask  []string
	deleteTErr  error
	profiles    map[string]*domain.Profile
	profileErr  error
	saveProfile []client.UpdateProfileRequest

	keys []string
}

func (f *fakeAPI) key(ctx context.Context) {
	f.keys = append(f.keys, client.IdempotencyKeyFrom(ctx))
}

func (f *fakeAPI) ListBoards(context.Context) ([]domain.Board, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listBoardsErr != nil {
		return nil, f.listBoardsErr
	}
	return append([]domain.Board(nil), f.boards...), nil
}

func (f *fakeAPI) CreateBoard(ctx context.Context, req client.CreateBoardRequest) (*domain.Board, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.key(ctx)
	f.createBoard = append(f.createBoard, req)
	if f.createErr != nil {
		return nil, f.createErr
	}
	b := domain.Board{ID: "b-new", Name: req.Name, Description: req.Description}
	f.boards = append(f.boards, b)
	return &b, nil
}

func (f *fakeAPI) DeleteBoard(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.key(ctx)
	f.deleteBoard = append(f.deleteBoard, id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, b := range f.boards {
		if b.ID == id {
			f.boards = append(f.boards[:i], f.boards[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeAPI) ListBoardMembers(context.Context, string) ([]domain.BoardMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members, nil
}

func (f *fakeAPI) GetBoardRole(context.Context, string) (domain.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.role, nil
}

func (f *fakeAPI) ListTasks(context.Context, string) ([]domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listTasks++
	if f.tasksErr != nil {
		return nil, f.tasksErr
	}
	return append([]domain.Task(nil), f.tasks...), nil
}

func (f *fakeAPI) CreateTask(ctx context.Context, boardID string, req client.TaskRequest) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.key(ctx)
	f.createTask = append(f.createTask, req)
	t := domain.Task{ID: "t-new", BoardID: boardID, Title: req.Title, Description: req.Description, Status: domain.StatusTodo}
	f.tasks = append(f.tasks, t)
	return &t, nil
}

func (f *fakeAPI) UpdateTask(ctx context.Context, boardID, taskID string, req client.TaskRequest) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.key(ctx)
	f.updateTask = append(f.updateTask, req)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	t := domain.Task{ID: taskID, BoardID: boardID, Title: req.Title, Description: req.Description, Status: req.Status}
	return &t, nil
}

func (f *fakeAPI) DeleteTask(ctx context.Context, _, taskID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.key(ctx)
	f.deleteTask = append(f.deleteTask, taskID)
	return f.deleteTErr
}

func (f *fakeAPI) GetProfile(_ context.Context, id string) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	if p, ok := f.profiles[id]; ok {
		cp := *p
		return &cp, nil
	}
	return &domain.Profile{ID: id}, nil
}

func (f *fakeAPI) UpdateProfile(ctx context.Context, id string, req client.UpdateProfileRequest) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.key(ctx)
	f.saveProfile = append(f.saveProfile, req)
	return &domain.Profile{ID: id, FirstName: req.FirstName, LastName: req.LastName, AvatarURL: req.AvatarURL}, nil
}

// fakeAuth is an in-memory auth provider.
type fakeAuth struct {
	mu sync.Mutex

	session    *domain.Session
	sessionErr error
	signInErr  error
	signUpErr  error
	resetErr   error
	verifyErr  error
	updateErr  error

	signIns     int
	signUps     int
	resets      []string
	signOuts    int
	passwords   []string
	redirects   []string
	uploads     []string
	subscribers []chan auth.Event
}

func (f *fakeAuth) SignUp(_ context.Context, _, _, redirectTo string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signUps++
	f.redirects = append(f.redirects, redirectTo)
	return f.signUpErr
}

func (f *fakeAuth) SignIn(_ context.Context, email, _ string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signIns++
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	f.session = &domain.Session{UserID: "u1", Email: email, AccessToken: "tok"}
	return f.session, nil
}

func (f *fakeAuth) SignOut(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOuts++
	f.session = nil
	return nil
}

func (f *fakeAuth) Session(context.Context) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session, f.sessionErr
}

func (f *fakeAuth) User(context.Context) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session == nil {
		return nil, auth.ErrNoSession
	}
	return &auth.User{ID: f.session.UserID, Email: f.session.Email}, nil
}

func (f *fakeAuth) ResetPasswordForEmail(_ context.Context, email, redirectTo string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, email)
	f.redirects = append(f.redirects, redirectTo)
	return f.resetErr
}

func (f *fakeAuth) VerifyRecoveryLink(context.Context, string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	f.session = &domain.Session{UserID: "u1", AccessToken: "recovery"}
	return f.session, nil
}

func (f *fakeAuth) UpdatePassword(_ context.Context, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.passwords = append(f.passwords, password)
	return f.updateErr
}

func (f *fakeAuth) UploadAvatar(_ context.Context, userID string, _ []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, userID)
	return "https://cdn.test/" + userID + "/avatar/avatar.png", nil
}

func (f *fakeAuth) Subscribe() (<-chan auth.Event, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan auth.Event, 1)
	f.subscribers = append(f.subscribers, ch)
	var once sync.Once
	return ch, func() { once.Do(func() { close(ch) }) }
}

func signedIn() *fakeAuth {
	return &fakeAuth{session: &domain.Session{UserID: "u1", Email: "ada@example.com", AccessToken: "tok"}}
}

func testDeps(api *fakeAPI, au *fakeAuth) Deps {
	log, _ := test.NewNullLogger()
	return Deps{
		API:         api,
		Auth:        au,
		Session:     store.NewSessionStore(nil, log),
		Boards:      store.NewBoardStore(nil, log),
		Fs:          afero.NewMemMapFs(),
		Log:         log,
		RedirectURL: (&config.Config{SiteURL: "https://app.test"}).RedirectURL,
		Now:         func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	}.withDefaults()
}

func testEnv(api *fakeAPI, au *fakeAuth) env {
	d := testDeps(api, au)
	return env{Deps: d, scope: newScope(1), log: d.Log, size: tea.WindowSizeMsg{Width: 100, Height: 30}}
}

// exec runs cmd and returns the messages it produced, flattening batches and
// unwrapping scoped results. Commands that block (ticks, event waits) are
// abandoned after a short wait.
func exec(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	var msg tea.Msg
	select {
	case msg = <-done:
	case <-time.After(200 * time.Millisecond):
		return nil
	}
	switch m := msg.(type) {
	case nil:
		return nil
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range m {
			out = append(out, exec(c)...)
		}
		return out
	case scopedMsg:
		return []tea.Msg{m.msg}
	}
	return []tea.Msg{msg}
}

// drive feeds msgs to p, then the messages its commands produce, until the
// page goes quiet. Navigation and toasts are collected instead of delivered.
func drive(t *testing.T, p page, cmd tea.Cmd) (page, []navigateMsg, []toastMsg) {
	t.Helper()
	var navs []navigateMsg
	var toasts []toastMsg
	queue := exec(cmd)
	for i := 0; len(queue) > 0; i++ {
		if i > 100 {
			t.Fatal("page did not settle")
		}
		msg := queue[0]
		queue = queue[1:]
		switch m := msg.(type) {
		case navigateMsg:
			navs = append(navs, m)
			continue
		case toastMsg:
			toasts = append(toasts, m)
			continue
		case authEventMsg:
			if m.closed {
				continue
			}
		}
		var next tea.Cmd
		p, next = p.Update(msg)
		queue = append(queue, exec(next)...)
	}
	return p, navs, toasts
}

// press sends one key to p and settles the result.
func press(t *testing.T, p page, k string) (page, []navigateMsg, []toastMsg) {
	t.Helper()
	p, cmd := p.Update(keyMsg(k))
	return drive(t, p, cmd)
}

// typeText sends each rune of s as a key.
func typeText(t *testing.T, p page, s string) page {
	t.Helper()
	for _, r := range s {
		p, _, _ = press(t, p, string(r))
	}
	return p
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	case "ctrl+f":
		return tea.KeyMsg{Type: tea.KeyCtrlF}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func lastNav(navs []navigateMsg) string {
	if len(navs) == 0 {
		return ""
	}
	return navs[len(navs)-1].path
}
