package tui

import (
	"strings"
	"testing"

	"github.com/naveenspark/taskboard/pkg/client"
	"github.com/naveenspark/taskboard/pkg/domain"
)

func loadedDashboard(t *testing.T, api *fakeAPI) (page, env) {
	t.Helper()
	au := signedIn()
	e := testEnv(api, au)
	m := newDashboardModel(e, au.session)
	p, _, _ := drive(t, m, m.Init())
	return p, e
}

func TestDashboardLoadsBoardsIntoStore(t *testing.T) {
	api := &fakeAPI{boards: []domain.Board{{ID: "b1", Name: "Backlog"}, {ID: "b2", Name: "Sprint"}}}
	p, e := loadedDashboard(t, api)

	if got := len(e.Boards.Boards()); got != 2 {
		t.Errorf("expected 2 boards in store, got %d", got)
	}
	view := p.View()
	for _, name := range []string{"Backlog", "Sprint"} {
		if !strings.Contains(view, name) {
			t.Errorf("expected %q in view", name)
		}
	}
}

func TestDashboardEmptyState(t *testing.T) {
	p, _ := loadedDashboard(t, &fakeAPI{})
	if !strings.Contains(p.View(), "no boards yet") {
		t.Errorf("expected empty state, got %q", p.View())
	}
}

func TestDashboardCreateBoardAppearsAfterRefetch(t *testing.T) {
	api := &fakeAPI{}
	p, e := loadedDashboard(t, api)

	p, _, _ = press(t, p, "n")
	if !p.capturing() {
		t.Fatal("expected create dialog to capture keys")
	}
	p = typeText(t, p, "Sprint 1")
	p, _, _ = press(t, p, "tab")
	p, _, toasts := press(t, p, "enter")

	if len(api.createBoard) != 1 {
		t.Fatalf("expected one create call, got %d", len(api.createBoard))
	}
	if got := api.createBoard[0]; got != (client.CreateBoardRequest{Name: "Sprint 1", Description: ""}) {
		t.Errorf("unexpected create payload %+v", got)
	}
	if api.keys[0] == "" {
		t.Error("expected an idempotency key on create")
	}
	if len(toasts) != 1 || toasts[0].kind != toastSuccess {
		t.Errorf("expected success toast, got %v", toasts)
	}
	if p.capturing() {
		t.Error("expected dialog closed after create")
	}
	if _, ok := e.Boards.GetBoardByID("b-new"); !ok {
		t.Error("expected created board in store after refetch")
	}
	if !strings.Contains(p.View(), "Sprint 1") {
		t.Error("expected new board in list")
	}
}

func TestDashboardCreateRequiresName(t *testing.T) {
	api := &fakeAPI{}
	p, _ := loadedDashboard(t, api)

	p, _, _ = press(t, p, "n")
	p, _, _ = press(t, p, "tab")
	p, _, _ = press(t, p, "enter")
	if len(api.createBoard) != 0 {
		t.Errorf("expected no create call, got %d", len(api.createBoard))
	}
	if !strings.Contains(p.View(), "name is required") {
		t.Errorf("expected validation text, got %q", p.View())
	}
}

func TestDashboardCreateFailureKeepsDialog(t *testing.T) {
	api := &fakeAPI{createErr: &client.HTTPError{StatusCode: 500, Status: "500 Internal Server Error", Message: "db down"}}
	p, _ := loadedDashboard(t, api)

	p, _, _ = press(t, p, "n")
	p = typeText(t, p, "Sprint 1")
	p, _, _ = press(t, p, "tab")
	p, _, _ = press(t, p, "enter")
	if !p.capturing() {
		t.Error("expected dialog to stay open on failure")
	}
	if !strings.Contains(p.View(), "500") {
		t.Errorf("expected status code in error, got %q", p.View())
	}
}

func TestDashboardDeleteBoard(t *testing.T) {
	tests := []struct {
		name      string
		deleteErr error
		wantKind  toastKind
		wantLeft  int
	}{
		{"success", nil, toastSuccess, 1},
		{"failure", errBoom, toastError, 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			api := &fakeAPI{
				boards:    []domain.Board{{ID: "b1", Name: "Backlog"}, {ID: "b2", Name: "Sprint"}},
				deleteErr: tc.deleteErr,
			}
			p, e := loadedDashboard(t, api)

			p, _, _ = press(t, p, "d")
			if !strings.Contains(p.View(), "Delete \"Backlog\"") {
				t.Fatalf("expected confirmation, got %q", p.View())
			}
			p, _, toasts := press(t, p, "y")

			if len(api.deleteBoard) != 1 || api.deleteBoard[0] != "b1" {
				t.Errorf("expected delete of b1, got %v", api.deleteBoard)
			}
			if len(toasts) != 1 || toasts[0].kind != tc.wantKind {
				t.Errorf("expected toast kind %d, got %v", tc.wantKind, toasts)
			}
			if got := len(e.Boards.Boards()); got != tc.wantLeft {
				t.Errorf("expected %d boards left, got %d", tc.wantLeft, got)
			}
			if strings.Contains(p.View(), "Delete \"") {
				t.Error("expected confirmation closed")
			}
		})
	}
}

func TestDashboardDeleteCancel(t *testing.T) {
	api := &fakeAPI{boards: []domain.Board{{ID: "b1", Name: "Backlog"}}}
	p, _ := loadedDashboard(t, api)

	p, _, _ = press(t, p, "d")
	press(t, p, "n")
	if len(api.deleteBoard) != 0 {
		t.Errorf("expected no delete call, got %v", api.deleteBoard)
	}
}

func TestDashboardNavigation(t *testing.T) {
	api := &fakeAPI{boards: []domain.Board{{ID: "b1", Name: "Backlog"}, {ID: "b2", Name: "Sprint"}}}
	p, _ := loadedDashboard(t, api)

	p, _, _ = press(t, p, "j")
	_, navs, _ := press(t, p, "enter")
	if got := lastNav(navs); got != "/board/b2" {
		t.Errorf("expected /board/b2, got %q", got)
	}
	_, navs, _ = press(t, p, "p")
	if got := lastNav(navs); got != "/profile/u1" {
		t.Errorf("expected /profile/u1, got %q", got)
	}
}

func TestDashboardListFailure(t *testing.T) {
	p, _ := loadedDashboard(t, &fakeAPI{listBoardsErr: client.ErrUnauthenticated})
	if !strings.Contains(p.View(), msgSessionExpired) {
		t.Errorf("expected session expired text, got %q", p.View())
	}
}
