package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/naveenspark/taskboard/pkg/domain"
)

// chromeLines is the header(1) + spacer(1) + toast(1) + help(1) budget.
const chromeLines = 4

// loggedOutMsg reports that the header's logout finished.
type loggedOutMsg struct{}

// App is the root Bubbletea model. It owns routing, page lifetimes and the
// shared chrome.
type App struct {
	deps     Deps
	route    route
	page     page
	scope    scope
	scopeSeq uint64
	toast    toast
	toastSeq int
	width    int
	height   int
	frame    int    // logo shimmer animation frame
	latest   string // newer release, if any
}

// NewApp creates the TUI application and mounts the start route.
func NewApp(d Deps, start string) App {
	a := App{deps: d.withDefaults()}
	a.mount(parseRoute(start))
	return a
}

// mount tears down the current page and builds the page for r under a fresh scope.
func (a *App) mount(r route) {
	if a.page != nil {
		if u, ok := a.page.(unmounter); ok {
			u.unmount()
		}
	}
	a.scope.close()
	a.scopeSeq++
	a.scope = newScope(a.scopeSeq)
	a.route = r

	e := env{
		Deps:  a.deps,
		scope: a.scope,
		size:  tea.WindowSizeMsg{Width: a.width, Height: a.height - chromeLines},
	}
	a.page = buildPage(r, e)
	a.deps.Log.WithField("route", r.path).Debug("mounted")
}

func buildPage(r route, e env) page {
	switch r.name {
	case routeHome:
		return homeModel{env: e.forPage("home")}
	case routeLogin:
		return newLoginModel(e.forPage("login"))
	case routeSignUp:
		return newSignUpModel(e.forPage("sign-up"))
	case routeForgot:
		return newForgotModel(e.forPage("forgot-password"))
	case routeReset:
		return newResetModel(e.forPage("reset-password"))
	case routeWelcome:
		return newGuard(e.forPage("welcome"), func(e env, s *domain.Session) page {
			return newWelcomeModel(e, s)
		})
	case routeDashboard:
		return newGuard(e.forPage("dashboard"), func(e env, s *domain.Session) page {
			return newDashboardModel(e, s)
		})
	case routeProfile:
		id := r.id
		return newGuard(e.forPage("profile"), func(e env, s *domain.Session) page {
			return newProfileModel(e, s, id)
		})
	case routeBoard:
		id := r.boardID
		return newGuard(e.forPage("board"), func(e env, s *domain.Session) page {
			return newBoardPage(e, s, id)
		})
	}
	return notFoundModel{path: r.path}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(a.page.Init(), shimmerTickCmd(), checkVersion(a.deps.Version))
}

// Close releases the mounted page. Call it after the program exits.
func (a App) Close() {
	if u, ok := a.page.(unmounter); ok {
		u.unmount()
	}
	a.scope.close()
}

func (a App) logout() tea.Cmd {
	au, log := a.deps.Auth, a.deps.Log
	return func() tea.Msg {
		if err := au.SignOut(context.Background()); err != nil {
			log.WithError(err).Warn("sign out")
		}
		return loggedOutMsg{}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		var cmd tea.Cmd
		a.page, cmd = a.page.Update(tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - chromeLines})
		return a, cmd

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case navigateMsg:
		r := parseRoute(msg.path)
		if r.path == a.route.path {
			return a, nil
		}
		a.mount(r)
		return a, a.page.Init()

	case scopedMsg:
		if msg.scope != a.scope.id {
			a.deps.Log.WithField("msg", fmt.Sprintf("%T", msg.msg)).Debug("dropped result from unmounted page")
			return a, nil
		}
		var cmd tea.Cmd
		a.page, cmd = a.page.Update(msg.msg)
		return a, cmd

	case versionCheckMsg:
		a.latest = msg.latest
		return a, nil

	case toastMsg:
		a.toastSeq++
		a.toast = toast{id: a.toastSeq, kind: msg.kind, text: msg.text}
		return a, expireToast(a.toastSeq)

	case toastExpiredMsg:
		if msg.id == a.toast.id {
			a.toast = toast{}
		}
		return a, nil

	case loggedOutMsg:
		a.deps.Session.Clear()
		a.deps.Boards.Clear()
		return a, navigate("/login")

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		}
		if !a.page.capturing() {
			switch msg.String() {
			case "q":
				return a, tea.Quit
			case "L":
				if a.route.protected() {
					return a, a.logout()
				}
			}
		}
	}

	var cmd tea.Cmd
	a.page, cmd = a.page.Update(msg)
	return a, cmd
}

func (a App) View() string {
	header := " " + renderShimmerLogo(a.frame)
	if a.latest != "" {
		header += "  " + accentStyle.Render(a.latest+" available")
	}
	if a.route.protected() {
		st, _ := a.deps.Session.Snapshot()
		if st.Email != "" {
			right := dimStyle.Render(st.Email) + "  " + helpEntry("L", "logout")
			gap := a.width - lipgloss.Width(header) - lipgloss.Width(right) - 1
			if gap < 2 {
				gap = 2
			}
			header += strings.Repeat(" ", gap) + right
		}
	}

	body := a.page.View()
	if a.height > 0 {
		body = truncateToHeight(body, a.height-chromeLines)
	}
	body = strings.TrimRight(body, "\n")

	help := " " + a.page.helpKeys()
	return fmt.Sprintf("%s\n\n%s\n%s\n%s", header, body, a.toast.View(), help)
}
