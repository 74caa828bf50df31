package tui

import "strings"

type routeName int

const (
	routeHome routeName = iota
	routeLogin
	routeSignUp
	routeForgot
	routeReset
	routeWelcome
	routeDashboard
	routeProfile
	routeBoard
	routeNotFound
)

type route struct {
	name    routeName
	path    string
	id      string // profile id, or board id on /board/:id
	boardID string
}

// parseRoute maps a path onto a route. Unknown paths land on routeNotFound.
func parseRoute(path string) route {
	clean := "/" + strings.Trim(path, "/")
	r := route{name: routeNotFound, path: clean}
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 1 && parts[0] == "" {
		parts = nil
	}

	switch len(parts) {
	case 0:
		r.name = routeHome
	case 1:
		switch parts[0] {
		case "login":
			r.name = routeLogin
		case "sign-up":
			r.name = routeSignUp
		case "forgot-password":
			r.name = routeForgot
		case "reset-password":
			r.name = routeReset
		case "welcome":
			r.name = routeWelcome
		case "dashboard":
			r.name = routeDashboard
		}
	case 2:
		switch parts[0] {
		case "profile":
			r.name, r.id = routeProfile, parts[1]
		case "board":
			r.name, r.boardID = routeBoard, parts[1]
		}
	case 3:
		if parts[0] == "profile" {
			r.name, r.id, r.boardID = routeBoard, parts[1], parts[2]
		}
	}
	return r
}

// protected reports whether the route needs a session.
func (r route) protected() bool {
	switch r.name {
	case routeWelcome, routeDashboard, routeProfile, routeBoard:
		return true
	}
	return false
}

func boardPath(id string) string   { return "/board/" + id }
func profilePath(id string) string { return "/profile/" + id }
