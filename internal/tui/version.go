package tui

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// releaseURL is the latest-release endpoint polled at startup.
var releaseURL = "https://api.github.com/repos/naveenspark/taskboard/releases/latest"

// versionCheckMsg carries the result of a background release check.
type versionCheckMsg struct {
	latest string
}

// checkVersion asks GitHub whether a newer release exists. Dev builds skip
// the check. Failures are silent.
func checkVersion(current string) tea.Cmd {
	if current == "" || current == "dev" {
		return nil
	}
	url := releaseURL
	return func() tea.Msg {
		c := &http.Client{Timeout: 5 * time.Second}
		resp, err := c.Get(url)
		if err != nil {
			return versionCheckMsg{}
		}
		defer resp.Body.Close() //nolint:errcheck
		if resp.StatusCode != http.StatusOK {
			return versionCheckMsg{}
		}
		var release struct {
			TagName string `json:"tag_name"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
			return versionCheckMsg{}
		}
		if IsNewerVersion(release.TagName, current) {
			return versionCheckMsg{latest: "v" + strings.TrimPrefix(release.TagName, "v")}
		}
		return versionCheckMsg{}
	}
}

// IsNewerVersion reports whether latest is a newer semver than current.
func IsNewerVersion(latest, current string) bool {
	lMaj, lMin, lPatch := parseVersion(latest)
	cMaj, cMin, cPatch := parseVersion(current)
	if lMaj != cMaj {
		return lMaj > cMaj
	}
	if lMin != cMin {
		return lMin > cMin
	}
	return lPatch > cPatch
}

func parseVersion(v string) (maj, min, patch int) {
	parts := strings.SplitN(strings.TrimPrefix(v, "v"), ".", 3)
	atoi := func(s string) int {
		n, _ := strconv.Atoi(s) //nolint:errcheck
		return n
	}
	if len(parts) > 0 {
		maj = atoi(parts[0])
	}
	if len(parts) > 1 {
		min = atoi(parts[1])
	}
	if len(parts) > 2 {
		patch = atoi(parts[2])
	}
	return maj, min, patch
}
