package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// maxAvatarBytes caps avatar uploads.
const maxAvatarBytes = 5 << 20

var (
	errAvatarIsDir    = errors.New("avatar: path is a directory")
	errAvatarTooLarge = fmt.Errorf("avatar: file is larger than %d MB", maxAvatarBytes>>20)
)

// readAvatar loads an avatar file from fs, expanding a leading ~.
func readAvatar(fs afero.Fs, path string) ([]byte, error) {
	path = strings.TrimSpace(path)
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	info, err := fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("avatar: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s", errAvatarIsDir, path)
	}
	if info.Size() > maxAvatarBytes {
		return nil, errAvatarTooLarge
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("avatar: %w", err)
	}
	return data, nil
}

// uploadAvatarFile reads path and stores it as userID's avatar, returning the public URL.
func uploadAvatarFile(ctx context.Context, e env, userID, path string) (string, error) {
	data, err := readAvatar(e.Fs, path)
	if err != nil {
		return "", err
	}
	return e.Auth.UploadAvatar(ctx, userID, data)
}
