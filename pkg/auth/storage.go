package auth

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const avatarBucket = "avatars"

// AvatarPath is the object path of a user's avatar inside the avatar bucket.
func AvatarPath(userID string) string {
	return url.PathEscape(userID) + "/avatar/avatar.png"
}

// PublicURL returns the public URL of an object in the avatar bucket.
func (p *Provider) PublicURL(objectPath string) string {
	return p.baseURL + "/storage/v1/object/public/" + avatarBucket + "/" + objectPath
}

// UploadAvatar stores data as the user's avatar, replacing any previous one,
// and returns its public URL. data must sniff as an image.
func (p *Provider) UploadAvatar(ctx context.Context, userID string, data []byte) (string, error) {
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("auth.UploadAvatar: %w (got %s)", ErrNotImage, mt.String())
	}
	token, err := p.AccessToken(ctx)
	if err != nil {
		return "", fmt.Errorf("auth.UploadAvatar: %w", err)
	}

	objectPath := AvatarPath(userID)
	endpoint := p.baseURL + "/storage/v1/object/" + avatarBucket + "/" + objectPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("auth.UploadAvatar: create request: %w", err)
	}
	p.setHeaders(req, token)
	req.Header.Set("Content-Type", mt.String())
	req.Header.Set("x-upsert", "true")
	if err := p.send(req, nil); err != nil {
		return "", fmt.Errorf("auth.UploadAvatar: %w", err)
	}
	return p.PublicURL(objectPath), nil
}
