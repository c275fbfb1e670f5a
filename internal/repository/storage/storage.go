package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
)

// AvatarURLExpiry is how long a presigned avatar URL stays valid
const AvatarURLExpiry = time.Hour

// ObjectStore defines the interface for binary object storage
type ObjectStore interface {
	// Upload stores data and returns the object path
	Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error)
	Delete(ctx context.Context, objectPath string) error
	// URL returns a URL the client can fetch the object from
	URL(ctx context.Context, objectPath string) (string, error)
}

// AvatarObjectPath creates a unique object path for a user avatar
func AvatarObjectPath(userID uuid.UUID) string {
	return path.Join("avatars", userID.String(), uuid.New().String()+".jpg")
}

// sizedReader buffers data when the size is unknown
func sizedReader(data io.Reader, size int64) (io.Reader, int64, error) {
	if size >= 0 {
		return data, size, nil
	}
	buf, err := io.ReadAll(data)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read data: %w", err)
	}
	return bytes.NewReader(buf), int64(len(buf)), nil
}
