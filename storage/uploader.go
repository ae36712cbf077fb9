package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
	GetPublicURL(key string) string
}

// ResultImageKey is the object key for a run's rendered result image.
func ResultImageKey(poolSlug string, runID uint) string {
	poolSlug = strings.Trim(poolSlug, "/")
	if poolSlug == "" {
		poolSlug = "pool"
	}
	return path.Join("results", poolSlug, fmt.Sprintf("%d-%s.jpg", runID, uuid.NewString()))
}
