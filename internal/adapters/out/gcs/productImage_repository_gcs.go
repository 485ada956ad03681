// internal/adapters/out/gcs/productImage_repository_gcs.go
package gcs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// ProductImageRepositoryGCS uploads admin product images.
//
// layout (single bucket):
// - objectPath: products/{yyyyMMdd}/{uuid}{ext}
//
// Public access:
//   - bucket は uniform access + "allUsers: Storage Object Viewer" 前提
//     (per-object ACL は付けない)
type ProductImageRepositoryGCS struct {
	Client *storage.Client
	Bucket string
	// Optional: if empty, uses https://storage.googleapis.com
	PublicBaseURL string

	now   func() time.Time
	newID func() string
}

func NewProductImageRepositoryGCS(client *storage.Client, bucket string) *ProductImageRepositoryGCS {
	return &ProductImageRepositoryGCS{
		Client:        client,
		Bucket:        strings.TrimSpace(bucket),
		PublicBaseURL: defaultPublicBaseURL,
		now:           time.Now,
		newID:         uuid.NewString,
	}
}

// ObjectPath returns products/{yyyyMMdd}/{id}{ext} for fileName uploaded at now.
func (r *ProductImageRepositoryGCS) ObjectPath(fileName, contentType string) string {
	day := r.now().UTC().Format("20060102")
	return "products/" + day + "/" + r.newID() + extensionFor(fileName, contentType)
}

// UploadProductImage writes data and returns its public URL.
func (r *ProductImageRepositoryGCS) UploadProductImage(ctx context.Context, fileName, contentType string, data []byte) (string, error) {
	if r == nil || r.Client == nil {
		return "", errors.New("productImage_repository_gcs: storage client is nil")
	}
	if r.Bucket == "" {
		return "", errors.New("productImage_repository_gcs: bucket is empty")
	}
	if len(data) == 0 {
		return "", errors.New("productImage_repository_gcs: empty file")
	}

	objPath := r.ObjectPath(fileName, contentType)

	w := r.Client.Bucket(r.Bucket).Object(objPath).NewWriter(ctx)
	w.ContentType = strings.TrimSpace(contentType)
	w.CacheControl = "public, max-age=31536000, immutable"
	w.Metadata = map[string]string{"originalName": sanitizePathSegment(fileName)}

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("productImage_repository_gcs: write %s: %w", objPath, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("productImage_repository_gcs: close %s: %w", objPath, err)
	}

	return publicURL(r.PublicBaseURL, r.Bucket, objPath), nil
}
