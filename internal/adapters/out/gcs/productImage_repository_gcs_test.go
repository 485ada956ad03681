package gcs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductImageRepositoryGCS_ObjectPath(t *testing.T) {
	r := NewProductImageRepositoryGCS(nil, " herz-images ")
	r.now = func() time.Time { return time.Date(2026, 2, 3, 23, 30, 0, 0, time.FixedZone("AST", 3*3600)) }
	r.newID = func() string { return "abc" }

	tests := []struct {
		name, file, mime, want string
	}{
		{"keeps file extension", "Rose.PNG", "image/png", "products/20260203/abc.png"},
		{"extension from mime", "blob", "image/webp", "products/20260203/abc.webp"},
		{"unknown mime", "blob", "application/x-thing", "products/20260203/abc"},
		{"separators in name", "../../etc/x.jpg", "", "products/20260203/abc.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.ObjectPath(tt.file, tt.mime))
		})
	}
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://storage.googleapis.com/b/products/x.png", publicURL("", "b", "/products/x.png"))
	assert.Equal(t, "https://cdn.example/b/o", publicURL("https://cdn.example/", "b", "o"))
}

func TestUploadProductImage_RequiresClient(t *testing.T) {
	_, err := NewProductImageRepositoryGCS(nil, "b").UploadProductImage(context.Background(), "a.png", "image/png", []byte{1})
	require.Error(t, err)
}
