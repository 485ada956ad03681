// internal/adapters/out/gcs/helper_repository_gcs.go
package gcs

import (
	"fmt"
	"path"
	"strings"
)

const defaultPublicBaseURL = "https://storage.googleapis.com"

// sanitizePathSegment normalizes a path segment for GCS object paths.
// - removes separators
// - trims dots/spaces
func sanitizePathSegment(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.Trim(s, ". ")
	return s
}

// extensionFor returns ".png" style extension: the file name's own if it has one,
// otherwise one derived from the MIME type ("" when unknown).
func extensionFor(fileName, mime string) string {
	if ext := strings.ToLower(path.Ext(sanitizePathSegment(fileName))); ext != "" && ext != "." {
		return ext
	}

	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	case "image/avif":
		return ".avif"
	case "image/svg+xml":
		return ".svg"
	default:
		return ""
	}
}

// publicURL builds https://storage.googleapis.com/<bucket>/<object>.
func publicURL(baseURL, bucket, objectPath string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = defaultPublicBaseURL
	}
	obj := strings.TrimLeft(strings.TrimSpace(objectPath), "/")
	return fmt.Sprintf("%s/%s/%s", base, strings.TrimSpace(bucket), obj)
}
