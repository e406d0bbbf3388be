package storage

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

type MediaKind string

const (
	KindImage MediaKind = "image"
	KindVideo MediaKind = "video"
)

var (
	ErrUnsupportedKind        = errors.New("unsupported media kind")
	ErrUnsupportedContentType = errors.New("unsupported content type")
)

var allowedContentTypes = map[MediaKind]map[string]bool{
	KindImage: {"image/jpeg": true, "image/png": true, "image/gif": true, "image/webp": true},
	KindVideo: {"video/mp4": true, "video/quicktime": true, "video/webm": true},
}

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9.\-]`)

// ValidateUpload checks that contentType is accepted for kind.
func ValidateUpload(kind MediaKind, contentType string) error {
	allowed, ok := allowedContentTypes[kind]
	if !ok {
		return ErrUnsupportedKind
	}
	if !allowed[strings.ToLower(contentType)] {
		return fmt.Errorf("%w: %s", ErrUnsupportedContentType, contentType)
	}
	return nil
}

// SanitizeFileName replaces anything outside [a-zA-Z0-9.-] with '_'.
func SanitizeFileName(name string) string {
	return unsafeFileChars.ReplaceAllString(name, "_")
}

// ObjectKey builds "{kind}s/{userID}/{millis}-{random}-{file}".
func ObjectKey(kind MediaKind, userID uint, fileName string, now time.Time) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%ss/%d/%d-%s-%s", kind, userID, now.UnixMilli(), random, SanitizeFileName(fileName))
}
