package storage

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Object key prefixes, one per kind of upload.
const (
	KindProduct  = "products"
	KindStore    = "stores"
	KindLicense  = "licenses"
	KindProof    = "proxy-proofs"
	KindAvatar   = "avatars"
	MaxImageSize = 5 << 20
)

var (
	ErrUnsupportedType = errors.New("unsupported content type")
	ErrTooLarge        = errors.New("file too large")
)

var imageExt = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// ValidateUpload checks the declared content type and size of an upload.
// PDFs are only accepted for license documents.
func ValidateUpload(kind, contentType string, size int64) error {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if _, ok := imageExt[ct]; !ok || (ct == "application/pdf" && kind != KindLicense) {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	if size <= 0 || size > MaxImageSize {
		return fmt.Errorf("%w: %d bytes", ErrTooLarge, size)
	}
	return nil
}

// NewKey builds a unique object key such as "products/<owner>/<uuid>.jpg".
func NewKey(kind, ownerID, contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	return path.Join(kind, ownerID, uuid.NewString()+imageExt[ct])
}
