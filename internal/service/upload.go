package service

import (
	"context"
	"errors"
	"io"
	"time"

	"localmart/internal/logx"
	"localmart/internal/storage"
)

// Upload is a file received from a multipart form.
type Upload struct {
	Reader      io.Reader
	Size        int64
	ContentType string
}

const (
	imageURLExpiry    = time.Hour
	documentURLExpiry = 15 * time.Minute
)

// putObject validates and stores an upload under a fresh key for the owner.
func putObject(ctx context.Context, st storage.Storage, kind, ownerID string, up Upload) (string, error) {
	if err := storage.ValidateUpload(kind, up.ContentType, up.Size); err != nil {
		return "", invalid("%s", err.Error())
	}
	key := storage.NewKey(kind, ownerID, up.ContentType)
	if _, err := st.Put(ctx, key, up.Reader, storage.PutObjectOptions{Size: up.Size, ContentType: up.ContentType}); err != nil {
		if errors.Is(err, storage.ErrDisabled) {
			return "", badState("file uploads are not available")
		}
		return "", err
	}
	return key, nil
}

// dropObject removes an object after a failed write, logging cleanup errors.
func dropObject(ctx context.Context, st storage.Storage, log *logx.Logger, key string) {
	if key == "" {
		return
	}
	if err := st.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrDisabled) {
		log.Warn("storage", "object_cleanup_failed", err, map[string]any{"key": key})
	}
}

// presign returns a download URL or an empty string when the store cannot sign.
func presign(ctx context.Context, st storage.Storage, key string, expiry time.Duration) string {
	if key == "" || st == nil {
		return ""
	}
	u, err := st.PresignGet(ctx, key, expiry)
	if err != nil {
		return ""
	}
	return u
}
