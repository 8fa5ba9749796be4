package object

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"ascend-backend/internal/shared/util"
)

// ErrInvalidKey is returned when a storage key escapes the store's root.
var ErrInvalidKey = errors.New("invalid storage key")

// Store archives uploaded documents. Keys are opaque to callers and are what
// gets recorded on insurance document rows.
type Store interface {
	Put(ctx context.Context, namespace, fileName, contentType string, data []byte) (storageKey string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}

// BuildKey derives "<hashed namespace>/<random>_<sanitized name>". The namespace
// (a subcontractor email) is hashed so keys never carry contact details.
func BuildKey(namespace, fileName string) (string, error) {
	sanitized, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", fmt.Errorf("sanitize file name: %w", err)
	}
	return path.Join(util.HashKey(namespace), randomID()+"_"+sanitized), nil
}

func randomID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
