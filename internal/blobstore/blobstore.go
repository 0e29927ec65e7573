// Package blobstore keeps uploaded files behind opaque ids.
package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
)

func newBlob(in domain.BlobUpload) domain.Blob {
	sum := sha256.Sum256(in.Data)

	return domain.Blob{
		ID:        uuid.NewString(),
		Name:      in.Name,
		MimeType:  in.MimeType,
		Size:      int64(len(in.Data)),
		Digest:    hex.EncodeToString(sum[:]),
		OwnerID:   in.OwnerID,
		EventID:   in.EventID,
		CreatedAt: time.Now().UTC(),
	}
}

// storageErr keeps not-found errors as they are and marks everything else as a store outage.
func storageErr(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrBlobStore) {
		return err
	}

	return fmt.Errorf("%s -> %w: %w", op, domain.ErrBlobStore, err)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, d)
}
