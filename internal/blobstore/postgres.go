package blobstore

import (
	"context"
	"time"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/repository/dao"
)

type BlobDAO interface {
	Insert(ctx context.Context, blob dao.Blob) (dao.Blob, error)
	FindByID(ctx context.Context, id string) (dao.Blob, error)
	FindWithData(ctx context.Context, id string) (dao.Blob, error)
	Delete(ctx context.Context, id string) error
}

// Postgres stores blobs in the blobs table.
type Postgres struct {
	dao     BlobDAO
	timeout time.Duration
}

func NewPostgres(dao BlobDAO, timeout time.Duration) *Postgres {
	return &Postgres{
		dao:     dao,
		timeout: timeout,
	}
}

func (s *Postgres) Put(ctx context.Context, in domain.BlobUpload) (domain.Blob, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	b := newBlob(in)
	if _, err := s.dao.Insert(ctx, dao.Blob{
		ID:        b.ID,
		Name:      b.Name,
		MimeType:  b.MimeType,
		Size:      b.Size,
		Digest:    b.Digest,
		OwnerID:   b.OwnerID,
		EventID:   b.EventID,
		Data:      in.Data,
		CreatedAt: b.CreatedAt,
	}); err != nil {
		return domain.Blob{}, storageErr("s.dao.Insert", err)
	}

	return b, nil
}

func (s *Postgres) Stat(ctx context.Context, id string) (domain.Blob, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	found, err := s.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Blob{}, storageErr("s.dao.FindByID", err)
	}

	return daoToDomain(found), nil
}

func (s *Postgres) Get(ctx context.Context, id string) (domain.Blob, []byte, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	found, err := s.dao.FindWithData(ctx, id)
	if err != nil {
		return domain.Blob{}, nil, storageErr("s.dao.FindWithData", err)
	}

	return daoToDomain(found), found.Data, nil
}

func (s *Postgres) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.dao.Delete(ctx, id); err != nil {
		return storageErr("s.dao.Delete", err)
	}

	return nil
}

func daoToDomain(b dao.Blob) domain.Blob {
	return domain.Blob{
		ID:        b.ID,
		Name:      b.Name,
		MimeType:  b.MimeType,
		Size:      b.Size,
		Digest:    b.Digest,
		OwnerID:   b.OwnerID,
		EventID:   b.EventID,
		CreatedAt: b.CreatedAt,
	}
}
