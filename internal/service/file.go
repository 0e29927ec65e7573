package service

import (
	"context"
	"fmt"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
)

type FileService struct {
	blobs  BlobStore
	events EventRepository
}

func NewFileService(blobs BlobStore, events EventRepository) *FileService {
	return &FileService{
		blobs:  blobs,
		events: events,
	}
}

// Download returns a stored file to its owner, the organizer of its event or an admin.
func (s *FileService) Download(ctx context.Context, caller domain.Identity, fileID string) (domain.Blob, []byte, error) {
	blob, data, err := s.blobs.Get(ctx, fileID)
	if err != nil {
		return domain.Blob{}, nil, fmt.Errorf("s.blobs.Get -> %w", err)
	}

	if blob.OwnerID == caller.UserID || caller.IsAdmin() {
		return blob, data, nil
	}

	ev, err := s.events.FindByID(ctx, blob.EventID)
	if err != nil {
		return domain.Blob{}, nil, fmt.Errorf("s.events.FindByID -> %w", err)
	}
	if !caller.CanManage(ev) {
		return domain.Blob{}, nil, domain.ErrNotRecordOwner
	}

	return blob, data, nil
}
