package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/taskman-io/apiserver/internal/storage"
	"github.com/taskman-io/apiserver/internal/store"
	"github.com/taskman-io/apiserver/types"
)

// AttachmentRepository defines persistence operations for attachment
// metadata.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment types.Attachment) (types.Attachment, error)
	ListForTask(ctx context.Context, taskID int) ([]types.Attachment, error)
	GetByID(ctx context.Context, attachmentID, taskID int) (types.Attachment, error)
	Delete(ctx context.Context, attachmentID, taskID int) error
}

// TaskLookup is the capability the attachment service needs from the
// task side, implemented by TaskService.
type TaskLookup interface {
	GetAny(ctx context.Context, taskID int) (types.Task, error)
}

// AttachmentService stores attachment bytes in the object store and
// their metadata in the attachment repository.
type AttachmentService struct {
	repo    AttachmentRepository
	tasks   TaskLookup
	objects storage.ObjectStore
}

func NewAttachmentService(repo AttachmentRepository, tasks TaskLookup, objects storage.ObjectStore) *AttachmentService {
	return &AttachmentService{repo: repo, tasks: tasks, objects: objects}
}

// Upload writes the attachment bytes under a task-scoped key, then
// records the metadata row. On a metadata failure the stored object is
// removed so no orphan bytes are left behind.
func (s *AttachmentService) Upload(ctx context.Context, taskID int, filename, contentType string, r io.Reader, size int64) (types.Attachment, error) {
	task, err := s.tasks.GetAny(ctx, taskID)
	if err != nil {
		return types.Attachment{}, err
	}

	key := fmt.Sprintf("tasks/%d/%s", task.ID, newObjectID())
	if err := s.objects.Put(ctx, key, r, size, contentType); err != nil {
		return types.Attachment{}, err
	}

	attachment, err := s.repo.Create(ctx, types.Attachment{
		TaskID:      task.ID,
		Filename:    filename,
		ContentType: contentType,
		Size:        size,
		ObjectKey:   key,
	})
	if err != nil {
		_ = s.objects.Delete(ctx, key)
		return types.Attachment{}, err
	}
	return attachment, nil
}

// ListForTask returns the attachment metadata for a task.
func (s *AttachmentService) ListForTask(ctx context.Context, taskID int) ([]types.Attachment, error) {
	if _, err := s.tasks.GetAny(ctx, taskID); err != nil {
		return nil, err
	}
	return s.repo.ListForTask(ctx, taskID)
}

// Open returns the attachment metadata and a reader over its bytes. The
// caller closes the reader.
func (s *AttachmentService) Open(ctx context.Context, attachmentID, taskID int) (types.Attachment, io.ReadCloser, error) {
	attachment, err := s.get(ctx, attachmentID, taskID)
	if err != nil {
		return types.Attachment{}, nil, err
	}

	reader, err := s.objects.Get(ctx, attachment.ObjectKey)
	if err != nil {
		return types.Attachment{}, nil, err
	}
	return attachment, reader, nil
}

// Delete removes the metadata row first, then the object. A storage
// failure after the row is gone surfaces to the caller.
func (s *AttachmentService) Delete(ctx context.Context, attachmentID, taskID int) error {
	attachment, err := s.get(ctx, attachmentID, taskID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, attachmentID, taskID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.NewNotFound("Attachment", attachmentID)
		}
		return err
	}
	return s.objects.Delete(ctx, attachment.ObjectKey)
}

func (s *AttachmentService) get(ctx context.Context, attachmentID, taskID int) (types.Attachment, error) {
	attachment, err := s.repo.GetByID(ctx, attachmentID, taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Attachment{}, store.NewNotFound("Attachment", attachmentID)
		}
		return types.Attachment{}, err
	}
	return attachment, nil
}

func newObjectID() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "attachment"
	}
	return hex.EncodeToString(buf[:])
}
