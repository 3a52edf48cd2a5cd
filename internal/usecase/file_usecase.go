package usecase

import (
	"context"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nguyentranbao-ct/chat-server/internal/models"
	"github.com/nguyentranbao-ct/chat-server/internal/repo/blob"
	"github.com/nguyentranbao-ct/chat-server/internal/repo/mongodb"
)

type FileUsecase interface {
	// Upload stores the attachment bytes and records its metadata. The
	// returned file id can be attached to a message.
	Upload(ctx context.Context, uploaderID primitive.ObjectID, filename, contentType string, r io.Reader) (*models.File, error)
	// Download resolves a file id to its metadata and an open reader over
	// the stored bytes. The caller closes the reader.
	Download(ctx context.Context, id primitive.ObjectID) (*models.File, io.ReadCloser, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.File, error)
}

type fileUsecase struct {
	fileRepo mongodb.FileRepository
	store    blob.Store
}

func NewFileUsecase(fileRepo mongodb.FileRepository, store blob.Store) FileUsecase {
	return &fileUsecase{
		fileRepo: fileRepo,
		store:    store,
	}
}

func (uc *fileUsecase) Upload(ctx context.Context, uploaderID primitive.ObjectID, filename, contentType string, r io.Reader) (*models.File, error) {
	if filename == "" {
		return nil, fmt.Errorf("filename is empty: %w", models.ErrValidation)
	}

	storedName, size, err := uc.store.Save(filename, r)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	file := &models.File{
		Filename:    filename,
		StoredName:  storedName,
		ContentType: contentType,
		Size:        size,
		UploadedBy:  uploaderID,
	}
	if err := uc.fileRepo.Create(ctx, file); err != nil {
		return nil, fmt.Errorf("failed to record file: %w", err)
	}
	return file, nil
}

func (uc *fileUsecase) Get(ctx context.Context, id primitive.ObjectID) (*models.File, error) {
	return uc.fileRepo.GetByID(ctx, id)
}

func (uc *fileUsecase) Download(ctx context.Context, id primitive.ObjectID) (*models.File, io.ReadCloser, error) {
	file, err := uc.fileRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := uc.store.Open(file.StoredName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open stored file: %w", err)
	}
	return file, rc, nil
}
