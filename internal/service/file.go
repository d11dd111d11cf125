package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/templui/secondbrain/internal/model"
	"github.com/templui/secondbrain/internal/repository"
	"github.com/templui/secondbrain/internal/storage"
)

type FileService struct {
	fileRepo repository.FileRepository
	storage  storage.Storage
}

// NewFileService accepts a nil storage, in which case uploads and
// downloads fail with ErrStorageDisabled.
func NewFileService(fileRepo repository.FileRepository, storage storage.Storage) *FileService {
	return &FileService{
		fileRepo: fileRepo,
		storage:  storage,
	}
}

func (s *FileService) Enabled() bool {
	return s.storage != nil
}

// Upload stores a private file and creates a database record.
// File validation (type, size, content) is done by the caller.
func (s *FileService) Upload(ctx context.Context, userID, ownerType, ownerID, fileType string, file multipart.File, header *multipart.FileHeader) (*model.File, error) {
	if !s.Enabled() {
		return nil, ErrStorageDisabled
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	filename := uuid.New().String() + ext
	storagePath := path.Join("private", fileType+"s", filename)
	mimeType := header.Header.Get("Content-Type")

	err := s.storage.Save(ctx, storagePath, file, mimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	fileModel := &model.File{
		ID:           uuid.New().String(),
		UserID:       userID,
		OwnerType:    ownerType,
		OwnerID:      ownerID,
		Type:         fileType,
		Filename:     filename,
		OriginalName: filepath.Base(header.Filename),
		MimeType:     mimeType,
		Size:         header.Size,
		StoragePath:  storagePath,
		Public:       false,
		CreatedAt:    time.Now().UTC(),
	}

	err = s.fileRepo.Create(ctx, fileModel)
	if err != nil {
		// If DB insert fails, try to cleanup the uploaded file
		delErr := s.storage.Delete(ctx, storagePath)
		if delErr != nil {
			slog.Error("failed to delete file from storage during cleanup", "error", delErr, "path", storagePath)
		}
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}

	return fileModel, nil
}

// Document returns the newest document attached to an owner.
func (s *FileService) Document(ctx context.Context, ownerType, ownerID string) (*model.File, error) {
	file, err := s.fileRepo.FileByType(ctx, ownerType, ownerID, model.FileTypeDocument)
	if err != nil {
		if errors.Is(err, repository.ErrFileNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return file, nil
}

func (s *FileService) URL(ctx context.Context, file *model.File) (string, error) {
	if !s.Enabled() {
		return "", ErrStorageDisabled
	}
	return s.storage.URL(ctx, file.StoragePath)
}

// Delete removes a file from storage (best effort) and database.
func (s *FileService) Delete(ctx context.Context, file *model.File) error {
	if s.Enabled() {
		delErr := s.storage.Delete(ctx, file.StoragePath)
		if delErr != nil {
			slog.Error("failed to delete file from storage", "error", delErr, "path", file.StoragePath)
		}
	}

	err := s.fileRepo.Delete(ctx, file.ID)
	if err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}

	return nil
}

// DeleteOwnerFiles removes every file attached to an owner.
func (s *FileService) DeleteOwnerFiles(ctx context.Context, ownerType, ownerID string) error {
	files, err := s.fileRepo.Files(ctx, ownerType, ownerID)
	if err != nil {
		return fmt.Errorf("failed to get files: %w", err)
	}

	for _, file := range files {
		err = s.Delete(ctx, file)
		if err != nil {
			return err
		}
	}

	return nil
}

// DeleteAllUserFilesFromStorage removes the stored objects of a user.
// Rows are left for the user delete cascade.
func (s *FileService) DeleteAllUserFilesFromStorage(ctx context.Context, userID string) error {
	if !s.Enabled() {
		return nil
	}

	files, err := s.fileRepo.AllUserFiles(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user files: %w", err)
	}

	for _, file := range files {
		err = s.storage.Delete(ctx, file.StoragePath)
		if err != nil {
			// Log but continue - physical file may already be gone
			slog.Warn("failed to delete file from storage", "storage_path", file.StoragePath, "error", err)
		}
	}

	return nil
}
