package service

import (
	"context"
	"strings"

	"eventmaster/internal/domain"
	"eventmaster/internal/repository"
	"eventmaster/pkg/errors"
	"eventmaster/pkg/logger"
)

const (
	maxFolderNameLength = 50
	defaultFolderColor  = "#6366F1"
)

type folderService struct {
	folders repository.FolderRepository
	logger  *logger.Logger
}

// NewFolderService creates the folder service
func NewFolderService(repos *repository.Repositories, logger *logger.Logger) FolderService {
	return &folderService{folders: repos.Folder, logger: logger}
}

func (s *folderService) Create(ctx context.Context, userID string, req *domain.CreateFolderRequest) (*domain.Folder, error) {
	name := strings.TrimSpace(req.Name)
	color := strings.TrimSpace(req.Color)
	if color == "" {
		color = defaultFolderColor
	}

	var details []errors.Detail
	switch n := len([]rune(name)); {
	case n == 0:
		details = append(details, errors.Detail{Field: "name", Message: "Name is required"})
	case n > maxFolderNameLength:
		details = append(details, errors.Detail{Field: "name", Message: "Name must be at most 50 characters"})
	}
	if !hexColorPattern.MatchString(color) {
		details = append(details, errors.Detail{Field: "color", Message: "Color must be a 6-digit hex value"})
	}
	if len(details) > 0 {
		return nil, errors.NewValidationError(details[0].Message, details...)
	}

	folder := &domain.Folder{UserID: userID, Name: name, Color: strings.ToUpper(color)}
	if err := s.folders.Create(ctx, folder); err != nil {
		return nil, storeError(err, "Failed to create folder")
	}

	s.logger.WithField("folder_id", folder.ID).Info("Folder created")
	return folder, nil
}

func (s *folderService) List(ctx context.Context, userID string) ([]*domain.Folder, error) {
	folders, err := s.folders.ListByUser(ctx, userID)
	if err != nil {
		return nil, storeError(err, "Failed to list folders")
	}
	if folders == nil {
		folders = []*domain.Folder{}
	}
	return folders, nil
}
