package media

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/royalhouse/server/internal/sanitize"
	"github.com/royalhouse/server/internal/validation"
)

const (
	msgURLRequired      = "URL required"
	msgIDTypeRequired   = "ID and Type required"
	msgInvalidType      = "Type must be one of IMAGE, VIDEO, FIMG, FVID"
	msgFeaturedImageCap = "Limit reached: Maximum 4 Featured Images allowed."
	msgFeaturedVideoCap = "Limit reached: Maximum 1 Featured Video allowed."
)

type Repository interface {
	ListFiles(ctx context.Context, types []FileType) ([]File, error)
	CreateFile(ctx context.Context, file File) (int64, error)
	CountByType(ctx context.Context, fileType FileType, excludeID int64) (int, error)
	UpdateFile(ctx context.Context, file File) error
	DeleteFile(ctx context.Context, id int64) error
}

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "media").Logger(),
	}
}

// List returns files newest first. filter is empty for all files, FEATURED
// for both featured types, or a single file type.
func (s *Service) List(ctx context.Context, filter string) ([]File, error) {
	var types []FileType
	switch f := strings.ToUpper(strings.TrimSpace(filter)); f {
	case "":
	case FilterFeatured:
		types = []FileType{TypeFeaturedImage, TypeFeaturedVideo}
	default:
		types = []FileType{FileType(f)}
	}

	files, err := s.repo.ListFiles(ctx, types)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	return files, nil
}

// Create stores a gallery file. Featured quotas are not checked here; they
// apply when an existing file is retyped through Update.
func (s *Service) Create(ctx context.Context, input FileInput) (int64, error) {
	fileURL := strings.TrimSpace(input.FileURL)
	if fileURL == "" {
		return 0, validation.New("file_url", msgURLRequired)
	}
	if err := validation.ValidateLink(fileURL, "file_url"); err != nil {
		return 0, err
	}

	fileType := normalizeType(input.FileType)
	if fileType == "" {
		fileType = TypeImage
	}
	if !fileType.Valid() {
		return 0, validation.New("file_type", msgInvalidType)
	}

	id, err := s.repo.CreateFile(ctx, File{
		FileURL:     fileURL,
		FileType:    fileType,
		Title:       sanitize.Text(input.Title),
		SubTitle:    sanitize.Text(input.SubTitle),
		Description: sanitize.Text(input.Description),
	})
	if err != nil {
		return 0, fmt.Errorf("create media: %w", err)
	}
	s.logger.Info().Int64("media_id", id).Str("file_type", string(fileType)).Msg("media created")
	return id, nil
}

// Update retypes and relabels file id, enforcing the featured quotas against
// every other file. An empty FileURL keeps the stored one.
func (s *Service) Update(ctx context.Context, id int64, input FileInput) error {
	fileType := normalizeType(input.FileType)
	if id <= 0 || fileType == "" {
		return validation.New("file_type", msgIDTypeRequired)
	}
	if !fileType.Valid() {
		return validation.New("file_type", msgInvalidType)
	}
	fileURL := strings.TrimSpace(input.FileURL)
	if err := validation.ValidateLink(fileURL, "file_url"); err != nil {
		return err
	}

	switch fileType {
	case TypeFeaturedImage:
		if err := s.checkQuota(ctx, fileType, id, MaxFeaturedImages, msgFeaturedImageCap); err != nil {
			return err
		}
	case TypeFeaturedVideo:
		if err := s.checkQuota(ctx, fileType, id, MaxFeaturedVideos, msgFeaturedVideoCap); err != nil {
			return err
		}
	}

	err := s.repo.UpdateFile(ctx, File{
		ID:          id,
		FileURL:     fileURL,
		FileType:    fileType,
		Title:       sanitize.Text(input.Title),
		SubTitle:    sanitize.Text(input.SubTitle),
		Description: sanitize.Text(input.Description),
	})
	if err != nil {
		return err
	}
	s.logger.Info().Int64("media_id", id).Str("file_type", string(fileType)).Msg("media updated")
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return validation.New("id", "ID required")
	}
	if err := s.repo.DeleteFile(ctx, id); err != nil {
		return fmt.Errorf("delete media: %w", err)
	}
	s.logger.Info().Int64("media_id", id).Msg("media deleted")
	return nil
}

func (s *Service) checkQuota(ctx context.Context, fileType FileType, selfID int64, max int, message string) error {
	count, err := s.repo.CountByType(ctx, fileType, selfID)
	if err != nil {
		return fmt.Errorf("count %s media: %w", fileType, err)
	}
	if count >= max {
		return validation.New("file_type", message)
	}
	return nil
}

func normalizeType(t FileType) FileType {
	return FileType(strings.ToUpper(strings.TrimSpace(string(t))))
}
