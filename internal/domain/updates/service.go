package updates

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/royalhouse/server/internal/domain/media"
	"github.com/royalhouse/server/internal/sanitize"
	"github.com/royalhouse/server/internal/validation"
)

const (
	msgRequired         = "Title and Type required"
	msgMediaURLRequired = "Media file URL required"
)

type Repository interface {
	ListUpdates(ctx context.Context, limit, offset int) ([]Update, error)
	GetUpdate(ctx context.Context, id int64) (*Update, error)
	ListUpdateMedia(ctx context.Context, updateID int64) ([]media.File, error)
	CreateUpdate(ctx context.Context, update Update) (int64, error)
	AttachMedia(ctx context.Context, updateID int64, file media.File) error
	ReplaceUpdate(ctx context.Context, update Update) error
	DeleteUpdateMedia(ctx context.Context, updateID int64) error
	DeleteUpdate(ctx context.Context, id int64) error

	// WithTx runs fn against a repository bound to a single transaction.
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
}

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "updates").Logger(),
	}
}

// List returns updates, most recently published first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Update, error) {
	items, err := s.repo.ListUpdates(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list updates: %w", err)
	}
	return items, nil
}

// Get loads an update together with its attached media.
func (s *Service) Get(ctx context.Context, id int64) (*Update, error) {
	update, err := s.repo.GetUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	files, err := s.repo.ListUpdateMedia(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list update media: %w", err)
	}
	update.Media = files
	return update, nil
}

// Create inserts the update and its media descriptors in one transaction.
func (s *Service) Create(ctx context.Context, input UpdateInput) (int64, error) {
	update, err := normalize(input)
	if err != nil {
		return 0, err
	}
	files, err := normalizeMedia(input.Media)
	if err != nil {
		return 0, err
	}

	var id int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		created, err := tx.CreateUpdate(ctx, update)
		if err != nil {
			return fmt.Errorf("create update: %w", err)
		}
		for _, file := range files {
			if err := tx.AttachMedia(ctx, created, file); err != nil {
				return fmt.Errorf("attach media: %w", err)
			}
		}
		id = created
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info().Int64("update_id", id).Int("media_count", len(files)).Msg("update created")
	return id, nil
}

// Replace overwrites the scalar fields of update id. Attached media are untouched.
func (s *Service) Replace(ctx context.Context, id int64, input UpdateInput) error {
	update, err := normalize(input)
	if err != nil {
		return err
	}
	update.ID = id

	if err := s.repo.ReplaceUpdate(ctx, update); err != nil {
		return err
	}
	s.logger.Info().Int64("update_id", id).Msg("update replaced")
	return nil
}

// Delete removes the attached media and then the update, atomically.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		if err := tx.DeleteUpdateMedia(ctx, id); err != nil {
			return fmt.Errorf("delete update media: %w", err)
		}
		if err := tx.DeleteUpdate(ctx, id); err != nil {
			return fmt.Errorf("delete update: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info().Int64("update_id", id).Msg("update deleted")
	return nil
}

func normalize(input UpdateInput) (Update, error) {
	update := Update{
		Type:       sanitize.Text(input.Type),
		Title:      sanitize.Text(input.Title),
		Content:    sanitize.OptionalHTML(input.Content),
		IsActive:   input.IsActive,
		ActionLink: trimmed(input.ActionLink),
		ActionText: sanitize.OptionalText(input.ActionText),
	}
	if update.Title == "" || update.Type == "" {
		return Update{}, validation.New("title", msgRequired)
	}
	if update.ActionLink != nil {
		if err := validation.ValidateLink(*update.ActionLink, "action_link"); err != nil {
			return Update{}, err
		}
	}
	return update, nil
}

func normalizeMedia(inputs []MediaInput) ([]media.File, error) {
	files := make([]media.File, 0, len(inputs))
	for _, in := range inputs {
		fileURL := strings.TrimSpace(in.FileURL)
		if fileURL == "" {
			return nil, validation.New("media.file_url", msgMediaURLRequired)
		}
		if err := validation.ValidateLink(fileURL, "media.file_url"); err != nil {
			return nil, err
		}
		fileType := media.FileType(strings.ToUpper(strings.TrimSpace(string(in.FileType))))
		if fileType == "" {
			fileType = media.TypeImage
		}
		if !fileType.Valid() {
			return nil, validation.New("media.file_type", "Type must be one of IMAGE, VIDEO, FIMG, FVID")
		}
		files = append(files, media.File{
			FileURL:     fileURL,
			FileType:    fileType,
			IsPrimary:   in.IsPrimary,
			Title:       sanitize.Text(in.Title),
			Description: sanitize.Text(in.Description),
		})
	}
	return files, nil
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
