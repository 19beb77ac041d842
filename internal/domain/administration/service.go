package administration

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/royalhouse/server/internal/sanitize"
	"github.com/royalhouse/server/internal/validation"
)

const (
	msgRequired        = "Role Title and Category are required"
	msgInvalidCategory = "Category must be one of OFFICER, ADVISOR, DELEGATE"
	msgImageRequired   = "Image is mandatory for Grand Chancellor and Vice-Chancellor"
)

type Repository interface {
	ListMembers(ctx context.Context, limit, offset int) ([]Member, error)
	GetMember(ctx context.Context, id int64) (*Member, error)
	ActiveTitleTaken(ctx context.Context, title string, excludeID int64) (bool, error)
	CreateMember(ctx context.Context, member Member) (int64, error)
	UpdateMember(ctx context.Context, member Member) error
	DeleteMember(ctx context.Context, id int64) error
}

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "administration").Logger(),
	}
}

// List returns members ordered by display order, newest first within a slot.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Member, error) {
	members, err := s.repo.ListMembers(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Member, error) {
	return s.repo.GetMember(ctx, id)
}

// Create validates input against the title rules and stores a new member.
func (s *Service) Create(ctx context.Context, input MemberInput) (int64, error) {
	member, err := s.prepare(ctx, 0, input)
	if err != nil {
		return 0, err
	}

	id, err := s.repo.CreateMember(ctx, member)
	if err != nil {
		return 0, fmt.Errorf("create member: %w", err)
	}
	s.logger.Info().Int64("member_id", id).Str("role_title", member.RoleTitle).Msg("member created")
	return id, nil
}

// Update replaces all writable fields of member id.
func (s *Service) Update(ctx context.Context, id int64, input MemberInput) error {
	member, err := s.prepare(ctx, id, input)
	if err != nil {
		return err
	}
	member.ID = id

	if err := s.repo.UpdateMember(ctx, member); err != nil {
		return err
	}
	s.logger.Info().Int64("member_id", id).Str("role_title", member.RoleTitle).Msg("member updated")
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteMember(ctx, id); err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	s.logger.Info().Int64("member_id", id).Msg("member deleted")
	return nil
}

// prepare runs the checks in order: required fields, portrait requirement,
// singular-title uniqueness, then image normalization.
func (s *Service) prepare(ctx context.Context, selfID int64, input MemberInput) (Member, error) {
	title := sanitize.Text(input.RoleTitle)
	category := Category(strings.ToUpper(strings.TrimSpace(string(input.Category))))

	if title == "" || category == "" {
		return Member{}, validation.New("role_title", msgRequired)
	}
	if err := validation.Var(string(category), "oneof=OFFICER ADVISOR DELEGATE", "category", msgInvalidCategory); err != nil {
		return Member{}, err
	}

	image := ""
	if input.ImageURL != nil {
		image = strings.TrimSpace(*input.ImageURL)
	}

	portrait := RequiresPortrait(title)
	if portrait && image == "" {
		return Member{}, validation.New("image_url", msgImageRequired)
	}

	if IsSingularTitle(title) {
		taken, err := s.repo.ActiveTitleTaken(ctx, title, selfID)
		if err != nil {
			return Member{}, fmt.Errorf("check role title: %w", err)
		}
		if taken {
			return Member{}, validation.New("role_title", fmt.Sprintf("A %s already exists. Only one is allowed.", title))
		}
	}

	var imageURL *string
	if portrait {
		rewritten := DriveThumbnail(image)
		if err := validation.ValidateLink(rewritten, "image_url"); err != nil {
			return Member{}, err
		}
		imageURL = &rewritten
	}

	member := Member{
		Name:      sanitize.OptionalText(input.Name),
		RoleTitle: title,
		Category:  category,
		IsActive:  true,
		Bio:       sanitize.OptionalHTML(input.Bio),
		ImageURL:  imageURL,
	}
	if input.DisplayOrder != nil {
		member.DisplayOrder = *input.DisplayOrder
	}
	if input.IsActive != nil {
		member.IsActive = *input.IsActive
	}
	return member, nil
}
