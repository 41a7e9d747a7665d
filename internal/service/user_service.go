package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/pkg/database"
	appErrors "github.com/noah-isme/classroom-api/pkg/errors"
)

type profileRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
}

// ProfileService reads and edits the caller's own account.
type ProfileService struct {
	repo      profileRepository
	validator *validator.Validate
	logger    *zap.Logger
	languages []string
}

// NewProfileService constructs a ProfileService. languages lists the accepted
// values for the language field; empty accepts any.
func NewProfileService(repo profileRepository, validate *validator.Validate, logger *zap.Logger, languages []string) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ProfileService{repo: repo, validator: validate, logger: logger, languages: languages}
}

// Get returns the profile of userID.
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "User not found", "failed to load profile")
	}
	return user, nil
}

// Update applies the provided fields. At least one field is required.
func (s *ProfileService) Update(ctx context.Context, userID string, req dto.UpdateProfileRequest) (*models.User, error) {
	if req.Empty() {
		return nil, appErrors.ErrEmptyProfileUpdate
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid profile payload")
	}
	if req.Name != nil {
		if err := notBlank(appErrors.ErrValidation, "name", *req.Name); err != nil {
			return nil, err
		}
	}

	var lang string
	if req.Language != nil {
		lang = strings.ToLower(strings.TrimSpace(*req.Language))
		if len(s.languages) > 0 && !containsString(s.languages, lang) {
			return nil, fieldError("language", "unsupported language", "must be one of "+strings.Join(s.languages, ", "))
		}
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "User not found", "failed to load profile")
	}

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != user.Email {
			existing, err := s.repo.FindByEmail(ctx, email)
			switch {
			case err == nil && existing.ID != user.ID:
				return nil, appErrors.ErrEmailTaken
			case err != nil && !errors.Is(err, sql.ErrNoRows):
				return nil, appErrors.Internal(err, "failed to check email")
			}
			user.Email = email
		}
	}
	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if lang != "" {
		user.PreferredLanguage = lang
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.ErrEmailTaken
		}
		return nil, notFoundOr(err, "User not found", "failed to update profile")
	}

	s.logger.Info("profile updated", zap.String("user_id", user.ID))
	return user, nil
}
