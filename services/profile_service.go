package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tabib.link/configs"
	"tabib.link/configs/configslog"
	"tabib.link/models"
	"tabib.link/pkg/availability"
	"tabib.link/repositories"
)

// ProfileServiceError is the typed error for profile operations.
type ProfileServiceError string

func (e ProfileServiceError) Error() string { return string(e) }

const (
	ErrProfileNotFound        ProfileServiceError = "professional profile not found"
	ErrProfileInvalidInput    ProfileServiceError = "invalid profile data"
	ErrProfileNotProfessional ProfileServiceError = "user is not a professional"
)

// UpdateProfileInput carries the editable profile fields.
type UpdateProfileInput struct {
	Specialty         string  `json:"specialty"`
	Address           string  `json:"address"`
	City              string  `json:"city"`
	Description       string  `json:"description"`
	ConsultationPrice float64 `json:"consultation_price"`
	WorkStart         string  `json:"work_start"`
	WorkEnd           string  `json:"work_end"`
}

// IProfileService is the professional-profile business interface.
type IProfileService interface {
	GetProfileByUserID(ctx context.Context, userID uint) (*models.ProfessionalProfile, error)
	UpdateProfile(ctx context.Context, userID uint, input UpdateProfileInput) (*models.ProfessionalProfile, error)
	SetVacationMode(ctx context.Context, userID uint, enabled bool) error
}

// ProfileService implements IProfileService.
type ProfileService struct {
	repo     repositories.IProfileRepository
	userRepo repositories.IUserRepository
	db       *gorm.DB
}

// NewProfileService builds the service on the shared connection.
func NewProfileService() IProfileService {
	return newProfileService(configs.GetDB())
}

func newProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{
		repo:     repositories.NewProfileRepositoryTx(db),
		userRepo: repositories.NewUserRepositoryTx(db),
		db:       db,
	}
}

func (s *ProfileService) GetProfileByUserID(ctx context.Context, userID uint) (*models.ProfessionalProfile, error) {
	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return profile, nil
}

// UpdateProfile validates and saves the owner's profile. The working window
// must parse so the availability check never sees a malformed config.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uint, input UpdateProfileInput) (*models.ProfessionalProfile, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	if !user.Role.Professional() {
		return nil, ErrProfileNotProfessional
	}

	if input.ConsultationPrice < 0 {
		return nil, fmt.Errorf("%w: consultation price cannot be negative", ErrProfileInvalidInput)
	}

	profile, err := s.GetProfileByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile.Specialty = strings.TrimSpace(input.Specialty)
	profile.Address = strings.TrimSpace(input.Address)
	profile.City = strings.TrimSpace(input.City)
	profile.Description = input.Description
	profile.ConsultationPrice = input.ConsultationPrice
	if input.WorkStart != "" {
		profile.WorkStart = input.WorkStart
	}
	if input.WorkEnd != "" {
		profile.WorkEnd = input.WorkEnd
	}
	// Validate the merged window, not the raw input: a request may update
	// only one bound.
	if err := availability.ValidateWindow(profile.WorkStart, profile.WorkEnd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileInvalidInput, err)
	}

	if err := s.repo.Update(models.ContextWithUserID(ctx, userID), profile); err != nil {
		configslog.Log.Error("profile update failed", zap.Uint("user_id", userID), zap.Error(err))
		return nil, err
	}
	return profile, nil
}

// SetVacationMode flips the flag that suspends all slot availability for the
// professional until cleared.
func (s *ProfileService) SetVacationMode(ctx context.Context, userID uint, enabled bool) error {
	profile, err := s.GetProfileByUserID(ctx, userID)
	if err != nil {
		return err
	}
	profile.VacationMode = enabled
	if err := s.repo.Update(models.ContextWithUserID(ctx, userID), profile); err != nil {
		configslog.Log.Error("vacation mode update failed", zap.Uint("user_id", userID), zap.Error(err))
		return err
	}
	configslog.SLog.Infof("vacation mode set: user=%d enabled=%v", userID, enabled)
	return nil
}

var _ IProfileService = (*ProfileService)(nil)
