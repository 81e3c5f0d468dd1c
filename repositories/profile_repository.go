package repositories

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tabib.link/configs"
	"tabib.link/configs/configslog"
	"tabib.link/models"
)

// IProfileRepository is the professional-profile persistence interface.
type IProfileRepository interface {
	Create(ctx context.Context, profile *models.ProfessionalProfile) error
	FindByUserID(ctx context.Context, userID uint) (*models.ProfessionalProfile, error)
	Update(ctx context.Context, profile *models.ProfessionalProfile) error
}

// ProfileRepository implements IProfileRepository.
type ProfileRepository struct {
	db   *gorm.DB
	base *BaseRepository[models.ProfessionalProfile]
}

// NewProfileRepository builds a repository on the shared connection.
func NewProfileRepository() IProfileRepository {
	return newProfileRepository(configs.GetDB())
}

// NewProfileRepositoryTx builds a repository bound to a transaction.
func NewProfileRepositoryTx(tx *gorm.DB) IProfileRepository {
	return newProfileRepository(tx)
}

func newProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db, base: NewBaseRepository[models.ProfessionalProfile](db)}
}

func (r *ProfileRepository) Create(ctx context.Context, profile *models.ProfessionalProfile) error {
	if profile == nil || profile.UserID == 0 {
		return errors.New("profile must reference a user")
	}
	return r.base.Create(ctx, profile)
}

func (r *ProfileRepository) FindByUserID(ctx context.Context, userID uint) (*models.ProfessionalProfile, error) {
	if userID == 0 {
		return nil, ErrNotFound
	}
	var profile models.ProfessionalProfile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		configslog.Log.Error("ProfileRepository.FindByUserID: DB error", zap.Uint("user_id", userID), zap.Error(err))
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepository) Update(ctx context.Context, profile *models.ProfessionalProfile) error {
	if profile == nil || profile.ID == 0 {
		return errors.New("invalid profile for update")
	}
	return r.base.Save(ctx, profile)
}

var _ IProfileRepository = (*ProfileRepository)(nil)
