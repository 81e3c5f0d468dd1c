package repositories

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tabib.link/configs"
	"tabib.link/configs/configslog"
	"tabib.link/models"
	"tabib.link/pkg/queryparams"
)

// IUserRepository is the user persistence interface.
type IUserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, user *models.User, deletedByUserID uint) error
	SearchProfessionals(ctx context.Context, filter ProfessionalFilter, params queryparams.ListParams) ([]models.User, int64, error)
	CountByRole(ctx context.Context) (map[models.Role]int64, error)
}

// ProfessionalFilter narrows the public professional search.
type ProfessionalFilter struct {
	Role      models.Role
	City      string
	Specialty string
	Name      string
}

// UserRepository implements IUserRepository.
type UserRepository struct {
	db   *gorm.DB
	base *BaseRepository[models.User]
}

// NewUserRepository builds a repository on the shared connection.
func NewUserRepository() IUserRepository {
	return newUserRepository(configs.GetDB())
}

// NewUserRepositoryTx builds a repository bound to a transaction.
func NewUserRepositoryTx(tx *gorm.DB) IUserRepository {
	return newUserRepository(tx)
}

func newUserRepository(db *gorm.DB) *UserRepository {
	base := NewBaseRepository[models.User](db)
	base.SetAllowedSortColumns([]string{"users.id", "users.created_at", "users.name", "users.email"})
	return &UserRepository{db: db, base: base}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.base.Create(ctx, user)
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	if id == 0 {
		return nil, ErrNotFound
	}
	var user models.User
	err := r.db.WithContext(ctx).Preload("Profile").First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		configslog.Log.Error("UserRepository.FindByID: DB error", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrNotFound
	}
	var user models.User
	err := r.db.WithContext(ctx).Preload("Profile").Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		configslog.Log.Error("UserRepository.FindByEmail: DB error", zap.Error(err))
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	if user == nil || user.ID == 0 {
		return errors.New("invalid user for update")
	}
	return r.db.WithContext(ctx).Save(user).Error
}

// Delete soft-deletes the user and stamps DeletedBy. Dependent rows go via
// the FK cascades declared on the models.
func (r *UserRepository) Delete(ctx context.Context, user *models.User, deletedByUserID uint) error {
	if user == nil || user.ID == 0 {
		return errors.New("invalid user for delete")
	}
	db := r.db.WithContext(ctx)
	result := db.Model(user).Where("id = ? AND deleted_at IS NULL", user.ID).
		Updates(map[string]interface{}{"deleted_at": gorm.Expr("CURRENT_TIMESTAMP"), "deleted_by": deletedByUserID})
	if result.Error != nil {
		configslog.Log.Error("UserRepository.Delete: DB error", zap.Uint("id", user.ID), zap.Error(result.Error))
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchProfessionals lists active professional users matching the filter,
// with their profiles preloaded.
func (r *UserRepository) SearchProfessionals(ctx context.Context, filter ProfessionalFilter, params queryparams.ListParams) ([]models.User, int64, error) {
	var users []models.User
	var totalCount int64

	query := r.db.WithContext(ctx).Model(&models.User{}).
		Where("users.is_active = ?", true)

	if filter.Role != "" {
		if !filter.Role.Professional() {
			return users, 0, nil
		}
		query = query.Where("users.role = ?", filter.Role)
	} else {
		query = query.Where("users.role IN ?", []models.Role{models.RoleMedecin, models.RoleClinique, models.RolePharmacie})
	}
	if filter.Name != "" {
		query = query.Where("lower(users.name) LIKE ?", "%"+strings.ToLower(filter.Name)+"%")
	}
	if filter.City != "" || filter.Specialty != "" {
		query = query.Joins("JOIN professional_profiles ON professional_profiles.user_id = users.id AND professional_profiles.deleted_at IS NULL")
		if filter.City != "" {
			query = query.Where("lower(professional_profiles.city) = ?", strings.ToLower(filter.City))
		}
		if filter.Specialty != "" {
			query = query.Where("lower(professional_profiles.specialty) = ?", strings.ToLower(filter.Specialty))
		}
	}

	if err := query.Count(&totalCount).Error; err != nil {
		configslog.Log.Error("UserRepository.SearchProfessionals: count error", zap.Error(err))
		return nil, 0, err
	}
	if totalCount == 0 {
		return users, 0, nil
	}

	order := r.base.OrderExpr("users."+params.SortBy, params.OrderBy, "users.created_at")
	err := query.Order(order).
		Preload("Profile").
		Limit(params.PerPage).Offset(params.CalculateOffset()).
		Find(&users).Error
	if err != nil {
		configslog.Log.Error("UserRepository.SearchProfessionals: find error", zap.Error(err))
		return nil, totalCount, err
	}
	return users, totalCount, nil
}

// CountByRole aggregates active users per role for the admin statistics.
func (r *UserRepository) CountByRole(ctx context.Context) (map[models.Role]int64, error) {
	type row struct {
		Role  models.Role
		Count int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Select("role, COUNT(*) AS count").
		Where("is_active = ?", true).
		Group("role").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[models.Role]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Role] = rw.Count
	}
	return counts, nil
}

var _ IUserRepository = (*UserRepository)(nil)
