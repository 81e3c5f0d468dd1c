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

// IAnnonceRepository is the annonce persistence interface.
type IAnnonceRepository interface {
	Create(ctx context.Context, annonce *models.Annonce) error
	FindByID(ctx context.Context, id uint) (*models.Annonce, error)
	FindAllByOwnerPaginated(ctx context.Context, ownerID uint, params queryparams.ListParams) ([]models.Annonce, int64, error)
	FindAllActivePaginated(ctx context.Context, params queryparams.ListParams) ([]models.Annonce, int64, error)
	Update(ctx context.Context, annonce *models.Annonce) error
	Delete(ctx context.Context, annonce *models.Annonce, deletedByUserID uint) error
	CountActiveByOwner(ctx context.Context, ownerID uint) (int64, error)
}

// AnnonceRepository implements IAnnonceRepository.
type AnnonceRepository struct {
	db   *gorm.DB
	base *BaseRepository[models.Annonce]
}

// NewAnnonceRepository builds a repository on the shared connection.
func NewAnnonceRepository() IAnnonceRepository {
	return newAnnonceRepository(configs.GetDB())
}

// NewAnnonceRepositoryTx builds a repository bound to a transaction.
func NewAnnonceRepositoryTx(tx *gorm.DB) IAnnonceRepository {
	return newAnnonceRepository(tx)
}

func newAnnonceRepository(db *gorm.DB) *AnnonceRepository {
	base := NewBaseRepository[models.Annonce](db)
	base.SetAllowedSortColumns([]string{"id", "created_at", "title", "price", "is_active"})
	return &AnnonceRepository{db: db, base: base}
}

func (r *AnnonceRepository) Create(ctx context.Context, annonce *models.Annonce) error {
	if annonce == nil || annonce.OwnerID == 0 {
		return errors.New("annonce must reference an owner")
	}
	return r.base.Create(ctx, annonce)
}

func (r *AnnonceRepository) FindByID(ctx context.Context, id uint) (*models.Annonce, error) {
	return r.base.FindByID(ctx, id)
}

func (r *AnnonceRepository) FindAllByOwnerPaginated(ctx context.Context, ownerID uint, params queryparams.ListParams) ([]models.Annonce, int64, error) {
	if ownerID == 0 {
		return nil, 0, errors.New("invalid owner id")
	}
	query := r.db.WithContext(ctx).Model(&models.Annonce{}).Where("owner_id = ?", ownerID)
	if params.Status != "" {
		query = query.Where("is_active = ?", params.Status == "true")
	}
	return r.listPaginated(query, params)
}

func (r *AnnonceRepository) FindAllActivePaginated(ctx context.Context, params queryparams.ListParams) ([]models.Annonce, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Annonce{}).Where("is_active = ?", true)
	return r.listPaginated(query, params)
}

func (r *AnnonceRepository) listPaginated(query *gorm.DB, params queryparams.ListParams) ([]models.Annonce, int64, error) {
	var annonces []models.Annonce
	var totalCount int64

	if params.Name != "" {
		query = query.Where("lower(title) LIKE ?", "%"+strings.ToLower(params.Name)+"%")
	}
	if err := query.Count(&totalCount).Error; err != nil {
		configslog.Log.Error("AnnonceRepository.listPaginated: count error", zap.Error(err))
		return nil, 0, err
	}
	if totalCount == 0 {
		return annonces, 0, nil
	}

	order := r.base.OrderExpr(params.SortBy, params.OrderBy, "created_at")
	err := query.Order(order).Limit(params.PerPage).Offset(params.CalculateOffset()).Find(&annonces).Error
	if err != nil {
		configslog.Log.Error("AnnonceRepository.listPaginated: find error", zap.Error(err))
		return nil, totalCount, err
	}
	return annonces, totalCount, nil
}

func (r *AnnonceRepository) Update(ctx context.Context, annonce *models.Annonce) error {
	if annonce == nil || annonce.ID == 0 {
		return errors.New("invalid annonce for update")
	}
	return r.base.Save(ctx, annonce)
}

func (r *AnnonceRepository) Delete(ctx context.Context, annonce *models.Annonce, deletedByUserID uint) error {
	if annonce == nil || annonce.ID == 0 {
		return errors.New("invalid annonce for delete")
	}
	result := r.db.WithContext(ctx).Model(annonce).Where("id = ? AND deleted_at IS NULL", annonce.ID).
		Updates(map[string]interface{}{"deleted_at": gorm.Expr("CURRENT_TIMESTAMP"), "deleted_by": deletedByUserID})
	if result.Error != nil {
		configslog.Log.Error("AnnonceRepository.Delete: DB error", zap.Uint("id", annonce.ID), zap.Error(result.Error))
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AnnonceRepository) CountActiveByOwner(ctx context.Context, ownerID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Annonce{}).
		Where("owner_id = ? AND is_active = ?", ownerID, true).
		Count(&count).Error
	return count, err
}

var _ IAnnonceRepository = (*AnnonceRepository)(nil)
