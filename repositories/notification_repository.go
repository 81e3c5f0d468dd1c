package repositories

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tabib.link/configs"
	"tabib.link/configs/configslog"
	"tabib.link/models"
	"tabib.link/pkg/queryparams"
)

// INotificationRepository is the notification persistence interface.
type INotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	FindByID(ctx context.Context, id uint) (*models.Notification, error)
	FindAllByUserPaginated(ctx context.Context, userID uint, params queryparams.ListParams) ([]models.Notification, int64, error)
	MarkRead(ctx context.Context, id uint, userID uint) error
	CountUnread(ctx context.Context, userID uint) (int64, error)
}

// NotificationRepository implements INotificationRepository.
type NotificationRepository struct {
	db   *gorm.DB
	base *BaseRepository[models.Notification]
}

// NewNotificationRepository builds a repository on the shared connection.
func NewNotificationRepository() INotificationRepository {
	return newNotificationRepository(configs.GetDB())
}

// NewNotificationRepositoryTx builds a repository bound to a transaction.
func NewNotificationRepositoryTx(tx *gorm.DB) INotificationRepository {
	return newNotificationRepository(tx)
}

func newNotificationRepository(db *gorm.DB) *NotificationRepository {
	base := NewBaseRepository[models.Notification](db)
	base.SetAllowedSortColumns([]string{"id", "created_at", "kind"})
	return &NotificationRepository{db: db, base: base}
}

func (r *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if notification == nil || notification.UserID == 0 {
		return errors.New("notification must reference a user")
	}
	return r.base.Create(ctx, notification)
}

func (r *NotificationRepository) FindByID(ctx context.Context, id uint) (*models.Notification, error) {
	return r.base.FindByID(ctx, id)
}

func (r *NotificationRepository) FindAllByUserPaginated(ctx context.Context, userID uint, params queryparams.ListParams) ([]models.Notification, int64, error) {
	if userID == 0 {
		return nil, 0, errors.New("invalid user id")
	}
	var notifications []models.Notification
	var totalCount int64

	query := r.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
	if params.Status == "unread" {
		query = query.Where("read_at IS NULL")
	}

	if err := query.Count(&totalCount).Error; err != nil {
		configslog.Log.Error("NotificationRepository.FindAllByUserPaginated: count error", zap.Error(err))
		return nil, 0, err
	}
	if totalCount == 0 {
		return notifications, 0, nil
	}

	order := r.base.OrderExpr(params.SortBy, params.OrderBy, "created_at")
	err := query.Order(order).Limit(params.PerPage).Offset(params.CalculateOffset()).Find(&notifications).Error
	if err != nil {
		configslog.Log.Error("NotificationRepository.FindAllByUserPaginated: find error", zap.Error(err))
		return nil, totalCount, err
	}
	return notifications, totalCount, nil
}

// MarkRead sets read_at once; scoping by user id keeps one user from
// acknowledging another's notification.
func (r *NotificationRepository) MarkRead(ctx context.Context, id uint, userID uint) error {
	result := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", id, userID).
		Update("read_at", time.Now().UTC())
	if result.Error != nil {
		configslog.Log.Error("NotificationRepository.MarkRead: DB error", zap.Uint("id", id), zap.Error(result.Error))
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Count(&count).Error
	return count, err
}

var _ INotificationRepository = (*NotificationRepository)(nil)
