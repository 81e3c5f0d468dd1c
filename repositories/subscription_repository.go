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

// ISubscriptionRepository is the billing-state persistence interface.
type ISubscriptionRepository interface {
	Create(ctx context.Context, sub *models.Subscription) error
	FindByID(ctx context.Context, id uint) (*models.Subscription, error)
	FindByUserID(ctx context.Context, userID uint) (*models.Subscription, error)
	FindByProviderID(ctx context.Context, providerSubscriptionID string) (*models.Subscription, error)
	Update(ctx context.Context, sub *models.Subscription) error

	ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error)
	FindPlanByID(ctx context.Context, id uint) (*models.SubscriptionPlan, error)
	FindPlanByProviderPriceID(ctx context.Context, priceID string) (*models.SubscriptionPlan, error)

	AddFamilyMember(ctx context.Context, member *models.FamilyMember) error
	ListFamilyMembers(ctx context.Context, subscriptionID uint) ([]models.FamilyMember, error)
	CountFamilyMembers(ctx context.Context, subscriptionID uint) (int64, error)
	DeleteFamilyMember(ctx context.Context, id uint, subscriptionID uint) error
}

// SubscriptionRepository implements ISubscriptionRepository.
type SubscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository builds a repository on the shared connection.
func NewSubscriptionRepository() ISubscriptionRepository {
	return newSubscriptionRepository(configs.GetDB())
}

// NewSubscriptionRepositoryTx builds a repository bound to a transaction.
func NewSubscriptionRepositoryTx(tx *gorm.DB) ISubscriptionRepository {
	return newSubscriptionRepository(tx)
}

func newSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Create(ctx context.Context, sub *models.Subscription) error {
	if sub == nil || sub.UserID == 0 || sub.PlanID == 0 {
		return errors.New("subscription must reference a user and a plan")
	}
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *SubscriptionRepository) FindByID(ctx context.Context, id uint) (*models.Subscription, error) {
	if id == 0 {
		return nil, ErrNotFound
	}
	var sub models.Subscription
	err := r.db.WithContext(ctx).Preload("Plan").Preload("FamilyMembers").First(&sub, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		configslog.Log.Error("SubscriptionRepository.FindByID: DB error", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return &sub, nil
}

// FindByUserID returns the user's most recent subscription row.
func (r *SubscriptionRepository) FindByUserID(ctx context.Context, userID uint) (*models.Subscription, error) {
	if userID == 0 {
		return nil, ErrNotFound
	}
	var sub models.Subscription
	err := r.db.WithContext(ctx).Preload("Plan").Preload("FamilyMembers").
		Where("user_id = ?", userID).
		Order("created_at desc").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		configslog.Log.Error("SubscriptionRepository.FindByUserID: DB error", zap.Uint("user_id", userID), zap.Error(err))
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepository) FindByProviderID(ctx context.Context, providerSubscriptionID string) (*models.Subscription, error) {
	if providerSubscriptionID == "" {
		return nil, ErrNotFound
	}
	var sub models.Subscription
	err := r.db.WithContext(ctx).Preload("Plan").
		Where("provider_subscription_id = ?", providerSubscriptionID).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		configslog.Log.Error("SubscriptionRepository.FindByProviderID: DB error", zap.Error(err))
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepository) Update(ctx context.Context, sub *models.Subscription) error {
	if sub == nil || sub.ID == 0 {
		return errors.New("invalid subscription for update")
	}
	return r.db.WithContext(ctx).Save(sub).Error
}

func (r *SubscriptionRepository) ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	err := r.db.WithContext(ctx).Order("price_monthly asc").Find(&plans).Error
	return plans, err
}

func (r *SubscriptionRepository) FindPlanByID(ctx context.Context, id uint) (*models.SubscriptionPlan, error) {
	if id == 0 {
		return nil, ErrNotFound
	}
	var plan models.SubscriptionPlan
	err := r.db.WithContext(ctx).First(&plan, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *SubscriptionRepository) FindPlanByProviderPriceID(ctx context.Context, priceID string) (*models.SubscriptionPlan, error) {
	if priceID == "" {
		return nil, ErrNotFound
	}
	var plan models.SubscriptionPlan
	err := r.db.WithContext(ctx).Where("provider_price_id = ?", priceID).First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *SubscriptionRepository) AddFamilyMember(ctx context.Context, member *models.FamilyMember) error {
	if member == nil || member.SubscriptionID == 0 {
		return errors.New("family member must reference a subscription")
	}
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *SubscriptionRepository) ListFamilyMembers(ctx context.Context, subscriptionID uint) ([]models.FamilyMember, error) {
	var members []models.FamilyMember
	err := r.db.WithContext(ctx).Where("subscription_id = ?", subscriptionID).
		Order("created_at asc").Find(&members).Error
	return members, err
}

func (r *SubscriptionRepository) CountFamilyMembers(ctx context.Context, subscriptionID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.FamilyMember{}).
		Where("subscription_id = ?", subscriptionID).Count(&count).Error
	return count, err
}

func (r *SubscriptionRepository) DeleteFamilyMember(ctx context.Context, id uint, subscriptionID uint) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND subscription_id = ?", id, subscriptionID).
		Delete(&models.FamilyMember{})
	if result.Error != nil {
		configslog.Log.Error("SubscriptionRepository.DeleteFamilyMember: DB error", zap.Uint("id", id), zap.Error(result.Error))
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

var _ ISubscriptionRepository = (*SubscriptionRepository)(nil)
