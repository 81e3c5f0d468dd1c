package seeders

import (
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tabib.link/configs/configslog"
	"tabib.link/models"
)

// SeedPlans inserts the purchasable subscription tiers. Existing plans are
// left untouched so price changes go through the provider dashboard plus a
// manual update, never a reseed.
func SeedPlans(db *gorm.DB) error {
	plansToSeed := []models.SubscriptionPlan{
		{Name: "Essentiel", Tier: "essentiel", PriceMonthly: 4.99, Currency: "EUR", ProviderPriceID: "price_essentiel_monthly", MaxFamilyMembers: 0},
		{Name: "Famille", Tier: "famille", PriceMonthly: 9.99, Currency: "EUR", ProviderPriceID: "price_famille_monthly", MaxFamilyMembers: 5},
		{Name: "Premium", Tier: "premium", PriceMonthly: 19.99, Currency: "EUR", ProviderPriceID: "price_premium_monthly", MaxFamilyMembers: 10},
	}

	var createdCount int64
	var errorOccurred bool

	configslog.SLog.Info("Seeding subscription plans...")

	for _, planToSeed := range plansToSeed {
		var existingPlan models.SubscriptionPlan
		result := db.Where("name = ?", planToSeed.Name).First(&existingPlan)

		if result.Error == nil {
			configslog.SLog.Debugf("Plan '%s' already exists, skipping", planToSeed.Name)
			continue
		} else if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			configslog.Log.Error("Failed to check subscription plan",
				zap.String("plan_name", planToSeed.Name),
				zap.Error(result.Error),
			)
			errorOccurred = true
			continue
		}

		if err := db.Create(&planToSeed).Error; err != nil {
			configslog.Log.Error("Failed to create subscription plan",
				zap.String("plan_name", planToSeed.Name),
				zap.Error(err),
			)
			errorOccurred = true
			continue
		}

		configslog.SLog.Infof("Plan '%s' created (ID: %d)", planToSeed.Name, planToSeed.ID)
		createdCount++
	}

	if createdCount > 0 {
		configslog.SLog.Infof("%d new subscription plans seeded", createdCount)
	} else if !errorOccurred {
		configslog.SLog.Info("All subscription plans already present, nothing to do")
	}

	if errorOccurred {
		return errors.New("at least one subscription plan could not be seeded")
	}
	return nil
}
