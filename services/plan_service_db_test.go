package services

import (
	"os"
	"testing"

	"inkstudio-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DB_URL")
	if dsn == "" {
		t.Skip("Skipping database-dependent test: TEST_DB_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Skipf("Skipping database-dependent test: connect failed (%v)", err)
	}

	require.NoError(t, db.AutoMigrate(&models.Salon{}, &models.PlanDetails{}))
	return db
}

func TestUpdatePlanAtomicity(t *testing.T) {
	db := openTestDB(t)
	svc := NewPlanService(db)

	t.Run("missing salon rolls back the plan write", func(t *testing.T) {
		ghost := uuid.New()

		_, err := svc.UpdatePlan(ghost, TierBusiness, nil)
		require.ErrorIs(t, err, gorm.ErrRecordNotFound)

		var count int64
		require.NoError(t, db.Model(&models.PlanDetails{}).
			Where("salon_id = ?", ghost).Count(&count).Error)
		assert.Zero(t, count, "no plan row may survive a failed tier change")
	})

	t.Run("tier change lands on both records together", func(t *testing.T) {
		salon := models.Salon{ID: uuid.New(), Name: "Atomic Ink", CurrentTier: string(TierFree)}
		require.NoError(t, db.Create(&salon).Error)
		t.Cleanup(func() {
			db.Unscoped().Where("salon_id = ?", salon.ID).Delete(&models.PlanDetails{})
			db.Delete(&salon)
		})

		pd, err := svc.UpdatePlan(salon.ID, TierBusiness, nil)
		require.NoError(t, err)
		assert.Equal(t, string(TierBusiness), pd.CurrentTier)
		assert.Equal(t, models.PlanActive, pd.Status)

		var reloaded models.Salon
		require.NoError(t, db.First(&reloaded, "id = ?", salon.ID).Error)
		assert.Equal(t, string(TierBusiness), reloaded.CurrentTier)

		var stored models.PlanDetails
		require.NoError(t, db.Where("salon_id = ?", salon.ID).First(&stored).Error)
		assert.Equal(t, Unlimited, stored.MaxAppointments)
		assert.True(t, stored.HasAPIAccess)
	})
}
