package services

import (
	"errors"
	"log"
	"time"

	"inkstudio-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlanService owns the PlanDetails lifecycle: lazy creation at first
// access, lazy expiry, tier changes and drift repair.
type PlanService struct {
	db *gorm.DB
}

func NewPlanService(db *gorm.DB) *PlanService {
	return &PlanService{db: db}
}

// GetPlanDetails returns the salon's plan record, creating it from the
// salon's stored tier if absent and expiring it if its end date has
// passed. Expiry happens here, on access, never from a background timer;
// callers evaluating limits must go through this method first.
func (s *PlanService) GetPlanDetails(salonID uuid.UUID) (*models.PlanDetails, error) {
	var pd models.PlanDetails
	err := s.db.Where("salon_id = ?", salonID).First(&pd).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.createPlanDetails(salonID)
	}
	if err != nil {
		return nil, err
	}

	if shouldExpire(&pd, time.Now()) {
		quotas, err := QuotasForTier(TierFree)
		if err != nil {
			return nil, err
		}
		applyTier(&pd, TierFree, quotas)
		pd.Status = models.PlanExpired
		if err := s.db.Save(&pd).Error; err != nil {
			return nil, err
		}
		log.Printf("[Plan] Salon %s plan expired, downgraded to free", salonID)
	}

	return &pd, nil
}

// createPlanDetails builds the initial plan record from the salon's chosen
// tier. A lost unique-constraint race means someone else created it first;
// re-read and use theirs.
func (s *PlanService) createPlanDetails(salonID uuid.UUID) (*models.PlanDetails, error) {
	tier := TierFree
	var salon models.Salon
	if err := s.db.First(&salon, "id = ?", salonID).Error; err == nil {
		if parsed, perr := ParseTier(salon.CurrentTier); perr == nil {
			tier = parsed
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	quotas, err := QuotasForTier(tier)
	if err != nil {
		return nil, err
	}

	pd := models.PlanDetails{
		SalonID: salonID,
		Status:  models.PlanActive,
		EndDate: defaultEndDate(tier, time.Now()),
	}
	applyTier(&pd, tier, quotas)

	if err := s.db.Create(&pd).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var existing models.PlanDetails
			if rerr := s.db.Where("salon_id = ?", salonID).First(&existing).Error; rerr != nil {
				return nil, rerr
			}
			return &existing, nil
		}
		return nil, err
	}
	return &pd, nil
}

// UpdatePlan applies a tier change. The salon's denormalized tier and the
// PlanDetails record change in one transaction; no intermediate state is
// observable.
func (s *PlanService) UpdatePlan(salonID uuid.UUID, tier Tier, endDate *time.Time) (*models.PlanDetails, error) {
	quotas, err := QuotasForTier(tier)
	if err != nil {
		return nil, err
	}

	if endDate == nil {
		endDate = defaultEndDate(tier, time.Now())
	}

	var pd models.PlanDetails
	err = s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("salon_id = ?", salonID).First(&pd).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			pd = models.PlanDetails{SalonID: salonID}
		} else if err != nil {
			return err
		}

		applyTier(&pd, tier, quotas)
		pd.Status = models.PlanActive
		pd.EndDate = endDate

		if err := tx.Save(&pd).Error; err != nil {
			return err
		}

		result := tx.Model(&models.Salon{}).
			Where("id = ?", salonID).
			Update("current_tier", string(tier))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &pd, nil
}

// RepairPlan re-derives every catalog field from the stored tier, for
// correcting manual data drift. Fails if no plan record exists.
func (s *PlanService) RepairPlan(salonID uuid.UUID) (*models.PlanDetails, error) {
	var pd models.PlanDetails
	if err := s.db.Where("salon_id = ?", salonID).First(&pd).Error; err != nil {
		return nil, err
	}

	tier, err := ParseTier(pd.CurrentTier)
	if err != nil {
		return nil, err
	}
	quotas, err := QuotasForTier(tier)
	if err != nil {
		return nil, err
	}

	applyTier(&pd, tier, quotas)
	if err := s.db.Save(&pd).Error; err != nil {
		return nil, err
	}
	return &pd, nil
}

// shouldExpire reports whether an active plan's end date has passed.
// Already-expired plans never re-trigger the transition.
func shouldExpire(pd *models.PlanDetails, now time.Time) bool {
	return pd.Status == models.PlanActive && pd.EndDate != nil && pd.EndDate.Before(now)
}

// defaultEndDate is 365 days out for paid tiers, nil (never expires) for free.
func defaultEndDate(tier Tier, now time.Time) *time.Time {
	if !IsPaidTier(tier) {
		return nil
	}
	end := now.AddDate(0, 0, 365)
	return &end
}
