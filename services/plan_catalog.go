package services

import (
	"fmt"

	"inkstudio-backend/models"
)

// Tier is a subscription level. Anything outside the three defined values
// is a configuration error, never a silent default.
type Tier string

const (
	TierFree     Tier = "free"
	TierPro      Tier = "pro"
	TierBusiness Tier = "business"
)

// Unlimited is the sentinel for "no cap" throughout the limit subsystem.
const Unlimited = -1

// InvalidTierError is returned for any tier outside the catalog.
type InvalidTierError struct {
	Tier string
}

func (e *InvalidTierError) Error() string {
	return fmt.Sprintf("invalid plan tier: %q", e.Tier)
}

// PlanQuotas is the full quota/flag/price set for one tier.
type PlanQuotas struct {
	MaxAppointments    int
	MaxClients         int
	MaxStaff           int
	MaxPortfolioImages int

	HasAdvancedStats  bool
	HasEmailReminders bool
	HasCustomBranding bool
	HasAPIAccess      bool

	MonthlyPrice float64
}

var planCatalog = map[Tier]PlanQuotas{
	TierFree: {
		MaxAppointments:    5,
		MaxClients:         5,
		MaxStaff:           1,
		MaxPortfolioImages: 5,
	},
	TierPro: {
		MaxAppointments:    150,
		MaxClients:         200,
		MaxStaff:           3,
		MaxPortfolioImages: 30,
		HasAdvancedStats:   true,
		HasEmailReminders:  true,
		MonthlyPrice:       29.99,
	},
	TierBusiness: {
		MaxAppointments:    Unlimited,
		MaxClients:         Unlimited,
		MaxStaff:           Unlimited,
		MaxPortfolioImages: Unlimited,
		HasAdvancedStats:   true,
		HasEmailReminders:  true,
		HasCustomBranding:  true,
		HasAPIAccess:       true,
		MonthlyPrice:       79.99,
	},
}

// QuotasForTier returns the catalog entry for a tier.
func QuotasForTier(tier Tier) (PlanQuotas, error) {
	quotas, ok := planCatalog[tier]
	if !ok {
		return PlanQuotas{}, &InvalidTierError{Tier: string(tier)}
	}
	return quotas, nil
}

// ParseTier validates a tier value at the API boundary.
func ParseTier(s string) (Tier, error) {
	tier := Tier(s)
	if _, ok := planCatalog[tier]; !ok {
		return "", &InvalidTierError{Tier: s}
	}
	return tier, nil
}

// IsPaidTier reports whether a tier carries an end date when applied.
func IsPaidTier(tier Tier) bool {
	return tier == TierPro || tier == TierBusiness
}

// applyTier overwrites every catalog-derived field of pd from the given
// tier. Always a full overwrite, never a partial merge.
func applyTier(pd *models.PlanDetails, tier Tier, quotas PlanQuotas) {
	pd.CurrentTier = string(tier)
	pd.MaxAppointments = quotas.MaxAppointments
	pd.MaxClients = quotas.MaxClients
	pd.MaxStaff = quotas.MaxStaff
	pd.MaxPortfolioImages = quotas.MaxPortfolioImages
	pd.HasAdvancedStats = quotas.HasAdvancedStats
	pd.HasEmailReminders = quotas.HasEmailReminders
	pd.HasCustomBranding = quotas.HasCustomBranding
	pd.HasAPIAccess = quotas.HasAPIAccess
	pd.MonthlyPrice = quotas.MonthlyPrice
}
