package services

import (
	"errors"
	"testing"

	"inkstudio-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlanProvider struct {
	pd  *models.PlanDetails
	err error
}

func (f *fakePlanProvider) GetPlanDetails(salonID uuid.UUID) (*models.PlanDetails, error) {
	return f.pd, f.err
}

type fakeUsageCounter struct {
	usage Usage
	err   error
}

func (f *fakeUsageCounter) CountUsage(salonID uuid.UUID) (Usage, error) {
	return f.usage, f.err
}

func planForTier(t *testing.T, tier Tier) *models.PlanDetails {
	t.Helper()
	quotas, err := QuotasForTier(tier)
	require.NoError(t, err)

	pd := &models.PlanDetails{Status: models.PlanActive}
	applyTier(pd, tier, quotas)
	return pd
}

func limitServiceFor(t *testing.T, tier Tier, usage Usage) *LimitService {
	t.Helper()
	return NewLimitServiceWith(
		&fakePlanProvider{pd: planForTier(t, tier)},
		&fakeUsageCounter{usage: usage},
	)
}

func TestHasReached(t *testing.T) {
	assert.False(t, hasReached(5, 4))
	assert.True(t, hasReached(5, 5))
	assert.True(t, hasReached(5, 6))
	assert.True(t, hasReached(0, 0))
	assert.False(t, hasReached(Unlimited, 0))
	assert.False(t, hasReached(Unlimited, 1000000))
}

func TestCheckLimits(t *testing.T) {
	salonID := uuid.New()

	t.Run("free tier at the appointment cap", func(t *testing.T) {
		svc := limitServiceFor(t, TierFree, Usage{
			Appointments:    5,
			Clients:         3,
			Staff:           1,
			PortfolioImages: 0,
		})

		check, err := svc.CheckLimits(salonID)
		require.NoError(t, err)

		assert.True(t, check.Reached[ActionAppointment])
		assert.False(t, check.Reached[ActionClient])
		assert.True(t, check.Reached[ActionStaff])
		assert.False(t, check.Reached[ActionPortfolioImage])
		assert.Equal(t, 5, check.Limits.Appointments)
	})

	t.Run("business tier never trips", func(t *testing.T) {
		svc := limitServiceFor(t, TierBusiness, Usage{
			Appointments:    100000,
			Clients:         100000,
			Staff:           500,
			PortfolioImages: 100000,
		})

		check, err := svc.CheckLimits(salonID)
		require.NoError(t, err)

		for action, reached := range check.Reached {
			assert.False(t, reached, "action %s should never trip on business", action)
		}
	})

	t.Run("plan provider failure propagates", func(t *testing.T) {
		boom := errors.New("db down")
		svc := NewLimitServiceWith(&fakePlanProvider{err: boom}, &fakeUsageCounter{})

		_, err := svc.CheckLimits(salonID)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("usage counter failure propagates", func(t *testing.T) {
		boom := errors.New("count failed")
		svc := NewLimitServiceWith(
			&fakePlanProvider{pd: planForTier(t, TierFree)},
			&fakeUsageCounter{err: boom},
		)

		_, err := svc.CheckLimits(salonID)
		assert.ErrorIs(t, err, boom)
	})
}

func TestCanPerform(t *testing.T) {
	salonID := uuid.New()

	t.Run("allowed below the cap", func(t *testing.T) {
		svc := limitServiceFor(t, TierFree, Usage{Clients: 4})

		allowed, err := svc.CanPerform(salonID, ActionClient)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("denied at the cap", func(t *testing.T) {
		svc := limitServiceFor(t, TierFree, Usage{Clients: 5})

		allowed, err := svc.CanPerform(salonID, ActionClient)
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("unknown action is an error", func(t *testing.T) {
		svc := limitServiceFor(t, TierFree, Usage{})

		_, err := svc.CanPerform(salonID, Action("massage"))
		var unknownErr *UnknownActionError
		require.ErrorAs(t, err, &unknownErr)
		assert.Equal(t, Action("massage"), unknownErr.Action)
	})
}

func TestEnforce(t *testing.T) {
	salonID := uuid.New()

	t.Run("free salon hits the fifth appointment, upgrade to pro unblocks", func(t *testing.T) {
		usage := Usage{Appointments: 5}

		free := limitServiceFor(t, TierFree, usage)
		err := free.Enforce(salonID, ActionAppointment)
		require.Error(t, err)

		var quotaErr *QuotaExceededError
		require.ErrorAs(t, err, &quotaErr)
		assert.Equal(t, ActionAppointment, quotaErr.Action)
		assert.Equal(t, 5, quotaErr.Limit)
		assert.Contains(t, quotaErr.Error(), "Upgrade your plan")

		pro := limitServiceFor(t, TierPro, usage)
		assert.NoError(t, pro.Enforce(salonID, ActionAppointment))
	})

	t.Run("agrees with CanPerform on identical inputs", func(t *testing.T) {
		for _, usage := range []Usage{
			{},
			{Appointments: 4, Clients: 5, Staff: 1, PortfolioImages: 5},
			{Appointments: 5, Clients: 4, Staff: 0, PortfolioImages: 2},
		} {
			svc := limitServiceFor(t, TierFree, usage)
			for _, action := range []Action{ActionAppointment, ActionClient, ActionStaff, ActionPortfolioImage} {
				allowed, err := svc.CanPerform(salonID, action)
				require.NoError(t, err)

				enforceErr := svc.Enforce(salonID, action)
				if allowed {
					assert.NoError(t, enforceErr)
				} else {
					assert.Error(t, enforceErr)
				}
			}
		}
	})
}

func TestHasFeature(t *testing.T) {
	salonID := uuid.New()

	tests := []struct {
		tier    Tier
		feature Feature
		want    bool
	}{
		{TierFree, FeatureAdvancedStats, false},
		{TierFree, FeatureEmailReminders, false},
		{TierPro, FeatureAdvancedStats, true},
		{TierPro, FeatureEmailReminders, true},
		{TierPro, FeatureCustomBranding, false},
		{TierPro, FeatureAPIAccess, false},
		{TierBusiness, FeatureCustomBranding, true},
		{TierBusiness, FeatureAPIAccess, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.tier)+" "+string(tt.feature), func(t *testing.T) {
			svc := limitServiceFor(t, tt.tier, Usage{})
			got, err := svc.HasFeature(salonID, tt.feature)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("unknown feature is an error", func(t *testing.T) {
		svc := limitServiceFor(t, TierFree, Usage{})
		_, err := svc.HasFeature(salonID, Feature("time_travel"))
		assert.Error(t, err)
	})
}
