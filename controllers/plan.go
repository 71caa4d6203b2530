package controllers

import (
	"errors"
	"net/http"
	"time"

	"inkstudio-backend/services"
	"inkstudio-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UpgradePlanInput defines the expected JSON structure for a tier change
type UpgradePlanInput struct {
	Tier    string     `json:"tier" binding:"required"`
	EndDate *time.Time `json:"endDate"`
}

// GetPlan returns the salon's plan record, lazily creating or expiring it
func GetPlan(c *gin.Context) {
	salonID, ok := salonUUID(c)
	if !ok {
		return
	}

	pd, err := planService().GetPlanDetails(salonID)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load plan details")
		return
	}

	c.JSON(http.StatusOK, pd)
}

// GetPlanUsage returns current usage against the plan's limits
func GetPlanUsage(c *gin.Context) {
	salonID, ok := salonUUID(c)
	if !ok {
		return
	}

	check, err := limitService().CheckLimits(salonID)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to compute usage")
		return
	}

	c.JSON(http.StatusOK, check)
}

// CheckLimit answers whether one more of the given action is allowed
func CheckLimit(c *gin.Context) {
	salonID, ok := salonUUID(c)
	if !ok {
		return
	}

	action := services.Action(c.Param("action"))
	allowed, err := limitService().CanPerform(salonID, action)
	if err != nil {
		var unknownErr *services.UnknownActionError
		if errors.As(err, &unknownErr) {
			utils.RespondWithError(c, http.StatusBadRequest, unknownErr.Error())
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to check limit")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"action": action, "allowed": allowed})
}

// CheckFeature answers whether the plan carries a feature flag
func CheckFeature(c *gin.Context) {
	salonID, ok := salonUUID(c)
	if !ok {
		return
	}

	feature := services.Feature(c.Param("feature"))
	enabled, err := limitService().HasFeature(salonID, feature)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"feature": feature, "enabled": enabled})
}

// UpgradePlan applies a tier change for the salon
func UpgradePlan(c *gin.Context) {
	salonID, ok := salonUUID(c)
	if !ok {
		return
	}

	var input UpgradePlanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	// Unknown tiers are rejected here, before the lifecycle manager runs
	tier, err := services.ParseTier(input.Tier)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	pd, err := planService().UpdatePlan(salonID, tier, input.EndDate)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Salon not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update plan")
		}
		return
	}

	c.JSON(http.StatusOK, pd)
}

// RepairPlan re-derives quota fields from the stored tier
func RepairPlan(c *gin.Context) {
	salonID, ok := salonUUID(c)
	if !ok {
		return
	}

	pd, err := planService().RepairPlan(salonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "No plan record to repair")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to repair plan")
		}
		return
	}

	c.JSON(http.StatusOK, pd)
}
