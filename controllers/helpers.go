package controllers

import (
	"errors"
	"net/http"

	"inkstudio-backend/config"
	"inkstudio-backend/services"
	"inkstudio-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Follow-up scheduling needs the broker and mailer wired in main, so the
// service is injected once at startup instead of built per request.
var followUpSvc *services.FollowUpService

func SetFollowUpService(s *services.FollowUpService) {
	followUpSvc = s
}

func planService() *services.PlanService {
	return services.NewPlanService(config.DB)
}

func limitService() *services.LimitService {
	return services.NewLimitService(config.DB)
}

// salonUUID pulls the authenticated salon ID out of the gin context. On
// failure it writes the error response and returns false.
func salonUUID(c *gin.Context) (uuid.UUID, bool) {
	salonID, exists := c.Get("salonId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Salon ID not found in context")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(salonID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid salon ID format")
		return uuid.Nil, false
	}
	return id, true
}

func userUUID(c *gin.Context) (uuid.UUID, bool) {
	userID, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(userID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid user ID format")
		return uuid.Nil, false
	}
	return id, true
}

// respondQuotaError maps limit-evaluator failures: quota denials become a
// 403 with the upgrade message, everything else a 500.
func respondQuotaError(c *gin.Context, err error) {
	var quotaErr *services.QuotaExceededError
	if errors.As(err, &quotaErr) {
		utils.RespondWithError(c, http.StatusForbidden, quotaErr.Error())
		return
	}
	utils.RespondWithError(c, http.StatusInternalServerError, "Failed to check plan limits")
}
