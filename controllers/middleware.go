package controllers

import (
	"net/http"

	"inkstudio-backend/services"
	"inkstudio-backend/utils"

	"github.com/gin-gonic/gin"
)

// RequireFeature guards a route behind an explicit plan capability. Routes
// declare the feature they need where they are registered.
func RequireFeature(feature services.Feature) gin.HandlerFunc {
	return func(c *gin.Context) {
		salonID, ok := salonUUID(c)
		if !ok {
			return
		}

		enabled, err := limitService().HasFeature(salonID, feature)
		if err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to check plan features")
			return
		}
		if !enabled {
			utils.RespondWithError(c, http.StatusForbidden,
				"This feature is not included in your plan. Upgrade to unlock it.")
			return
		}

		c.Next()
	}
}
