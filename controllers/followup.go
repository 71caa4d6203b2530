package controllers

import (
	"errors"
	"net/http"
	"time"

	"inkstudio-backend/config"
	"inkstudio-backend/models"
	"inkstudio-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubmitFollowUpInput is the client's healing feedback
type SubmitFollowUpInput struct {
	Rating  int          `json:"rating" binding:"required,min=1,max=5"`
	Comment string       `json:"comment"`
	Photos  models.JSONB `json:"photos"`
}

// findActiveFollowUp resolves a token to a live request. Unknown and
// expired tokens are indistinguishable to the caller.
func findActiveFollowUp(c *gin.Context, token string) (*models.FollowUpRequest, bool) {
	var req models.FollowUpRequest
	err := config.DB.Preload("Submission").Where("token = ?", token).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Follow-up not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return nil, false
	}

	if time.Now().After(req.ExpiresAt) {
		utils.RespondWithError(c, http.StatusNotFound, "Follow-up not found")
		return nil, false
	}

	return &req, true
}

// GetFollowUp shows the public follow-up page data for a token
func GetFollowUp(c *gin.Context) {
	req, ok := findActiveFollowUp(c, c.Param("token"))
	if !ok {
		return
	}

	var salon models.Salon
	if err := config.DB.First(&salon, "id = ?", req.SalonID).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"salonName": salon.Name,
		"expiresAt": req.ExpiresAt,
		"submitted": req.Submission != nil,
	})
}

// SubmitFollowUp records the client's healing feedback for a token
func SubmitFollowUp(c *gin.Context) {
	req, ok := findActiveFollowUp(c, c.Param("token"))
	if !ok {
		return
	}

	if req.Submission != nil {
		utils.RespondWithError(c, http.StatusConflict, "Feedback already submitted")
		return
	}

	var input SubmitFollowUpInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	submission := models.FollowUpSubmission{
		ID:                uuid.New(),
		FollowUpRequestID: req.ID,
		Rating:            input.Rating,
		Comment:           input.Comment,
		Photos:            input.Photos,
	}

	if err := config.DB.Create(&submission).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.RespondWithError(c, http.StatusConflict, "Feedback already submitted")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to save feedback")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Thank you for your feedback"})
}
