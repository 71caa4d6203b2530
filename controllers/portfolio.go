package controllers

import (
	"errors"
	"net/http"

	"inkstudio-backend/config"
	"inkstudio-backend/models"
	"inkstudio-backend/services"
	"inkstudio-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreatePortfolioImageInput defines the expected JSON structure
type CreatePortfolioImageInput struct {
	URL     string `json:"url" binding:"required"`
	Caption string `json:"caption"`
	Style   string `json:"style"`
}

// UpdatePortfolioImageInput defines the expected JSON structure for updates
type UpdatePortfolioImageInput struct {
	Caption *string `json:"caption"`
	Style   *string `json:"style"`
}

// CreatePortfolioImage adds an image, subject to the portfolio quota
func CreatePortfolioImage(c *gin.Context) {
	salonID, ok := salonUUID(c)
	if !ok {
		return
	}
	userID, ok := userUUID(c)
	if !ok {
		return
	}

	var input CreatePortfolioImageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if err := limitService().Enforce(salonID, services.ActionPortfolioImage); err != nil {
		respondQuotaError(c, err)
		return
	}

	image := models.PortfolioImage{
		ID:              uuid.New(),
		SalonID:         salonID,
		CreatedByUserID: userID,
		URL:             input.URL,
		Caption:         input.Caption,
		Style:           input.Style,
	}
	if image.Style == "" {
		image.Style = "General"
	}

	if err := config.DB.Create(&image).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create portfolio image")
		return
	}

	c.JSON(http.StatusCreated, image)
}

// GetPortfolioImages lists the salon's portfolio
func GetPortfolioImages(c *gin.Context) {
	salonID, ok := salonUUID(c)
	if !ok {
		return
	}

	var images []models.PortfolioImage
	if err := config.DB.Where("salon_id = ?", salonID).Find(&images).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve portfolio images")
		return
	}

	c.JSON(http.StatusOK, images)
}

// UpdatePortfolioImage updates caption or style
func UpdatePortfolioImage(c *gin.Context) {
	salonID, ok := salonUUID(c)
	if !ok {
		return
	}

	imageUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid image ID format")
		return
	}

	var input UpdatePortfolioImageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var image models.PortfolioImage
	if err := config.DB.Where("salon_id = ? AND id = ?", salonID, imageUUID).
		First(&image).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Portfolio image not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if input.Caption != nil {
		image.Caption = *input.Caption
	}
	if input.Style != nil {
		image.Style = *input.Style
	}

	if err := config.DB.Save(&image).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update portfolio image")
		return
	}

	c.JSON(http.StatusOK, image)
}

// DeletePortfolioImage removes an image from the portfolio
func DeletePortfolioImage(c *gin.Context) {
	salonID, ok := salonUUID(c)
	if !ok {
		return
	}

	imageUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid image ID format")
		return
	}

	result := config.DB.Where("salon_id = ? AND id = ?", salonID, imageUUID).
		Delete(&models.PortfolioImage{})

	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete portfolio image")
		return
	}

	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Portfolio image not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Portfolio image deleted successfully"})
}
