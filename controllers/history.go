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

// CreateHistoryInput defines the expected JSON structure for a treatment record
type CreateHistoryInput struct {
	ClientID     uuid.UUID    `json:"clientId" binding:"required"`
	Date         time.Time    `json:"date" binding:"required"`
	Zone         string       `json:"zone"`
	SizeCm       float64      `json:"sizeCm"`
	Price        float64      `json:"price"`
	Ink          string       `json:"ink"`
	HealingWeeks int          `json:"healingWeeks"`
	CareProducts string       `json:"careProducts"`
	Images       models.JSONB `json:"images"`
}

// UpdateHistoryInput defines the expected JSON structure for updating a record
type UpdateHistoryInput struct {
	Date         *time.Time   `json:"date"`
	Zone         *string      `json:"zone"`
	SizeCm       *float64     `json:"sizeCm"`
	Price        *float64     `json:"price"`
	Ink          *string      `json:"ink"`
	HealingWeeks *int         `json:"healingWeeks"`
	CareProducts *string      `json:"careProducts"`
	Images       models.JSONB `json:"images"`
}

// CreateHistoryRecord adds a treatment record; the client must exist and
// belong to the caller's salon
func CreateHistoryRecord(c *gin.Context) {
	salonID, ok := salonUUID(c)
	if !ok {
		return
	}
	userID, ok := userUUID(c)
	if !ok {
		return
	}

	var input CreateHistoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var client models.Client
	if err := config.DB.Where("salon_id = ? AND id = ?", salonID, input.ClientID).
		First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Client not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	record := models.TattooHistoryRecord{
		ID:              uuid.New(),
		SalonID:         salonID,
		ClientID:        input.ClientID,
		CreatedByUserID: userID,
		Date:            input.Date,
		Zone:            input.Zone,
		SizeCm:          input.SizeCm,
		Price:           input.Price,
		Ink:             input.Ink,
		HealingWeeks:    input.HealingWeeks,
		CareProducts:    input.CareProducts,
		Images:          input.Images,
	}

	if err := config.DB.Create(&record).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create history record")
		return
	}

	c.JSON(http.StatusCreated, record)
}

// GetHistoryRecords lists treatment records for the salon, newest first.
// An optional clientId query narrows to one client.
func GetHistoryRecords(c *gin.Context) {
	salonID, ok := salonUUID(c)
	if !ok {
		return
	}

	query := config.DB.Where("salon_id = ?", salonID)
	if clientID := c.Query("clientId"); clientID != "" {
		clientUUID, err := uuid.Parse(clientID)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid client ID format")
			return
		}
		query = query.Where("client_id = ?", clientUUID)
	}

	var records []models.TattooHistoryRecord
	if err := query.Order("date DESC").Find(&records).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve history records")
		return
	}

	c.JSON(http.StatusOK, records)
}

// GetHistoryRecord retrieves one record, scoped to the caller's salon
func GetHistoryRecord(c *gin.Context) {
	salonID, ok := salonUUID(c)
	if !ok {
		return
	}

	recordUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid record ID format")
		return
	}

	var record models.TattooHistoryRecord
	if err := config.DB.Where("salon_id = ? AND id = ?", salonID, recordUUID).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "History record not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, record)
}

// UpdateHistoryRecord updates a record. The salon_id scope doubles as the
// tenant-ownership check: another salon's record reads as not found.
func UpdateHistoryRecord(c *gin.Context) {
	salonID, ok := salonUUID(c)
	if !ok {
		return
	}

	recordUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid record ID format")
		return
	}

	var input UpdateHistoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var record models.TattooHistoryRecord
	if err := config.DB.Where("salon_id = ? AND id = ?", salonID, recordUUID).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "History record not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if input.Date != nil {
		record.Date = *input.Date
	}
	if input.Zone != nil {
		record.Zone = *input.Zone
	}
	if input.SizeCm != nil {
		record.SizeCm = *input.SizeCm
	}
	if input.Price != nil {
		record.Price = *input.Price
	}
	if input.Ink != nil {
		record.Ink = *input.Ink
	}
	if input.HealingWeeks != nil {
		record.HealingWeeks = *input.HealingWeeks
	}
	if input.CareProducts != nil {
		record.CareProducts = *input.CareProducts
	}
	if input.Images != nil {
		record.Images = input.Images
	}

	if err := config.DB.Save(&record).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update history record")
		return
	}

	c.JSON(http.StatusOK, record)
}

// DeleteHistoryRecord deletes a record, scoped to the caller's salon
func DeleteHistoryRecord(c *gin.Context) {
	salonID, ok := salonUUID(c)
	if !ok {
		return
	}

	recordUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid record ID format")
		return
	}

	result := config.DB.Where("salon_id = ? AND id = ?", salonID, recordUUID).
		Delete(&models.TattooHistoryRecord{})

	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete history record")
		return
	}

	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "History record not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "History record deleted successfully"})
}
