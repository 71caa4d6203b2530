package controllers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"inkstudio-backend/config"
	"inkstudio-backend/models"
	"inkstudio-backend/services"
	"inkstudio-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateAppointmentInput defines the expected JSON structure for booking
type CreateAppointmentInput struct {
	ClientID    uuid.UUID `json:"clientId" binding:"required"`
	ArtistID    uuid.UUID `json:"artistId" binding:"required"`
	StartsAt    time.Time `json:"startsAt" binding:"required"`
	EndsAt      time.Time `json:"endsAt" binding:"required"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Notes       string    `json:"notes"`
}

// UpdateAppointmentInput defines the expected JSON structure for updates
type UpdateAppointmentInput struct {
	StartsAt    *time.Time `json:"startsAt"`
	EndsAt      *time.Time `json:"endsAt"`
	Status      *string    `json:"status"`
	Description *string    `json:"description"`
	Price       *float64   `json:"price"`
	Notes       *string    `json:"notes"`
}

var validStatuses = map[string]bool{
	models.AppointmentPending:   true,
	models.AppointmentConfirmed: true,
	models.AppointmentCompleted: true,
	models.AppointmentCancelled: true,
}

// CreateAppointment books a session, subject to the monthly appointment quota
func CreateAppointment(c *gin.Context) {
	salonID, ok := salonUUID(c)
	if !ok {
		return
	}
	userID, ok := userUUID(c)
	if !ok {
		return
	}

	var input CreateAppointmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if !input.EndsAt.After(input.StartsAt) {
		utils.RespondWithError(c, http.StatusBadRequest, "endsAt must be after startsAt")
		return
	}

	if err := limitService().Enforce(salonID, services.ActionAppointment); err != nil {
		respondQuotaError(c, err)
		return
	}

	// Client and artist must belong to this salon
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

	var artist models.User
	if err := config.DB.Where("salon_id = ? AND id = ?", salonID, input.ArtistID).
		First(&artist).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Artist not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	appointment := models.Appointment{
		ID:              uuid.New(),
		SalonID:         salonID,
		ClientID:        input.ClientID,
		UserID:          input.ArtistID,
		CreatedByUserID: userID,
		StartsAt:        input.StartsAt,
		EndsAt:          input.EndsAt,
		Status:          models.AppointmentPending,
		Description:     input.Description,
		Price:           input.Price,
		Notes:           input.Notes,
	}

	if err := config.DB.Create(&appointment).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create appointment")
		return
	}

	c.JSON(http.StatusCreated, appointment)
}

// GetAppointments retrieves all appointments for the salon
func GetAppointments(c *gin.Context) {
	salonID, ok := salonUUID(c)
	if !ok {
		return
	}

	query := config.DB.Preload("Client").Preload("User").
		Where("salon_id = ?", salonID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var appointments []models.Appointment
	if err := query.Order("starts_at DESC").Find(&appointments).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve appointments")
		return
	}

	c.JSON(http.StatusOK, appointments)
}

// GetAppointment retrieves a specific appointment by ID
func GetAppointment(c *gin.Context) {
	salonID, ok := salonUUID(c)
	if !ok {
		return
	}

	appointmentUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid appointment ID format")
		return
	}

	var appointment models.Appointment
	if err := config.DB.Preload("Client").Preload("User").
		Where("salon_id = ? AND id = ?", salonID, appointmentUUID).
		First(&appointment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Appointment not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, appointment)
}

// UpdateAppointment updates an existing appointment. Confirming an
// appointment schedules its healing follow-up email.
func UpdateAppointment(c *gin.Context) {
	salonID, ok := salonUUID(c)
	if !ok {
		return
	}

	appointmentUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid appointment ID format")
		return
	}

	var input UpdateAppointmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var appointment models.Appointment
	if err := config.DB.Where("salon_id = ? AND id = ?", salonID, appointmentUUID).
		First(&appointment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Appointment not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	confirmed := false
	if input.Status != nil {
		if !validStatuses[*input.Status] {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid appointment status")
			return
		}
		confirmed = *input.Status == models.AppointmentConfirmed &&
			appointment.Status != models.AppointmentConfirmed
		appointment.Status = *input.Status
	}
	if input.StartsAt != nil {
		appointment.StartsAt = *input.StartsAt
	}
	if input.EndsAt != nil {
		appointment.EndsAt = *input.EndsAt
	}
	if input.Description != nil {
		appointment.Description = *input.Description
	}
	if input.Price != nil {
		appointment.Price = *input.Price
	}
	if input.Notes != nil {
		appointment.Notes = *input.Notes
	}

	if !appointment.EndsAt.After(appointment.StartsAt) {
		utils.RespondWithError(c, http.StatusBadRequest, "endsAt must be after startsAt")
		return
	}

	if err := config.DB.Save(&appointment).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update appointment")
		return
	}

	if confirmed && followUpSvc != nil {
		// Scheduling is idempotent per appointment; a failure here leaves
		// the booking confirmed, so just log it.
		if _, err := followUpSvc.ScheduleFollowUp(appointment.ID, appointment.EndsAt); err != nil {
			log.Printf("Failed to schedule follow-up for appointment %s: %v", appointment.ID, err)
		}
	}

	c.JSON(http.StatusOK, appointment)
}

// DeleteAppointment removes an appointment. A scheduled follow-up is not
// cancelled; the handler's status recheck keeps it from sending.
func DeleteAppointment(c *gin.Context) {
	salonID, ok := salonUUID(c)
	if !ok {
		return
	}

	appointmentUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid appointment ID format")
		return
	}

	result := config.DB.Where("salon_id = ? AND id = ?", salonID, appointmentUUID).
		Delete(&models.Appointment{})

	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete appointment")
		return
	}

	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Appointment not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Appointment deleted successfully"})
}
