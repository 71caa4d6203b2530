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

// AddEmployeeInput defines the expected JSON structure for adding staff
type AddEmployeeInput struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required,min=8"`
}

// UpdateEmployeeInput defines the expected JSON structure for updating staff
type UpdateEmployeeInput struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	IsActive *bool   `json:"isActive"`
}

// GetEmployees lists the salon's staff
func GetEmployees(c *gin.Context) {
	salonID, ok := salonUUID(c)
	if !ok {
		return
	}

	var employees []models.User
	if err := config.DB.Select("id", "email", "name", "phone", "role", "is_active", "last_login").
		Where("salon_id = ?", salonID).Find(&employees).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve employees")
		return
	}

	c.JSON(http.StatusOK, employees)
}

// AddEmployee creates an artist account, subject to the staff quota
func AddEmployee(c *gin.Context) {
	salonID, ok := salonUUID(c)
	if !ok {
		return
	}

	var input AddEmployeeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if err := limitService().Enforce(salonID, services.ActionStaff); err != nil {
		respondQuotaError(c, err)
		return
	}

	var existing models.User
	if err := config.DB.Where("email = ?", input.Email).First(&existing).Error; err == nil {
		utils.RespondWithError(c, http.StatusConflict, "Email already registered")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	employee := models.User{
		Email:    input.Email,
		Name:     input.Name,
		Phone:    input.Phone,
		Password: input.Password, // Will be hashed in BeforeCreate hook
		Role:     "artist",
		SalonID:  salonID,
		IsActive: true,
	}

	if err := config.DB.Create(&employee).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create employee")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":    employee.ID,
		"email": employee.Email,
		"name":  employee.Name,
		"role":  employee.Role,
	})
}

// UpdateEmployee updates staff details
func UpdateEmployee(c *gin.Context) {
	salonID, ok := salonUUID(c)
	if !ok {
		return
	}

	employeeUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid employee ID format")
		return
	}

	var input UpdateEmployeeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var employee models.User
	if err := config.DB.Where("salon_id = ? AND id = ?", salonID, employeeUUID).
		First(&employee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Employee not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if input.Name != nil {
		employee.Name = *input.Name
	}
	if input.Phone != nil {
		employee.Phone = *input.Phone
	}
	if input.IsActive != nil {
		employee.IsActive = *input.IsActive
	}

	if err := config.DB.Save(&employee).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update employee")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":       employee.ID,
		"email":    employee.Email,
		"name":     employee.Name,
		"role":     employee.Role,
		"isActive": employee.IsActive,
	})
}

// DeleteEmployee removes an artist account. Owners cannot be deleted.
func DeleteEmployee(c *gin.Context) {
	salonID, ok := salonUUID(c)
	if !ok {
		return
	}

	employeeUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid employee ID format")
		return
	}

	result := config.DB.Where("salon_id = ? AND id = ? AND role != ?", salonID, employeeUUID, "owner").
		Delete(&models.User{})

	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete employee")
		return
	}

	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Employee not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Employee deleted successfully"})
}
