package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"inkstudio-backend/config"
	"inkstudio-backend/models"
	"inkstudio-backend/services"
	"inkstudio-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Email        string       `json:"email" binding:"required,email"`
	Phone        string       `json:"phone" binding:"required"`
	Name         string       `json:"name" binding:"required"`
	Password     string       `json:"password" binding:"required,min=8"`
	SalonName    string       `json:"salonName" binding:"required"`
	SalonAddress string       `json:"salonAddress"`
	Tier         string       `json:"tier"` // defaults to free
	WorkingHours models.JSONB `json:"workingHours"`
}

type LoginInput struct {
	Identifier string `json:"identifier" binding:"required"` // Can be email or phone
	Password   string `json:"password" binding:"required"`
}

// Register creates the salon (tenant), its owner account and the plan
// record for the chosen tier.
func Register(c *gin.Context) {
	var input RegisterInput

	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	// Tier is validated at the boundary; unknown values never reach the
	// plan service.
	if input.Tier == "" {
		input.Tier = string(services.TierFree)
	}
	tier, err := services.ParseTier(input.Tier)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	var existingUser models.User
	result := config.DB.Where("email = ? OR phone = ?", input.Email, input.Phone).First(&existingUser)
	if result.Error == nil {
		utils.RespondWithError(c, http.StatusConflict, "Email or phone already registered")
		return
	} else if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	salon := models.Salon{
		ID:           uuid.New(),
		Name:         input.SalonName,
		Address:      input.SalonAddress,
		Email:        input.Email,
		CurrentTier:  string(tier),
		WorkingHours: input.WorkingHours,
	}
	if salon.WorkingHours == nil {
		salon.WorkingHours = models.JSONB{
			"monday":    map[string]interface{}{"open": "10:00", "close": "19:00", "closed": false},
			"tuesday":   map[string]interface{}{"open": "10:00", "close": "19:00", "closed": false},
			"wednesday": map[string]interface{}{"open": "10:00", "close": "19:00", "closed": false},
			"thursday":  map[string]interface{}{"open": "10:00", "close": "19:00", "closed": false},
			"friday":    map[string]interface{}{"open": "10:00", "close": "20:00", "closed": false},
			"saturday":  map[string]interface{}{"open": "11:00", "close": "20:00", "closed": false},
			"sunday":    map[string]interface{}{"open": "11:00", "close": "17:00", "closed": true},
		}
	}

	owner := models.User{
		Email:    input.Email,
		Phone:    input.Phone,
		Name:     input.Name,
		Password: input.Password, // Will be hashed in BeforeCreate hook
		Role:     "owner",
		SalonID:  salon.ID,
		IsActive: true,
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&salon).Error; err != nil {
			return err
		}
		return tx.Create(&owner).Error
	})
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create account")
		return
	}

	// Materialize the plan record for the chosen tier
	if _, err := planService().GetPlanDetails(salon.ID); err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create plan")
		return
	}

	token, err := utils.GenerateToken(owner.ID.String(), salon.ID.String())
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"token":   token,
		"user": gin.H{
			"id":        owner.ID,
			"email":     owner.Email,
			"phone":     owner.Phone,
			"salonName": salon.Name,
			"tier":      salon.CurrentTier,
		},
	})
}

func Login(c *gin.Context) {
	var input LoginInput

	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	identifier := strings.TrimSpace(input.Identifier)

	var user models.User
	result := config.DB.Where("email = ? OR phone = ?", identifier, identifier).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if !utils.CheckPasswordHash(input.Password, user.Password) {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := utils.GenerateToken(user.ID.String(), user.SalonID.String())
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	now := time.Now()
	config.DB.Model(&user).Update("last_login", &now)

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
			"role":  user.Role,
		},
	})
}

func Me(c *gin.Context) {
	userID, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusInternalServerError, "User ID not found in context")
		return
	}

	var user models.User
	if err := config.DB.Preload("Salon").First(&user, "id = ?", userID).Error; err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "User not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":        user.ID,
			"email":     user.Email,
			"name":      user.Name,
			"role":      user.Role,
			"salonName": user.Salon.Name,
			"tier":      user.Salon.CurrentTier,
		},
	})
}
