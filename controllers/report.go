package controllers

import (
	"net/http"
	"time"

	"inkstudio-backend/config"
	"inkstudio-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReportController handles all reporting functions
type ReportController struct{}

// AnalyticsSummary represents the Analytics data
type AnalyticsSummary struct {
	CurrentMonthRevenue float64         `json:"currentMonthRevenue"`
	MonthGrowth         float64         `json:"monthGrowth"`
	CurrentYearRevenue  float64         `json:"currentYearRevenue"`
	YearGrowth          float64         `json:"yearGrowth"`
	TopZones            []ZoneSummary   `json:"topZones"`
	TopClients          []ClientSummary `json:"topClients"`
	QuickStats          QuickStatistics `json:"quickStats"`
}

type ZoneSummary struct {
	Zone    string  `json:"zone"`
	Count   int     `json:"count"`
	Revenue float64 `json:"revenue"`
}

type ClientSummary struct {
	Name   string  `json:"name"`
	Visits int     `json:"visits"`
	Spent  float64 `json:"spent"`
}

type QuickStatistics struct {
	TotalClients     int64   `json:"totalClients"`
	TotalTreatments  int64   `json:"totalTreatments"`
	AvgTreatmentCost float64 `json:"avgTreatmentCost"`
	AvgRating        float64 `json:"avgRating"`
}

// GetReportAnalytics returns the studio analytics summary
func (rc *ReportController) GetReportAnalytics(c *gin.Context) {
	salonID, ok := salonUUID(c)
	if !ok {
		return
	}

	now := time.Now()
	currentYear, _, _ := now.Date()
	loc := now.Location()

	firstOfMonth, endOfMonth := utils.MonthBounds(now)

	currentMonthRevenue, err := rc.getRevenue(salonID, firstOfMonth, endOfMonth)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get monthly revenue")
		return
	}

	lastMonthRevenue, err := rc.getRevenue(salonID,
		firstOfMonth.AddDate(0, -1, 0),
		endOfMonth.AddDate(0, -1, 0))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get last month revenue")
		return
	}

	currentYearRevenue, err := rc.getRevenue(salonID,
		time.Date(currentYear, 1, 1, 0, 0, 0, 0, loc),
		time.Date(currentYear, 12, 31, 23, 59, 59, 0, loc))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get yearly revenue")
		return
	}

	lastYearRevenue, err := rc.getRevenue(salonID,
		time.Date(currentYear-1, 1, 1, 0, 0, 0, 0, loc),
		time.Date(currentYear-1, 12, 31, 23, 59, 59, 0, loc))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get last year revenue")
		return
	}

	topZones, err := rc.getTopZones(salonID, 5)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get top zones")
		return
	}

	topClients, err := rc.getTopClients(salonID, 5)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get top clients")
		return
	}

	quickStats, err := rc.getQuickStats(salonID)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get quick stats")
		return
	}

	summary := AnalyticsSummary{
		CurrentMonthRevenue: currentMonthRevenue,
		MonthGrowth:         growthPercent(currentMonthRevenue, lastMonthRevenue),
		CurrentYearRevenue:  currentYearRevenue,
		YearGrowth:          growthPercent(currentYearRevenue, lastYearRevenue),
		TopZones:            topZones,
		TopClients:          topClients,
		QuickStats:          quickStats,
	}

	c.JSON(http.StatusOK, summary)
}

func (rc *ReportController) getRevenue(salonID uuid.UUID, from, to time.Time) (float64, error) {
	var total float64
	err := config.DB.
		Table("tattoo_history_records").
		Select("COALESCE(SUM(price), 0)").
		Where("salon_id = ? AND date BETWEEN ? AND ? AND deleted_at IS NULL", salonID, from, to).
		Scan(&total).Error
	return total, err
}

func (rc *ReportController) getTopZones(salonID uuid.UUID, limit int) ([]ZoneSummary, error) {
	var zones []ZoneSummary
	err := config.DB.
		Table("tattoo_history_records").
		Select("zone, COUNT(*) as count, COALESCE(SUM(price), 0) as revenue").
		Where("salon_id = ? AND zone != '' AND deleted_at IS NULL", salonID).
		Group("zone").
		Order("revenue DESC").
		Limit(limit).
		Scan(&zones).Error
	return zones, err
}

func (rc *ReportController) getTopClients(salonID uuid.UUID, limit int) ([]ClientSummary, error) {
	var clients []ClientSummary
	err := config.DB.
		Table("tattoo_history_records").
		Select("clients.name, COUNT(tattoo_history_records.id) as visits, COALESCE(SUM(tattoo_history_records.price), 0) as spent").
		Joins("JOIN clients ON clients.id = tattoo_history_records.client_id").
		Where("tattoo_history_records.salon_id = ? AND tattoo_history_records.deleted_at IS NULL", salonID).
		Group("clients.name").
		Order("spent DESC").
		Limit(limit).
		Scan(&clients).Error
	return clients, err
}

func (rc *ReportController) getQuickStats(salonID uuid.UUID) (QuickStatistics, error) {
	var stats QuickStatistics

	if err := config.DB.
		Table("clients").
		Where("salon_id = ? AND deleted_at IS NULL", salonID).
		Count(&stats.TotalClients).Error; err != nil {
		return stats, err
	}

	if err := config.DB.
		Table("tattoo_history_records").
		Where("salon_id = ? AND deleted_at IS NULL", salonID).
		Count(&stats.TotalTreatments).Error; err != nil {
		return stats, err
	}

	if stats.TotalTreatments > 0 {
		if err := config.DB.
			Table("tattoo_history_records").
			Select("COALESCE(AVG(price), 0)").
			Where("salon_id = ? AND deleted_at IS NULL", salonID).
			Scan(&stats.AvgTreatmentCost).Error; err != nil {
			return stats, err
		}
	}

	// Healing feedback average, only over submitted follow-ups
	if err := config.DB.
		Table("follow_up_submissions").
		Select("COALESCE(AVG(follow_up_submissions.rating), 0)").
		Joins("JOIN follow_up_requests ON follow_up_requests.id = follow_up_submissions.follow_up_request_id").
		Where("follow_up_requests.salon_id = ?", salonID).
		Scan(&stats.AvgRating).Error; err != nil {
		return stats, err
	}

	return stats, nil
}

func growthPercent(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return ((current - previous) / previous) * 100
}
