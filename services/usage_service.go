package services

import (
	"inkstudio-backend/models"
	"inkstudio-backend/utils"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Usage holds the current-period counts for one salon.
type Usage struct {
	Appointments    int64 `json:"appointments"`
	Clients         int64 `json:"clients"`
	Staff           int64 `json:"staff"`
	PortfolioImages int64 `json:"portfolioImages"`
}

// UsageService computes live usage counts from business records.
type UsageService struct {
	db *gorm.DB
}

func NewUsageService(db *gorm.DB) *UsageService {
	return &UsageService{db: db}
}

// CountUsage runs the four counts concurrently; they are independent and
// have no ordering requirement.
func (s *UsageService) CountUsage(salonID uuid.UUID) (Usage, error) {
	var usage Usage
	var g errgroup.Group

	g.Go(func() error {
		n, err := s.CountAppointmentsThisMonth(salonID)
		usage.Appointments = n
		return err
	})
	g.Go(func() error {
		n, err := s.CountClients(salonID)
		usage.Clients = n
		return err
	})
	g.Go(func() error {
		n, err := s.CountStaff(salonID)
		usage.Staff = n
		return err
	})
	g.Go(func() error {
		n, err := s.CountPortfolioImages(salonID)
		usage.PortfolioImages = n
		return err
	})

	if err := g.Wait(); err != nil {
		return Usage{}, err
	}
	return usage, nil
}

// CountAppointmentsThisMonth counts appointments starting within the
// current calendar month.
func (s *UsageService) CountAppointmentsThisMonth(salonID uuid.UUID) (int64, error) {
	first, last := utils.MonthBounds(time.Now())

	var count int64
	err := s.db.Model(&models.Appointment{}).
		Where("salon_id = ? AND starts_at BETWEEN ? AND ?", salonID, first, last).
		Count(&count).Error
	return count, err
}

func (s *UsageService) CountClients(salonID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.Model(&models.Client{}).
		Where("salon_id = ?", salonID).
		Count(&count).Error
	return count, err
}

func (s *UsageService) CountStaff(salonID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.Model(&models.User{}).
		Where("salon_id = ? AND is_active = ?", salonID, true).
		Count(&count).Error
	return count, err
}

func (s *UsageService) CountPortfolioImages(salonID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.Model(&models.PortfolioImage{}).
		Where("salon_id = ?", salonID).
		Count(&count).Error
	return count, err
}
