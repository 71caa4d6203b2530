package services

import (
	"fmt"

	"inkstudio-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Action is a quota-gated user action.
type Action string

const (
	ActionAppointment    Action = "appointment"
	ActionClient         Action = "client"
	ActionStaff          Action = "staff"
	ActionPortfolioImage Action = "portfolio_image"
)

// Feature is a plan feature flag.
type Feature string

const (
	FeatureAdvancedStats  Feature = "advanced_stats"
	FeatureEmailReminders Feature = "email_reminders"
	FeatureCustomBranding Feature = "custom_branding"
	FeatureAPIAccess      Feature = "api_access"
)

var actionLabels = map[Action]string{
	ActionAppointment:    "appointments this month",
	ActionClient:         "clients",
	ActionStaff:          "staff members",
	ActionPortfolioImage: "portfolio images",
}

// QuotaExceededError is returned by Enforce when an action is denied.
type QuotaExceededError struct {
	Action Action
	Limit  int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("plan limit reached: %d %s allowed. Upgrade your plan to add more.",
		e.Limit, actionLabels[e.Action])
}

// UnknownActionError is returned for actions outside the quota map.
type UnknownActionError struct {
	Action Action
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown quota action: %q", string(e.Action))
}

// Limits is the numeric cap per metric, -1 meaning unlimited.
type Limits struct {
	Appointments    int `json:"appointments"`
	Clients         int `json:"clients"`
	Staff           int `json:"staff"`
	PortfolioImages int `json:"portfolioImages"`
}

// LimitCheck is the result of one consistent evaluation: plan, usage and
// limits all read within the same call.
type LimitCheck struct {
	Plan    *models.PlanDetails `json:"plan"`
	Usage   Usage               `json:"usage"`
	Limits  Limits              `json:"limits"`
	Reached map[Action]bool     `json:"reached"`
}

// CanPerform reports whether the action is still allowed under this check.
func (c *LimitCheck) CanPerform(action Action) (bool, error) {
	reached, ok := c.Reached[action]
	if !ok {
		return false, &UnknownActionError{Action: action}
	}
	return !reached, nil
}

// PlanProvider yields the (lazily expired) plan record for a salon.
type PlanProvider interface {
	GetPlanDetails(salonID uuid.UUID) (*models.PlanDetails, error)
}

// UsageCounter yields current usage counts for a salon.
type UsageCounter interface {
	CountUsage(salonID uuid.UUID) (Usage, error)
}

// LimitService compares live usage against the salon's plan quotas.
type LimitService struct {
	plans PlanProvider
	usage UsageCounter
}

func NewLimitService(db *gorm.DB) *LimitService {
	return &LimitService{
		plans: NewPlanService(db),
		usage: NewUsageService(db),
	}
}

// NewLimitServiceWith wires explicit collaborators (used by tests).
func NewLimitServiceWith(plans PlanProvider, usage UsageCounter) *LimitService {
	return &LimitService{plans: plans, usage: usage}
}

// CheckLimits evaluates all metrics for a salon in one pass. Plan expiry
// runs first via GetPlanDetails so limits never reflect a stale paid tier.
func (s *LimitService) CheckLimits(salonID uuid.UUID) (*LimitCheck, error) {
	pd, err := s.plans.GetPlanDetails(salonID)
	if err != nil {
		return nil, err
	}

	usage, err := s.usage.CountUsage(salonID)
	if err != nil {
		return nil, err
	}

	limits := Limits{
		Appointments:    pd.MaxAppointments,
		Clients:         pd.MaxClients,
		Staff:           pd.MaxStaff,
		PortfolioImages: pd.MaxPortfolioImages,
	}

	return &LimitCheck{
		Plan:   pd,
		Usage:  usage,
		Limits: limits,
		Reached: map[Action]bool{
			ActionAppointment:    hasReached(limits.Appointments, usage.Appointments),
			ActionClient:         hasReached(limits.Clients, usage.Clients),
			ActionStaff:          hasReached(limits.Staff, usage.Staff),
			ActionPortfolioImage: hasReached(limits.PortfolioImages, usage.PortfolioImages),
		},
	}, nil
}

// CanPerform answers "is one more of this action allowed".
func (s *LimitService) CanPerform(salonID uuid.UUID, action Action) (bool, error) {
	check, err := s.CheckLimits(salonID)
	if err != nil {
		return false, err
	}
	return check.CanPerform(action)
}

// Enforce denies exactly when CanPerform would return false for the same
// inputs; both read one LimitCheck.
func (s *LimitService) Enforce(salonID uuid.UUID, action Action) error {
	check, err := s.CheckLimits(salonID)
	if err != nil {
		return err
	}

	allowed, err := check.CanPerform(action)
	if err != nil {
		return err
	}
	if !allowed {
		return &QuotaExceededError{Action: action, Limit: limitFor(check.Limits, action)}
	}
	return nil
}

// HasFeature reports whether the salon's current plan carries a flag.
func (s *LimitService) HasFeature(salonID uuid.UUID, feature Feature) (bool, error) {
	pd, err := s.plans.GetPlanDetails(salonID)
	if err != nil {
		return false, err
	}

	switch feature {
	case FeatureAdvancedStats:
		return pd.HasAdvancedStats, nil
	case FeatureEmailReminders:
		return pd.HasEmailReminders, nil
	case FeatureCustomBranding:
		return pd.HasCustomBranding, nil
	case FeatureAPIAccess:
		return pd.HasAPIAccess, nil
	default:
		return false, fmt.Errorf("unknown feature: %q", string(feature))
	}
}

// hasReached is the single comparison rule: a limit of -1 never trips,
// regardless of usage.
func hasReached(limit int, used int64) bool {
	return limit != Unlimited && used >= int64(limit)
}

func limitFor(limits Limits, action Action) int {
	switch action {
	case ActionAppointment:
		return limits.Appointments
	case ActionClient:
		return limits.Clients
	case ActionStaff:
		return limits.Staff
	case ActionPortfolioImage:
		return limits.PortfolioImages
	default:
		return 0
	}
}
