// Package health defines health checks for modules and aggregates them into
// an overall status.
package health

import (
	"context"
	"time"
)

// HealthChecker is a single health check.
type HealthChecker interface {
	// Check performs a health check and returns the current status
	Check(ctx context.Context) (*CheckResult, error)

	// Name returns the unique name of this health check
	Name() string

	// Description returns a human-readable description of what this check validates
	Description() string
}

// HealthAggregator aggregates multiple health checks.
type HealthAggregator interface {
	RegisterCheck(ctx context.Context, checker HealthChecker) error
	UnregisterCheck(ctx context.Context, name string) error
	CheckAll(ctx context.Context) (*AggregatedStatus, error)
	CheckOne(ctx context.Context, name string) (*CheckResult, error)
	GetStatus(ctx context.Context) (*AggregatedStatus, error)
	IsReady(ctx context.Context) (bool, error)
	IsLive(ctx context.Context) (bool, error)
}

// CheckResult represents the result of a single health check
type CheckResult struct {
	Name      string                 `json:"name"`
	Status    HealthStatus           `json:"status"`
	Message   string                 `json:"message,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Duration  time.Duration          `json:"duration"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// AggregatedStatus represents the aggregated status of all health checks
type AggregatedStatus struct {
	OverallStatus   HealthStatus            `json:"overall_status"`
	ReadinessStatus HealthStatus            `json:"readiness_status"`
	LivenessStatus  HealthStatus            `json:"liveness_status"`
	Timestamp       time.Time               `json:"timestamp"`
	CheckResults    map[string]*CheckResult `json:"check_results"`
	Summary         *StatusSummary          `json:"summary"`
}

// StatusSummary provides a summary of health check results
type StatusSummary struct {
	TotalChecks    int `json:"total_checks"`
	PassingChecks  int `json:"passing_checks"`
	WarningChecks  int `json:"warning_checks"`
	CriticalChecks int `json:"critical_checks"`
	UnknownChecks  int `json:"unknown_checks"`
}

// HealthStatus represents the status of a health check
type HealthStatus string

const (
	StatusHealthy  HealthStatus = "healthy"
	StatusWarning  HealthStatus = "warning"
	StatusCritical HealthStatus = "critical"
	StatusUnknown  HealthStatus = "unknown"
)

// severity orders statuses so the worst one wins when aggregating.
func (s HealthStatus) severity() int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusWarning:
		return 1
	case StatusUnknown:
		return 2
	case StatusCritical:
		return 3
	default:
		return 2
	}
}

// Worst returns the more severe of two statuses.
func Worst(a, b HealthStatus) HealthStatus {
	if b.severity() > a.severity() {
		return b
	}
	return a
}

// StatusChangeCallback is called when the overall status changes
type StatusChangeCallback func(ctx context.Context, previous, current *AggregatedStatus) error
