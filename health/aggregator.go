package health

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Static errors for health package
var (
	ErrHealthCheckNotFound = errors.New("health check not found")
	ErrCheckerNil          = errors.New("health checker is nil")
	ErrDuplicateCheck      = errors.New("health check already registered")
)

// Aggregator implements HealthAggregator. Checks run sequentially in name
// order so results are reproducible.
type Aggregator struct {
	mu        sync.RWMutex
	checkers  map[string]HealthChecker
	last      *AggregatedStatus
	callbacks []StatusChangeCallback
	now       func() time.Time
}

var _ HealthAggregator = (*Aggregator)(nil)

// NewAggregator creates a new health aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{
		checkers: make(map[string]HealthChecker),
		now:      time.Now,
	}
}

// RegisterCheck registers a health check with the aggregator
func (a *Aggregator) RegisterCheck(ctx context.Context, checker HealthChecker) error {
	if checker == nil {
		return ErrCheckerNil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.checkers[checker.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCheck, checker.Name())
	}
	a.checkers[checker.Name()] = checker
	return nil
}

// UnregisterCheck removes a health check from the aggregator
func (a *Aggregator) UnregisterCheck(ctx context.Context, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.checkers[name]; !exists {
		return fmt.Errorf("%w: %s", ErrHealthCheckNotFound, name)
	}
	delete(a.checkers, name)
	return nil
}

// OnStatusChange registers a callback fired when the overall status differs
// from the previous CheckAll.
func (a *Aggregator) OnStatusChange(cb StatusChangeCallback) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.callbacks = append(a.callbacks, cb)
}

// CheckAll runs every registered check and returns the aggregated status.
func (a *Aggregator) CheckAll(ctx context.Context) (*AggregatedStatus, error) {
	a.mu.RLock()
	names := make([]string, 0, len(a.checkers))
	for name := range a.checkers {
		names = append(names, name)
	}
	checkers := make(map[string]HealthChecker, len(a.checkers))
	for name, c := range a.checkers {
		checkers[name] = c
	}
	a.mu.RUnlock()
	sort.Strings(names)

	status := &AggregatedStatus{
		OverallStatus:   StatusHealthy,
		ReadinessStatus: StatusHealthy,
		LivenessStatus:  StatusHealthy,
		Timestamp:       a.now(),
		CheckResults:    make(map[string]*CheckResult, len(names)),
		Summary:         &StatusSummary{},
	}

	for _, name := range names {
		result := a.run(ctx, checkers[name])
		status.CheckResults[name] = result
		status.OverallStatus = Worst(status.OverallStatus, result.Status)

		status.Summary.TotalChecks++
		switch result.Status {
		case StatusHealthy:
			status.Summary.PassingChecks++
		case StatusWarning:
			status.Summary.WarningChecks++
		case StatusCritical:
			status.Summary.CriticalChecks++
		default:
			status.Summary.UnknownChecks++
		}
	}

	status.ReadinessStatus = status.OverallStatus
	if status.Summary.CriticalChecks > 0 {
		status.LivenessStatus = StatusCritical
	}

	a.mu.Lock()
	previous := a.last
	a.last = status
	callbacks := append([]StatusChangeCallback(nil), a.callbacks...)
	a.mu.Unlock()

	if previous == nil || previous.OverallStatus != status.OverallStatus {
		for _, cb := range callbacks {
			if err := cb(ctx, previous, status); err != nil {
				return status, fmt.Errorf("status change callback failed: %w", err)
			}
		}
	}

	return status, nil
}

// CheckOne runs a specific health check by name
func (a *Aggregator) CheckOne(ctx context.Context, name string) (*CheckResult, error) {
	a.mu.RLock()
	checker, exists := a.checkers[name]
	a.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrHealthCheckNotFound, name)
	}
	return a.run(ctx, checker), nil
}

// GetStatus returns the result of the last CheckAll, running one if none exists yet.
func (a *Aggregator) GetStatus(ctx context.Context) (*AggregatedStatus, error) {
	a.mu.RLock()
	last := a.last
	a.mu.RUnlock()

	if last != nil {
		return last, nil
	}
	return a.CheckAll(ctx)
}

// IsReady is true when every check is healthy.
func (a *Aggregator) IsReady(ctx context.Context) (bool, error) {
	status, err := a.CheckAll(ctx)
	if err != nil {
		return false, err
	}
	return status.ReadinessStatus == StatusHealthy, nil
}

// IsLive is true while no check is critical.
func (a *Aggregator) IsLive(ctx context.Context) (bool, error) {
	status, err := a.CheckAll(ctx)
	if err != nil {
		return false, err
	}
	return status.LivenessStatus != StatusCritical, nil
}

func (a *Aggregator) run(ctx context.Context, checker HealthChecker) *CheckResult {
	start := a.now()
	result, err := checker.Check(ctx)
	if result == nil {
		result = &CheckResult{Status: StatusUnknown}
	}
	if err != nil {
		result.Status = StatusCritical
		result.Error = err.Error()
	}
	result.Name = checker.Name()
	if result.Timestamp.IsZero() {
		result.Timestamp = start
	}
	result.Duration = a.now().Sub(start)
	return result
}
