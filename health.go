package modactivator

import (
	"context"
	"fmt"

	"github.com/GoCodeAlone/modactivator/health"
	"github.com/GoCodeAlone/modactivator/lifecycle"
)

// moduleHealthCheck reports a module's health from its lifecycle state.
type moduleHealthCheck struct {
	id      string
	tracker *lifecycle.Tracker
}

func (c *moduleHealthCheck) Name() string { return c.id }

func (c *moduleHealthCheck) Description() string {
	return fmt.Sprintf("lifecycle state of module %s", c.id)
}

func (c *moduleHealthCheck) Check(ctx context.Context) (*health.CheckResult, error) {
	state, ok := c.tracker.Get(c.id)
	if !ok {
		return &health.CheckResult{
			Name:    c.id,
			Status:  health.StatusUnknown,
			Message: "module is not registered",
		}, nil
	}
	return &health.CheckResult{
		Name:    c.id,
		Status:  StateHealth(state),
		Message: "module is " + state.String(),
		Details: map[string]any{"state": state.String()},
	}, nil
}

// StateHealth maps a lifecycle state to a health status.
func StateHealth(s lifecycle.State) health.HealthStatus {
	switch s {
	case lifecycle.Started:
		return health.StatusHealthy
	case lifecycle.Starting, lifecycle.Stopping, lifecycle.Stopped:
		return health.StatusWarning
	case lifecycle.Failed:
		return health.StatusCritical
	default:
		return health.StatusUnknown
	}
}
