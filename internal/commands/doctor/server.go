package doctor

import (
	"context"
	"time"
)

// HealthChecker is satisfied by client.Client.
type HealthChecker interface {
	Health(ctx context.Context) error
	BaseURL() string
}

// ServerCheck reports whether the configured server answers /api/health.
// An unreachable server is a warning: the CLI works offline for prune and doctor.
type ServerCheck struct {
	client  HealthChecker
	timeout time.Duration
}

// NewServerCheck creates a server reachability check.
func NewServerCheck(client HealthChecker, timeout time.Duration) *ServerCheck {
	return &ServerCheck{client: client, timeout: timeout}
}

func (c *ServerCheck) Name() string {
	return "Server"
}

func (c *ServerCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.client.Health(ctx); err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  c.client.BaseURL(),
			Status: StatusWarn,
			Detail: "unreachable: " + err.Error(),
		})
		return result
	}

	result.Items = append(result.Items, CheckItem{
		Label:  c.client.BaseURL(),
		Status: StatusPass,
		Detail: "healthy",
	})
	return result
}
