package postgres

import "context"

// HealthCheck implements ports.HealthChecker for PostgreSQL.
type HealthCheck struct {
	pool Pool
}

// NewHealthCheck creates a PostgreSQL health checker.
func NewHealthCheck(pool Pool) *HealthCheck {
	return &HealthCheck{pool: pool}
}

// Name identifies this dependency in health reports.
func (h *HealthCheck) Name() string { return "postgres" }

// Ping verifies database connectivity.
func (h *HealthCheck) Ping(ctx context.Context) error {
	return h.pool.Ping(ctx)
}
