package ports

import "context"

// HealthChecker verifies the availability of an external dependency.
type HealthChecker interface {
	Name() string
	Ping(ctx context.Context) error
}
