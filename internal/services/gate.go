package services

import "context"

// Destination is where a signed-in user gets routed on page entry.
type Destination string

const (
	// DestinationHealthInput routes to the daily metrics form.
	DestinationHealthInput Destination = "health-input"
	// DestinationDashboard routes to the dashboard.
	DestinationDashboard Destination = "dashboard"
)

// Gate decides where a signed-in user goes next. The decision depends on the
// wall clock, so it is recomputed on every call and must never be cached.
type Gate struct {
	health *HealthService
}

func NewGate(health *HealthService) *Gate {
	return &Gate{health: health}
}

// NextDestination returns the health-input flow while a submission is due,
// the dashboard otherwise.
func (g *Gate) NextDestination(ctx context.Context, userID string) (Destination, error) {
	needs, err := g.health.NeedsSubmission(ctx, userID)
	if err != nil {
		return "", err
	}
	if needs {
		return DestinationHealthInput, nil
	}
	return DestinationDashboard, nil
}
