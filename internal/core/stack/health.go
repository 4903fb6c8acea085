package stack

// =============================================================================
// Health Aggregation (Pure Functions)
// =============================================================================

// Health is the overall state of a stack.
type Health string

const (
	HealthUnknown  Health = "unknown"
	HealthDown     Health = "down"
	HealthDegraded Health = "degraded"
	HealthHealthy  Health = "healthy"
)

// ServiceState is the slice of container state health classification needs.
type ServiceState struct {
	Service string
	Running bool
}

// AggregateHealth classifies the stack from its containers. An empty stack is
// unknown (nothing was found under the stack label), a stack with every
// container running is healthy, none running is down, anything in between is
// degraded.
func AggregateHealth(states []ServiceState) Health {
	if len(states) == 0 {
		return HealthUnknown
	}

	running := 0
	for _, s := range states {
		if s.Running {
			running++
		}
	}

	switch running {
	case len(states):
		return HealthHealthy
	case 0:
		return HealthDown
	default:
		return HealthDegraded
	}
}
