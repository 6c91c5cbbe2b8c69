package domain

// Enumerated traffic severity, supplied per order or per route segment by an
// external traffic/weather provider.
type TrafficCondition string

const (
	TrafficClear    TrafficCondition = "clear"
	TrafficLight    TrafficCondition = "light"
	TrafficModerate TrafficCondition = "moderate"
	TrafficHeavy    TrafficCondition = "heavy"
	TrafficSevere   TrafficCondition = "severe"
	TrafficUnknown  TrafficCondition = "unknown"
)

// Score maps a severity onto the [0,1] sub-score scale used by the solver.
// Unknown conditions get a neutral credit rather than a penalty.
func (c TrafficCondition) Score() float64 {
	switch c {
	case TrafficClear:
		return 1.0
	case TrafficLight:
		return 0.8
	case TrafficModerate:
		return 0.6
	case TrafficHeavy:
		return 0.4
	case TrafficSevere:
		return 0.2
	default:
		return 0.6
	}
}

// Adverse reports whether the severity alone justifies re-planning.
func (c TrafficCondition) Adverse() bool {
	return c == TrafficHeavy || c == TrafficSevere
}

// TrafficFromScore buckets an average [0,1] traffic score back into the
// nearest severity. Inverse of Score over the enum's range.
func TrafficFromScore(score float64) TrafficCondition {
	switch {
	case score >= 0.9:
		return TrafficClear
	case score >= 0.7:
		return TrafficLight
	case score >= 0.5:
		return TrafficModerate
	case score >= 0.3:
		return TrafficHeavy
	default:
		return TrafficSevere
	}
}
