package domain

// Tolerance for the convex-combination check on criteria weights.
const WeightTolerance = 1e-6

// Weight vector over the four optimization objectives.
// The weights must form a true convex combination (non-negative, summing to
// 1.0 within tolerance); the solver rejects anything else instead of
// normalizing, because the meaning of the final score depends on it.
type OptimizationCriteria struct {
	Distance        float64
	PreparationTime float64
	Traffic         float64
	DeliveryWindow  float64
}

// BalancedCriteria is the named default preset: equal-ish weighting skewed
// toward distance and preparation alignment.
func BalancedCriteria() OptimizationCriteria {
	return OptimizationCriteria{
		Distance:        0.30,
		PreparationTime: 0.30,
		Traffic:         0.20,
		DeliveryWindow:  0.20,
	}
}

// IsValid reports whether the weights are non-negative and sum to 1.0
// within tolerance.
func (c OptimizationCriteria) IsValid() bool {
	if c.Distance < 0 || c.PreparationTime < 0 || c.Traffic < 0 || c.DeliveryWindow < 0 {
		return false
	}
	sum := c.Distance + c.PreparationTime + c.Traffic + c.DeliveryWindow
	return sum >= 1.0-WeightTolerance && sum <= 1.0+WeightTolerance
}
