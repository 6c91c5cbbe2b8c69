package monitor

import (
	"route-optimizer-service/internal/domain"
)

// classify maps an incoming event either to the update reason a recompute
// would be published under, or to nothing when the event only refreshes
// cached state (minor location ticks, early-ready notices).
func (m *Monitor) classify(ev domain.RouteEvent) (domain.UpdateReason, bool) {
	switch ev.Type {
	case domain.EventOrderAdded, domain.EventOrderRemoved, domain.EventOrderStatusChanged:
		return domain.ReasonOrderComposition, true

	case domain.EventTrafficIncident:
		if sev, ok := ev.PayloadString("severity"); ok {
			if domain.TrafficCondition(sev).Adverse() {
				return domain.ReasonTrafficIncident, true
			}
		}
		return "", false

	case domain.EventWeatherAlert:
		if cond, ok := ev.PayloadString("condition"); ok && cond != "clear" {
			return domain.ReasonWeatherAlert, true
		}
		return "", false

	case domain.EventRouteDeviation:
		if meters, ok := ev.PayloadFloat("deviation_meters"); ok && meters > m.cfg.DeviationThresholdM {
			return domain.ReasonRouteDeviation, true
		}
		return "", false

	case domain.EventPreparationDelay:
		if minutes, ok := ev.PayloadFloat("delay_minutes"); ok && minutes > m.cfg.PrepDelayThreshold.Minutes() {
			return domain.ReasonPreparationDelay, true
		}
		return "", false

	default:
		// Location ticks and early-ready notices refresh provider caches on
		// their own; they never force a recompute.
		return "", false
	}
}
