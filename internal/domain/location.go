package domain

// Immutable geographic coordinates (latitude, longitude).
type Location struct {
	Lat float64
	Lon float64
}

// IsZero reports whether the location carries no coordinate data.
// Callers that geocode addresses must substitute a real coordinate before
// handing locations to the optimization engine.
func (l Location) IsZero() bool { return l.Lat == 0 && l.Lon == 0 }

// Return coordinates as [lat, lon] for external API compatibility.
func (l Location) CoordsToList() []float64 { return []float64{l.Lat, l.Lon} }
