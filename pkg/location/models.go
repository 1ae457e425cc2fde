package location

// Location is a single reading from a positioning source.
type Location struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64
}

// Valid reports whether the coordinates are inside the WGS84 range.
func (l Location) Valid() bool {
	return l.Latitude >= -90 && l.Latitude <= 90 &&
		l.Longitude >= -180 && l.Longitude <= 180
}
