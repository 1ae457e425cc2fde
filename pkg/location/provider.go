package location

// Provider is a positioning source the tracker polls for readings.
type Provider interface {
	GetLocation() (Location, error)
	Close() error
}
