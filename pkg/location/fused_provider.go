package location

import (
	"errors"
)

// FusedProvider merges several positioning sources into one stream. Every
// source is asked for a reading; the one reporting the best (smallest
// non-zero) accuracy wins. A reading with no accuracy figure is only used
// when nothing better answered.
type FusedProvider struct {
	providers []Provider
}

// NewFusedProvider creates a provider that fuses the given sources. The
// order matters only as a tie breaker.
func NewFusedProvider(providers ...Provider) *FusedProvider {
	return &FusedProvider{providers: providers}
}

// GetLocation polls every source and returns the most accurate valid
// reading. It fails only when every source fails.
func (f *FusedProvider) GetLocation() (Location, error) {
	var (
		best     Location
		haveBest bool
		errs     []error
	)

	for _, p := range f.providers {
		loc, err := p.GetLocation()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !loc.Valid() {
			continue
		}
		if !haveBest || betterAccuracy(loc, best) {
			best = loc
			haveBest = true
		}
	}

	if !haveBest {
		if len(errs) > 0 {
			return Location{}, errors.Join(errs...)
		}
		return Location{}, errors.New("no positioning source produced a valid reading")
	}

	return best, nil
}

// betterAccuracy reports whether a is a more accurate reading than b. A zero
// accuracy means the source did not report one and always loses to a source
// that did.
func betterAccuracy(a, b Location) bool {
	if a.Accuracy == 0 {
		return false
	}
	if b.Accuracy == 0 {
		return true
	}
	return a.Accuracy < b.Accuracy
}

// Close closes every underlying source, returning the joined errors.
func (f *FusedProvider) Close() error {
	var errs []error
	for _, p := range f.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
