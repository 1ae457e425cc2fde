package location

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubProvider struct {
	loc    Location
	err    error
	closed bool
}

func (s *stubProvider) GetLocation() (Location, error) {
	return s.loc, s.err
}

func (s *stubProvider) Close() error {
	s.closed = true
	return nil
}

// TestFusedProvider_PrefersBestAccuracy verifies the most accurate source
// wins regardless of order.
func TestFusedProvider_PrefersBestAccuracy(t *testing.T) {
	coarse := &stubProvider{loc: Location{Latitude: 1, Longitude: 1, Accuracy: 150}}
	fine := &stubProvider{loc: Location{Latitude: 2, Longitude: 2, Accuracy: 5}}

	f := NewFusedProvider(coarse, fine)
	loc, err := f.GetLocation()

	assert.NoError(t, err)
	assert.Equal(t, 2.0, loc.Latitude)
	assert.Equal(t, 5.0, loc.Accuracy)
}

// TestFusedProvider_FallsBackAcrossFailures verifies a failing source is
// skipped.
func TestFusedProvider_FallsBackAcrossFailures(t *testing.T) {
	broken := &stubProvider{err: errors.New("no fix")}
	working := &stubProvider{loc: Location{Latitude: 3, Longitude: 4, Accuracy: 20}}

	f := NewFusedProvider(broken, working)
	loc, err := f.GetLocation()

	assert.NoError(t, err)
	assert.Equal(t, 3.0, loc.Latitude)
}

// TestFusedProvider_UnreportedAccuracyLoses verifies a source without an
// accuracy figure only wins when nothing else answers.
func TestFusedProvider_UnreportedAccuracyLoses(t *testing.T) {
	noAccuracy := &stubProvider{loc: Location{Latitude: 5, Longitude: 5}}
	withAccuracy := &stubProvider{loc: Location{Latitude: 6, Longitude: 6, Accuracy: 100}}

	f := NewFusedProvider(noAccuracy, withAccuracy)
	loc, err := f.GetLocation()

	assert.NoError(t, err)
	assert.Equal(t, 6.0, loc.Latitude)

	alone := NewFusedProvider(noAccuracy)
	loc, err = alone.GetLocation()
	assert.NoError(t, err)
	assert.Equal(t, 5.0, loc.Latitude)
}

// TestFusedProvider_AllFail verifies the joined error when every source
// fails.
func TestFusedProvider_AllFail(t *testing.T) {
	errA := errors.New("serial port gone")
	errB := errors.New("api unreachable")

	f := NewFusedProvider(&stubProvider{err: errA}, &stubProvider{err: errB})
	_, err := f.GetLocation()

	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}

// TestFusedProvider_SkipsInvalidReading verifies out-of-range readings are
// ignored during fusion.
func TestFusedProvider_SkipsInvalidReading(t *testing.T) {
	invalid := &stubProvider{loc: Location{Latitude: 200, Longitude: 0, Accuracy: 1}}
	valid := &stubProvider{loc: Location{Latitude: 7, Longitude: 8, Accuracy: 50}}

	f := NewFusedProvider(invalid, valid)
	loc, err := f.GetLocation()

	assert.NoError(t, err)
	assert.Equal(t, 7.0, loc.Latitude)
}

// TestFusedProvider_CloseClosesAll verifies Close reaches every source.
func TestFusedProvider_CloseClosesAll(t *testing.T) {
	a := &stubProvider{}
	b := &stubProvider{}

	f := NewFusedProvider(a, b)
	assert.NoError(t, f.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}
