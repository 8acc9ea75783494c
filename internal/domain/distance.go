package domain

import (
	"errors"
	"fmt"
	"math"
)

// Conversion factors from kilometres, matching the constants NeoWs uses for
// its own derived units.
const (
	kmPerMile             = 1.609344
	kmPerAstronomicalUnit = 149597870.7
	kmPerLunarDistance    = 384400.0
)

// ErrInvalidDistance is returned for negative, NaN, or infinite distances.
var ErrInvalidDistance = errors.New("invalid distance")

// Distance is a non-negative length stored in kilometres.
type Distance struct {
	km float64
}

// NewDistance validates km and wraps it as a Distance.
func NewDistance(km float64) (Distance, error) {
	if math.IsNaN(km) || math.IsInf(km, 0) || km < 0 {
		return Distance{}, fmt.Errorf("%w: %v km", ErrInvalidDistance, km)
	}
	return Distance{km: km}, nil
}

// MustDistance is NewDistance for constants and fixtures; it panics on invalid input.
func MustDistance(km float64) Distance {
	d, err := NewDistance(km)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Distance) Kilometers() float64        { return d.km }
func (d Distance) Miles() float64             { return d.km / kmPerMile }
func (d Distance) AstronomicalUnits() float64 { return d.km / kmPerAstronomicalUnit }
func (d Distance) LunarDistances() float64    { return d.km / kmPerLunarDistance }

// Compare returns -1, 0, or +1 depending on whether d is closer than, equal
// to, or farther than other.
func (d Distance) Compare(other Distance) int {
	switch {
	case d.km < other.km:
		return -1
	case d.km > other.km:
		return 1
	default:
		return 0
	}
}

func (d Distance) String() string {
	return fmt.Sprintf("%.3f km", d.km)
}
