package domain

import (
	"context"
	"fmt"
	"time"
)

// CloseApproach is a single predicted approach of an object.
type CloseApproach struct {
	Time         time.Time // UTC
	MissDistance Distance
	OrbitingBody string
	// RelativeVelocity is in km/s.
	RelativeVelocity float64
}

// NearEarthObject is one tracked body and its approaches, in the order
// received from upstream.
type NearEarthObject struct {
	ID                   string
	Name                 string
	PotentiallyHazardous bool
	Approaches           []CloseApproach
}

// ClosestApproach returns the approach with the smallest miss distance. When
// several approaches tie, the first one in received order wins. ok is false
// when the object has no approaches.
func (n NearEarthObject) ClosestApproach() (closest CloseApproach, ok bool) {
	for i, a := range n.Approaches {
		if i == 0 || a.MissDistance.Compare(closest.MissDistance) < 0 {
			closest = a
		}
	}
	return closest, len(n.Approaches) > 0
}

// InWindow returns a copy of n holding only the approaches inside window.
// The receiver's approach slice is left untouched.
func (n NearEarthObject) InWindow(window DateInterval) NearEarthObject {
	out := n
	out.Approaches = nil
	for _, a := range n.Approaches {
		if window.Contains(a.Time) {
			out.Approaches = append(out.Approaches, a)
		}
	}
	return out
}

// Repository fetches a single object's full record by its NeoWs identifier.
// Implementations must be safe for concurrent use.
type Repository interface {
	FetchByID(ctx context.Context, id string) (NearEarthObject, error)
}

// FetchError reports a failed lookup for one identifier. It covers transport
// failures, non-success statuses, and undecodable payloads alike.
type FetchError struct {
	ID  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch neo %s: %v", e.ID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
