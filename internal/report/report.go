// Package report turns a ranked list of objects into the flat listing shown
// on the console, served over HTTP, and published to Kafka.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/couchcryptid/neo-approach-service/internal/domain"
)

// Entry is one ranked object together with its closest in-window approach.
type Entry struct {
	Rank                 int       `json:"rank"`
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	PotentiallyHazardous bool      `json:"potentially_hazardous"`
	ApproachTime         time.Time `json:"approach_time"`
	MissDistanceKm       float64   `json:"miss_distance_km"`
	MissDistanceLunar    float64   `json:"miss_distance_lunar"`
	RelativeVelocityKps  float64   `json:"relative_velocity_kps,omitempty"`
	OrbitingBody         string    `json:"orbiting_body,omitempty"`
}

// Report is the outcome of one scan.
type Report struct {
	ScanID      string    `json:"scan_id"`
	GeneratedAt time.Time `json:"generated_at"`
	WindowStart string    `json:"window_start"`
	WindowEnd   string    `json:"window_end"`
	Requested   int       `json:"requested"`
	Entries     []Entry   `json:"entries"`
}

// Build converts ranked objects into a Report. Objects must already be
// filtered to window; an object without approaches is skipped.
func Build(scanID string, generatedAt time.Time, window domain.DateInterval, requested int, ranked []domain.NearEarthObject) Report {
	r := Report{
		ScanID:      scanID,
		GeneratedAt: generatedAt.UTC(),
		WindowStart: window.Start.Format(domain.DateLayout),
		WindowEnd:   window.End.Format(domain.DateLayout),
		Requested:   requested,
		Entries:     make([]Entry, 0, len(ranked)),
	}
	for _, neo := range ranked {
		closest, ok := neo.ClosestApproach()
		if !ok {
			continue
		}
		r.Entries = append(r.Entries, Entry{
			Rank:                 len(r.Entries) + 1,
			ID:                   neo.ID,
			Name:                 neo.Name,
			PotentiallyHazardous: neo.PotentiallyHazardous,
			ApproachTime:         closest.Time,
			MissDistanceKm:       closest.MissDistance.Kilometers(),
			MissDistanceLunar:    closest.MissDistance.LunarDistances(),
			RelativeVelocityKps:  closest.RelativeVelocity,
			OrbitingBody:         closest.OrbitingBody,
		})
	}
	return r
}

// Hazardous counts entries flagged as potentially hazardous.
func (r Report) Hazardous() int {
	n := 0
	for _, e := range r.Entries {
		if e.PotentiallyHazardous {
			n++
		}
	}
	return n
}

// Truncate returns a copy of r holding at most limit entries. A non-positive
// limit yields an empty, non-nil listing.
func (r Report) Truncate(limit int) Report {
	out := r
	switch {
	case limit <= 0:
		out.Entries = []Entry{}
	case limit < len(r.Entries):
		out.Entries = r.Entries[:limit:limit]
	}
	return out
}

var hazardStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))

// WriteText renders r as a fixed-width table. Hazardous objects are marked "!!!".
func WriteText(w io.Writer, r Report) error {
	if _, err := fmt.Fprintf(w, "Closest approaches %s..%s (%d of %d objects)\n",
		r.WindowStart, r.WindowEnd, len(r.Entries), r.Requested); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "Hazard?   Distance(km)    When                 Name"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "----------------------------------------------------------------------"); err != nil {
		return err
	}
	for _, e := range r.Entries {
		marker := " - "
		if e.PotentiallyHazardous {
			marker = hazardStyle.Render("!!!")
		}
		if _, err := fmt.Fprintf(w, "%s       %14.3f  %s    %s\n",
			marker, e.MissDistanceKm, e.ApproachTime.Format("2006-01-02 15:04 MST"), e.Name); err != nil {
			return err
		}
	}
	return nil
}
