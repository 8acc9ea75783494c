// Package domain models near-Earth object (NEO) close-approach data from the
// NASA Near Earth Object Web Service (NeoWs).
//
// # Data Source
//
// The NeoWs feed endpoint lists objects whose close approaches fall on the
// requested dates (at most seven days per query). The per-object lookup
// endpoint returns the full approach history and forecast for one object:
// dozens to hundreds of approaches spanning 1900–2200, including approaches
// to bodies other than Earth.
//
// # NeoWs Data Conventions
//
// Approach time:
//
//	"epoch_date_close_approach" is milliseconds since the Unix epoch and is
//	the authoritative instant. "close_approach_date" (YYYY-MM-DD) is used
//	only when the epoch is absent. All instants are normalized to UTC, and
//	window membership compares UTC calendar dates.
//
// Miss distance:
//
//	Published as decimal strings in several units ("kilometers", "miles",
//	"astronomical", "lunar"). Only kilometres are decoded; other units are
//	derived with the constants in distance.go so all comparisons share one
//	base unit.
//
// Hazard flag:
//
//	"is_potentially_hazardous_asteroid" is passed through unmodified. It is
//	an upstream classification based on size and orbit, not on the approach
//	distances ranked here.
//
// # Ranking
//
// An object's ranking key is the smallest miss distance among its approaches
// that fall inside the detection window. Objects with no such approach are
// absent from the ranking. Ties keep the order in which objects were
// supplied, so re-running with identical upstream data is deterministic.
// See [Rank].
package domain
