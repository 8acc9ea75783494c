package domain

import "slices"

// Rank filters each object's approaches to window, drops objects left with
// none, and returns at most limit objects ordered by their closest in-window
// miss distance. The sort is stable, so objects at equal distance keep their
// input order. The input slice and its objects are not modified.
func Rank(neos []NearEarthObject, window DateInterval, limit int) []NearEarthObject {
	if limit <= 0 {
		return []NearEarthObject{}
	}

	type candidate struct {
		neo     NearEarthObject
		closest Distance
	}

	candidates := make([]candidate, 0, len(neos))
	for _, neo := range neos {
		filtered := neo.InWindow(window)
		closest, ok := filtered.ClosestApproach()
		if !ok {
			continue
		}
		candidates = append(candidates, candidate{neo: filtered, closest: closest.MissDistance})
	}

	slices.SortStableFunc(candidates, func(a, b candidate) int {
		return a.closest.Compare(b.closest)
	})

	n := min(limit, len(candidates))
	ranked := make([]NearEarthObject, n)
	for i := range n {
		ranked[i] = candidates[i].neo
	}
	return ranked
}
