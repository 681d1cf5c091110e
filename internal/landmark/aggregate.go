package landmark

import "math"

// GroupCenter computes the pixel-space centroid of the raw landmarks at the
// given indices. Indices outside the raw set are skipped; the second return
// value is false when no index was usable, which callers must treat as
// "group unresolved" rather than defaulting to the origin.
func GroupCenter(raw RawLandmarkSet, indices []int, shape ImageShape) (Point, bool) {
	if len(raw) == 0 || len(indices) == 0 {
		return Point{}, false
	}

	w := float64(shape.Width)
	h := float64(shape.Height)

	var sumX, sumY float64
	valid := 0
	for _, idx := range indices {
		if idx < 0 || idx >= len(raw) {
			continue
		}
		sumX += raw[idx].X * w
		sumY += raw[idx].Y * h
		valid++
	}

	if valid == 0 {
		return Point{}, false
	}

	return Point{X: sumX / float64(valid), Y: sumY / float64(valid)}, true
}

// AggregateAll computes the centroid for every configured group. Groups with
// no resolvable center are left out of the result entirely.
func AggregateAll(raw RawLandmarkSet, reg *Registry, shape ImageShape) map[Group]Point {
	centers := make(map[Group]Point, len(reg.Definitions()))
	for _, def := range reg.Definitions() {
		if center, ok := GroupCenter(raw, def.Indices, shape); ok {
			centers[def.Group] = center
		}
	}
	return centers
}

// NearestGroup finds the group whose coordinate is closest to p, within the
// given radius. Used by interactive front ends for click-to-select. Returns
// false when nothing is in range.
func NearestGroup(points map[Group]Point, p Point, radius float64) (Group, bool) {
	var best Group
	bestDist := radius
	found := false

	// Iterate in fixed order so ties resolve deterministically.
	for _, g := range KnownGroups() {
		c, ok := points[g]
		if !ok {
			continue
		}
		d := math.Hypot(c.X-p.X, c.Y-p.Y)
		if d < bestDist {
			best = g
			bestDist = d
			found = true
		}
	}

	return best, found
}
