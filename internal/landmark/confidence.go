package landmark

import "math"

// Tier is the qualitative confidence bucket for a group.
type Tier string

const (
	TierHigh         Tier = "high"
	TierMedium       Tier = "medium"
	TierLow          Tier = "low"
	TierInsufficient Tier = "insufficient" // fewer than 2 usable raw points
	TierUnknown      Tier = "unknown"      // group not configured
	TierFailed       Tier = "failed"       // centroid could not be computed
)

// Tier thresholds and the softness constant of the confidence curve.
const (
	highConfidenceThreshold   = 0.8
	mediumConfidenceThreshold = 0.5
	varianceSoftness          = 10.0
)

// Confidence describes how trustworthy one group's detected position is,
// derived from how tightly its raw points cluster. Recomputed on demand,
// never persisted.
type Confidence struct {
	Group      Group   `json:"group"`
	Value      float64 `json:"confidence"`
	Tier       Tier    `json:"tier"`
	Color      string  `json:"color"`
	Variance   float64 `json:"variance"`
	PointCount int     `json:"point_count"`
}

func tierColor(tier Tier) string {
	switch tier {
	case TierHigh:
		return "#00FF00"
	case TierMedium:
		return "#FFAA00"
	case TierUnknown:
		return "#808080"
	default:
		return "#FF0000"
	}
}

// Assess scores one group's detection quality. The score is a monotonically
// decreasing function of the population variance of each raw point's distance
// to the group centroid: a tight cluster approaches 1, a scattered one
// approaches 0.
func Assess(raw RawLandmarkSet, reg *Registry, g Group, shape ImageShape) Confidence {
	def, ok := reg.Lookup(g)
	if !ok {
		return Confidence{Group: g, Tier: TierUnknown, Color: tierColor(TierUnknown)}
	}

	w := float64(shape.Width)
	h := float64(shape.Height)

	type pixelPoint struct{ x, y float64 }
	var points []pixelPoint
	for _, idx := range def.Indices {
		if idx < 0 || idx >= len(raw) {
			continue
		}
		points = append(points, pixelPoint{x: raw[idx].X * w, y: raw[idx].Y * h})
	}

	if len(points) < 2 {
		return Confidence{Group: g, Tier: TierInsufficient, Color: tierColor(TierInsufficient), PointCount: len(points)}
	}

	center, ok := GroupCenter(raw, def.Indices, shape)
	if !ok {
		return Confidence{Group: g, Tier: TierFailed, Color: tierColor(TierFailed), PointCount: len(points)}
	}

	distances := make([]float64, len(points))
	var mean float64
	for i, p := range points {
		distances[i] = math.Hypot(p.x-center.X, p.y-center.Y)
		mean += distances[i]
	}
	mean /= float64(len(distances))

	var variance float64
	for _, d := range distances {
		variance += (d - mean) * (d - mean)
	}
	variance /= float64(len(distances))

	value := 1.0 / (1.0 + variance/varianceSoftness)
	value = math.Max(0.0, math.Min(1.0, value))

	tier := TierLow
	switch {
	case value > highConfidenceThreshold:
		tier = TierHigh
	case value > mediumConfidenceThreshold:
		tier = TierMedium
	}

	return Confidence{
		Group:      g,
		Value:      value,
		Tier:       tier,
		Color:      tierColor(tier),
		Variance:   variance,
		PointCount: len(points),
	}
}

// AssessAll scores every configured group in definition order.
func AssessAll(raw RawLandmarkSet, reg *Registry, shape ImageShape) []Confidence {
	results := make([]Confidence, 0, len(reg.Definitions()))
	for _, def := range reg.Definitions() {
		results = append(results, Assess(raw, reg, def.Group, shape))
	}
	return results
}
