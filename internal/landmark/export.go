package landmark

import "time"

// GroupResult is the final resolved coordinate for one group, with the
// metadata a renderer or downstream tool needs.
type GroupResult struct {
	Group      Group   `json:"group"`
	Label      string  `json:"label"`
	Point      Point   `json:"point"`
	Adjusted   bool    `json:"adjusted"` // true when a manual override replaced the detected position
	Confidence float64 `json:"confidence"`
	Tier       Tier    `json:"tier"`
	Color      string  `json:"color"`
	Radius     int     `json:"radius"`
}

// Result is the exportable outcome of one detection + adjustment session.
type Result struct {
	Image      ImageShape       `json:"image"`
	ImageHash  string           `json:"image_hash,omitempty"`
	Groups     []GroupResult    `json:"groups"`
	Validation ValidationResult `json:"validation"`
	ExportedAt string           `json:"exported_at"`
}

// BuildResult assembles the export document from the raw detection, the
// configured groups and the final (override-merged) coordinates. Groups
// absent from final are skipped like AggregateAll skips unresolvable ones.
func BuildResult(raw RawLandmarkSet, reg *Registry, shape ImageShape, final map[Group]Point, adjusted map[Group]bool, imageHash string) Result {
	groups := make([]GroupResult, 0, len(reg.Definitions()))
	for _, def := range reg.Definitions() {
		p, ok := final[def.Group]
		if !ok {
			continue
		}
		conf := Assess(raw, reg, def.Group, shape)
		groups = append(groups, GroupResult{
			Group:      def.Group,
			Label:      def.Label,
			Point:      p,
			Adjusted:   adjusted[def.Group],
			Confidence: conf.Value,
			Tier:       conf.Tier,
			Color:      def.Color,
			Radius:     def.Radius,
		})
	}

	return Result{
		Image:      shape,
		ImageHash:  imageHash,
		Groups:     groups,
		Validation: Validate(final),
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
	}
}
