package landmark

import (
	"errors"
	"fmt"
)

// Group identifies one named anatomical reference point. Each group is backed
// by several raw detector indices that get averaged into a single coordinate.
type Group string

const (
	GroupNoseTip        Group = "nose_tip"
	GroupNoseBridge     Group = "nose_bridge"
	GroupLeftNostril    Group = "left_nostril"
	GroupRightNostril   Group = "right_nostril"
	GroupLeftEyeCenter  Group = "left_eye_center"
	GroupRightEyeCenter Group = "right_eye_center"
)

// Valid reports whether g is one of the known groups.
func (g Group) Valid() bool {
	switch g {
	case GroupNoseTip, GroupNoseBridge, GroupLeftNostril, GroupRightNostril,
		GroupLeftEyeCenter, GroupRightEyeCenter:
		return true
	}
	return false
}

// KnownGroups returns all recognized groups in display order.
func KnownGroups() []Group {
	return []Group{
		GroupNoseTip,
		GroupNoseBridge,
		GroupLeftNostril,
		GroupRightNostril,
		GroupLeftEyeCenter,
		GroupRightEyeCenter,
	}
}

// Definition is the static configuration of one group: which raw detector
// indices it averages and how the front ends should present it.
type Definition struct {
	Group          Group  `yaml:"name" json:"name"`
	Label          string `yaml:"label" json:"label"`
	Indices        []int  `yaml:"indices" json:"indices"`
	Color          string `yaml:"color" json:"color"`
	Radius         int    `yaml:"radius" json:"radius"`
	Representative int    `yaml:"representative" json:"representative"` // raw index written back on mesh export
}

var (
	// ErrUnknownGroup is returned when a caller refers to a group name that
	// is not part of the configured definition set.
	ErrUnknownGroup = errors.New("unknown landmark group")
)

// Registry holds the fixed, process-wide set of group definitions. It is
// built once at startup and read-only afterwards.
type Registry struct {
	defs    []Definition
	byGroup map[Group]Definition
}

// NewRegistry validates the definitions and builds a lookup registry.
// A definition with an unrecognized name or no indices is a configuration
// error and rejected outright.
func NewRegistry(defs []Definition) (*Registry, error) {
	if len(defs) == 0 {
		return nil, errors.New("no group definitions configured")
	}

	byGroup := make(map[Group]Definition, len(defs))
	for _, def := range defs {
		if !def.Group.Valid() {
			return nil, fmt.Errorf("group %q: %w", def.Group, ErrUnknownGroup)
		}
		if len(def.Indices) == 0 {
			return nil, fmt.Errorf("group %q has no landmark indices", def.Group)
		}
		if _, dup := byGroup[def.Group]; dup {
			return nil, fmt.Errorf("group %q defined twice", def.Group)
		}
		byGroup[def.Group] = def
	}

	return &Registry{defs: defs, byGroup: byGroup}, nil
}

// Definitions returns the configured definitions in their original order.
func (r *Registry) Definitions() []Definition {
	return r.defs
}

// Lookup returns the definition for a group, if configured.
func (r *Registry) Lookup(g Group) (Definition, bool) {
	def, ok := r.byGroup[g]
	return def, ok
}

// DefaultDefinitions returns the MediaPipe face-mesh group table used when no
// custom configuration is supplied. The index lists average several
// neighboring mesh points to stabilize each reference point.
func DefaultDefinitions() []Definition {
	return []Definition{
		{Group: GroupNoseTip, Label: "Nose tip", Indices: []int{1, 2}, Color: "#00FF00", Radius: 12, Representative: 1},
		{Group: GroupNoseBridge, Label: "Nose bridge", Indices: []int{6, 9}, Color: "#00AA00", Radius: 8, Representative: 6},
		{Group: GroupLeftNostril, Label: "Left nostril", Indices: []int{131, 134, 126}, Color: "#0000FF", Radius: 10, Representative: 131},
		{Group: GroupRightNostril, Label: "Right nostril", Indices: []int{102, 49, 48}, Color: "#0066FF", Radius: 10, Representative: 102},
		{Group: GroupLeftEyeCenter, Label: "Left eye center", Indices: []int{159, 158, 157, 173}, Color: "#FF0000", Radius: 10, Representative: 159},
		{Group: GroupRightEyeCenter, Label: "Right eye center", Indices: []int{386, 385, 384, 398}, Color: "#FF6600", Radius: 10, Representative: 386},
	}
}
