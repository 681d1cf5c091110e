package landmark

import (
	"fmt"
	"math"
)

// Anatomical plausibility limits, in model pixels and degrees.
const (
	minNoseLength      = 10.0
	maxNoseLength      = 200.0
	minNostrilDistance = 5.0
	maxNostrilDistance = 100.0
	maxNoseAngle       = 30.0
)

// ValidationResult reports whether a set of reference points is anatomically
// plausible. Warnings are advisory and always paired with the raw metrics so
// the caller can judge severity itself.
type ValidationResult struct {
	IsValid  bool               `json:"is_valid"`
	Warnings []string           `json:"warnings"`
	Metrics  map[string]float64 `json:"metrics"`
}

// Validate checks geometric plausibility of the nose reference points.
// It needs nose tip, nose bridge and both nostrils; with any of them missing
// it has no opinion and reports the set as valid with no warnings.
func Validate(points map[Group]Point) ValidationResult {
	noseTip, okTip := points[GroupNoseTip]
	noseBridge, okBridge := points[GroupNoseBridge]
	leftNostril, okLeft := points[GroupLeftNostril]
	rightNostril, okRight := points[GroupRightNostril]

	if !okTip || !okBridge || !okLeft || !okRight {
		return ValidationResult{IsValid: true, Warnings: []string{}, Metrics: map[string]float64{}}
	}

	noseLength := math.Hypot(noseTip.X-noseBridge.X, noseTip.Y-noseBridge.Y)
	nostrilDistance := math.Hypot(leftNostril.X-rightNostril.X, leftNostril.Y-rightNostril.Y)

	// Tilt from the vertical axis, so atan2 takes dx before dy.
	noseAngle := math.Atan2(noseTip.X-noseBridge.X, noseTip.Y-noseBridge.Y)
	noseAngleDegrees := math.Abs(noseAngle * 180.0 / math.Pi)

	warnings := []string{}
	if noseLength < minNoseLength {
		warnings = append(warnings, "nose length is too short")
	} else if noseLength > maxNoseLength {
		warnings = append(warnings, "nose length is too long")
	}

	if nostrilDistance < minNostrilDistance {
		warnings = append(warnings, "nostrils are too close together")
	} else if nostrilDistance > maxNostrilDistance {
		warnings = append(warnings, "nostrils are too far apart")
	}

	if noseAngleDegrees > maxNoseAngle {
		warnings = append(warnings, fmt.Sprintf("nose angle is unnatural (%.1f degrees)", noseAngleDegrees))
	}

	return ValidationResult{
		IsValid:  len(warnings) == 0,
		Warnings: warnings,
		Metrics: map[string]float64{
			"nose_length":        noseLength,
			"nostril_distance":   nostrilDistance,
			"nose_angle_degrees": noseAngleDegrees,
		},
	}
}
