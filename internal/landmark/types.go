// Package landmark implements the landmark aggregation engine: it reduces the
// dense point cloud produced by a face-mesh detector into a small set of named
// reference points, scores how trustworthy each one is, converts between image
// and display coordinates, and checks the result for anatomical plausibility.
package landmark

// Point is a 2D coordinate. Whether it lives in model space (pixels of the
// source image) or display space (pixels of the rendering surface) is decided
// by the caller; the two must never be mixed without an explicit transform.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NormalizedPoint is a single raw detector landmark. X and Y are in [0, 1]
// relative to image width and height; Z is the detector's relative depth.
type NormalizedPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z,omitempty"`
}

// RawLandmarkSet is the full ordered landmark cloud for one detected face.
// It is produced once per detection and never mutated afterwards.
type RawLandmarkSet []NormalizedPoint

// ImageShape carries the pixel dimensions of the source image.
type ImageShape struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Size is a width/height pair used by the coordinate transform. Model and
// display sizes share the type; the transform functions name which is which.
type Size struct {
	Width  float64
	Height float64
}

// SizeOf converts an ImageShape to a Size for transform calls.
func SizeOf(shape ImageShape) Size {
	return Size{Width: float64(shape.Width), Height: float64(shape.Height)}
}
