package landmark

import (
	"errors"
	"fmt"
	"math"
)

// coordinatePrecision is the number of decimal places kept by transformed
// coordinates. High enough that round-trips stay well under a pixel, low
// enough to keep JSON payloads readable.
const coordinatePrecision = 6

// roundTripTolerance is the maximum per-axis error (in model pixels) allowed
// by VerifyRoundTrip.
const roundTripTolerance = 1.0

// Display surface limits used by FitDisplay, matching the reference canvas.
const (
	maxDisplayWidth  = 600
	maxDisplayHeight = 800
)

// ErrInvalidDimension is returned when a transform is asked to scale against
// a size with a zero or negative dimension.
var ErrInvalidDimension = errors.New("invalid dimension")

func roundCoord(v float64) float64 {
	scale := math.Pow10(coordinatePrecision)
	return math.Round(v*scale) / scale
}

func checkSize(name string, s Size) error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%s %.0fx%.0f: %w", name, s.Width, s.Height, ErrInvalidDimension)
	}
	return nil
}

// ToDisplay converts a model-space point to display space by independent
// per-axis linear scaling.
func ToDisplay(p Point, modelSize, displaySize Size) (Point, error) {
	if err := checkSize("model size", modelSize); err != nil {
		return Point{}, err
	}
	if err := checkSize("display size", displaySize); err != nil {
		return Point{}, err
	}

	scaleX := displaySize.Width / modelSize.Width
	scaleY := displaySize.Height / modelSize.Height

	return Point{
		X: roundCoord(p.X * scaleX),
		Y: roundCoord(p.Y * scaleY),
	}, nil
}

// ToModel converts a display-space point back to model space. It is the
// inverse of ToDisplay up to rounding.
func ToModel(p Point, modelSize, displaySize Size) (Point, error) {
	if err := checkSize("model size", modelSize); err != nil {
		return Point{}, err
	}
	if err := checkSize("display size", displaySize); err != nil {
		return Point{}, err
	}

	scaleX := modelSize.Width / displaySize.Width
	scaleY := modelSize.Height / displaySize.Height

	return Point{
		X: roundCoord(p.X * scaleX),
		Y: roundCoord(p.Y * scaleY),
	}, nil
}

// VerifyRoundTrip sends a probe point through ToDisplay and back through
// ToModel and checks that the per-axis error stays within one model pixel.
// A failed check is advisory: the transform is still usable, the caller just
// surfaces a precision warning.
func VerifyRoundTrip(p Point, modelSize, displaySize Size) (bool, error) {
	display, err := ToDisplay(p, modelSize, displaySize)
	if err != nil {
		return false, err
	}
	restored, err := ToModel(display, modelSize, displaySize)
	if err != nil {
		return false, err
	}

	errX := math.Abs(p.X - restored.X)
	errY := math.Abs(p.Y - restored.Y)
	return errX <= roundTripTolerance && errY <= roundTripTolerance, nil
}

// FitDisplay computes an aspect-preserving display size for an image, capped
// at the reference canvas limits (600 wide, 800 tall).
func FitDisplay(shape ImageShape) (Size, error) {
	if shape.Width <= 0 || shape.Height <= 0 {
		return Size{}, fmt.Errorf("image shape %dx%d: %w", shape.Width, shape.Height, ErrInvalidDimension)
	}

	w := float64(shape.Width)
	h := float64(shape.Height)

	var displayW, displayH float64
	if w > h {
		displayW = maxDisplayWidth
		displayH = math.Min(h/w*maxDisplayWidth, maxDisplayHeight)
	} else {
		displayH = math.Min(maxDisplayHeight, h/w*maxDisplayWidth)
		displayW = w / h * displayH
	}

	return Size{Width: math.Floor(displayW), Height: math.Floor(displayH)}, nil
}
