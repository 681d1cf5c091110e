package detector

import (
	"bytes"
	"crypto/md5"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"

	"github.com/kozaktomas/landmark-studio/internal/landmark"
)

// maxImageBytes guards against absurd uploads before decode is attempted.
const maxImageBytes = 50 << 20 // 50 MB

// ErrUnsupportedImage is returned when the payload is not a decodable
// JPEG/PNG/GIF/BMP image.
var ErrUnsupportedImage = errors.New("unsupported image format")

// ImageInfo describes a decoded source image.
type ImageInfo struct {
	Shape  landmark.ImageShape
	Format string // "jpeg", "png", "gif", "bmp"
	Hash   string // content hash, identity for image-change detection
}

// InspectImage decodes the image header, reporting dimensions, format and
// content hash without keeping pixel data around. The engine never touches
// pixels; it only needs the shape for normalized-to-pixel conversion and the
// hash for change detection.
func InspectImage(data []byte) (ImageInfo, error) {
	if len(data) == 0 {
		return ImageInfo{}, errors.New("empty image data")
	}
	if len(data) > maxImageBytes {
		return ImageInfo{}, fmt.Errorf("image too large (%d bytes, limit %d)", len(data), maxImageBytes)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ImageInfo{}, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return ImageInfo{}, fmt.Errorf("%w: zero-sized image", ErrUnsupportedImage)
	}

	return ImageInfo{
		Shape:  landmark.ImageShape{Width: cfg.Width, Height: cfg.Height},
		Format: format,
		Hash:   ContentHash(data),
	}, nil
}

// ContentHash returns the hex MD5 of the image bytes. Used only as an
// identity for "did the user load a different image", not for security.
func ContentHash(data []byte) string {
	return fmt.Sprintf("%x", md5.Sum(data))
}
