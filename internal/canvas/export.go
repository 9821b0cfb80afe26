package canvas

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
)

// ErrUnsupportedFormat is returned for export formats other than PNG and JPEG.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Format is an export image encoding.
type Format string

const (
	// FormatPNG is lossless and the default export format.
	FormatPNG Format = "png"
	// FormatJPEG is lossy and smaller.
	FormatJPEG Format = "jpeg"
)

// ParseFormat accepts "png", "jpg" and "jpeg", case-insensitively. An empty
// string selects PNG.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "", "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatJPEG {
		return "image/jpeg"
	}
	return "image/png"
}

func (f Format) imagingFormat() imaging.Format {
	if f == FormatJPEG {
		return imaging.JPEG
	}
	return imaging.PNG
}

// Export encodes the persistent canvas, without any overlay. A scale other
// than 1 resizes the image with a Lanczos filter first.
func (c *Canvas) Export(format Format, scale float64) ([]byte, error) {
	if format != FormatPNG && format != FormatJPEG {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if scale <= 0 {
		return nil, fmt.Errorf("export scale must be positive, got %v", scale)
	}

	img, err := c.Image()
	if err != nil {
		return nil, fmt.Errorf("convert canvas: %w", err)
	}

	if scale != 1 {
		w := int(float64(c.width)*scale + 0.5)
		h := int(float64(c.height)*scale + 0.5)
		if w < 1 || h < 1 {
			return nil, fmt.Errorf("export scale %v collapses the canvas", scale)
		}
		img = imaging.Resize(img, w, h, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format.imagingFormat()); err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

// Thumbnail decodes an exported image and re-encodes it as a PNG that fits
// in a size x size box.
func Thumbnail(data []byte, size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("thumbnail size must be positive, got %d", size)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	thumb := imaging.Fit(img, size, size, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
