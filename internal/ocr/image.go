package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/png"

	"golang.org/x/image/bmp"
)

// Normalize re-encodes GIF and BMP images as PNG, which every engine accepts.
// Other formats are returned unchanged.
func Normalize(img Image) (Image, error) {
	var (
		decoded image.Image
		err     error
	)
	switch img.MIME {
	case "image/gif":
		decoded, err = gif.Decode(bytes.NewReader(img.Data))
	case "image/bmp":
		decoded, err = bmp.Decode(bytes.NewReader(img.Data))
	default:
		return img, nil
	}
	if err != nil {
		return img, fmt.Errorf("failed to decode %s: %w", img.MIME, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, decoded); err != nil {
		return img, fmt.Errorf("failed to encode png: %w", err)
	}
	return Image{Data: buf.Bytes(), MIME: "image/png"}, nil
}
