// Package media normalizes uploaded images before they are stored.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
)

const ContentType = "image/jpeg"

var ErrInvalidImage = errors.New("invalid image")

// Avatar decodes r honoring its EXIF orientation, shrinks it to fit inside
// maxW x maxH keeping the aspect ratio, and re-encodes it as JPEG. Only
// pixels survive the re-encode, so EXIF and other metadata are dropped.
func Avatar(r io.Reader, maxW, maxH int) (*bytes.Reader, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	b := img.Bounds()
	if b.Dx() > maxW || b.Dy() > maxH {
		img = imaging.Fit(img, maxW, maxH, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("encode avatar: %w", err)
	}

	return bytes.NewReader(buf.Bytes()), nil
}
