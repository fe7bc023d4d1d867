package services

import (
	"bytes"
	"fmt"
	"image/jpeg"

	"github.com/disintegration/imaging"
)

// PrepareImageForLLM shrinks img so that neither side exceeds maxSide and
// re-encodes it as jpeg. Images that already fit, or that cannot be
// decoded (webp), are returned unchanged.
func PrepareImageForLLM(img InlineImage, maxSide int) (InlineImage, error) {
	if maxSide <= 0 || len(img.Data) == 0 {
		return img, nil
	}
	decoded, err := imaging.Decode(bytes.NewReader(img.Data), imaging.AutoOrientation(true))
	if err != nil {
		return img, nil
	}
	bounds := decoded.Bounds()
	if bounds.Dx() <= maxSide && bounds.Dy() <= maxSide {
		return img, nil
	}
	resized := imaging.Fit(decoded, maxSide, maxSide, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(jpeg.DefaultQuality)); err != nil {
		return img, fmt.Errorf("failed to encode resized image: %w", err)
	}
	return InlineImage{MIMEType: "image/jpeg", Data: buf.Bytes()}, nil
}
