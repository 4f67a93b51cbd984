// Package media prepares image attachments for multimodal models.
package media

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"os"

	// Decoders for every format an attachment may arrive in.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// JPEGQuality is the re-encoding quality.
const JPEGQuality = 90

// EncodeImageBase64 decodes the image at path, re-encodes it as JPEG and
// returns the standard base64 encoding.
func EncodeImageBase64(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", path, err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, opaque(img), &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return "", fmt.Errorf("re-encode %s image as jpeg: %w", format, err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// opaque flattens transparency onto white; JPEG has no alpha channel.
func opaque(img image.Image) image.Image {
	if _, ok := img.(*image.YCbCr); ok {
		return img
	}
	if _, ok := img.(*image.Gray); ok {
		return img
	}
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, image.White, image.Point{}, draw.Src)
	draw.Draw(out, bounds, img, bounds.Min, draw.Over)
	return out
}

// Encoder implements the reasoning loop's image encoder.
type Encoder struct{}

// EncodeImage calls EncodeImageBase64.
func (Encoder) EncodeImage(path string) (string, error) {
	return EncodeImageBase64(path)
}
