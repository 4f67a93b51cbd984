package media

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func writeImage(t *testing.T, name string, encode func(*os.File, image.Image) error) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 6))
	for x := 0; x < 8; x++ {
		for y := 0; y < 6; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 30), G: uint8(y * 40), B: 200, A: 128})
		}
	}
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, encode(f, img))
	return path
}

func decodeJPEG(t *testing.T, encoded string) image.Image {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	return img
}

func TestEncodePNG(t *testing.T) {
	path := writeImage(t, "in.png", func(f *os.File, img image.Image) error { return png.Encode(f, img) })

	encoded, err := EncodeImageBase64(path)
	require.NoError(t, err)

	img := decodeJPEG(t, encoded)
	assert.Equal(t, image.Rect(0, 0, 8, 6), img.Bounds())
}

func TestEncodeBMP(t *testing.T) {
	path := writeImage(t, "in.bmp", func(f *os.File, img image.Image) error { return bmp.Encode(f, img) })

	encoded, err := Encoder{}.EncodeImage(path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 6), decodeJPEG(t, encoded).Bounds())
}

func TestEncodeMissingFile(t *testing.T) {
	_, err := EncodeImageBase64(filepath.Join(t.TempDir(), "nope.png"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open")
}

func TestEncodeUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("just text"), 0o644))

	_, err := EncodeImageBase64(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, image.ErrFormat)
}
