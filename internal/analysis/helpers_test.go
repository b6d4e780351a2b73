package analysis

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

// uniformImage creates an opaque gray RGBA image.
func uniformImage(width, height int, v uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

// paintRect fills r with gray level v.
func paintRect(img *image.RGBA, r image.Rectangle, v uint8) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, color.RGBA{v, v, v, 255})
		}
	}
}

// darkSquareImage is a white 100x100 image with a 40x40 square of intensity
// 50 whose top-left corner is at (30,30).
func darkSquareImage() *image.RGBA {
	img := uniformImage(100, 100, 255)
	paintRect(img, image.Rect(30, 30, 70, 70), 50)
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// encodeEXIFJPEG encodes img as JPEG with an APP1 EXIF segment carrying
// Make, Model and Orientation 1 in a little-endian IFD0.
func encodeEXIFJPEG(t *testing.T, img image.Image, maker, model string) []byte {
	t.Helper()

	var jpg bytes.Buffer
	if err := jpeg.Encode(&jpg, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("failed to encode JPEG: %v", err)
	}

	le := binary.LittleEndian
	const entries = 3
	dataOffset := 8 + 2 + entries*12 + 4

	var tiff, values bytes.Buffer
	tiff.WriteString("II")
	_ = binary.Write(&tiff, le, uint16(42))
	_ = binary.Write(&tiff, le, uint32(8))
	_ = binary.Write(&tiff, le, uint16(entries))
	for _, field := range []struct {
		tag   uint16
		value string
	}{{0x010F, maker}, {0x0110, model}} {
		v := field.value + "\x00"
		_ = binary.Write(&tiff, le, field.tag)
		_ = binary.Write(&tiff, le, uint16(2)) // ASCII
		_ = binary.Write(&tiff, le, uint32(len(v)))
		_ = binary.Write(&tiff, le, uint32(dataOffset+values.Len()))
		values.WriteString(v)
	}
	// Orientation, SHORT stored inline.
	_ = binary.Write(&tiff, le, []uint16{0x0112, 3})
	_ = binary.Write(&tiff, le, uint32(1))
	_ = binary.Write(&tiff, le, []uint16{1, 0})
	_ = binary.Write(&tiff, le, uint32(0)) // no IFD1
	tiff.Write(values.Bytes())

	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)
	var out bytes.Buffer
	out.Write(jpg.Bytes()[:2]) // SOI
	out.Write([]byte{0xFF, 0xE1})
	_ = binary.Write(&out, binary.BigEndian, uint16(len(payload)+2))
	out.Write(payload)
	out.Write(jpg.Bytes()[2:])
	return out.Bytes()
}
