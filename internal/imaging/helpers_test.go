package imaging

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"testing"
)

// uniformGray creates a width x height grayscale image filled with v.
func uniformGray(width, height int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

// fillGray paints rect on img with v.
func fillGray(img *image.Gray, rect image.Rectangle, v uint8) {
	rect = rect.Intersect(img.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
}

// uniformRGBA creates an in-memory image filled with a solid color.
func uniformRGBA(width, height int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// encodeTestPNG encodes img as PNG bytes.
func encodeTestPNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return buf.Bytes()
}

// writeTestPNG writes img to a temporary PNG file and returns its path.
// The file is removed when the test ends.
func writeTestPNG(t *testing.T, img image.Image) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "test-image-*.png")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer tmpFile.Close()

	if err := png.Encode(tmpFile, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return tmpFile.Name()
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
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
