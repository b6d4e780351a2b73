package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ErrUnreadableImage is returned when uploaded bytes cannot be decoded as an image.
var ErrUnreadableImage = errors.New("Could not read the image")

// ImageCache provides thread-safe caching of decoded images keyed by file path.
//
// The MCP transport addresses images by path and usually issues several tool
// calls against the same file, so the decoded image is kept until evicted.
//
//	cache := imaging.NewImageCache()
//	img, err := cache.Load("/scans/left_cc.png")
//	if err != nil {
//	    return err
//	}
//	defer cache.Evict("/scans/left_cc.png")
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]*cachedImage
}

type cachedImage struct {
	img  image.Image
	info *ImageInfo
	raw  []byte
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]*cachedImage),
	}
}

// Load retrieves an image from the cache or reads and decodes it from disk.
//
// The image is cached using the exact path string provided. Different paths to
// the same file (relative vs absolute) result in separate cache entries.
func (c *ImageCache) Load(path string) (image.Image, error) {
	entry, err := c.load(path)
	if err != nil {
		return nil, err
	}
	return entry.img, nil
}

// Raw returns the undecoded file bytes for a cached path, loading it if needed.
// Metadata readers need the original container rather than the pixels.
func (c *ImageCache) Raw(path string) ([]byte, error) {
	entry, err := c.load(path)
	if err != nil {
		return nil, err
	}
	return entry.raw, nil
}

func (c *ImageCache) load(path string) (*cachedImage, error) {
	c.mu.RLock()
	if entry, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return entry, nil
	}
	c.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	img, info, err := Decode(data)
	if err != nil {
		return nil, err
	}

	entry := &cachedImage{img: img, info: info, raw: data}
	c.mu.Lock()
	c.images[path] = entry
	c.mu.Unlock()

	return entry, nil
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]*cachedImage)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Len reports the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// ImageInfo contains metadata about a decoded image.
type ImageInfo struct {
	// Width is the image width in pixels after orientation is applied.
	Width int `json:"width"`

	// Height is the image height in pixels after orientation is applied.
	Height int `json:"height"`

	// Format is the decoder name reported by the image package:
	// "png", "jpeg", "gif", "bmp", "tiff" or "webp".
	Format string `json:"format"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	// Digital mammography exports are commonly 16-bit grayscale.
	ColorDepth string `json:"color_depth"`

	// HasAlpha indicates whether the source color model carries alpha.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the encoded input in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// Decode decodes an uploaded image held in memory.
//
// EXIF orientation is honoured, so the returned image is upright and its
// bounds always start at (0,0). Empty or undecodable input returns an error
// wrapping ErrUnreadableImage.
func Decode(data []byte) (image.Image, *ImageInfo, error) {
	if len(data) == 0 {
		return nil, nil, ErrUnreadableImage
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}
	img = normalizeOrigin(img)

	hasAlpha := false
	colorDepth := "8-bit"
	switch cfg.ColorModel {
	case color.RGBAModel, color.NRGBAModel:
		hasAlpha = true
	case color.RGBA64Model, color.NRGBA64Model:
		hasAlpha = true
		colorDepth = "16-bit"
	case color.Gray16Model:
		colorDepth = "16-bit"
	}

	bounds := img.Bounds()
	return img, &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		ColorDepth:    colorDepth,
		HasAlpha:      hasAlpha,
		FileSizeBytes: int64(len(data)),
	}, nil
}

// LoadImageInfo loads an image through the cache and returns its metadata.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	entry, err := cache.load(path)
	if err != nil {
		return nil, err
	}
	info := *entry.info
	return &info, nil
}

// normalizeOrigin returns img translated so that its bounds start at (0,0).
// Sub-images produced by some decoders keep their parent's offset.
func normalizeOrigin(img image.Image) image.Image {
	if img.Bounds().Min == (image.Point{}) {
		return img
	}
	return imaging.Clone(img)
}
