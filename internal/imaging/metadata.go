package imaging

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/bep/imagemeta"
)

// Metadata holds the EXIF fields that identify how a scan was acquired.
// Fields are empty when the source carries no EXIF block (PNG exports from
// most PACS viewers don't).
type Metadata struct {
	Make        string `json:"make,omitempty"`
	Model       string `json:"model,omitempty"`
	Software    string `json:"software,omitempty"`
	DateTime    string `json:"date_time,omitempty"`
	Orientation int    `json:"orientation,omitempty"`
}

// IsEmpty reports whether no field was found.
func (m *Metadata) IsEmpty() bool {
	return m == nil || *m == Metadata{}
}

var wantedEXIFTags = map[string]bool{
	"Make":             true,
	"Model":            true,
	"Software":         true,
	"DateTime":         true,
	"DateTimeOriginal": true,
	"Orientation":      true,
}

// metadataFormats maps image package format names to the containers
// imagemeta can read EXIF from.
var metadataFormats = map[string]imagemeta.ImageFormat{
	"jpeg": imagemeta.JPEG,
	"png":  imagemeta.PNG,
	"tiff": imagemeta.TIFF,
	"webp": imagemeta.WebP,
}

// ReadMetadata extracts acquisition metadata from raw image bytes. format is
// the name reported by Decode ("jpeg", "png", ...).
//
// Formats without EXIF support (gif, bmp) and images without an EXIF block
// return an empty Metadata and a nil error. Empty input is ErrUnreadableImage;
// a malformed EXIF block is returned as an error.
func ReadMetadata(data []byte, format string) (*Metadata, error) {
	if len(data) == 0 {
		return nil, ErrUnreadableImage
	}

	meta := &Metadata{}
	imageFormat, ok := metadataFormats[format]
	if !ok {
		return meta, nil
	}

	_, err := imagemeta.Decode(imagemeta.Options{
		R:           bytes.NewReader(data),
		ImageFormat: imageFormat,
		Sources:     imagemeta.EXIF,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			return wantedEXIFTags[ti.Tag]
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			handleEXIFTag(meta, ti)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s metadata: %w", format, err)
	}

	return meta, nil
}

func handleEXIFTag(meta *Metadata, ti imagemeta.TagInfo) {
	switch ti.Tag {
	case "Make":
		meta.Make = tagValueString(ti.Value)
	case "Model":
		meta.Model = tagValueString(ti.Value)
	case "Software":
		meta.Software = tagValueString(ti.Value)
	case "DateTimeOriginal":
		meta.DateTime = tagValueString(ti.Value)
	case "DateTime":
		if meta.DateTime == "" {
			meta.DateTime = tagValueString(ti.Value)
		}
	case "Orientation":
		meta.Orientation = tagValueInt(ti.Value)
	}
}

func tagValueString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(strings.TrimRight(val, "\x00"))
	case []string:
		if len(val) > 0 {
			return strings.TrimSpace(val[0])
		}
		return ""
	case fmt.Stringer:
		return val.String()
	default:
		return ""
	}
}

func tagValueInt(v any) int {
	switch val := v.(type) {
	case int:
		return val
	case uint16:
		return int(val)
	case uint32:
		return int(val)
	case int64:
		return int(val)
	default:
		return 0
	}
}
