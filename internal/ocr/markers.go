package ocr

import (
	"strings"
	"unicode"
)

// Markers are the acquisition labels burned into a mammogram.
type Markers struct {
	// Laterality is "L" or "R"; empty when not found.
	Laterality string `json:"laterality,omitempty"`
	// View is the projection code; empty when not found.
	View string `json:"view,omitempty"`
}

// Found reports whether any marker was recognised.
func (m Markers) Found() bool {
	return m.Laterality != "" || m.View != ""
}

// Known projection codes. A token must equal a code exactly; combined tokens
// such as "RMLO" are split into the side letter and the remainder before
// matching, so "RMLO" yields MLO and never ML.
var views = []string{"XCCL", "MLO", "SIO", "CC", "ML", "LM"}

var lateralityWords = map[string]string{
	"L":     "L",
	"LEFT":  "L",
	"LT":    "L",
	"R":     "R",
	"RIGHT": "R",
	"RT":    "R",
}

// ParseMarkers extracts laterality and view from OCR words.
//
// It accepts separate tokens ("L", "CC"), combined tokens ("RMLO", "L-CC")
// and spelled-out sides ("LEFT"). Punctuation and case are ignored. The first
// match of each kind wins.
func ParseMarkers(words []string) Markers {
	var m Markers
	for _, w := range words {
		token := normalizeToken(w)
		if token == "" {
			continue
		}

		if side, ok := lateralityWords[token]; ok {
			if m.Laterality == "" {
				m.Laterality = side
			}
			continue
		}
		if v := matchView(token); v != "" {
			if m.View == "" {
				m.View = v
			}
			continue
		}

		// Combined form: side letter followed by a view code.
		if len(token) > 1 && (token[0] == 'L' || token[0] == 'R') {
			if v := matchView(token[1:]); v != "" {
				if m.Laterality == "" {
					m.Laterality = token[:1]
				}
				if m.View == "" {
					m.View = v
				}
			}
		}
	}
	return m
}

func matchView(token string) string {
	for _, v := range views {
		if token == v {
			return v
		}
	}
	return ""
}

// normalizeToken upper-cases w and drops everything but letters and digits.
func normalizeToken(w string) string {
	var b strings.Builder
	for _, r := range w {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}
