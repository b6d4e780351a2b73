package analysis

import (
	"fmt"
	"strings"

	"github.com/ironsheep/mammogram-analyzer/internal/imaging"
)

// RiskLevel is the overall risk derived from the prediction.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "High"
	RiskMedium RiskLevel = "Medium"
	RiskLow    RiskLevel = "Low"
)

// SuspicionCounts tallies regions per suspicion level.
type SuspicionCounts struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// Analysis is the interpreted result of a prediction and its regions.
type Analysis struct {
	Classification Class `json:"classification"`
	// Confidence is expressed as a percentage.
	Confidence        float64         `json:"confidence"`
	RegionsOfInterest int             `json:"regions_of_interest"`
	SuspicionLevels   SuspicionCounts `json:"suspicion_levels"`
	RiskLevel         RiskLevel       `json:"risk_level"`
	Recommendations   []string        `json:"recommendations"`
}

var recommendations = map[RiskLevel][]string{
	RiskHigh: {
		"Immediate consultation with a healthcare provider is strongly recommended",
		"Additional diagnostic imaging may be necessary",
		"Consider scheduling a biopsy for definitive diagnosis",
	},
	RiskMedium: {
		"Follow-up with a healthcare provider is recommended",
		"Consider additional screening in 3-6 months",
		"Monitor for any changes or new symptoms",
	},
	RiskLow: {
		"Continue routine screening as recommended by your healthcare provider",
		"Maintain regular self-examinations",
		"Report any changes to your healthcare provider",
	},
}

// Disclaimer closes every text report.
const Disclaimer = "IMPORTANT: This is an AI-assisted analysis and should not be used as a definitive diagnosis. " +
	"Please consult with a healthcare professional for proper medical evaluation."

// AssessRisk maps a prediction to a risk level. Only Malignant predictions
// raise the risk: above 0.75 confidence it is High, above 0.5 Medium.
func AssessRisk(p Prediction) RiskLevel {
	switch {
	case p.Class == Malignant && p.Confidence > 0.75:
		return RiskHigh
	case p.Class == Malignant && p.Confidence > 0.5:
		return RiskMedium
	default:
		return RiskLow
	}
}

// DetailedAnalysis combines a prediction with the regions found in the image.
func DetailedAnalysis(p Prediction, regions []Region) Analysis {
	var counts SuspicionCounts
	for _, r := range regions {
		switch r.SuspicionLevel {
		case SuspicionHigh:
			counts.High++
		case SuspicionMedium:
			counts.Medium++
		case SuspicionLow:
			counts.Low++
		}
	}

	risk := AssessRisk(p)
	return Analysis{
		Classification:    p.Class,
		Confidence:        p.Confidence * 100,
		RegionsOfInterest: len(regions),
		SuspicionLevels:   counts,
		RiskLevel:         risk,
		Recommendations:   append([]string(nil), recommendations[risk]...),
	}
}

// FormatReport renders the human-readable summary returned as "result".
func FormatReport(a Analysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analysis complete. Classification: %s (Confidence: %.1f%%)\n\n", a.Classification, a.Confidence)
	fmt.Fprintf(&b, "Risk Level: %s\n", a.RiskLevel)
	fmt.Fprintf(&b, "Regions of Interest: %d\n\n", a.RegionsOfInterest)
	b.WriteString("Suspicious Areas:\n")
	fmt.Fprintf(&b, "- High: %d\n", a.SuspicionLevels.High)
	fmt.Fprintf(&b, "- Medium: %d\n", a.SuspicionLevels.Medium)
	fmt.Fprintf(&b, "- Low: %d\n\n", a.SuspicionLevels.Low)
	b.WriteString("Recommendations:\n")
	lines := make([]string, len(a.Recommendations))
	for i, rec := range a.Recommendations {
		lines[i] = "- " + rec
	}
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\n")
	b.WriteString(Disclaimer)
	return b.String()
}

// Annotations are the burned-in markers read from the image.
type Annotations struct {
	Text  string   `json:"text"`
	Words []string `json:"words,omitempty"`
	// Laterality is "L" or "R" when a marker was recognised.
	Laterality string `json:"laterality,omitempty"`
	// View is the projection, for example "CC" or "MLO".
	View string `json:"view,omitempty"`
}

// Thumbnail is a cropped region of interest.
type Thumbnail struct {
	RegionID int `json:"region_id"`
	*imaging.CropResult
}

// Report is the response body of an analysis. The first six fields are
// always present; the rest are filled when requested or available.
type Report struct {
	Result          string    `json:"result"`
	Class           Class     `json:"class"`
	Confidence      float64   `json:"confidence"`
	RiskLevel       RiskLevel `json:"risk_level"`
	Regions         []Region  `json:"regions"`
	Recommendations []string  `json:"recommendations"`

	RequestID   string                 `json:"request_id,omitempty"`
	Backend     string                 `json:"backend,omitempty"`
	Image       *imaging.ImageInfo     `json:"image,omitempty"`
	Features    *Features              `json:"features,omitempty"`
	Metadata    *imaging.Metadata      `json:"metadata,omitempty"`
	Annotations *Annotations           `json:"annotations,omitempty"`
	Overlay     *imaging.OverlayResult `json:"overlay,omitempty"`
	Thumbnails  []Thumbnail            `json:"thumbnails,omitempty"`
}

// NewReport assembles the core report fields from an analysis.
func NewReport(a Analysis, regions []Region) *Report {
	if regions == nil {
		regions = []Region{}
	}
	return &Report{
		Result:          FormatReport(a),
		Class:           a.Classification,
		Confidence:      a.Confidence,
		RiskLevel:       a.RiskLevel,
		Regions:         regions,
		Recommendations: a.Recommendations,
	}
}
