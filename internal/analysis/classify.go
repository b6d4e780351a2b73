package analysis

// Class is the binary classification label.
type Class string

const (
	Malignant Class = "Malignant"
	Benign    Class = "Benign"
)

// Prediction is a label with a confidence in [0,1].
type Prediction struct {
	Class      Class   `json:"class"`
	Confidence float64 `json:"confidence"`
}

const (
	malignantConfidence = 0.8
	benignConfidence    = 0.7
)

// Predict applies the intensity rule: an image whose mean is below
// opts.MalignantBelow is Malignant with confidence 0.8, anything else Benign
// with confidence 0.7. There is no trained model behind it.
func Predict(f Features, opts Options) Prediction {
	if f.Mean < opts.MalignantBelow {
		return Prediction{Class: Malignant, Confidence: malignantConfidence}
	}
	return Prediction{Class: Benign, Confidence: benignConfidence}
}
