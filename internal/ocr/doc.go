// Package ocr reads burned-in text from mammograms using Tesseract.
//
// Digital mammograms usually carry laterality and view markers ("L CC",
// "RMLO") printed into the pixels by the acquisition device. This package
// wraps the Tesseract OCR engine (via gosseract/v2) to read them, and
// ParseMarkers turns the recognised words into a laterality and a view.
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr libtesseract-dev
//   - macOS: brew install tesseract
//
// Language data files are required for each language:
//   - Ubuntu/Debian: apt-get install tesseract-ocr-eng (for English)
//
// # Views
//
// Recognised projection codes are CC, MLO, ML, LM, XCCL and SIO.
//
// # Error Handling
//
// OCR is an optional enrichment of an analysis. Annotator returns errors to
// the caller, and the analysis pipeline logs them without failing the
// request. If bounding box extraction fails, ExtractText still returns the
// extracted text with an empty Regions slice.
package ocr
