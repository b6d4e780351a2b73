// Package imaging provides the pixel-level building blocks of the mammogram
// pipeline: decoding uploads, grayscale and Lab conversion, contrast limited
// adaptive histogram equalisation (CLAHE), Gaussian adaptive thresholding,
// resizing, statistics, thumbnails and region overlays.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner. Images
// returned by Decode and by the conversion helpers always have bounds starting
// at (0,0), so coordinates computed on a derived image (for example a
// threshold mask) address the same pixel in the decoded original.
//
// # Fidelity
//
// The conversions and filters reproduce the arithmetic of the OpenCV calls the
// screening rules were calibrated against: BT.601 fixed-point grayscale,
// 8-bit Lab lightness, OpenCV's CLAHE tiling and clipping, and the
// src-mean <= -C rule of ADAPTIVE_THRESH_GAUSSIAN_C with THRESH_BINARY_INV.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. All other functions are stateless
// and never modify their inputs.
//
// # Error Handling
//
// Decode wraps every decoding failure in ErrUnreadableImage so callers can
// distinguish bad uploads from internal failures with errors.Is.
package imaging
