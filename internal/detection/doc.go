// Package detection finds candidate regions in binary masks.
//
// The mammogram pipeline thresholds a scan into a foreground mask and then
// asks this package for the outline of every blob in it. Only outer borders
// of outermost blobs are reported: holes, and blobs sitting inside the holes
// of other blobs, are ignored.
//
// # Connectivity
//
// Foreground pixels are 8-connected (diagonal neighbours join) and background
// pixels are 4-connected. This pairing is the one under which every blob has
// a single well-defined outer border.
//
// # Contours
//
// A Contour is the list of border pixels where the border changes direction,
// in tracing order. Straight runs are collapsed to their end points, so a
// filled rectangle has exactly four points. Area is measured on the polygon
// through pixel centres, which makes it smaller than the pixel count:
//
//	pixels  area
//	1x1     0
//	2x2     1
//	20x20   361
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at the top-left corner of the mask bounds
//   - X increases rightward
//   - Y increases downward
//   - Bounding boxes use inclusive top-left and exclusive bottom-right
//
// # Performance Considerations
//
// Labelling and tracing are linear in the number of pixels. The label plane
// uses four bytes per pixel, so a full-field 4000x3000 scan needs about 48MB
// of scratch space while FindExternalContours runs.
package detection
