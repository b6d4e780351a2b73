// Package httpapi serves the analysis pipeline over HTTP using gin.
//
// # Endpoints
//
//	POST /analyze   multipart/form-data with the image in field "image"
//	GET  /healthz   liveness and active backend
//
// POST /analyze accepts the optional query flags overlay, thumbnails,
// thumbnail_scale, annotations and features. Every response carries an
// X-Request-ID header; a valid incoming ID is reused, otherwise a new UUID is
// generated. The ID also appears in the report and in request logs.
//
// # Errors
//
// Errors are JSON objects of the form {"error": "<message>"}:
//   - 400: the image field is missing or empty ("No image provided")
//   - 413: the upload exceeds the configured limit
//   - 500: the image could not be decoded or the pipeline failed
package httpapi
