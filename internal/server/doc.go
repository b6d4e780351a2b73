// Package server implements the MCP (Model Context Protocol) server for
// mammogram analysis tools.
//
// This package provides a JSON-RPC 2.0 server that exposes the analysis
// pipeline through the MCP protocol, so an assistant can screen an image on
// disk and read back the structured report.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// Logging goes to the configured zap logger, never to stdout.
//
// # Available Tools
//
//   - mammogram_analyze: Full report (classification, risk, regions, recommendations)
//   - mammogram_regions: Regions of interest only
//   - mammogram_features: Intensity features and the resulting prediction
//   - mammogram_overlay: Base64 PNG with regions outlined by suspicion level
//   - mammogram_info: Dimensions, format and EXIF acquisition metadata
//
// # Image Caching
//
// Images are cached by path and reused across tool calls for the lifetime of
// the process. Analysis results are not cached.
//
// # Error Handling
//
// Errors are returned as JSON-RPC error responses:
//   - -32602: unknown tool, missing or malformed arguments
//   - -32000: tool execution failure (unreadable file, analysis error)
//   - -32601: unknown method
//
// # Usage
//
//	a, _ := analysis.NewAnalyzer()
//	srv := server.New(a, server.WithLogger(logger))
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
