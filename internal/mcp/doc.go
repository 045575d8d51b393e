// Package mcp exposes the docsmith pipeline as an MCP server over stdio.
//
// Four tools are registered:
//
//   - prepare_source: materialize a git repo, zip archive, or inline
//     snippet, index its files, and return a session id with the file list.
//   - summarize_source: bundle selected files from a session and generate
//     the requested documentation sections.
//   - get_session: resolve a session id to its materialized root.
//   - cleanup_session: remove a session record and its files.
//
// Handlers decode the loosely typed tool arguments into the same request
// structs the HTTP surface uses, so both transports share one pipeline.
// Pipeline errors are translated to MCP protocol error codes: invalid
// input and bad glob patterns map to invalid-params style codes, unknown
// sessions and failed materializations to dedicated application codes,
// and provider failures to a generation error code.
//
// Stdout carries the protocol, so nothing in this package may write to
// it; logging is the caller's concern and goes to stderr.
package mcp
