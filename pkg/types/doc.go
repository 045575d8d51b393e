// Package types provides shared type definitions for the docsmith service.
//
// This package defines the domain types that flow between components: source
// input descriptions, indexed file entries, glob pattern sets, documentation
// section specifications, and the sentinel errors every layer maps onto its
// own failure reporting.
//
// # Core Types
//
// Input is a tagged union describing where a project comes from. It is
// validated once at the service boundary; the core never inspects transport
// details:
//
//	in := types.Input{
//	    Kind: types.InputRepo,
//	    URL:  "https://github.com/owner/repo",
//	    Ref:  "main",
//	}
//	if err := in.Validate(); err != nil { ... }
//
// FileEntry is one discovered file, returned to the caller so it can pick a
// subset for summarization:
//
//	entry := types.FileEntry{Path: "src/main.go", Size: 1024, Preview: "package main"}
//
// SectionSpec describes one field of the structured documentation output. Its
// ID becomes the key in the generated JSON object.
//
// # Error Kinds
//
// Five sentinel errors classify every failure the core can surface:
//
//	types.ErrInvalidInput     // malformed source description or request field
//	types.ErrMaterialization  // bad URL/ref/archive, network failure, missing subdir
//	types.ErrBadPattern       // malformed include/exclude glob
//	types.ErrMissingSelection // a selected path does not exist under the root
//	types.ErrUnknownSession   // session id not found or already destroyed
//
// Callers test with errors.Is after layers have wrapped context around them.
package types
