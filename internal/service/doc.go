// Package service orchestrates the docsmith pipeline.
//
// Prepare materializes a source input (git repository, remote or local zip
// archive, or inline snippet) under a fresh session directory, indexes the
// tree with glob filters and size caps, and persists a durable session
// record. Summarize resolves a session, concatenates the caller's selected
// files into a bundle, and hands it to the section generator. Cleanup
// removes the record and the backing directory.
//
// The service holds no retry logic of its own; failures from the
// materializer, indexer, and store surface unchanged, carrying the
// pkg/types sentinel errors that transport layers map to status codes.
package service
