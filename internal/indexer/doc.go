// Package indexer turns a materialized directory tree into a deterministic,
// filtered, size-capped file listing.
//
// # Pipeline
//
//  1. Walk: enumerate every regular file under the root
//  2. Filter: match slash-normalized relative paths against include/exclude globs
//  3. Sort: ascending by relative path (byte order) for reproducible output
//  4. Cap: keep a strict prefix bounded by MaxFiles and cumulative MaxBytes
//  5. Preview: read a bounded text fragment per retained entry, in parallel
//
// # Cap Semantics
//
// Caps stop enumeration at the first breach. With MaxBytes=10 and sorted
// candidates of size 6 and 4, only the first is returned: adding the 4-byte
// file after the 6-byte one would fit arithmetically, but the listing is
// defined as a strict prefix of the sorted candidate order, so enumeration
// halts where the first oversized addition occurs.
//
// # Tolerated Partial Failures
//
// A file whose size cannot be read is skipped silently. A preview that
// cannot be decoded as text becomes the empty string. Neither aborts the
// index; an empty listing is a valid result.
package indexer
