// Package merge implements the merge engine: it resolves the geography of
// every row through the owning source adapters, fetches the requested data
// columns once per adapter and reassembles one output table.
//
// # Invariants
//
// The output has exactly one row per input row, in input order, and every
// row is as wide as the header. Rows that did not resolve (blank geography,
// failed lookup, dropped adapter, no data returned) get blank filler.
//
// # Flow
//
//  1. Validate the source columns with the geography catalog. A failure
//     stops the job before any adapter is called.
//  2. Partition the requested columns by owning adapter. Adapters that could
//     not be constructed are skipped with a warning.
//  3. Format one geography string per row and resolve it. Identical
//     (adapter, string) pairs are looked up once per job through the
//     ResolutionCache.
//  4. Call Search once per adapter with the deduplicated identifiers,
//     chunked for adapters that implement mancer.Batcher. Independent
//     adapters are searched concurrently.
//  5. Append the returned columns, annotated with the geography display
//     name, and fill every row.
//
// Zero resolved identifiers across the job fails with
// ErrNoGeographiesMatched rather than producing an all-blank table.
package merge
