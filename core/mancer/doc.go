// Package mancer defines the contract every external data source adapter
// implements, so the merge engine never branches per source.
//
// # Contract
//
// An adapter ("mancer") exposes three capabilities:
//
//   - Metadata: the tables it serves, with their columns and the geography
//     kinds they support. Adapters fetch this lazily and may cache it in a
//     MetadataCache shared across jobs.
//   - GeoLookup: resolves one formatted geography string to the adapter's own
//     identifier. An empty GeoID is the normal "no match" outcome; errors are
//     reserved for transport and API failures. Adapters without a real lookup
//     embed EchoLookup, which returns the term itself.
//   - Search: fetches values for a list of identifiers and table ids. The
//     result carries one header and a row per identifier; identifiers with no
//     data may be omitted and the engine treats omission as no data.
//
// Adapters that cap the number of identifiers per search implement Batcher.
//
// # Registry
//
// Adapters are registered statically in a Registry by id, each with the
// table ids it owns and a Factory. Building a Roster constructs every
// adapter once per job; adapters that cannot be built (for example a missing
// API key) are kept aside as ConfigurationErrors so their columns can be
// dropped with a warning while the job continues.
//
// # Errors
//
//   - ConfigurationError: construction failed, the adapter is skipped.
//   - Error: transport or API failure during lookup or search, fatal to the
//     current job only. It carries the response body when one was read.
package mancer
