// Package geo holds the closed catalog of supported geography kinds and the
// logic that turns spreadsheet cells into geography strings.
//
// # Catalog
//
// Every Kind is described by a Type value: display name, long description,
// formatting example and a validation strategy. The strategy is data, not
// behavior attached to a type hierarchy; Catalog.Validate switches over it:
//
//   - PatternMatch: whole-string anchored regular expression (zip codes,
//     census tract FIPS, congressional districts).
//   - GazetteerMembership: every distinct value must be present in a finite
//     reference set loaded once at startup (counties, school districts,
//     state + county FIPS codes).
//   - DirectoryLookup: values must resolve through the canonical state table
//     (names, postal abbreviations, AP style, FIPS codes).
//   - NoValidation: always passes; adapter lookup failure is the signal.
//
// Blank cells never invalidate a batch. Failures are collected into a single
// ValidationError naming every offending value.
//
// # Combinations
//
// A Combination binds one or two kinds to a presentation template, for
// example "county;state" renders as "{county} County, {state}". Only the
// combinations in the allow-list are accepted; ParseCombination rejects the
// rest before any row is processed. A Resolver applies a combination to the
// raw column values of one row.
package geo
