// Package catalog lists the supported geography types and the data sources
// that can be appended to a spreadsheet.
//
// Data sources are listed from a freshly built adapter roster. Adapters that
// could not be constructed, typically for a missing API key, are still listed
// with the construction error so clients can explain why their tables are
// unavailable. Both listings accept an optional geo_type filter.
//
// The package also keeps the optional database-backed gazetteer used to
// validate counties, school districts and state + county FIPS codes.
package catalog
