// Package config loads geomancer settings from the environment.
//
// Values come from process environment variables, optionally seeded from a
// .env file, and fall back to the default struct tags of each section.
// Nested keys map to upper-case variables joined by underscores, so
// mancer.census_reporter.api_key is read from MANCER_CENSUS_REPORTER_API_KEY.
//
// # Sections
//
//   - Server: HTTP port, API key and the public URL used in download links
//   - Storage: MinIO/S3 bucket for uploads and merged results
//   - Database: optional job history and gazetteer tables
//   - Redis, Queue: job queue backend and result TTL
//   - Mancer: data source credentials and HTTP retry policy
//   - Geo: gazetteer reference file
//   - Upload: spreadsheet row limit
//   - Log: logging level and format
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
