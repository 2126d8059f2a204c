// Package database handles database connections and schema checks.
//
// It wraps GORM to configure MySQL, PostgreSQL or SQLite connections from the
// application's configuration. The database is optional: it backs the job
// history and the gazetteer reference table, and the service runs without it.
//
// # Schema Checks
//
// GetTableColumns and MissingColumns inspect an existing table through the
// gorm migrator. The migrate command uses them to report drift in the job
// history schema.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Warn("Database unavailable", zap.Error(err))
//	}
package database
