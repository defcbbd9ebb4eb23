// Package database handles the canonical store connection and schema inspection.
//
// It wraps GORM and selects the dialector from configuration: MySQL, PostgreSQL
// (through pgx) or SQLite. SQLite is used in memory by the test suites.
//
// # Schema Inspection
//
// GetTableColumns returns the live column list of a table. The schema integrity
// check compares it against the gorm models of the sync feature.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	columns, err := database.GetTableColumns(db, "devices")
package database
