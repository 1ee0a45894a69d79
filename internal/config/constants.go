package config

import "time"

// Default paths and database settings
const (
	// DefaultDatabasePath is the default path for the sqlite library database
	DefaultDatabasePath = "./library.db"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Library defaults
const (
	DefaultPageSize   = 100
	DefaultLoanPeriod = 14 * 24 * time.Hour
	DefaultTopN       = 10
)
