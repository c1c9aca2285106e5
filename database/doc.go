// Package database provides connection management on top of Bun: connection
// configuration, per-operation connection scoping, driver error
// classification, the record table registry, table bootstrap, SQL seeding
// and query logging hooks.
package database
