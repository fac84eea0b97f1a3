// Package sqlite implements places persistence over a single SQLite file.
//
// The database is opened with one connection and immediate transactions, so
// writers queue on the database lock and a transaction never upgrades from a
// read lock mid-flight.
package sqlite
