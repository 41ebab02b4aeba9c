// Package database provides the optional MySQL connection used to persist
// sync run history.
//
// A failed connection is not fatal to a sync run; the report store simply
// stays disabled for that run. See feature/report for the models written
// through this connection.
package database
