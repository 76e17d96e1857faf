// Package store defines interfaces for persistence dependencies: venues,
// concerts with their performers and pieces, and scrape run history.
// Implementations live in other packages; this package must not import
// database drivers or concrete clients.
package store
