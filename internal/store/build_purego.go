//go:build !cgo_sqlite
// +build !cgo_sqlite

package store

// This file is compiled by default and when CGO is unavailable. It uses a
// pure Go SQLite implementation, so cross-compilation needs no C toolchain.
//
// Build command:
//
//	CGO_ENABLED=0 go build ./...
//
// Driver used: modernc.org/sqlite

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver to use.
	DriverName = "sqlite"

	// BuildMode describes the current build configuration.
	BuildMode = "purego"
)
