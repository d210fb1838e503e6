//go:build sqlite_cgo && cgo

package store

import _ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver

const driverName = "sqlite3"
