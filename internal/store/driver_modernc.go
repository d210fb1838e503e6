//go:build !sqlite_cgo || !cgo

package store

import _ "modernc.org/sqlite" // registers the "sqlite" driver

const driverName = "sqlite"
