package tarindex

import (
	"log/slog"
	"time"

	"github.com/meigma/tarindex/internal/store"
)

type (
	// Store is an open index store. See OpenStore.
	Store = store.Store

	// Tx is a write transaction against a Store.
	Tx = store.Tx

	// StoreOption configures a Store.
	StoreOption = store.Option
)

// OpenStore opens the index store at path, creating the file and schema if
// they are absent. Opening an existing store does not modify its contents.
// Failures are reported as ErrStoreOpen.
func OpenStore(path string, opts ...StoreOption) (*Store, error) {
	return store.Open(path, opts...)
}

// StoreWithBusyTimeout sets how long the store waits on a locked index file.
func StoreWithBusyTimeout(d time.Duration) StoreOption {
	return store.WithBusyTimeout(d)
}

// StoreWithSynchronous sets the SQLite synchronous mode (OFF, NORMAL, FULL or EXTRA).
func StoreWithSynchronous(mode string) StoreOption {
	return store.WithSynchronous(mode)
}

// StoreWithLogger sets the logger for store diagnostics.
func StoreWithLogger(logger *slog.Logger) StoreOption {
	return store.WithLogger(logger)
}
