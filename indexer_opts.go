package tarindex

import "log/slog"

// DefaultProgressInterval is the number of members between progress events.
const DefaultProgressInterval = 100

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// IndexWithLogger sets the logger for indexing diagnostics.
func IndexWithLogger(logger *slog.Logger) IndexerOption {
	return func(ix *Indexer) {
		ix.logger = logger
	}
}

// IndexWithProgress sets a callback invoked while archives are scanned.
func IndexWithProgress(fn ProgressFunc) IndexerOption {
	return func(ix *Indexer) {
		ix.progress = fn
	}
}

// IndexWithProgressInterval sets how many members are recorded between progress
// events. Values <= 0 restore DefaultProgressInterval.
func IndexWithProgressInterval(n int) IndexerOption {
	return func(ix *Indexer) {
		if n <= 0 {
			n = DefaultProgressInterval
		}
		ix.progressInterval = n
	}
}
