package tarindex

import "log/slog"

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// RetrieveWithLogger sets the logger for retrieval diagnostics.
func RetrieveWithLogger(logger *slog.Logger) RetrieverOption {
	return func(r *Retriever) {
		r.logger = logger
	}
}

// RetrieveWithMaxMemberSize limits the size of a single retrieved member.
// Larger members fail with ErrSizeOverflow. Set limit to 0 to disable the limit.
func RetrieveWithMaxMemberSize(limit int64) RetrieverOption {
	return func(r *Retriever) {
		if limit < 0 {
			limit = 0
		}
		r.maxMemberSize = limit
	}
}
