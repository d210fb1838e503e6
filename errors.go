package tarindex

import "github.com/meigma/tarindex/internal/idxtype"

// Sentinel errors re-exported from internal/idxtype.
var (
	// ErrStoreOpen is returned when the index store cannot be opened or initialized.
	ErrStoreOpen = idxtype.ErrStoreOpen

	// ErrArchiveNotFound is returned when an archive path does not exist.
	ErrArchiveNotFound = idxtype.ErrArchiveNotFound

	// ErrScanner is returned when an archive cannot be scanned.
	ErrScanner = idxtype.ErrScanner

	// ErrCompressedArchive is returned for compressed input. It matches ErrScanner.
	ErrCompressedArchive = idxtype.ErrCompressedArchive

	// ErrMalformedArchive is returned for input that is not a well-formed tar
	// stream. It matches ErrScanner.
	ErrMalformedArchive = idxtype.ErrMalformedArchive

	// ErrSparseMember is reported for sparse members, which are skipped. It
	// matches ErrScanner.
	ErrSparseMember = idxtype.ErrSparseMember

	// ErrRetrieval is returned when an indexed member cannot be read back.
	ErrRetrieval = idxtype.ErrRetrieval

	// ErrStaleEntry is returned when an index entry points past the end of its
	// archive. It matches ErrRetrieval.
	ErrStaleEntry = idxtype.ErrStaleEntry

	// ErrInterrupted is returned when indexing is cancelled.
	ErrInterrupted = idxtype.ErrInterrupted

	// ErrSizeOverflow is returned when byte counts exceed supported limits.
	ErrSizeOverflow = idxtype.ErrSizeOverflow
)
