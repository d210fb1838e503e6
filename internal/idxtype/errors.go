package idxtype

import (
	"errors"
	"fmt"
)

// Sentinel errors for index operations.
var (
	// ErrStoreOpen is returned when the index store cannot be opened or initialized.
	ErrStoreOpen = errors.New("tarindex: cannot open index store")

	// ErrArchiveNotFound is returned when an archive path does not exist.
	ErrArchiveNotFound = errors.New("tarindex: archive not found")

	// ErrScanner is returned when an archive cannot be scanned.
	ErrScanner = errors.New("tarindex: cannot scan archive")

	// ErrRetrieval is returned when an indexed member cannot be read back.
	ErrRetrieval = errors.New("tarindex: cannot retrieve member")

	// ErrInterrupted is returned when an operation is cancelled mid-scan.
	ErrInterrupted = errors.New("tarindex: interrupted")

	// ErrSizeOverflow is returned when byte counts exceed supported limits.
	ErrSizeOverflow = errors.New("tarindex: size overflow")
)

// Scanner failure kinds. Each matches ErrScanner with errors.Is.
var (
	// ErrCompressedArchive is returned for gzip, zstd, bzip2 or xz input.
	ErrCompressedArchive = fmt.Errorf("%w: compressed archives are not supported", ErrScanner)

	// ErrMalformedArchive is returned when the input is not a well-formed tar stream.
	ErrMalformedArchive = fmt.Errorf("%w: malformed tar archive", ErrScanner)

	// ErrSparseMember is returned for members whose content is not one
	// contiguous byte range. It is reported per entry and does not end a scan.
	ErrSparseMember = fmt.Errorf("%w: sparse member", ErrScanner)
)

// ErrStaleEntry is returned when an index entry points past the end of its
// archive. It matches ErrRetrieval with errors.Is.
var ErrStaleEntry = fmt.Errorf("%w: stale index entry", ErrRetrieval)

// RetrievalError describes a failure to read one indexed member.
type RetrievalError struct {
	Name        string
	ArchivePath string
	Offset      int64
	Size        int64
	Err         error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieve %s from %s [%d+%d]: %v", e.Name, e.ArchivePath, e.Offset, e.Size, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// Is reports every RetrievalError as an ErrRetrieval.
func (e *RetrievalError) Is(target error) bool {
	return target == ErrRetrieval
}
