package tarindex

import (
	"iter"

	"github.com/meigma/tarindex/internal/idxtype"
	"github.com/meigma/tarindex/internal/scan"
)

// Re-export types from internal/idxtype for the public API.
type (
	// ArchiveRecord describes one indexed archive.
	ArchiveRecord = idxtype.ArchiveRecord

	// MemberRecord maps one archive member to its content byte range.
	MemberRecord = idxtype.MemberRecord

	// MemberEntry is a member yielded by the archive scanner.
	MemberEntry = idxtype.MemberEntry

	// Location is one archive holding a member with a requested name.
	Location = idxtype.Location

	// RetrievalError describes a failure to read one indexed member.
	RetrievalError = idxtype.RetrievalError
)

// Members returns a single-pass sequence over the members of the tar archive
// at path, without consulting any index.
func Members(path string) iter.Seq2[MemberEntry, error] {
	return scan.Members(path)
}
