// Package idxtype holds the record types, sentinel errors and progress
// types shared by the index store, the archive scanner and the public API.
package idxtype

import "time"

// ArchiveRecord describes one indexed archive.
type ArchiveRecord struct {
	// ID is the archive identifier, assigned as max(ID)+1 on first index.
	ID int64

	// Path is the absolute path of the archive file.
	Path string

	// ModTime is the archive's modification time when it was last indexed.
	ModTime time.Time
}

// MemberRecord maps one archive member to its content byte range.
type MemberRecord struct {
	ArchiveID int64
	Name      string
	Offset    int64
	Size      int64
}

// MemberEntry is a member yielded by the archive scanner.
type MemberEntry struct {
	// Name is the member path inside the archive. Directory names carry no
	// trailing slash.
	Name string

	// Offset is the absolute byte position where the member's content begins.
	Offset int64

	// Size is the content length declared in the member's header.
	Size int64
}

// Location is one archive holding a member with a requested name.
type Location struct {
	ArchivePath string
	Offset      int64
	Size        int64
}
