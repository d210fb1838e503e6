// Package scan enumerates the members of an uncompressed tar archive.
//
// The scanner streams the archive's headers and records, for each member, the
// absolute offset of its content and the content length from its header.
// Member content is skipped with Seek where the source allows it and is never
// buffered, and no entry is retained after it has been yielded, so memory use
// does not grow with the number of members.
package scan
