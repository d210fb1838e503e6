package scan

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"strings"

	"github.com/meigma/tarindex/internal/idxtype"
	"github.com/meigma/tarindex/internal/pathutil"
)

// Members returns a single-pass sequence over the members of the tar archive
// at path. Each call opens the file afresh; the file is closed when iteration
// ends.
//
// Errors matching idxtype.ErrSparseMember describe one member and iteration
// continues past them. Any other error ends the sequence.
func Members(path string) iter.Seq2[idxtype.MemberEntry, error] {
	return func(yield func(idxtype.MemberEntry, error) bool) {
		f, err := open(path)
		if err != nil {
			yield(idxtype.MemberEntry{}, err)
			return
		}
		defer f.Close()

		Read(f)(yield)
	}
}

// Read returns a single-pass sequence over the members of the tar stream r.
// Offsets are relative to the first byte read from r. Compressed input is not
// detected. When r is an io.Seeker, member content is skipped by seeking.
func Read(r io.Reader) iter.Seq2[idxtype.MemberEntry, error] {
	return func(yield func(idxtype.MemberEntry, error) bool) {
		walk(&positionReader{R: r}, yield)
	}
}

func open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", idxtype.ErrArchiveNotFound, path)
		}
		return nil, fmt.Errorf("%w: %w", idxtype.ErrScanner, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %w", idxtype.ErrScanner, err)
	}
	if !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s is not a regular file", idxtype.ErrMalformedArchive, path)
	}
	if info.Size() == 0 {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s is empty", idxtype.ErrMalformedArchive, path)
	}

	head, err := sniff(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %w", idxtype.ErrScanner, err)
	}
	if kind := compression(head); kind != "" {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s is %s-compressed", idxtype.ErrCompressedArchive, path, kind)
	}
	return f, nil
}

func walk(pr *positionReader, yield func(idxtype.MemberEntry, error) bool) {
	tr := tar.NewReader(pr)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			yield(idxtype.MemberEntry{}, fmt.Errorf("%w: at byte %d: %w", idxtype.ErrMalformedArchive, pr.Pos, err))
			return
		}

		entry := idxtype.MemberEntry{
			Name:   memberName(hdr),
			Offset: pr.Pos,
			Size:   hdr.Size,
		}
		if isSparse(hdr) {
			if !yield(entry, fmt.Errorf("%w: %s", idxtype.ErrSparseMember, entry.Name)) {
				return
			}
			continue
		}
		if !yield(entry, nil) {
			return
		}
	}
}

func memberName(hdr *tar.Header) string {
	if hdr.Typeflag == tar.TypeDir {
		return pathutil.TrimDir(hdr.Name)
	}
	return hdr.Name
}

func isSparse(hdr *tar.Header) bool {
	if hdr.Typeflag == tar.TypeGNUSparse {
		return true
	}
	for k := range hdr.PAXRecords {
		if strings.HasPrefix(k, "GNU.sparse.") {
			return true
		}
	}
	return false
}
