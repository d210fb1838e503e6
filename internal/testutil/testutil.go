// Package testutil builds tar fixtures for tests.
package testutil

import (
	"archive/tar"
	"bytes"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// TestMember holds data for one tar member in a fixture.
type TestMember struct {
	Name    string
	Content []byte
	Dir     bool

	// RealSize, when positive, makes the member a GNU sparse file whose
	// single data region is Content at offset 0 of a RealSize-byte file.
	RealSize int64
}

// File returns a regular-file member.
func File(name, content string) TestMember {
	return TestMember{Name: name, Content: []byte(content)}
}

// SparseFile returns a GNU sparse member holding content followed by a hole
// up to realSize bytes.
func SparseFile(name, content string, realSize int64) TestMember {
	return TestMember{Name: name, Content: []byte(content), RealSize: realSize}
}

// BuildTar encodes members as an uncompressed tar stream in order.
func BuildTar(tb testing.TB, members []TestMember) []byte {
	tb.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	var sparse []int
	for _, m := range members {
		if err := tw.Flush(); err != nil {
			tb.Fatalf("flush before %s: %v", m.Name, err)
		}
		hdr := &tar.Header{
			Name:    m.Name,
			Mode:    0o644,
			Size:    int64(len(m.Content)),
			ModTime: time.Unix(1700000000, 0),
		}
		if m.Dir {
			hdr.Typeflag = tar.TypeDir
			hdr.Mode = 0o755
			hdr.Size = 0
		}
		if m.RealSize > 0 {
			hdr.Format = tar.FormatGNU
			sparse = append(sparse, buf.Len())
		}
		if err := tw.WriteHeader(hdr); err != nil {
			tb.Fatalf("write header %s: %v", m.Name, err)
		}
		if !m.Dir {
			if _, err := tw.Write(m.Content); err != nil {
				tb.Fatalf("write content %s: %v", m.Name, err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		tb.Fatalf("close tar: %v", err)
	}

	data := buf.Bytes()
	i := 0
	for _, m := range members {
		if m.RealSize > 0 {
			markSparse(data[sparse[i]:sparse[i]+512], int64(len(m.Content)), m.RealSize)
			i++
		}
	}
	return data
}

// markSparse rewrites a GNU header block as an old-GNU sparse header with one
// data region of dataSize bytes at offset 0. archive/tar cannot write these.
func markSparse(blk []byte, dataSize, realSize int64) {
	octal := func(n int64) string { return fmt.Sprintf("%011o\x00", n) }

	blk[156] = tar.TypeGNUSparse
	copy(blk[386:398], octal(0))
	copy(blk[398:410], octal(dataSize))
	copy(blk[483:495], octal(realSize))

	copy(blk[148:156], "        ")
	var sum int64
	for _, c := range blk {
		sum += int64(c)
	}
	copy(blk[148:156], fmt.Sprintf("%06o\x00 ", sum))
}

// WriteTar writes an uncompressed tar archive of members to path.
func WriteTar(tb testing.TB, path string, members []TestMember) {
	tb.Helper()
	writeFile(tb, path, BuildTar(tb, members))
}

// WriteGzipTar writes a gzip-compressed tar archive of members to path.
func WriteGzipTar(tb testing.TB, path string, members []TestMember) {
	tb.Helper()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(BuildTar(tb, members)); err != nil {
		tb.Fatalf("gzip: %v", err)
	}
	if err := zw.Close(); err != nil {
		tb.Fatalf("gzip close: %v", err)
	}
	writeFile(tb, path, buf.Bytes())
}

// WriteZstdTar writes a zstd-compressed tar archive of members to path.
func WriteZstdTar(tb testing.TB, path string, members []TestMember) {
	tb.Helper()

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		tb.Fatalf("zstd: %v", err)
	}
	defer enc.Close()
	writeFile(tb, path, enc.EncodeAll(BuildTar(tb, members), nil))
}

// Touch moves the modification time of path forward by d.
func Touch(tb testing.TB, path string, d time.Duration) {
	tb.Helper()

	info, err := os.Stat(path)
	if err != nil {
		tb.Fatalf("stat %s: %v", path, err)
	}
	mtime := info.ModTime().Add(d)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		tb.Fatalf("chtimes %s: %v", path, err)
	}
}

// Truncate cuts path to size bytes, keeping its modification time.
func Truncate(tb testing.TB, path string, size int64) {
	tb.Helper()

	info, err := os.Stat(path)
	if err != nil {
		tb.Fatalf("stat %s: %v", path, err)
	}
	if err := os.Truncate(path, size); err != nil {
		tb.Fatalf("truncate %s: %v", path, err)
	}
	if err := os.Chtimes(path, info.ModTime(), info.ModTime()); err != nil {
		tb.Fatalf("chtimes %s: %v", path, err)
	}
}

func writeFile(tb testing.TB, path string, data []byte) {
	tb.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}
}
