package scan

import (
	"bytes"
	"errors"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// sniffLen is the number of leading bytes inspected for compression headers.
const sniffLen = 4096

var (
	bzip2Magic      = []byte("BZh")
	bzip2BlockMagic = []byte{0x31, 0x41, 0x59, 0x26, 0x53, 0x59}
	xzMagic         = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
)

// sniff reads the leading bytes of ra without moving any read offset.
func sniff(ra io.ReaderAt) ([]byte, error) {
	head := make([]byte, sniffLen)
	n, err := ra.ReadAt(head, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return head[:n], nil
}

// compression names the compression format of a stream starting with head,
// or returns "" for anything else.
func compression(head []byte) string {
	if zr, err := gzip.NewReader(bytes.NewReader(head)); err == nil {
		_ = zr.Close()
		return "gzip"
	}
	var zh zstd.Header
	if err := zh.Decode(head); err == nil {
		return "zstd"
	}
	if len(head) >= 10 && bytes.HasPrefix(head, bzip2Magic) &&
		head[3] >= '1' && head[3] <= '9' && bytes.Equal(head[4:10], bzip2BlockMagic) {
		return "bzip2"
	}
	if bytes.HasPrefix(head, xzMagic) {
		return "xz"
	}
	return ""
}
