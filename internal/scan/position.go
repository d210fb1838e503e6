package scan

import (
	"errors"
	"io"
)

var errNotSeekable = errors.New("scan: source is not seekable")

// positionReader wraps a reader and tracks the number of bytes consumed,
// counting both reads and forward seeks.
//
// archive/tar reads headers without read-ahead, so after Next returns the
// position is exactly the start of the member's content.
type positionReader struct {
	R   io.Reader
	Pos int64
}

// Read implements io.Reader.
func (p *positionReader) Read(b []byte) (int, error) {
	n, err := p.R.Read(b)
	p.Pos += int64(n)
	return n, err
}

// Seek implements io.Seeker for relative seeks when the wrapped reader is
// seekable. archive/tar probes with Seek(0, io.SeekCurrent) and falls back to
// reading when Seek fails.
func (p *positionReader) Seek(offset int64, whence int) (int64, error) {
	s, ok := p.R.(io.Seeker)
	if !ok || whence != io.SeekCurrent {
		return 0, errNotSeekable
	}
	if _, err := s.Seek(offset, io.SeekCurrent); err != nil {
		return 0, err
	}
	p.Pos += offset
	return p.Pos, nil
}
