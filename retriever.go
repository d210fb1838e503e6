package tarindex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"log/slog"
	"os"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/tarindex/internal/sizing"
)

// Match is one member read back through the index.
type Match struct {
	Name        string
	ArchivePath string
	Offset      int64
	Size        int64
	Content     []byte
}

// Digest returns the sha256 digest of the member content.
func (m Match) Digest() digest.Digest {
	return digest.FromBytes(m.Content)
}

// Retriever reads archive members using only the index.
type Retriever struct {
	store         *Store
	logger        *slog.Logger
	maxMemberSize int64
}

// NewRetriever creates a Retriever reading through st.
func NewRetriever(st *Store, opts ...RetrieverOption) *Retriever {
	r := &Retriever{store: st}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Retriever) log() *slog.Logger {
	if r.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.logger
}

// Retrieve returns one Match per indexed archive holding a member called
// name, in archive id order. The archives are never scanned: each match is a
// single read of the recorded byte range.
//
// A match whose archive is missing or now too short yields a *RetrievalError
// and iteration continues with the next archive. A name found in no archive
// yields nothing.
func (r *Retriever) Retrieve(ctx context.Context, name string) iter.Seq2[Match, error] {
	return func(yield func(Match, error) bool) {
		locs, err := r.store.FindMembersByName(ctx, name)
		if err != nil {
			yield(Match{Name: name}, err)
			return
		}
		r.log().Debug("member lookup", "name", name, "matches", len(locs))

		for _, loc := range locs {
			if err := ctx.Err(); err != nil {
				yield(Match{Name: name}, fmt.Errorf("%w: %w", ErrInterrupted, err))
				return
			}
			m, err := r.read(name, loc)
			if err != nil {
				r.log().Debug("member not retrieved", "name", name, "archive", loc.ArchivePath, "error", err)
			}
			if !yield(m, err) {
				return
			}
		}
	}
}

// read opens the archive read-only and reads exactly loc.Size bytes at loc.Offset.
func (r *Retriever) read(name string, loc Location) (Match, error) {
	m := Match{
		Name:        name,
		ArchivePath: loc.ArchivePath,
		Offset:      loc.Offset,
		Size:        loc.Size,
	}
	fail := func(err error) (Match, error) {
		return m, &RetrievalError{
			Name:        name,
			ArchivePath: loc.ArchivePath,
			Offset:      loc.Offset,
			Size:        loc.Size,
			Err:         err,
		}
	}

	if r.maxMemberSize > 0 && loc.Size > r.maxMemberSize {
		return fail(fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrSizeOverflow, loc.Size, r.maxMemberSize))
	}
	length, err := sizing.ToInt(loc.Size, ErrSizeOverflow)
	if err != nil {
		return fail(err)
	}

	f, err := os.Open(loc.ArchivePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fail(fmt.Errorf("%w: %s", ErrArchiveNotFound, loc.ArchivePath))
		}
		return fail(err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fail(err)
	}
	if !sizing.WithinBounds(loc.Offset, loc.Size, info.Size()) {
		return fail(fmt.Errorf("%w: archive is %d bytes", ErrStaleEntry, info.Size()))
	}

	content := make([]byte, length)
	n, err := io.ReadFull(io.NewSectionReader(f, loc.Offset, loc.Size), content)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return fail(fmt.Errorf("%w: short read (%d of %d bytes)", ErrStaleEntry, n, length))
		}
		return fail(err)
	}
	m.Content = content
	return m, nil
}
