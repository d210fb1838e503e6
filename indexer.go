package tarindex

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/meigma/tarindex/internal/scan"
)

// Outcome describes what Index did to an archive.
type Outcome uint8

const (
	// OutcomeFailed indicates the archive could not be indexed; the store
	// still holds its previous state.
	OutcomeFailed Outcome = iota

	// OutcomeIndexed indicates the archive was indexed for the first time.
	OutcomeIndexed

	// OutcomeReindexed indicates a modified archive replaced its previous rows.
	OutcomeReindexed

	// OutcomeUnchanged indicates the archive was already up to date and
	// nothing was written.
	OutcomeUnchanged
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeFailed:
		return "failed"
	case OutcomeIndexed:
		return "indexed"
	case OutcomeReindexed:
		return "reindexed"
	case OutcomeUnchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// Result reports the indexing of one archive.
type Result struct {
	// Path is the absolute archive path used as the index key.
	Path string

	// ArchiveID is the archive's identifier, zero when indexing failed
	// before one was resolved.
	ArchiveID int64

	Outcome Outcome

	// Members is the number of member rows written.
	Members int

	// Skipped is the number of members left out of the index (sparse files).
	Skipped int

	// Err is the failure, if any. Index also returns it.
	Err error
}

// Indexer brings the index store's record of archives up to date.
type Indexer struct {
	store            *Store
	logger           *slog.Logger
	progress         ProgressFunc
	progressInterval int
}

// NewIndexer creates an Indexer writing to st.
func NewIndexer(st *Store, opts ...IndexerOption) *Indexer {
	ix := &Indexer{
		store:            st,
		progressInterval: DefaultProgressInterval,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

func (ix *Indexer) log() *slog.Logger {
	if ix.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return ix.logger
}

// Index indexes the archive at archivePath unless the store already holds
// it with a modification time at least as new as the file's.
//
// A new archive gets the next archive id; a modified one keeps its id and has
// all of its member rows replaced. The work for one archive is a single
// transaction: on any error, including cancellation of ctx, the store keeps
// its previous state. Cancellation is reported as ErrInterrupted.
func (ix *Indexer) Index(ctx context.Context, archivePath string) (Result, error) {
	res := Result{Path: archivePath}

	abs, err := filepath.Abs(archivePath)
	if err != nil {
		return ix.fail(ctx, res, err)
	}
	res.Path = abs

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("%w: %s", ErrArchiveNotFound, abs)
		}
		return ix.fail(ctx, res, err)
	}

	tx, err := ix.store.Begin(ctx)
	if err != nil {
		return ix.fail(ctx, res, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	rec, found, err := tx.FindArchiveByPath(ctx, abs)
	if err != nil {
		return ix.fail(ctx, res, err)
	}
	modTime := info.ModTime()
	if found && !rec.ModTime.Before(modTime) {
		res.ArchiveID = rec.ID
		res.Outcome = OutcomeUnchanged
		ix.log().Info("archive already indexed", "path", abs, "archive_id", rec.ID)
		return res, nil
	}

	if found {
		res.ArchiveID = rec.ID
		res.Outcome = OutcomeReindexed
		if err := tx.DeleteMembersForArchive(ctx, rec.ID); err != nil {
			return ix.fail(ctx, res, err)
		}
	} else {
		id, err := tx.NextArchiveID(ctx)
		if err != nil {
			return ix.fail(ctx, res, err)
		}
		res.ArchiveID = id
		res.Outcome = OutcomeIndexed
	}

	err = tx.UpsertArchive(ctx, ArchiveRecord{ID: res.ArchiveID, Path: abs, ModTime: modTime})
	if err != nil {
		return ix.fail(ctx, res, err)
	}
	if err := ix.record(ctx, tx, &res, info.Size()); err != nil {
		return ix.fail(ctx, res, err)
	}

	ix.report(ProgressEvent{Stage: StageCommitting, Path: abs, Members: res.Members, BytesDone: info.Size(), BytesTotal: info.Size()})
	if err := tx.Commit(); err != nil {
		return ix.fail(ctx, res, fmt.Errorf("commit %s: %w", abs, err))
	}
	ix.report(ProgressEvent{Stage: StageDone, Path: abs, Members: res.Members, BytesDone: info.Size(), BytesTotal: info.Size()})

	ix.log().Info("archive indexed",
		"path", abs,
		"archive_id", res.ArchiveID,
		"outcome", res.Outcome.String(),
		"members", res.Members,
		"skipped", res.Skipped,
	)
	return res, nil
}

// record streams the archive's members into tx.
func (ix *Indexer) record(ctx context.Context, tx *Tx, res *Result, size int64) error {
	for entry, scanErr := range scan.Members(res.Path) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if scanErr != nil {
			if errors.Is(scanErr, ErrSparseMember) {
				res.Skipped++
				ix.log().Warn("skipping sparse member", "path", res.Path, "member", entry.Name)
				continue
			}
			return scanErr
		}

		err := tx.InsertMember(ctx, MemberRecord{
			ArchiveID: res.ArchiveID,
			Name:      entry.Name,
			Offset:    entry.Offset,
			Size:      entry.Size,
		})
		if err != nil {
			return err
		}
		res.Members++

		if res.Members%ix.progressInterval == 0 {
			ix.report(ProgressEvent{
				Stage:      StageScanning,
				Path:       res.Path,
				Members:    res.Members,
				BytesDone:  entry.Offset,
				BytesTotal: size,
			})
		}
	}
	return ctx.Err()
}

func (ix *Indexer) report(ev ProgressEvent) {
	if ix.progress != nil {
		ix.progress(ev)
	}
}

func (ix *Indexer) fail(ctx context.Context, res Result, err error) (Result, error) {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ErrInterrupted) {
		err = fmt.Errorf("%w: %s: %w", ErrInterrupted, res.Path, ctxErr)
	}
	if res.Outcome != OutcomeReindexed {
		res.ArchiveID = 0
	}
	res.Outcome = OutcomeFailed
	res.Members = 0
	res.Err = err
	ix.log().Debug("archive not indexed", "path", res.Path, "error", err)
	return res, err
}

// IndexAll indexes each archive in turn. A failure on one archive is recorded
// in its Result and does not stop the others; cancellation of ctx does.
func (ix *Indexer) IndexAll(ctx context.Context, archivePaths []string) []Result {
	results := make([]Result, 0, len(archivePaths))
	for _, p := range archivePaths {
		res, err := ix.Index(ctx, p)
		results = append(results, res)
		if errors.Is(err, ErrInterrupted) {
			break
		}
	}
	return results
}
