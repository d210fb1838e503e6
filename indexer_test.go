package tarindex

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/tarindex/internal/testutil"
)

func TestIndex_NewArchive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore(t)
	path := writeArchive(t, t.TempDir(), "a.tar",
		testutil.File("a.txt", "alpha"),
		testutil.TestMember{Name: "dir/", Dir: true},
		testutil.File("dir/b.txt", "bravo"),
	)

	res := indexArchive(t, st, path)
	assert.Equal(t, OutcomeIndexed, res.Outcome)
	assert.Equal(t, int64(1), res.ArchiveID)
	assert.Equal(t, 3, res.Members)
	assert.Equal(t, path, res.Path)
	require.NoError(t, res.Err)

	rec, ok, err := st.FindArchiveByPath(ctx, path)
	require.NoError(t, err)
	require.True(t, ok)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, rec.ModTime.Equal(info.ModTime()))
	assert.Equal(t, []string{"a.txt", "dir", "dir/b.txt"}, memberNames(t, st, res.ArchiveID))
}

func TestIndex_UnchangedArchiveWritesNothing(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	idxPath := filepath.Join(dir, "test.idx")
	st, err := OpenStore(idxPath)
	require.NoError(t, err)
	defer st.Close()

	path := writeArchive(t, dir, "a.tar", testutil.File("a.txt", "alpha"), testutil.File("b.txt", "bravo"))
	first := indexArchive(t, st, path)
	before, err := os.ReadFile(idxPath)
	require.NoError(t, err)

	second := indexArchive(t, st, path)
	assert.Equal(t, OutcomeUnchanged, second.Outcome)
	assert.Equal(t, first.ArchiveID, second.ArchiveID)
	assert.Zero(t, second.Members)

	after, err := os.ReadFile(idxPath)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, []string{"a.txt", "b.txt"}, memberNames(t, st, first.ArchiveID))
}

func TestIndex_ModifiedArchiveReplacesMembers(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	dir := t.TempDir()

	path := writeArchive(t, dir, "a.tar", testutil.File("keep", "1"), testutil.File("gone", "2"))
	first := indexArchive(t, st, path)

	testutil.WriteTar(t, path, []testutil.TestMember{testutil.File("keep", "11"), testutil.File("new", "3")})
	testutil.Touch(t, path, time.Hour)

	second := indexArchive(t, st, path)
	assert.Equal(t, OutcomeReindexed, second.Outcome)
	assert.Equal(t, first.ArchiveID, second.ArchiveID)
	assert.Equal(t, 2, second.Members)
	assert.Equal(t, []string{"keep", "new"}, memberNames(t, st, second.ArchiveID))

	recs, err := st.Archives(context.Background())
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestIndex_ArchiveIDStableAcrossReopen(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	idxPath := filepath.Join(dir, "test.idx")

	a := writeArchive(t, dir, "a.tar", testutil.File("x", "a"))
	b := writeArchive(t, dir, "b.tar", testutil.File("x", "b"))
	c := writeArchive(t, dir, "c.tar", testutil.File("x", "c"))

	st, err := OpenStore(idxPath)
	require.NoError(t, err)
	assert.Equal(t, int64(1), indexArchive(t, st, a).ArchiveID)
	assert.Equal(t, int64(2), indexArchive(t, st, b).ArchiveID)
	require.NoError(t, st.Close())

	st, err = OpenStore(idxPath)
	require.NoError(t, err)
	defer st.Close()

	res := indexArchive(t, st, a)
	assert.Equal(t, OutcomeUnchanged, res.Outcome)
	assert.Equal(t, int64(1), res.ArchiveID)

	testutil.Touch(t, b, time.Minute)
	res = indexArchive(t, st, b)
	assert.Equal(t, OutcomeReindexed, res.Outcome)
	assert.Equal(t, int64(2), res.ArchiveID)

	assert.Equal(t, int64(3), indexArchive(t, st, c).ArchiveID)
}

func TestIndex_EmptyArchive(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	path := writeArchive(t, t.TempDir(), "empty.tar")

	res := indexArchive(t, st, path)
	assert.Equal(t, OutcomeIndexed, res.Outcome)
	assert.Zero(t, res.Members)

	n, err := st.MemberCount(context.Background(), res.ArchiveID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIndex_DuplicateNamesLastWriteWins(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	path := writeArchive(t, t.TempDir(), "dup.tar",
		testutil.File("same", "first"),
		testutil.File("other", "x"),
		testutil.File("same", "second version"),
	)

	res := indexArchive(t, st, path)
	assert.Equal(t, 3, res.Members)
	assert.Equal(t, []string{"other", "same"}, memberNames(t, st, res.ArchiveID))

	var got []string
	for m, err := range NewRetriever(st).Retrieve(context.Background(), "same") {
		require.NoError(t, err)
		got = append(got, string(m.Content))
	}
	assert.Equal(t, []string{"second version"}, got)
}

func TestIndex_SkipsSparseMembers(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	path := writeArchive(t, t.TempDir(), "sparse.tar",
		testutil.File("before", "b"),
		testutil.SparseFile("holes", "data", 1<<20),
		testutil.File("after", "after"),
	)

	res := indexArchive(t, st, path)
	assert.Equal(t, OutcomeIndexed, res.Outcome)
	assert.Equal(t, 2, res.Members)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, []string{"after", "before"}, memberNames(t, st, res.ArchiveID))

	r := NewRetriever(st)
	var got []string
	for m, err := range r.Retrieve(context.Background(), "after") {
		require.NoError(t, err)
		got = append(got, string(m.Content))
	}
	assert.Equal(t, []string{"after"}, got)

	for range r.Retrieve(context.Background(), "holes") {
		t.Fatal("sparse member must not be indexed")
	}
}

func TestIndex_Failures(t *testing.T) {
	t.Parallel()

	t.Run("missing archive", func(t *testing.T) {
		t.Parallel()
		st := newTestStore(t)
		res, err := NewIndexer(st).Index(context.Background(), filepath.Join(t.TempDir(), "missing.tar"))
		require.ErrorIs(t, err, ErrArchiveNotFound)
		assert.Equal(t, OutcomeFailed, res.Outcome)
		assert.Equal(t, err, res.Err)
	})

	t.Run("compressed archive", func(t *testing.T) {
		t.Parallel()
		st := newTestStore(t)
		path := filepath.Join(t.TempDir(), "a.tar.gz")
		testutil.WriteGzipTar(t, path, []testutil.TestMember{testutil.File("a", "1")})

		res, err := NewIndexer(st).Index(context.Background(), path)
		require.ErrorIs(t, err, ErrCompressedArchive)
		require.ErrorIs(t, err, ErrScanner)
		assert.Zero(t, res.ArchiveID)

		recs, err := st.Archives(context.Background())
		require.NoError(t, err)
		assert.Empty(t, recs)
	})

	t.Run("malformed reindex keeps prior state", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		st := newTestStore(t)
		path := writeArchive(t, t.TempDir(), "a.tar", testutil.File("a", "1"), testutil.File("b", "2"))
		first := indexArchive(t, st, path)
		prior, _, err := st.FindArchiveByPath(ctx, path)
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, data[:700], 0o644))
		testutil.Touch(t, path, time.Hour)

		res, err := NewIndexer(st).Index(ctx, path)
		require.ErrorIs(t, err, ErrMalformedArchive)
		assert.Equal(t, OutcomeFailed, res.Outcome)
		assert.Equal(t, first.ArchiveID, res.ArchiveID)

		assert.Equal(t, []string{"a", "b"}, memberNames(t, st, first.ArchiveID))
		rec, _, err := st.FindArchiveByPath(ctx, path)
		require.NoError(t, err)
		assert.True(t, rec.ModTime.Equal(prior.ModTime))
	})
}

func TestIndex_InterruptRollsBack(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	members := make([]testutil.TestMember, 50)
	for i := range members {
		members[i] = testutil.File(fmt.Sprintf("m%02d", i), "content")
	}
	path := writeArchive(t, t.TempDir(), "a.tar", members...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ix := NewIndexer(st,
		IndexWithProgressInterval(10),
		IndexWithProgress(func(ev ProgressEvent) {
			if ev.Stage == StageScanning {
				cancel()
			}
		}),
	)

	res, err := ix.Index(ctx, path)
	require.ErrorIs(t, err, ErrInterrupted)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, OutcomeFailed, res.Outcome)

	recs, err := st.Archives(context.Background())
	require.NoError(t, err)
	assert.Empty(t, recs)

	res = indexArchive(t, st, path)
	assert.Equal(t, OutcomeIndexed, res.Outcome)
	assert.Equal(t, 50, res.Members)
}

func TestIndex_ProgressEvents(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	members := make([]testutil.TestMember, 5)
	for i := range members {
		members[i] = testutil.File(fmt.Sprintf("m%d", i), "x")
	}
	path := writeArchive(t, t.TempDir(), "a.tar", members...)

	var events []ProgressEvent
	ix := NewIndexer(st,
		IndexWithProgressInterval(2),
		IndexWithProgress(func(ev ProgressEvent) { events = append(events, ev) }),
	)
	_, err := ix.Index(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, events, 4)
	assert.Equal(t, StageScanning, events[0].Stage)
	assert.Equal(t, 2, events[0].Members)
	assert.Equal(t, 4, events[1].Members)
	assert.Equal(t, StageCommitting, events[2].Stage)
	assert.Equal(t, StageDone, events[3].Stage)
	assert.Equal(t, 5, events[3].Members)
	assert.InDelta(t, 100.0, events[3].Percent(), 0.001)
	for _, ev := range events {
		assert.Equal(t, path, ev.Path)
	}
}

func TestIndexAll_IsolatesFailures(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	dir := t.TempDir()

	a := writeArchive(t, dir, "a.tar", testutil.File("x", "a"))
	b := writeArchive(t, dir, "b.tar", testutil.File("x", "b"))

	results := NewIndexer(st).IndexAll(context.Background(), []string{a, filepath.Join(dir, "missing.tar"), b})
	require.Len(t, results, 3)

	require.NoError(t, results[0].Err)
	require.ErrorIs(t, results[1].Err, ErrArchiveNotFound)
	require.NoError(t, results[2].Err)
	assert.Equal(t, int64(1), results[0].ArchiveID)
	assert.Equal(t, int64(2), results[2].ArchiveID)
}

func TestIndexAll_StopsWhenInterrupted(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	dir := t.TempDir()
	a := writeArchive(t, dir, "a.tar", testutil.File("x", "a"))
	b := writeArchive(t, dir, "b.tar", testutil.File("x", "b"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := NewIndexer(st).IndexAll(ctx, []string{a, b})
	require.Len(t, results, 1)
	require.ErrorIs(t, results[0].Err, ErrInterrupted)
}

func TestOutcome_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "failed", OutcomeFailed.String())
	assert.Equal(t, "indexed", OutcomeIndexed.String())
	assert.Equal(t, "reindexed", OutcomeReindexed.String())
	assert.Equal(t, "unchanged", OutcomeUnchanged.String())
	assert.Equal(t, "unknown", Outcome(99).String())
}
