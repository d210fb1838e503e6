package tarindex

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/tarindex/internal/testutil"
)

type retrieved struct {
	matches []Match
	errs    []error
}

func retrieveAll(t *testing.T, r *Retriever, name string) retrieved {
	t.Helper()
	var out retrieved
	for m, err := range r.Retrieve(context.Background(), name) {
		if err != nil {
			out.errs = append(out.errs, err)
			continue
		}
		out.matches = append(out.matches, m)
	}
	return out
}

func TestRetrieve_RoundTrip(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	binary := make([]byte, 3000)
	for i := range binary {
		binary[i] = byte(i % 251)
	}
	members := []testutil.TestMember{
		testutil.File("a.txt", "alpha"),
		{Name: "bin/data", Content: binary},
		testutil.File("empty", ""),
		testutil.File("nested/deep/file.txt", "deep"),
	}
	for i := range 20 {
		members = append(members, testutil.File(fmt.Sprintf("gen/%02d", i), fmt.Sprintf("generated %d", i)))
	}
	path := writeArchive(t, t.TempDir(), "a.tar", members...)
	indexArchive(t, st, path)

	r := NewRetriever(st)
	for _, m := range members {
		got := retrieveAll(t, r, m.Name)
		require.Empty(t, got.errs, m.Name)
		require.Len(t, got.matches, 1, m.Name)
		assert.Equal(t, path, got.matches[0].ArchivePath)
		assert.Equal(t, m.Name, got.matches[0].Name)
		assert.Equal(t, int64(len(m.Content)), got.matches[0].Size)
		assert.True(t, bytes.Equal(m.Content, got.matches[0].Content), "content of %s", m.Name)
	}
}

func TestRetrieve_SameNameInTwoArchives(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	dir := t.TempDir()

	a := writeArchive(t, dir, "a.tar", testutil.File("x", "from a"), testutil.File("only-a", "1"))
	b := writeArchive(t, dir, "b.tar", testutil.File("pad", "padding"), testutil.File("x", "from b"))
	indexArchive(t, st, a)
	indexArchive(t, st, b)

	got := retrieveAll(t, NewRetriever(st), "x")
	require.Empty(t, got.errs)
	require.Len(t, got.matches, 2)
	assert.Equal(t, a, got.matches[0].ArchivePath)
	assert.Equal(t, "from a", string(got.matches[0].Content))
	assert.Equal(t, b, got.matches[1].ArchivePath)
	assert.Equal(t, "from b", string(got.matches[1].Content))
}

func TestRetrieve_NoMatches(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	dir := t.TempDir()
	indexArchive(t, st, writeArchive(t, dir, "a.tar", testutil.File("x", "1")))
	indexArchive(t, st, writeArchive(t, dir, "empty.tar"))

	got := retrieveAll(t, NewRetriever(st), "missing")
	assert.Empty(t, got.matches)
	assert.Empty(t, got.errs)
}

func TestRetrieve_StaleEntryDoesNotStopOthers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore(t)
	dir := t.TempDir()

	a := writeArchive(t, dir, "a.tar", testutil.File("first", "1"), testutil.File("x", "truncated away"))
	b := writeArchive(t, dir, "b.tar", testutil.File("x", "still here"))
	indexArchive(t, st, a)
	indexArchive(t, st, b)

	locs, err := st.FindMembersByName(ctx, "x")
	require.NoError(t, err)
	require.Len(t, locs, 2)
	testutil.Truncate(t, a, locs[0].Offset+2)

	var (
		matches []Match
		errs    []error
	)
	for m, err := range NewRetriever(st).Retrieve(ctx, "x") {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		matches = append(matches, m)
	}

	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], ErrStaleEntry)
	require.ErrorIs(t, errs[0], ErrRetrieval)
	var rerr *RetrievalError
	require.ErrorAs(t, errs[0], &rerr)
	assert.Equal(t, a, rerr.ArchivePath)
	assert.Equal(t, "x", rerr.Name)

	require.Len(t, matches, 1)
	assert.Equal(t, b, matches[0].ArchivePath)
	assert.Equal(t, "still here", string(matches[0].Content))

	got := retrieveAll(t, NewRetriever(st), "first")
	require.Empty(t, got.errs)
	require.Len(t, got.matches, 1)
	assert.Equal(t, "1", string(got.matches[0].Content))
}

func TestRetrieve_ArchiveRemoved(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	path := writeArchive(t, t.TempDir(), "a.tar", testutil.File("x", "1"))
	indexArchive(t, st, path)
	require.NoError(t, os.Remove(path))

	got := retrieveAll(t, NewRetriever(st), "x")
	assert.Empty(t, got.matches)
	require.Len(t, got.errs, 1)
	require.ErrorIs(t, got.errs[0], ErrRetrieval)
	require.ErrorIs(t, got.errs[0], ErrArchiveNotFound)
}

func TestRetrieve_MaxMemberSize(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	path := writeArchive(t, t.TempDir(), "a.tar", testutil.File("big", "0123456789"), testutil.File("small", "01"))
	indexArchive(t, st, path)

	r := NewRetriever(st, RetrieveWithMaxMemberSize(5))
	got := retrieveAll(t, r, "big")
	require.Len(t, got.errs, 1)
	require.ErrorIs(t, got.errs[0], ErrSizeOverflow)

	got = retrieveAll(t, r, "small")
	require.Empty(t, got.errs)
	require.Len(t, got.matches, 1)
}

func TestRetrieve_StopsEarly(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	dir := t.TempDir()
	indexArchive(t, st, writeArchive(t, dir, "a.tar", testutil.File("x", "a")))
	indexArchive(t, st, writeArchive(t, dir, "b.tar", testutil.File("x", "b")))

	n := 0
	for _, err := range NewRetriever(st).Retrieve(context.Background(), "x") {
		require.NoError(t, err)
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestRetrieve_CancelledContext(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	indexArchive(t, st, writeArchive(t, t.TempDir(), "a.tar", testutil.File("x", "a")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var errs []error
	for _, err := range NewRetriever(st).Retrieve(ctx, "x") {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], context.Canceled)
}

func TestMatch_Digest(t *testing.T) {
	t.Parallel()

	m := Match{Content: []byte("hello")}
	assert.Equal(t, digest.FromString("hello"), m.Digest())
	assert.Equal(t, digest.SHA256, m.Digest().Algorithm())
}
