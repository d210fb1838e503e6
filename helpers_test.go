package tarindex

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meigma/tarindex/internal/testutil"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := OpenStore(filepath.Join(t.TempDir(), "test.idx"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func writeArchive(t *testing.T, dir, name string, members ...testutil.TestMember) string {
	t.Helper()
	path := filepath.Join(dir, name)
	testutil.WriteTar(t, path, members)
	return path
}

func indexArchive(t *testing.T, st *Store, path string) Result {
	t.Helper()
	res, err := NewIndexer(st).Index(context.Background(), path)
	require.NoError(t, err)
	return res
}

func memberNames(t *testing.T, st *Store, archiveID int64) []string {
	t.Helper()
	recs, err := st.Members(context.Background(), archiveID)
	require.NoError(t, err)
	names := make([]string, 0, len(recs))
	for _, r := range recs {
		names = append(names, r.Name)
	}
	return names
}
