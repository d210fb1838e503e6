// Package tarindex builds and queries a persistent index of the members of
// uncompressed tar archives.
//
// The index is a single SQLite file recording, for every member of every
// indexed archive, the absolute byte offset of its content and its length.
// Members can then be read back with one seek instead of a scan of the
// archive.
//
// # Indexing
//
//	st, err := tarindex.OpenStore("backup.tar.idx")
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//
//	ix := tarindex.NewIndexer(st)
//	res, err := ix.Index(ctx, "backup.tar")
//
// Indexing an archive whose modification time has not advanced since it was
// last indexed is a no-op. Otherwise all of the archive's member rows are
// replaced in a single transaction, so readers see either the previous index
// or the complete new one.
//
// # Retrieval
//
//	r := tarindex.NewRetriever(st)
//	for m, err := range r.Retrieve(ctx, "etc/hosts") {
//	    if err != nil {
//	        log.Print(err) // one stale entry; other matches still follow
//	        continue
//	    }
//	    os.Stdout.Write(m.Content)
//	}
//
// Only uncompressed tar archives are supported; compressed input is rejected
// with ErrCompressedArchive.
package tarindex
