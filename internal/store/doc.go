// Package store provides the SQLite-backed index store.
//
// The store holds two tables: archives, one row per indexed archive keyed by
// path, and members, one row per archive member keyed by (archive, name) with
// a secondary index on the member name. All writes go through a Tx so that
// re-indexing one archive is applied or discarded as a whole.
package store
