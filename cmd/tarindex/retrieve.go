package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/meigma/tarindex"
	"github.com/meigma/tarindex/internal/config"
)

// indexPathForRetrieve resolves the index: the first archive's index when an
// archive is given, otherwise the explicit index path.
func (o *options) indexPathForRetrieve() (string, error) {
	switch {
	case len(o.inputs) > 0:
		return o.inputs[0] + IndexSuffix, nil
	case o.index != "":
		return o.index, nil
	default:
		return "", errNoIndex
	}
}

func (o *options) retrieve(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) error {
	indexPath, err := o.indexPathForRetrieve()
	if err != nil {
		return err
	}
	// Opening a missing index would create an empty one.
	if _, err := os.Stat(indexPath); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", tarindex.ErrStoreOpen, indexPath)
	}

	st, err := tarindex.OpenStore(indexPath, storeOptions(cfg, logger)...)
	if err != nil {
		return err
	}
	defer st.Close()

	r := tarindex.NewRetriever(st,
		tarindex.RetrieveWithLogger(logger),
		tarindex.RetrieveWithMaxMemberSize(cfg.Retrieve.MaxMemberSize),
	)
	for i, name := range o.files {
		j := 0
		for m, err := range r.Retrieve(ctx, name) {
			if err != nil {
				if errors.Is(err, tarindex.ErrInterrupted) || ctx.Err() != nil {
					return err
				}
				fmt.Fprintf(stderr, "%v\n", err)
				continue
			}
			j++
			if o.verbose {
				fmt.Fprintf(stderr, "%d %d %s %s %s\n", i+1, j, m.Name, m.ArchivePath, m.Digest())
			}
			if _, err := stdout.Write(m.Content); err != nil {
				return fmt.Errorf("write %s: %w", m.Name, err)
			}
		}
		if j == 0 {
			logger.Debug("member not found", "name", name)
		}
	}
	return nil
}
