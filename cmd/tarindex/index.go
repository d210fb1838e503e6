package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/meigma/tarindex"
	"github.com/meigma/tarindex/internal/config"
)

func (o *options) indexArchives(ctx context.Context, cfg *config.Config, logger *slog.Logger, stderr io.Writer) error {
	if o.cleanup {
		logger.Warn("--cleanup is not implemented; no archives are removed from the index")
	}

	indexPath := o.index
	if indexPath == "" {
		indexPath = o.inputs[0] + IndexSuffix
	}
	st, err := tarindex.OpenStore(indexPath, storeOptions(cfg, logger)...)
	if err != nil {
		return err
	}
	defer st.Close()

	opts := []tarindex.IndexerOption{
		tarindex.IndexWithLogger(logger),
		tarindex.IndexWithProgressInterval(cfg.Index.ProgressInterval),
	}
	if o.verbose {
		opts = append(opts, tarindex.IndexWithProgress(func(ev tarindex.ProgressEvent) {
			if ev.Stage == tarindex.StageScanning {
				fmt.Fprintf(stderr, " %d [%.2f%% of %s]      \r", ev.Members, ev.Percent(), humanize.IBytes(uint64(ev.BytesTotal)))
			}
		}))
	}
	ix := tarindex.NewIndexer(st, opts...)

	for _, res := range ix.IndexAll(ctx, o.inputs) {
		switch {
		case res.Err != nil:
			fmt.Fprintf(stderr, "%s: %v\n", res.Path, res.Err)
			if ctx.Err() != nil {
				return res.Err
			}
		case o.verbose:
			fmt.Fprintf(stderr, "%s: %s, %d members\n", res.Path, res.Outcome, res.Members)
		}
	}
	return nil
}
