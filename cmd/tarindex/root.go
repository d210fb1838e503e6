package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/meigma/tarindex"
	"github.com/meigma/tarindex/internal/config"
)

// IndexSuffix is appended to an archive path to derive its default index path.
const IndexSuffix = ".idx"

var errNoIndex = errors.New("provide an index path (-d) or an archive path (-i) first")

type options struct {
	inputs     []string
	index      string
	files      []string
	cleanup    bool
	verbose    bool
	configPath string
}

// run executes the command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "tarindex: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:   "tarindex [-i archive.tar ...] [-d index] [-f member ...]",
		Short: "Index and access files in tar archives",
		Long: `Index and access files in uncompressed tar archives.

Index mode records the offset and size of every member of the given archives
in an index file. Archives already indexed and unmodified since are skipped.

Retrieve mode reads the named members straight from their archives using the
index and writes their content to standard output.

Only raw (uncompressed) tar archives are supported.

Examples:
  tarindex -i a.tar -i b.tar -d backups.idx    # index two archives
  tarindex -i a.tar b.tar                      # index into a.tar.idx
  tarindex -i a.tar -f etc/hosts               # retrieve using a.tar.idx
  tarindex -d backups.idx -f etc/hosts -v      # retrieve from every indexed archive

Positional arguments are added to the member names when -f is given and to
the archives otherwise.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       "1.0",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(o.files) > 0 {
				o.files = append(o.files, args...)
			} else {
				o.inputs = append(o.inputs, args...)
			}
			return o.run(cmd.Context(), cmd, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.Flags()
	flags.StringArrayVarP(&o.inputs, "input", "i", nil, "tar file(s)")
	flags.StringVarP(&o.index, "index", "d", "", "index file [first input + .idx]")
	flags.StringArrayVarP(&o.files, "file", "f", nil, "retrieve member(s) from the indexed archives")
	flags.BoolVar(&o.cleanup, "cleanup", false, "remove archives not in the input set from the index (not implemented)")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "verbose")
	flags.StringVar(&o.configPath, "config", "", "YAML config file [$"+config.EnvConfigPath+"]")
	return cmd
}

func (o *options) run(ctx context.Context, cmd *cobra.Command, stdout, stderr io.Writer) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	logger := cfg.Log.NewLogger(stderr, o.verbose)
	logger.Debug("options",
		"input", o.inputs,
		"index", o.index,
		"file", o.files,
		"cleanup", o.cleanup,
	)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	switch {
	case len(o.files) > 0:
		err = o.retrieve(ctx, cfg, logger, stdout, stderr)
		fmt.Fprintf(stderr, "#Time elapsed: %s\n", time.Since(start))
	case len(o.inputs) > 0:
		err = o.indexArchives(ctx, cfg, logger, stderr)
		fmt.Fprintf(stdout, "#Time elapsed: %s\n", time.Since(start))
	default:
		return cmd.Help()
	}

	if errors.Is(err, tarindex.ErrInterrupted) || (err != nil && ctx.Err() != nil) {
		fmt.Fprintln(stderr, "\nInterrupted!")
		return nil
	}
	return err
}

func storeOptions(cfg *config.Config, logger *slog.Logger) []tarindex.StoreOption {
	return []tarindex.StoreOption{
		tarindex.StoreWithBusyTimeout(cfg.Store.BusyTimeout),
		tarindex.StoreWithSynchronous(cfg.Store.Synchronous),
		tarindex.StoreWithLogger(logger),
	}
}
