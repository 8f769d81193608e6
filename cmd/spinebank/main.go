package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
)

// errSentencesFailed marks a run that wrote partial output.
var errSentencesFailed = errors.New("some sentences failed")

// app carries the state shared by all subcommands.
type app struct {
	log       *slog.Logger
	logFormat string
	verbose   bool
	workers   int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "spinebank:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "spinebank",
		Short:         "Convert constituency treebanks to and from spinal dependencies",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setupLogging(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "text", "log output format (text or json)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().IntVarP(&a.workers, "jobs", "j", runtime.NumCPU(), "sentences converted in parallel")

	root.AddCommand(
		a.extractCmd(),
		a.reconstructCmd(),
		a.renderCmd(),
		a.statsCmd(),
		a.dictCmd(),
		a.posAccuracyCmd(),
		a.ptbSizeCmd(),
		a.splitCmd(),
	)
	return root
}

func (a *app) setupLogging(w io.Writer) error {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if a.verbose {
		opts.Level = slog.LevelDebug
	}
	switch a.logFormat {
	case "text":
		a.log = slog.New(slog.NewTextHandler(w, opts))
	case "json":
		a.log = slog.New(slog.NewJSONHandler(w, opts))
	default:
		return fmt.Errorf("unknown log format %q", a.logFormat)
	}
	return nil
}

// createFile opens an output file; swapped in tests.
var createFile = func(path string) (io.WriteCloser, error) { return os.Create(path) }

// withOutput runs write against path, or against the command's stdout when
// path is empty. A failed close is reported when write succeeded.
func withOutput(cmd *cobra.Command, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(cmd.OutOrStdout())
	}
	f, err := createFile(path)
	if err != nil {
		return err
	}
	err = write(f)
	if cerr := f.Close(); err == nil && cerr != nil {
		return fmt.Errorf("close %s: %w", path, cerr)
	}
	return err
}
