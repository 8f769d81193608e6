package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgallion1/spinebank/internal/headrules"
	"github.com/dgallion1/spinebank/internal/pipeline"
	"github.com/dgallion1/spinebank/internal/render"
	"github.com/dgallion1/spinebank/internal/spine"
	"github.com/dgallion1/spinebank/internal/treebank"
)

func (a *app) extractCmd() *cobra.Command {
	var (
		format      string
		keepRepeats bool
		markedHeads bool
		out         string
	)
	cmd := &cobra.Command{
		Use:   "extract <treebank> [headrules]",
		Short: "Decompose every tree of a treebank into spines",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var oracle spine.HeadOracle = spine.MarkedHeads{}
			switch {
			case len(args) == 2 && !markedHeads:
				rules, err := headrules.Load(args[1])
				if err != nil {
					return err
				}
				oracle = rules
			case len(args) == 1 && !markedHeads:
				return fmt.Errorf("a head rule file is required unless --marked-heads is set")
			}

			f, err := treebank.Resolve(format, args[0])
			if err != nil {
				return err
			}
			trees, err := treebank.Load(args[0], f)
			if err != nil {
				return err
			}

			var opts []spine.Option
			if keepRepeats {
				opts = append(opts, spine.KeepRepeats())
			}
			log := a.log.With("command", "extract", "file", args[0])
			results, err := pipeline.ExtractAll(cmd.Context(), trees, oracle, a.workers, opts...)
			if err != nil {
				return err
			}

			failed := 0
			err = withOutput(cmd, out, func(w io.Writer) error {
				sw := spine.NewWriter(w)
				for _, r := range results {
					if r.Err != nil {
						failed++
						log.Warn("sentence skipped", "sentence", r.Key, "error", r.Err)
						continue
					}
					if err := sw.Write(r.Sentence); err != nil {
						return err
					}
				}
				return sw.Flush()
			})
			if err != nil {
				return err
			}
			log.Info("extraction complete", "sentences", len(results), "failed", failed)
			return failures(failed, len(results))
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "treebank format (bracket or export); inferred from the extension when empty")
	cmd.Flags().BoolVar(&keepRepeats, "keep-repeats", false, "keep repeated labels as separate template levels")
	cmd.Flags().BoolVar(&markedHeads, "marked-heads", false, "use the head edges stored in the treebank instead of head rules")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default stdout)")
	return cmd
}

func (a *app) reconstructCmd() *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "reconstruct <spines>",
		Short: "Rebuild constituency trees from a spine file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := treebank.ForName(format)
			if err != nil {
				return err
			}
			sentences, err := readSpines(args[0])
			if err != nil {
				return err
			}

			log := a.log.With("command", "reconstruct", "file", args[0])
			results, err := pipeline.ReconstructAll(cmd.Context(), sentences, a.workers)
			if err != nil {
				return err
			}

			failed := 0
			err = withOutput(cmd, out, func(w io.Writer) error {
				bw := bufio.NewWriter(w)
				for _, r := range results {
					if r.Err != nil {
						failed++
						log.Warn("sentence skipped", "sentence", r.Index+1, "error", r.Err)
						continue
					}
					if err := f.Write(bw, r.Tree); err != nil {
						return err
					}
				}
				return bw.Flush()
			})
			if err != nil {
				return err
			}
			log.Info("reconstruction complete", "sentences", len(results), "failed", failed)
			return failures(failed, len(results))
		},
	}
	cmd.Flags().StringVar(&format, "format", "export", "output treebank format (export or bracket)")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default stdout)")
	return cmd
}

func (a *app) renderCmd() *cobra.Command {
	var from, out, rulesPath string
	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render trees as an HTML page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var trees []*treebank.Tree
			if from == "spines" {
				sentences, err := readSpines(args[0])
				if err != nil {
					return err
				}
				results, err := pipeline.ReconstructAll(cmd.Context(), sentences, a.workers)
				if err != nil {
					return err
				}
				for _, r := range results {
					if r.Err != nil {
						return fmt.Errorf("sentence %d: %w", r.Index+1, r.Err)
					}
					trees = append(trees, r.Tree)
				}
			} else {
				f, err := treebank.ForName(from)
				if err != nil {
					return err
				}
				if trees, err = treebank.Load(args[0], f); err != nil {
					return err
				}
				if rulesPath != "" {
					rules, err := headrules.Load(rulesPath)
					if err != nil {
						return err
					}
					for _, t := range trees {
						headrules.Apply(t, rules)
					}
				}
			}

			page, err := render.Page(filepath.Base(args[0]), trees)
			if err != nil {
				return err
			}
			a.log.Debug("rendered", "trees", len(trees), "bytes", len(page))
			return withOutput(cmd, out, func(w io.Writer) error {
				_, err := w.Write(page)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "spines", "input kind (spines, bracket or export)")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "head rule file used to highlight heads of treebank input")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default stdout)")
	return cmd
}

func readSpines(path string) ([]spine.Sentence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sentences, err := spine.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sentences, nil
}

func failures(failed, total int) error {
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d", errSentencesFailed, failed, total)
}
