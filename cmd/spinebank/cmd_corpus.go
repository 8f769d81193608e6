package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/spinebank/internal/config"
	"github.com/dgallion1/spinebank/internal/corpus"
	"github.com/dgallion1/spinebank/internal/lexicon"
	"github.com/dgallion1/spinebank/internal/treebank"
)

func (a *app) statsCmd() *cobra.Command {
	var markdown bool
	cmd := &cobra.Command{
		Use:   "stats <train.spines> <dev.spines>",
		Short: "Report template statistics of a training corpus against a dev corpus",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			train, err := readSpines(args[0])
			if err != nil {
				return err
			}
			dev, err := readSpines(args[1])
			if err != nil {
				return err
			}
			st := corpus.ComputeStats(train, dev)
			a.log.Debug("stats computed", "train", len(train), "dev", len(dev))

			if markdown {
				_, err := fmt.Fprint(cmd.OutOrStdout(), st.Markdown())
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(st)
		},
	}
	cmd.Flags().BoolVar(&markdown, "markdown", false, "print a Markdown report instead of JSON")
	return cmd
}

func (a *app) dictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dict",
		Short: "Build or inspect a lexicon database",
	}

	var threshold int
	var keepCase, keepNumbers bool
	build := &cobra.Command{
		Use:   "build <train.spines> <out.db>",
		Short: "Collect word, POS and template dictionaries of a spine file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sentences, err := readSpines(args[0])
			if err != nil {
				return err
			}
			opts := lexicon.Options{ToNum: !keepNumbers, ToLower: !keepCase}
			lex := lexicon.Build(sentences, threshold, opts)
			if err := lex.Save(cmd.Context(), args[1]); err != nil {
				return err
			}
			a.log.Info("lexicon saved", "path", args[1],
				"words", lex.Words.Len(), "pos", lex.POS.Len(), "templates", lex.Templates.Len())
			return nil
		},
	}
	build.Flags().IntVar(&threshold, "word-threshold", 1, "minimum count for a word to get its own entry")
	build.Flags().BoolVar(&keepCase, "keep-case", false, "do not lowercase words")
	build.Flags().BoolVar(&keepNumbers, "keep-numbers", false, "do not map numbers to "+lexicon.Num)

	show := &cobra.Command{
		Use:   "show <dict.db>",
		Short: "Print dictionary sizes and the allowed templates of every POS",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lex, err := lexicon.Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "words\t%d\n", lex.Words.Len())
			fmt.Fprintf(w, "pos\t%d\n", lex.POS.Len())
			fmt.Fprintf(w, "templates\t%d\n", lex.Templates.Len())
			for _, pos := range lex.POS.Values() {
				fmt.Fprintf(w, "%s\t%s\n", pos, strings.Join(lex.AllowedTemplates(pos), " "))
			}
			return nil
		},
	}

	cmd.AddCommand(build, show)
	return cmd
}

func (a *app) posAccuracyCmd() *cobra.Command {
	var cpos bool
	cmd := &cobra.Command{
		Use:   "pos-accuracy <gold> <pred>",
		Short: "Compare the POS column of two CoNLL files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			gold, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer gold.Close()
			pred, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer pred.Close()

			column := corpus.ColumnPOS
			if cpos {
				column = corpus.ColumnCPOS
			}
			acc, err := corpus.POSAccuracy(gold, pred, column)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), acc)
			return err
		},
	}
	cmd.Flags().BoolVar(&cpos, "cpos", false, "compare the coarse POS column")
	return cmd
}

func (a *app) ptbSizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ptb-size <ptb-dir>",
		Short: "Count the trees of every section of a Penn treebank directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sizes, err := corpus.SectionSizes(os.DirFS(args[0]))
			if err != nil {
				return err
			}
			a.log.Debug("sections counted", "sections", len(sizes))
			return corpus.WriteSizes(cmd.OutOrStdout(), sizes)
		},
	}
}

func (a *app) splitCmd() *cobra.Command {
	var format, partitionPath string
	cmd := &cobra.Command{
		Use:   "split <treebank> <sizes> <out-dir>",
		Short: "Cut a sectioned treebank into train, dev and test files",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := config.DefaultPartition()
			if partitionPath != "" {
				var err error
				if p, err = config.LoadPartition(partitionPath); err != nil {
					return err
				}
			}

			f, err := treebank.Resolve(format, args[0])
			if err != nil {
				return err
			}
			trees, err := treebank.Load(args[0], f)
			if err != nil {
				return err
			}
			sizesFile, err := os.Open(args[1])
			if err != nil {
				return err
			}
			sizes, err := corpus.ReadSizes(sizesFile)
			sizesFile.Close()
			if err != nil {
				return fmt.Errorf("%s: %w", args[1], err)
			}

			parts, err := corpus.Split(trees, sizes, p)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(args[2], 0o755); err != nil {
				return err
			}
			for _, part := range parts {
				path := filepath.Join(args[2], p.Prefix+"."+part.Name)
				if err := writeTrees(path, f, part.Trees); err != nil {
					return err
				}
				a.log.Info("part written", "part", part.Name, "path", path,
					"begin", part.Begin, "end", part.End)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "treebank format; inferred from the extension when empty")
	cmd.Flags().StringVar(&partitionPath, "config", "", "YAML partition file (default WSJ train 2-21, dev 22, test 23)")
	return cmd
}

func writeTrees(path string, f treebank.Format, trees []*treebank.Tree) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := treebank.WriteAll(out, f, trees); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
