package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/spinebank/internal/spine"
	"github.com/dgallion1/spinebank/internal/treebank"
)

const (
	testTreebank = "(S (NP (DT The) (NN cat)) (VP (VBD sat)))\n(S (NP (PRP It)) (VP (VBD ran)))\n"
	testRules    = "S right-to-left VP S\nVP left-to-right VBD VP\nNP right NN NNS PRP NP\n"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestExtractReconstruct_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	tb := writeFile(t, dir, "wsj.mrg", testTreebank)
	rules := writeFile(t, dir, "rules.txt", testRules)
	spines := filepath.Join(dir, "wsj.spines")

	_, err := run(t, "extract", tb, rules, "-o", spines, "-j", "2")
	require.NoError(t, err)

	sentences, err := readSpines(spines)
	require.NoError(t, err)
	require.Len(t, sentences, 2)
	want := spine.Sentence{
		{ID: 1, Word: "The", POS: "DT", Template: "DT", Head: 2, AttPosition: 0, AttType: spine.Sister},
		{ID: 2, Word: "cat", POS: "NN", Template: "NN+NP", Head: 3, AttPosition: 1, AttType: spine.Sister},
		{ID: 3, Word: "sat", POS: "VBD", Template: "VBD+VP+S", Head: 0, AttPosition: 0, AttType: spine.Sister},
	}
	if diff := cmp.Diff(want, sentences[0]); diff != "" {
		t.Fatalf("spines mismatch (-want +got):\n%s", diff)
	}

	out, err := run(t, "reconstruct", spines, "--format", "bracket")
	require.NoError(t, err)

	originals, err := treebank.BracketFormat{}.Read(strings.NewReader(testTreebank))
	require.NoError(t, err)
	var wantOut strings.Builder
	for _, tree := range originals {
		wantOut.WriteString(treebank.Bracket(tree) + "\n")
	}
	require.Equal(t, wantOut.String(), out)
}

func TestExtract_RequiresRules(t *testing.T) {
	dir := t.TempDir()
	tb := writeFile(t, dir, "wsj.mrg", testTreebank)
	_, err := run(t, "extract", tb)
	require.Error(t, err)
}

func TestExtract_FailedSentencesExitNonZero(t *testing.T) {
	dir := t.TempDir()
	tb := writeFile(t, dir, "wsj.mrg", testTreebank)

	// Bracket input carries no head marks.
	_, err := run(t, "extract", tb, "--marked-heads")
	require.Error(t, err)
	require.True(t, errors.Is(err, errSentencesFailed), "got %v", err)
}

func TestRender_FromBracket(t *testing.T) {
	dir := t.TempDir()
	tb := writeFile(t, dir, "wsj.mrg", testTreebank)

	out, err := run(t, "render", tb, "--from", "bracket")
	require.NoError(t, err)
	require.Contains(t, out, "<!DOCTYPE html>")
	require.Contains(t, out, "cat")
}

func TestRender_MarksHeadsWithRules(t *testing.T) {
	dir := t.TempDir()
	tb := writeFile(t, dir, "wsj.mrg", testTreebank)
	rules := writeFile(t, dir, "rules.txt", testRules)

	out, err := run(t, "render", tb, "--from", "bracket")
	require.NoError(t, err)
	require.NotContains(t, out, `class="head`)

	out, err = run(t, "render", tb, "--from", "bracket", "--rules", rules)
	require.NoError(t, err)
	require.Contains(t, out, `class="head`)
}

func TestPTBSize(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "02/wsj_0201.mrg", "( (S (NN a)))\n( (S (NN b)))\n")
	writeFile(t, dir, "02/wsj_0202.mrg", "( (S (NN c)))\n")
	writeFile(t, dir, "03/wsj_0301.mrg", "( (S (NN d)))\n")

	out, err := run(t, "ptb-size", dir)
	require.NoError(t, err)
	require.Equal(t, "02\t3\n03\t1\n", out)
}

func TestSplit_WritesParts(t *testing.T) {
	dir := t.TempDir()
	tb := writeFile(t, dir, "corpus.mrg", "(S (NN a))\n(S (NN b))\n(S (NN c))\n")
	sizes := writeFile(t, dir, "sizes.txt", "01\t1\n02\t2\n")
	partition := writeFile(t, dir, "partition.yaml", `prefix: toy
parts:
  - name: train
    first: 1
    last: 1
  - name: dev
    first: 2
    last: 2
`)
	outDir := filepath.Join(dir, "out")

	_, err := run(t, "split", tb, sizes, outDir, "--config", partition)
	require.NoError(t, err)

	train, err := os.ReadFile(filepath.Join(outDir, "toy.train"))
	require.NoError(t, err)
	dev, err := os.ReadFile(filepath.Join(outDir, "toy.dev"))
	require.NoError(t, err)
	require.Equal(t, 1, strings.Count(string(train), "\n"))
	require.Equal(t, 2, strings.Count(string(dev), "\n"))
	require.Contains(t, string(dev), "b")
}

func TestSplit_MisalignedSizes(t *testing.T) {
	dir := t.TempDir()
	tb := writeFile(t, dir, "corpus.mrg", "(S (NN a))\n")
	sizes := writeFile(t, dir, "sizes.txt", "01\t5\n")

	_, err := run(t, "split", tb, sizes, filepath.Join(dir, "out"))
	require.Error(t, err)
}

func TestDict_BuildAndShow(t *testing.T) {
	dir := t.TempDir()
	spines := writeFile(t, dir, "train.spines",
		"1\tThe\tDT\tDT\t2\t0\ts\n2\tcat\tNN\tNN+NP\t3\t1\ts\n3\tsat\tVBD\tVBD+VP+S\t0\t0\ts\n\n")
	db := filepath.Join(dir, "dict.db")

	_, err := run(t, "dict", "build", spines, db)
	require.NoError(t, err)

	out, err := run(t, "dict", "show", db)
	require.NoError(t, err)
	require.Contains(t, out, "words\t4\n")
	require.Contains(t, out, "pos\t3\n")
	require.Contains(t, out, "NN\tNN+NP\n")
}

func TestPOSAccuracy(t *testing.T) {
	dir := t.TempDir()
	gold := writeFile(t, dir, "gold.conll", "1\tThe\t_\tDT\tDT\n2\tcat\t_\tNN\tNN\n\n")
	pred := writeFile(t, dir, "pred.conll", "1\tThe\t_\tDT\tDT\n2\tcat\t_\tNN\tVB\n\n")

	out, err := run(t, "pos-accuracy", gold, pred)
	require.NoError(t, err)
	require.Equal(t, "Correct pos: 50.00 (1 / 2)\n", out)

	out, err = run(t, "pos-accuracy", gold, pred, "--cpos")
	require.NoError(t, err)
	require.Equal(t, "Correct pos: 100.00 (2 / 2)\n", out)
}

func TestLogFormat_Unknown(t *testing.T) {
	_, err := run(t, "--log-format", "xml", "ptb-size", t.TempDir())
	require.Error(t, err)
}

type failingCloser struct {
	bytes.Buffer
}

func (failingCloser) Close() error { return errors.New("disk full") }

func TestOutput_CloseErrorFailsCommand(t *testing.T) {
	dir := t.TempDir()
	tb := writeFile(t, dir, "wsj.mrg", testTreebank)
	rules := writeFile(t, dir, "rules.txt", testRules)

	orig := createFile
	t.Cleanup(func() { createFile = orig })
	var written *failingCloser
	createFile = func(string) (io.WriteCloser, error) {
		written = &failingCloser{}
		return written, nil
	}

	_, err := run(t, "extract", tb, rules, "-o", filepath.Join(dir, "out.spines"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "disk full")
	require.Contains(t, written.String(), "cat")
}
