package corpus

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"path"
	"slices"
	"strconv"
	"strings"
)

// SectionSize is the number of trees in one numbered treebank section.
type SectionSize struct {
	Section int
	Trees   int
}

// CountSentences counts top-level bracketed trees in r.
func CountSentences(r io.Reader) (int, error) {
	br := bufio.NewReader(r)
	n, depth := 0, 0
	for {
		c, err := br.ReadByte()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return 0, err
		}
		switch c {
		case '(':
			if depth == 0 {
				n++
			}
			depth++
		case ')':
			depth--
		}
	}
}

// SectionSizes counts the trees of every two-digit section directory of
// a Penn treebank layout (NN/wsj_NNNN.mrg), in section order.
func SectionSizes(fsys fs.FS) ([]SectionSize, error) {
	dirs, err := fs.Glob(fsys, "[0-9][0-9]")
	if err != nil {
		return nil, err
	}
	var out []SectionSize
	for _, dir := range dirs {
		if info, err := fs.Stat(fsys, dir); err != nil || !info.IsDir() {
			continue
		}
		section, _ := strconv.Atoi(dir)
		files, err := fs.Glob(fsys, path.Join(dir, "wsj_[0-9][0-9][0-9][0-9].mrg"))
		if err != nil {
			return nil, err
		}
		size := SectionSize{Section: section}
		for _, name := range files {
			n, err := countFile(fsys, name)
			if err != nil {
				return nil, fmt.Errorf("corpus: %s: %w", name, err)
			}
			size.Trees += n
		}
		out = append(out, size)
	}
	slices.SortFunc(out, func(a, b SectionSize) int { return a.Section - b.Section })
	return out, nil
}

func countFile(fsys fs.FS, name string) (int, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return CountSentences(f)
}

// WriteSizes writes one "section<TAB>count" line per section.
func WriteSizes(w io.Writer, sizes []SectionSize) error {
	for _, s := range sizes {
		if _, err := fmt.Fprintf(w, "%02d\t%d\n", s.Section, s.Trees); err != nil {
			return err
		}
	}
	return nil
}

// ReadSizes parses the output of WriteSizes. Blank lines are ignored.
func ReadSizes(r io.Reader) ([]SectionSize, error) {
	scanner := bufio.NewScanner(r)
	var out []SectionSize
	line := 0
	for scanner.Scan() {
		line++
		f := strings.Fields(scanner.Text())
		if len(f) == 0 {
			continue
		}
		if len(f) != 2 {
			return nil, fmt.Errorf("corpus: sizes line %d: expected 2 fields, got %d", line, len(f))
		}
		section, err := strconv.Atoi(f[0])
		if err != nil {
			return nil, fmt.Errorf("corpus: sizes line %d: bad section %q", line, f[0])
		}
		trees, err := strconv.Atoi(f[1])
		if err != nil || trees < 0 {
			return nil, fmt.Errorf("corpus: sizes line %d: bad count %q", line, f[1])
		}
		out = append(out, SectionSize{Section: section, Trees: trees})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
