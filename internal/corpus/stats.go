// Package corpus holds the corpus-level tooling around spine conversion:
// template statistics, tagging accuracy, treebank section sizes and
// partitioning.
package corpus

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dgallion1/spinebank/internal/spine"
)

// LengthSnapshot aggregates sentence lengths.
type LengthSnapshot struct {
	Count int     `json:"count"`
	Min   int     `json:"min"`
	Max   int     `json:"max"`
	Avg   float64 `json:"avg"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
}

// TemplateStats describes the templates of a training corpus and how many
// development tokens they cover.
type TemplateStats struct {
	Templates       int            `json:"templates"`
	TemplatesPerPOS map[string]int `json:"templates_per_pos"`

	DevTokens     int `json:"dev_tokens"`
	Accessible    int `json:"accessible"`
	AccessiblePOS int `json:"accessible_pos"`

	TrainLengths LengthSnapshot `json:"train_lengths"`
	DevLengths   LengthSnapshot `json:"dev_lengths"`
}

// ComputeStats counts the templates of train and checks every dev token
// against them, once regardless of POS and once restricted to its POS.
func ComputeStats(train, dev []spine.Sentence) TemplateStats {
	templates := make(map[string]bool)
	perPOS := make(map[string]map[string]bool)
	for _, s := range train {
		for _, sp := range s {
			templates[sp.Template] = true
			if perPOS[sp.POS] == nil {
				perPOS[sp.POS] = make(map[string]bool)
			}
			perPOS[sp.POS][sp.Template] = true
		}
	}

	st := TemplateStats{
		Templates:       len(templates),
		TemplatesPerPOS: make(map[string]int, len(perPOS)),
		TrainLengths:    lengths(train),
		DevLengths:      lengths(dev),
	}
	for pos, set := range perPOS {
		st.TemplatesPerPOS[pos] = len(set)
	}
	for _, s := range dev {
		for _, sp := range s {
			st.DevTokens++
			if templates[sp.Template] {
				st.Accessible++
			}
			if perPOS[sp.POS][sp.Template] {
				st.AccessiblePOS++
			}
		}
	}
	return st
}

// AccessibleRatio is the share of dev tokens whose template occurs in train.
func (s TemplateStats) AccessibleRatio() float64 { return ratio(s.Accessible, s.DevTokens) }

// AccessiblePOSRatio is the share of dev tokens whose template occurs in
// train with the same POS.
func (s TemplateStats) AccessiblePOSRatio() float64 { return ratio(s.AccessiblePOS, s.DevTokens) }

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

// Markdown renders the report as a Markdown document.
func (s TemplateStats) Markdown() string {
	var b strings.Builder
	b.WriteString("# Template statistics\n\n")
	fmt.Fprintf(&b, "Distinct templates: **%d**\n\n", s.Templates)

	b.WriteString("## Templates per POS\n\n| POS | templates |\n|---|---:|\n")
	poses := make([]string, 0, len(s.TemplatesPerPOS))
	for pos := range s.TemplatesPerPOS {
		poses = append(poses, pos)
	}
	slices.Sort(poses)
	for _, pos := range poses {
		fmt.Fprintf(&b, "| %s | %d |\n", escapeCell(pos), s.TemplatesPerPOS[pos])
	}

	b.WriteString("\n## Accessibility\n\n| filter | accessible | tokens | % |\n|---|---:|---:|---:|\n")
	fmt.Fprintf(&b, "| none | %d | %d | %.2f |\n", s.Accessible, s.DevTokens, 100*s.AccessibleRatio())
	fmt.Fprintf(&b, "| POS | %d | %d | %.2f |\n", s.AccessiblePOS, s.DevTokens, 100*s.AccessiblePOSRatio())

	b.WriteString("\n## Sentence length\n\n| corpus | sentences | min | max | avg | p50 | p95 | p99 |\n|---|---:|---:|---:|---:|---:|---:|---:|\n")
	for _, row := range []struct {
		name string
		l    LengthSnapshot
	}{{"train", s.TrainLengths}, {"dev", s.DevLengths}} {
		fmt.Fprintf(&b, "| %s | %d | %d | %d | %.1f | %.1f | %.1f | %.1f |\n",
			row.name, row.l.Count, row.l.Min, row.l.Max, row.l.Avg, row.l.P50, row.l.P95, row.l.P99)
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func lengths(sentences []spine.Sentence) LengthSnapshot {
	if len(sentences) == 0 {
		return LengthSnapshot{}
	}
	values := make([]int, len(sentences))
	sum := 0
	for i, s := range sentences {
		values[i] = len(s)
		sum += len(s)
	}
	slices.Sort(values)
	return LengthSnapshot{
		Count: len(values),
		Min:   values[0],
		Max:   values[len(values)-1],
		Avg:   float64(sum) / float64(len(values)),
		P50:   percentile(values, 50),
		P95:   percentile(values, 95),
		P99:   percentile(values, 99),
	}
}

// percentile interpolates linearly between the closest ranks.
func percentile(sortedValues []int, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}
