// Package lexicon builds the word, POS and template dictionaries of a spine
// corpus together with the templates each POS tag was seen with.
package lexicon

import (
	"regexp"
	"slices"
	"strings"

	"github.com/dgallion1/spinebank/internal/spine"
)

// Unknown is the entry unseen and rare words map to.
const Unknown = "*UNKNOWN*"

// Num replaces tokens that look like numbers.
const Num = "NUM"

var numRe = regexp.MustCompile(`^(?:[0-9]+|[0-9]+\.[0-9]+|[0-9]+[0-9,]+)$`)

// Dict assigns consecutive ids to strings in insertion order.
type Dict struct {
	ids    map[string]int
	values []string
}

func NewDict() *Dict {
	return &Dict{ids: make(map[string]int)}
}

// Convert returns the id of s, adding it if needed.
func (d *Dict) Convert(s string) int {
	if id, ok := d.ids[s]; ok {
		return id
	}
	d.ids[s] = len(d.values)
	d.values = append(d.values, s)
	return len(d.values) - 1
}

// ID returns the id of s.
func (d *Dict) ID(s string) (int, bool) {
	id, ok := d.ids[s]
	return id, ok
}

// Value returns the string with the given id.
func (d *Dict) Value(id int) string {
	if id < 0 || id >= len(d.values) {
		return ""
	}
	return d.values[id]
}

func (d *Dict) Len() int { return len(d.values) }

// Values returns the entries in id order.
func (d *Dict) Values() []string { return slices.Clone(d.values) }

// Options controls word normalisation.
type Options struct {
	ToNum   bool
	ToLower bool
}

// DefaultOptions maps numbers to NUM and lowercases everything else.
var DefaultOptions = Options{ToNum: true, ToLower: true}

// Normalize applies o to word.
func (o Options) Normalize(word string) string {
	if o.ToNum && numRe.MatchString(word) {
		return Num
	}
	if o.ToLower {
		return strings.ToLower(word)
	}
	return word
}

// Lexicon is the frozen set of dictionaries of a training corpus.
type Lexicon struct {
	Options   Options
	Words     *Dict
	POS       *Dict
	Templates *Dict

	counts  map[string]int
	allowed map[int]map[int]bool
}

func newLexicon(o Options) *Lexicon {
	return &Lexicon{
		Options:   o,
		Words:     NewDict(),
		POS:       NewDict(),
		Templates: NewDict(),
		counts:    make(map[string]int),
		allowed:   make(map[int]map[int]bool),
	}
}

// Build collects the dictionaries of sentences. Normalised words seen fewer
// than threshold times are left out and resolve to Unknown.
func Build(sentences []spine.Sentence, threshold int, o Options) *Lexicon {
	lex := newLexicon(o)
	var order []string
	for _, s := range sentences {
		for _, sp := range s {
			w := o.Normalize(sp.Word)
			if lex.counts[w] == 0 {
				order = append(order, w)
			}
			lex.counts[w]++
		}
	}
	for _, w := range order {
		if lex.counts[w] >= threshold {
			lex.Words.Convert(w)
		}
	}
	for _, s := range sentences {
		for _, sp := range s {
			lex.allow(lex.POS.Convert(sp.POS), lex.Templates.Convert(sp.Template))
		}
	}
	lex.Words.Convert(Unknown)
	return lex
}

func (l *Lexicon) allow(pos, tpl int) {
	set, ok := l.allowed[pos]
	if !ok {
		set = make(map[int]bool)
		l.allowed[pos] = set
	}
	set[tpl] = true
}

// WordID returns the id of the normalised word, or the id of Unknown.
func (l *Lexicon) WordID(word string) int {
	if id, ok := l.Words.ID(l.Options.Normalize(word)); ok {
		return id
	}
	id, _ := l.Words.ID(Unknown)
	return id
}

// Count returns how often the normalised word occurred during Build.
func (l *Lexicon) Count(word string) int {
	return l.counts[l.Options.Normalize(word)]
}

// Allowed reports whether template was seen with pos.
func (l *Lexicon) Allowed(pos, template string) bool {
	p, ok := l.POS.ID(pos)
	if !ok {
		return false
	}
	t, ok := l.Templates.ID(template)
	if !ok {
		return false
	}
	return l.allowed[p][t]
}

// AllowedTemplates returns the templates seen with pos, in id order.
func (l *Lexicon) AllowedTemplates(pos string) []string {
	p, ok := l.POS.ID(pos)
	if !ok {
		return nil
	}
	ids := make([]int, 0, len(l.allowed[p]))
	for id := range l.allowed[p] {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = l.Templates.Value(id)
	}
	return out
}
