package tamil

import (
	"bufio"
	"io"
	"strings"
	"sync"

	_ "embed"
)

//go:embed words.txt
var embeddedWords string

// Dictionary is a set of known Tamil words used by the segmenter to find
// word boundaries in despaced OCR output. Lookups are safe for concurrent
// use after construction.
type Dictionary struct {
	words  map[string]struct{}
	maxLen int
}

// NewDictionary builds a Dictionary from the given words. Empty entries and
// single runes are dropped.
func NewDictionary(words []string) *Dictionary {
	d := &Dictionary{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		w = strings.TrimSpace(w)
		n := len([]rune(w))
		if n < 2 {
			continue
		}
		d.words[w] = struct{}{}
		if n > d.maxLen {
			d.maxLen = n
		}
	}
	return d
}

// LoadDictionary reads one word per line. Blank lines and lines starting
// with # are skipped.
func LoadDictionary(r io.Reader) (*Dictionary, error) {
	var words []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return NewDictionary(words), nil
}

var (
	defaultDict     *Dictionary
	defaultDictOnce sync.Once
)

// DefaultDictionary returns the embedded exam-vocabulary dictionary.
func DefaultDictionary() *Dictionary {
	defaultDictOnce.Do(func() {
		defaultDict = NewDictionary(strings.Split(embeddedWords, "\n"))
	})
	return defaultDict
}

// Has reports whether w is a known word.
func (d *Dictionary) Has(w string) bool {
	_, ok := d.words[w]
	return ok
}

// Len returns the number of words in the dictionary.
func (d *Dictionary) Len() int { return len(d.words) }

// Words returns a snapshot of the dictionary contents.
func (d *Dictionary) Words() []string {
	out := make([]string, 0, len(d.words))
	for w := range d.words {
		out = append(out, w)
	}
	return out
}

// longestPrefix returns the longest dictionary word that is a prefix of
// text starting at runes[i], capped at maxCandidate runes. It returns the
// rune length of the match, or 0.
func (d *Dictionary) longestPrefix(runes []rune, i, maxCandidate int) int {
	limit := maxCandidate
	if d.maxLen < limit {
		limit = d.maxLen
	}
	if rest := len(runes) - i; rest < limit {
		limit = rest
	}
	for n := limit; n >= 2; n-- {
		if d.Has(string(runes[i : i+n])) {
			return n
		}
	}
	return 0
}
