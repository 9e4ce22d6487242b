// Package answerkey recovers question-number-to-option mappings from answer
// PDFs. Two independent extractors feed it: a text-pattern ladder for typed
// answer keys and a raster highlight detector for keys marked with a
// highlighter pen. When both produce a value for the same question the
// highlight wins, since highlights are placed by hand on the specific
// option while text extraction can misread numbers.
package answerkey

// MaxQuestionNumber bounds plausible question numbers; anything outside
// 1..MaxQuestionNumber is noise from page headers or years in text.
const MaxQuestionNumber = 200

// Source records which extractor produced an entry.
type Source string

const (
	SourceText      Source = "text"
	SourceHighlight Source = "highlight"
	// SourceNeighbor marks answers attached to a question via an adjacent
	// number during parsing; they are surfaced so reviewers can verify them.
	SourceNeighbor Source = "neighbor"
)

// Entry is one resolved answer.
type Entry struct {
	Option string
	Source Source
}

// Map holds answers keyed by question number.
type Map map[int]Entry

// Options returns the bare question-to-option view.
func (m Map) Options() map[int]string {
	out := make(map[int]string, len(m))
	for q, e := range m {
		out[q] = e.Option
	}
	return out
}

// Conflict records a question where the two extractors disagreed.
type Conflict struct {
	Question  int
	Text      string
	Highlight string
}

// Merge combines the two extractions, preferring highlights. Disagreements
// are reported so the batch diagnostics can surface them.
func Merge(text, highlight Map) (Map, []Conflict) {
	merged := make(Map, len(text)+len(highlight))
	for q, e := range text {
		merged[q] = e
	}
	var conflicts []Conflict
	for q, h := range highlight {
		if t, ok := merged[q]; ok && t.Option != h.Option {
			conflicts = append(conflicts, Conflict{Question: q, Text: t.Option, Highlight: h.Option})
		}
		merged[q] = h
	}
	return merged, conflicts
}
