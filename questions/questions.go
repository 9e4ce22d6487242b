// Package questions turns the extracted text of a bilingual question PDF
// into structured records. The parser walks the text line by line through an
// explicit state machine, the postprocessor resolves duplicates, renumbers,
// classifies each question and attaches answers from an answerkey.Map.
package questions

import (
	"github.com/raminstitute/examkit/answerkey"
)

// Type classifies a question by its structure.
type Type string

const (
	TypeMCQ        Type = "mcq"
	TypeMatch      Type = "match"
	TypeAssertion  Type = "assertion"
	TypeTrueFalse  Type = "truefalse"
	TypePassage    Type = "passage"
	TypeFormula    Type = "formula"
	TypeImage      Type = "image"
	TypeSubOptions Type = "suboptions"
)

// Question is one parsed exam question. Options holds choices A-D,
// SubOptions the roman statements i-iv, ListI/ListII the two columns of a
// matching question. CorrectOption is "A".."D" or empty when no answer
// could be attached.
type Question struct {
	Number        int
	TextEnglish   string
	TextTamil     string
	Options       [4]string
	SubOptions    [4]string
	ListI         [4]string
	ListII        [4]string
	CorrectOption string
	AnswerSource  answerkey.Source
	Type          Type
	HasImage      bool
}

// optionLetters maps Options indices to their letters.
var optionLetters = [4]string{"A", "B", "C", "D"}

// subOptionKeys maps SubOptions indices to roman numerals.
var subOptionKeys = [4]string{"i", "ii", "iii", "iv"}

// listIKeys and listIIKeys label the matching-question columns.
var (
	listIKeys  = [4]string{"a", "b", "c", "d"}
	listIIKeys = [4]string{"1", "2", "3", "4"}
)

func (q *Question) hasAnyOption() bool {
	for _, o := range q.Options {
		if validOption(o) {
			return true
		}
	}
	return false
}

func (q *Question) hasAnySubOption() bool {
	for _, s := range q.SubOptions {
		if s != "" {
			return true
		}
	}
	return false
}

func (q *Question) hasListI() bool {
	for _, s := range q.ListI {
		if s != "" {
			return true
		}
	}
	return false
}

func (q *Question) hasListII() bool {
	for _, s := range q.ListII {
		if s != "" {
			return true
		}
	}
	return false
}

func validOption(s string) bool {
	return s != "" && s != "N/A" && s != "NA"
}

// NeighborMatch records an answer borrowed from an adjacent question number.
type NeighborMatch struct {
	Question int
	From     int
	Option   string
}

// Report summarizes what the parser had to repair.
type Report struct {
	Dropped            int
	DuplicatesResolved int
	NeighborResolved   []NeighborMatch
}
