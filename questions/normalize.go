package questions

import (
	"regexp"
	"strings"
)

var superscriptRe = []struct {
	re  *regexp.Regexp
	rep string
}{
	{regexp.MustCompile(`(\w)\^2`), "${1}²"},
	{regexp.MustCompile(`(\w)\^3`), "${1}³"},
	{regexp.MustCompile(`(\w)\^4`), "${1}⁴"},
	{regexp.MustCompile(`(\w)\^5`), "${1}⁵"},
	{regexp.MustCompile(`(\w)\^6`), "${1}⁶"},
	{regexp.MustCompile(`10\^6`), "10⁶"},
	{regexp.MustCompile(`10\^3`), "10³"},
}

// normalizeSuperscripts rewrites caret exponents into unicode superscripts
// so formulas survive storage as plain text.
func normalizeSuperscripts(s string) string {
	for _, r := range superscriptRe {
		s = r.re.ReplaceAllString(s, r.rep)
	}
	return s
}

// mathFixer repairs Greek letters that text extraction renders from math
// fonts as surrogate codepoints, and the common mu-for-u confusion.
var mathFixer = strings.NewReplacer(
	"휀", "ε",
	"훾", "γ",
	"𝜎", "σ",
	"𝜏", "τ",
	"𝜀", "ε",
	"𝛾", "γ",
	"μnder", "under",
	"μ", "u",
)

func normalizeMathSymbols(s string) string {
	if s == "" {
		return s
	}
	return mathFixer.Replace(s)
}

// Answer PDFs sometimes bleed an unused fifth choice into the question PDF
// text layer. The English form is "(E) Answer not known"; the Tamil form is
// "விடை தெரியவில்லை", often garbled by OCR into "விலட". Everything from the
// artifact to the next period is noise.
var (
	reArtifactAnsE  = regexp.MustCompile(`(?i)\s*\(E\)\s*Answer\s+not\s+known[^.]*`)
	reArtifactAns   = regexp.MustCompile(`(?i)\s*Answer\s+not\s+known[^.]*`)
	reArtifactVilat = regexp.MustCompile(`\s*விலட[^.]*`)
	reArtifactVidai = regexp.MustCompile(`\s*விடை\s*தெரியவில்லை[^.]*`)
	reArtifactE     = regexp.MustCompile(`\s*\(E\)[^.]*`)
)

// stripAnswerArtifacts removes the English artifact forms.
func stripAnswerArtifacts(s string) string {
	s = reArtifactAnsE.ReplaceAllString(s, "")
	s = reArtifactAns.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// stripTamilArtifacts removes the Tamil artifact forms plus a trailing "(E)".
func stripTamilArtifacts(s string) string {
	s = reArtifactVilat.ReplaceAllString(s, "")
	s = reArtifactVidai.ReplaceAllString(s, "")
	s = reArtifactE.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// stripAllArtifacts is the aggressive form used on finished option text.
func stripAllArtifacts(s string) string {
	s = stripAnswerArtifacts(s)
	s = stripTamilArtifacts(s)
	return strings.TrimSpace(s)
}

var spaceRunRe = regexp.MustCompile(`\s+`)

func collapseWhitespace(s string) string {
	return strings.TrimSpace(spaceRunRe.ReplaceAllString(s, " "))
}
