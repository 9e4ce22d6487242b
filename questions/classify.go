package questions

import (
	"regexp"
	"strings"
)

var (
	reTrueFalse   = regexp.MustCompile(`true\s*or\s*false|false\s*or\s*true`)
	reMathSymbol  = regexp.MustCompile(`[μ√±=≠≤≥∞∑πθ²³⁴⁵⁶]`)
	reLatexInline = regexp.MustCompile(`\$\$?[^$]+\$\$?`)
	reLatexMathrm = regexp.MustCompile(`\\mathrm\{[^}]+\}`)
	reFormulaLHS  = regexp.MustCompile(`[fσγτεμ]=\s*[^A-Za-z]`)
)

// Classify infers the question type from its structure and wording. The
// ladder runs most-specific first; mcq is the default.
func Classify(q *Question) Type {
	lower := strings.ToLower(q.TextEnglish)

	if (strings.Contains(lower, "match") && (strings.Contains(lower, "list") || strings.Contains(lower, "column"))) ||
		(q.hasListI() && q.hasListII()) {
		return TypeMatch
	}
	if strings.Contains(lower, "assertion") && strings.Contains(lower, "reason") {
		return TypeAssertion
	}
	if reTrueFalse.MatchString(lower) {
		return TypeTrueFalse
	}
	if strings.Contains(lower, "passage") || strings.Contains(lower, "paragraph") {
		return TypePassage
	}
	if reMathSymbol.MatchString(q.TextEnglish) ||
		reLatexInline.MatchString(q.TextEnglish) ||
		reLatexMathrm.MatchString(q.TextEnglish) ||
		reFormulaLHS.MatchString(q.TextEnglish) {
		return TypeFormula
	}
	if strings.Contains(lower, "figure") || strings.Contains(lower, "diagram") ||
		strings.Contains(lower, "shown in the") || strings.Contains(lower, "refer to the") ||
		q.HasImage {
		return TypeImage
	}
	if q.hasAnySubOption() {
		return TypeSubOptions
	}
	return TypeMCQ
}
