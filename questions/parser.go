package questions

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/raminstitute/examkit/answerkey"
	"github.com/raminstitute/examkit/observability"
	"github.com/raminstitute/examkit/tamil"
)

// Line patterns, tried in the order the handlers run. Question starts must
// carry text after the number so page numbers and answer-key rows do not
// open questions.
var (
	reQStart      = regexp.MustCompile(`^(\d+)[.)]\s+([A-Z].*)$`)
	reQStartTight = regexp.MustCompile(`^(\d+)\.([A-Z][a-z].*)$`)
	reQStartLoose = regexp.MustCompile(`^(\d+)\s+([A-Z][a-z].*)$`)
	reListIHdr    = regexp.MustCompile(`(?i)^list\s+i[:\s]*$`)
	reListIIHdr   = regexp.MustCompile(`(?i)^list\s+ii[:\s]*$`)
	reListIItem   = regexp.MustCompile(`(?i)^([a-d])\.\s*(.*)$`)
	reListIIItem  = regexp.MustCompile(`^([1-4])\.\s*(.*)$`)
	reCodesHdr    = regexp.MustCompile(`(?i)^codes?:?\s*$`)
	reSubOptParen = regexp.MustCompile(`(?i)^\((iv|i{1,4})\)\s*(.*)$`)
	reSubOptBare  = regexp.MustCompile(`(?i)^(iv|i{1,4})[.)]\s*(.*)$`)
	reOptionLine  = regexp.MustCompile(`(?i)^\(?([A-D])\)?[.)]\s*(.*)$`)
	reOptionLead  = regexp.MustCompile(`(?i)^\(?[A-D]\)?[.)]`)
	reNumLead     = regexp.MustCompile(`^\d+[.)]`)
	reBareNumLine = regexp.MustCompile(`^\d+[.)]?\s*$`)
	reQLeadStrict = regexp.MustCompile(`^\d+[.)]\s+[A-Z]`)
	reQLeadLoose  = regexp.MustCompile(`^\d+\s+[A-Z][a-z]`)
	reUpperLower  = regexp.MustCompile(`^[A-Z][a-z]`)
	reEndsPunct   = regexp.MustCompile(`[.,;:!?)\]]\s*$`)
)

// Parser converts question-PDF text into Question records. The zero value
// is not usable; construct with NewParser.
type Parser struct {
	dict *tamil.Dictionary
	log  observability.Logger
}

// NewParser builds a parser. A nil dict selects the embedded dictionary,
// a nil log discards diagnostics.
func NewParser(dict *tamil.Dictionary, log observability.Logger) *Parser {
	if dict == nil {
		dict = tamil.DefaultDictionary()
	}
	if log == nil {
		log = observability.NopLogger{}
	}
	return &Parser{dict: dict, log: log}
}

// Parse is a convenience wrapper over NewParser for one-shot use.
func Parse(text string, answers answerkey.Map, log observability.Logger) ([]Question, Report) {
	return NewParser(nil, log).Parse(text, answers)
}

// Parse walks the text line by line, building questions through the section
// state machine, then resolves duplicates, renumbers, classifies and
// attaches answers.
func (p *Parser) Parse(text string, answers answerkey.Map) ([]Question, Report) {
	r := &run{p: p, curOpt: -1, expected: 1}
	r.walk(splitLines(text))
	return p.postprocess(r.questions, answers, &r.report)
}

// section is the parser state: which structured block of the current
// question continuation lines belong to.
type section int

const (
	secNone section = iota
	secSubOptions
	secListI
	secListII
)

type run struct {
	p         *Parser
	questions []*Question
	cur       *Question
	curOpt    int // Options index being built, -1 when none
	section   section
	expected  int
	buffer    []string
	report    Report
}

func splitLines(text string) []string {
	raw := strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == '\r' || r == '\f'
	})
	var lines []string
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func (r *run) walk(lines []string) {
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		next := ""
		if i+1 < len(lines) {
			next = lines[i+1]
		}

		// List items are claimed by their section first; a matching
		// question's "3. Chennai" row must not open question 3.
		if r.cur != nil && r.section == secListI {
			if m := reListIItem.FindStringSubmatch(line); m != nil {
				idx := int(line[0]|0x20) - 'a'
				r.cur.ListI[idx] = normalizeMathSymbols(normalizeSuperscripts(m[2]))
				continue
			}
		}
		if r.cur != nil && r.section == secListII {
			if m := reListIIItem.FindStringSubmatch(line); m != nil {
				idx := int(m[1][0]) - '1'
				r.cur.ListII[idx] = normalizeMathSymbols(normalizeSuperscripts(m[2]))
				continue
			}
		}

		if m := matchQuestionStart(line); m != nil {
			i += r.startQuestion(m, next)
			continue
		}
		if r.cur == nil {
			continue
		}

		if reListIHdr.MatchString(line) {
			r.section = secListI
			continue
		}
		if reListIIHdr.MatchString(line) {
			r.section = secListII
			continue
		}
		if reCodesHdr.MatchString(line) {
			r.section = secNone
			continue
		}

		if r.section != secListI && r.section != secListII {
			if m := matchSubOption(line); m != nil {
				i += r.handleSubOption(m, next)
				continue
			}
		}

		if m := reOptionLine.FindStringSubmatch(line); m != nil {
			// Lowercase a)-d) before any main option is a nested list
			// inside the question body, not a choice.
			letter := m[1]
			if letter[0] >= 'a' && !r.cur.hasAnyOption() && r.curOpt == -1 {
				r.handleNested(letter, m[2])
				continue
			}
			i += r.handleOption(letter, m[2], next)
			continue
		}

		r.handleContinuation(line, lines, i)
	}
	r.flushCur()
}

func matchQuestionStart(line string) []string {
	if m := reQStart.FindStringSubmatch(line); m != nil {
		return m
	}
	if m := reQStartTight.FindStringSubmatch(line); m != nil {
		return m
	}
	return reQStartLoose.FindStringSubmatch(line)
}

func matchSubOption(line string) []string {
	if m := reSubOptParen.FindStringSubmatch(line); m != nil {
		return m
	}
	return reSubOptBare.FindStringSubmatch(line)
}

// flushCur merges the text buffer into the current question and appends it
// to the result list. Questions with neither text nor options are dropped.
func (r *run) flushCur() {
	if r.cur == nil {
		return
	}
	if len(r.buffer) > 0 {
		buffered := stripAnswerArtifacts(normalizeMathSymbols(strings.Join(r.buffer, " ")))
		r.cur.TextEnglish = strings.TrimSpace(r.cur.TextEnglish + " " + buffered)
		r.buffer = nil
	}
	if r.flushed(r.cur) {
		return
	}
	if strings.TrimSpace(r.cur.TextEnglish) == "" && !r.cur.hasAnyOption() {
		r.p.log.Warn("dropping question with no text and no options",
			observability.Int("question", r.cur.Number))
		r.report.Dropped++
		r.cur = nil
		return
	}
	r.questions = append(r.questions, r.cur)
}

func (r *run) flushed(q *Question) bool {
	return len(r.questions) > 0 && r.questions[len(r.questions)-1] == q
}

func (r *run) findNumber(n int) int {
	for i, q := range r.questions {
		if q.Number == n {
			return i
		}
	}
	return -1
}

func hasContent(q *Question) bool {
	runes := len([]rune(strings.TrimSpace(q.TextEnglish)))
	return runes > 10 && q.hasAnyOption()
}

// startQuestion opens a new question. Returns 1 when the next line was
// consumed as the Tamil rendering of the question text.
func (r *run) startQuestion(m []string, next string) int {
	r.flushCur()

	num, _ := strconv.Atoi(m[1])
	if idx := r.findNumber(num); idx >= 0 {
		if hasContent(r.questions[idx]) {
			r.p.log.Warn("duplicate question number, keeping existing",
				observability.Int("question", num))
			// Keep routing continuation lines into the previous question.
			return 0
		}
		r.p.log.Warn("replacing empty duplicate question",
			observability.Int("question", num))
		r.questions = append(r.questions[:idx], r.questions[idx+1:]...)
	}

	if num != r.expected && num > r.expected+2 {
		r.p.log.Warn("question number jump",
			observability.Int("expected", r.expected),
			observability.Int("got", num))
		num = r.expected
	}
	r.expected = num + 1

	raw := m[2]
	english, tam := tamil.SplitScripts(raw)
	english = stripAnswerArtifacts(normalizeMathSymbols(english))
	tam = r.cleanTamil(tam)

	skip := 0
	if next != "" {
		nextTam, consumed := r.tamilFromNext(next)
		if nextTam != "" {
			tam = joinNonEmpty(tam, nextTam)
		}
		if consumed {
			skip = 1
		}
	}

	if english == "" {
		english = raw
	}
	r.cur = &Question{
		Number:      num,
		TextEnglish: normalizeMathSymbols(normalizeSuperscripts(english)),
		TextTamil:   tam,
		Type:        TypeMCQ,
	}
	r.curOpt = -1
	r.section = secNone
	r.buffer = nil
	return skip
}

// tamilFromNext pulls Tamil out of the following line. A Tamil-dominant
// line is consumed whole; a mixed line only contributes its Tamil runs and
// stays in the stream.
func (r *run) tamilFromNext(next string) (string, bool) {
	if tamil.IsTamilDominant(next) {
		return r.cleanTamil(next), true
	}
	_, mixed := tamil.SplitScripts(next)
	if mixed != "" {
		return r.cleanTamil(mixed), false
	}
	return "", false
}

func (r *run) cleanTamil(s string) string {
	if s == "" {
		return ""
	}
	return stripTamilArtifacts(tamil.Clean(s, r.p.dict))
}

func (r *run) handleSubOption(m []string, next string) int {
	key := strings.ToLower(m[1])
	if key == "iiii" {
		key = "iv"
	}
	idx := romanIndex(key)
	if idx < 0 {
		return 0
	}

	raw := m[2]
	english, tam := tamil.SplitScripts(raw)
	tam = r.cleanTamil(tam)

	skip := 0
	if next != "" && !reOptionLead.MatchString(next) {
		nextTam, consumed := r.tamilFromNext(next)
		if nextTam != "" {
			tam = joinNonEmpty(tam, nextTam)
		}
		if consumed {
			skip = 1
		}
	}

	if english == "" {
		english = raw
	}
	text := normalizeMathSymbols(normalizeSuperscripts(english))
	if tam != "" {
		text = strings.TrimSpace(text + " " + tam)
	}
	r.cur.SubOptions[idx] = text
	r.section = secSubOptions
	r.curOpt = -1
	return skip
}

func romanIndex(key string) int {
	switch key {
	case "i":
		return 0
	case "ii":
		return 1
	case "iii":
		return 2
	case "iv":
		return 3
	}
	return -1
}

func (r *run) handleOption(letter, raw string, next string) int {
	r.section = secNone
	idx := int(letter[0]|0x20) - 'a'

	english, tam := tamil.SplitScripts(raw)
	english = stripAnswerArtifacts(normalizeMathSymbols(normalizeSuperscripts(english)))
	tam = r.cleanTamil(tam)

	skip := 0
	if next != "" {
		nextTam, consumed := r.tamilFromNext(next)
		if nextTam != "" {
			tam = joinNonEmpty(tam, nextTam)
		}
		if consumed {
			skip = 1
		}
	}

	text := english
	if text == "" && tam == "" {
		text = normalizeMathSymbols(normalizeSuperscripts(raw))
	}
	if tam != "" {
		if text != "" && !reEndsPunct.MatchString(text) {
			text = text + " " + tam
		} else {
			text = text + tam
		}
		text = strings.TrimSpace(text)
	}

	if !validOption(text) {
		return skip
	}

	if len(r.buffer) > 0 {
		buffered := stripAnswerArtifacts(normalizeMathSymbols(strings.Join(r.buffer, " ")))
		r.cur.TextEnglish = strings.TrimSpace(r.cur.TextEnglish + " " + buffered)
		r.buffer = nil
	}

	r.cur.Options[idx] = normalizeMathSymbols(text)
	r.curOpt = idx
	return skip
}

func (r *run) handleNested(letter, text string) {
	cleaned := stripAnswerArtifacts(normalizeMathSymbols(normalizeSuperscripts(text)))
	r.buffer = append(r.buffer, strings.ToLower(letter)+") "+cleaned)
}

func (r *run) handleContinuation(line string, lines []string, i int) {
	// Lines that look like a question the start patterns missed are
	// dropped rather than glued onto the wrong question.
	newQ := reQLeadStrict.MatchString(line) || reQLeadLoose.MatchString(line)
	if !newQ && reBareNumLine.MatchString(line) && i+1 < len(lines) {
		nr := lines[i+1]
		newQ = nr != "" && nr[0] >= 'A' && nr[0] <= 'Z'
	}
	if newQ {
		r.p.log.Warn("unparsed question-like line dropped",
			observability.String("line", truncate(line, 50)))
		return
	}
	if reNumLead.MatchString(line) {
		return
	}

	allFilled := true
	for _, o := range r.cur.Options {
		if strings.TrimSpace(o) == "" {
			allFilled = false
			break
		}
	}
	if allFilled && looksLikeQuestionStart(line) {
		r.p.log.Warn("all options filled, question-like line dropped",
			observability.Int("question", r.cur.Number),
			observability.String("line", truncate(line, 50)))
		return
	}
	if r.cur.hasAnyOption() && looksLikeNewQuestion(line) && len(r.buffer) == 0 {
		r.p.log.Warn("question-like line after options dropped",
			observability.String("line", truncate(line, 50)))
		return
	}

	normalized := normalizeMathSymbols(normalizeSuperscripts(line))

	if r.curOpt >= 0 && r.cur.Options[r.curOpt] != "" {
		if cleaned := stripAnswerArtifacts(normalized); cleaned != "" {
			r.cur.Options[r.curOpt] += " " + cleaned
		}
		return
	}

	switch r.section {
	case secListI:
		if idx := lastFilled(r.cur.ListI[:]); idx >= 0 {
			r.cur.ListI[idx] += " " + normalized
			return
		}
	case secListII:
		if idx := lastFilled(r.cur.ListII[:]); idx >= 0 {
			r.cur.ListII[idx] += " " + normalized
			return
		}
	case secSubOptions:
		if idx := lastFilled(r.cur.SubOptions[:]); idx >= 0 {
			r.cur.SubOptions[idx] += " " + normalized
			return
		}
	}

	if cleaned := stripAnswerArtifacts(normalized); cleaned != "" {
		r.buffer = append(r.buffer, cleaned)
	}
}

func lastFilled(items []string) int {
	for i := len(items) - 1; i >= 0; i-- {
		if items[i] != "" {
			return i
		}
	}
	return -1
}

func looksLikeQuestionStart(line string) bool {
	if !reUpperLower.MatchString(line) {
		return false
	}
	if len(line) > 20 || strings.Contains(line, "?") {
		return true
	}
	lower := strings.ToLower(line)
	for _, p := range []string{"for", "what", "which", "maximum", "minimum"} {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

func looksLikeNewQuestion(line string) bool {
	if !reUpperLower.MatchString(line) {
		return false
	}
	if strings.Contains(line, "?") {
		return true
	}
	lower := strings.ToLower(line)
	for _, w := range []string{"for", "the", "what", "which"} {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
