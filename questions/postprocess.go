package questions

import (
	"sort"
	"strconv"
	"strings"

	"github.com/raminstitute/examkit/answerkey"
	"github.com/raminstitute/examkit/observability"
)

// postprocess resolves duplicate numbers, renumbers sequentially, folds
// matching lists into the question text, repairs missing text, classifies
// and attaches answers.
func (p *Parser) postprocess(parsed []*Question, answers answerkey.Map, report *Report) ([]Question, Report) {
	parsed = p.dedupe(parsed, report)

	sort.Slice(parsed, func(i, j int) bool { return parsed[i].Number < parsed[j].Number })

	// Renumber 1..n and carry the answer map across the renumbering.
	mapping := make(map[int]int, len(parsed))
	for i, q := range parsed {
		mapping[q.Number] = i + 1
		q.Number = i + 1
	}
	remapped := remapAnswers(answers, mapping, p.log)

	out := make([]Question, 0, len(parsed))
	for _, q := range parsed {
		p.finalize(q)
		out = append(out, *q)
	}

	p.attachAnswers(out, remapped, report)
	return out, *report
}

// dedupe keeps one question per number: the one with options wins, then the
// one with longer text.
func (p *Parser) dedupe(parsed []*Question, report *Report) []*Question {
	byNum := make(map[int]*Question, len(parsed))
	var order []int
	for _, q := range parsed {
		prev, ok := byNum[q.Number]
		if !ok {
			byNum[q.Number] = q
			order = append(order, q.Number)
			continue
		}
		report.DuplicatesResolved++
		p.log.Warn("duplicate question resolved", observability.Int("question", q.Number))
		switch {
		case q.hasAnyOption() && !prev.hasAnyOption():
			byNum[q.Number] = q
		case prev.hasAnyOption() && !q.hasAnyOption():
			// keep prev
		case len(q.TextEnglish) > len(prev.TextEnglish):
			byNum[q.Number] = q
		}
	}
	kept := make([]*Question, 0, len(order))
	for _, n := range order {
		kept = append(kept, byNum[n])
	}
	return kept
}

// remapAnswers moves answer entries from pre-renumbering question numbers
// to the new sequence. Keys with no parsed question keep their original
// number so the neighbor fallback in attachAnswers can borrow them and
// flag the borrow, rather than shifting them silently here.
func remapAnswers(answers answerkey.Map, mapping map[int]int, log observability.Logger) answerkey.Map {
	out := make(answerkey.Map, len(answers))
	for oldNum, e := range answers {
		if newNum, ok := mapping[oldNum]; ok {
			if newNum != oldNum {
				log.Info("answer remapped after renumbering",
					observability.Int("from", oldNum),
					observability.Int("to", newNum))
			}
			out[newNum] = e
		}
	}
	for oldNum, e := range answers {
		if _, ok := mapping[oldNum]; ok {
			continue
		}
		if _, taken := out[oldNum]; !taken {
			out[oldNum] = e
		}
	}
	return out
}

// finalize is the per-question cleanup pass.
func (p *Parser) finalize(q *Question) {
	foldLists(q)
	q.TextEnglish = collapseWhitespace(q.TextEnglish)

	recoverText(q, p.log)

	if q.TextEnglish == "" || len([]rune(q.TextEnglish)) < 5 {
		q.Type = TypeImage
		q.HasImage = true
		if q.hasAnyOption() {
			q.TextEnglish = "Question text missing (check diagram)"
		} else {
			q.TextEnglish = "Question " + strconv.Itoa(q.Number) + " text missing (PDF parsing failed)"
		}
		p.log.Warn("question text missing", observability.Int("question", q.Number))
	}

	for i := range q.Options {
		opt := stripAllArtifacts(collapseWhitespace(q.Options[i]))
		if opt == "N/A" || opt == "NA" {
			opt = ""
		}
		q.Options[i] = opt
	}
	if !q.hasAnyOption() {
		p.log.Warn("question has no valid options, marked as image",
			observability.Int("question", q.Number))
		q.Type = TypeImage
		q.HasImage = true
	}

	q.Type = Classify(q)
}

// foldLists appends the matching-question columns to the question text so
// both lists survive flat storage.
func foldLists(q *Question) {
	if !q.hasListI() && !q.hasListII() {
		return
	}
	var b strings.Builder
	b.WriteString(q.TextEnglish)
	b.WriteString("\n\nList I:\n")
	for i, item := range q.ListI {
		if item != "" {
			b.WriteString(listIKeys[i] + ". " + item + "\n")
		}
	}
	b.WriteString("\nList II:\n")
	for i, item := range q.ListII {
		if item != "" {
			b.WriteString(listIIKeys[i] + ". " + item + "\n")
		}
	}
	q.TextEnglish = b.String()
}

// recoverText salvages question text that was misrouted into sub-options or
// a long first option.
func recoverText(q *Question, log observability.Logger) {
	if len([]rune(q.TextEnglish)) >= 10 {
		return
	}
	var subParts []string
	for _, s := range q.SubOptions {
		if s != "" {
			subParts = append(subParts, s)
		}
	}
	if joined := strings.Join(subParts, " "); len(joined) > len(q.TextEnglish) && joined != "" {
		q.TextEnglish = joined
		log.Warn("using sub-option text as question text", observability.Int("question", q.Number))
		return
	}
	for _, opt := range q.Options {
		if len(opt) <= 50 {
			continue
		}
		lower := strings.ToLower(opt)
		if strings.Contains(opt, "?") || strings.Contains(lower, "for ") || strings.Contains(lower, "the ") {
			q.TextEnglish = opt
			log.Warn("using first option as question text", observability.Int("question", q.Number))
			return
		}
	}
}

// attachAnswers resolves each question's answer: exact match first, then a
// neighbor within 1 whose entry no question claimed, then within 2 as a
// last resort. Neighbor matches are reported, never silently trusted.
func (p *Parser) attachAnswers(questions []Question, answers answerkey.Map, report *Report) {
	claimed := make(map[int]bool, len(answers))
	for i := range questions {
		if e, ok := answers[questions[i].Number]; ok && isOptionLetter(e.Option) {
			questions[i].CorrectOption = e.Option
			questions[i].AnswerSource = e.Source
			claimed[questions[i].Number] = true
		}
	}
	for i := range questions {
		q := &questions[i]
		if q.CorrectOption != "" {
			continue
		}
		for _, dist := range []int{1, 2} {
			found := false
			for _, from := range []int{q.Number - dist, q.Number + dist} {
				if from < 1 || claimed[from] {
					continue
				}
				e, ok := answers[from]
				if !ok || !isOptionLetter(e.Option) {
					continue
				}
				q.CorrectOption = e.Option
				q.AnswerSource = answerkey.SourceNeighbor
				claimed[from] = true
				report.NeighborResolved = append(report.NeighborResolved, NeighborMatch{
					Question: q.Number, From: from, Option: e.Option,
				})
				p.log.Warn("answer resolved from neighboring number",
					observability.Int("question", q.Number),
					observability.Int("from", from),
					observability.String("option", e.Option))
				found = true
				break
			}
			if found {
				break
			}
		}
	}
}

func isOptionLetter(s string) bool {
	return s == "A" || s == "B" || s == "C" || s == "D"
}
