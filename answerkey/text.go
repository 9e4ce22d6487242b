package answerkey

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/raminstitute/examkit/observability"
)

// The ladder of line formats seen in typed answer keys, most specific
// first. The first pattern that matches a line wins.
var (
	reNumParenOpt  = regexp.MustCompile(`(?i)^(\d+)\.\s*\(([A-D])\)`)                 // "1. (A)"
	reNumDotOpt    = regexp.MustCompile(`(?i)^(\d+)\s*[.)]\s*([A-D])\s*$`)            // "1. A" / "1) A"
	reNumOptText   = regexp.MustCompile(`(?i)^(\d+)\s*[.)]\s*\(?([A-D])\)?\s*[^A-D]`) // "1. A something"
	reNumDashOpt   = regexp.MustCompile(`(?i)^(\d+)\s*[-:]\s*([A-D])`)                // "1 - A" / "1 : A"
	reNumAnsOpt    = regexp.MustCompile(`(?i)^(\d+)\s*(?:Ans|Answer)[:-]?\s*([A-D])`) // "1 Ans: A"
	reNumTrailOpt  = regexp.MustCompile(`(?i)^(\d+)\.\s*[^(]*\(([A-D])\)`)            // "1. text... (A)"
	reParenOptOnly = regexp.MustCompile(`(?i)^\(([A-D])\)\s*$`)                       // "(A)"
	reOptOnly      = regexp.MustCompile(`(?i)^([A-D])\s*$`)                           // "A"
	reNumOnly      = regexp.MustCompile(`^(\d+)[.)]?\s*$`)                            // "12"
	reQPrefixOpt   = regexp.MustCompile(`(?i)^(?:Q|Question)\s*(\d+)[:-]?\s*([A-D])`) // "Q1: A"

	// next-line answers after a standalone number
	reNextOpt    = regexp.MustCompile(`(?i)^\(?([A-D])\)?\s*$`)
	reNextOptDot = regexp.MustCompile(`(?i)^([A-D])\.`)
	reNextAns    = regexp.MustCompile(`(?i)^Answer[:-]?\s*([A-D])`)
)

// FromText scans an answer key's plain text line by line. The first answer
// seen for a question is kept; later disagreeing lines are logged and
// dropped, since answer keys list each question once and repeats mean the
// extraction picked up stray text.
func FromText(text string, log observability.Logger) Map {
	if log == nil {
		log = observability.NopLogger{}
	}
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(strings.TrimSuffix(l, "\r")); l != "" {
			lines = append(lines, l)
		}
	}

	answers := make(Map)
	lastQuestion := 0

	record := func(q int, opt string) bool {
		if q < 1 || q > MaxQuestionNumber {
			log.Debug("answer line out of range", observability.Int("question", q))
			return false
		}
		opt = strings.ToUpper(opt)
		if prev, ok := answers[q]; ok {
			if prev.Option != opt {
				log.Warn("conflicting answer in key, keeping first",
					observability.Int("question", q),
					observability.String("kept", prev.Option),
					observability.String("dropped", opt))
			}
			lastQuestion = q
			return true
		}
		answers[q] = Entry{Option: opt, Source: SourceText}
		lastQuestion = q
		return true
	}

	for i, line := range lines {
		if m := reNumParenOpt.FindStringSubmatch(line); m != nil {
			record(atoi(m[1]), m[2])
			continue
		}
		if m := reNumDotOpt.FindStringSubmatch(line); m != nil {
			record(atoi(m[1]), m[2])
			continue
		}
		if m := reNumOptText.FindStringSubmatch(line); m != nil {
			record(atoi(m[1]), m[2])
			continue
		}
		if m := reNumDashOpt.FindStringSubmatch(line); m != nil {
			record(atoi(m[1]), m[2])
			continue
		}
		if m := reNumAnsOpt.FindStringSubmatch(line); m != nil {
			record(atoi(m[1]), m[2])
			continue
		}
		if m := reNumTrailOpt.FindStringSubmatch(line); m != nil {
			record(atoi(m[1]), m[2])
			continue
		}
		if m := reParenOptOnly.FindStringSubmatch(line); m != nil && lastQuestion > 0 {
			record(lastQuestion, m[1])
			continue
		}
		if m := reOptOnly.FindStringSubmatch(line); m != nil && lastQuestion > 0 {
			record(lastQuestion, m[1])
			continue
		}
		if m := reNumOnly.FindStringSubmatch(line); m != nil {
			q := atoi(m[1])
			if q >= 1 && q <= MaxQuestionNumber {
				lastQuestion = q
				if opt := nextLineOption(lines, i); opt != "" {
					record(q, opt)
				}
			}
			continue
		}
		if m := reQPrefixOpt.FindStringSubmatch(line); m != nil {
			record(atoi(m[1]), m[2])
			continue
		}
	}

	log.Info("answer key text scan complete",
		observability.Int("lines", len(lines)),
		observability.Int("answers", len(answers)))
	return answers
}

func nextLineOption(lines []string, i int) string {
	if i+1 >= len(lines) {
		return ""
	}
	next := lines[i+1]
	for _, re := range []*regexp.Regexp{reNextOpt, reNextOptDot, reNextAns} {
		if m := re.FindStringSubmatch(next); m != nil {
			return m[1]
		}
	}
	return ""
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
