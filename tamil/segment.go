package tamil

import (
	"strings"
	"unicode"
)

// maxCandidate caps dictionary lookups during segmentation. Tamil exam
// vocabulary rarely exceeds this many runes per word.
const maxCandidate = 15

// Despace removes spaces the OCR engine inserted inside Tamil words. Two
// adjacent Tamil runes are joined when they can belong to the same
// syllable: consonant before vowel or consonant, vowel before consonant,
// and any combining sign or modifier next to a base character. Spaces
// between a Tamil rune and punctuation or Latin text are kept.
func Despace(s string) string {
	runes := []rune(s)
	for pass := 0; pass < 5; pass++ {
		var out []rune
		changed := false
		for i := 0; i < len(runes); i++ {
			r := runes[i]
			if !unicode.IsSpace(r) {
				out = append(out, r)
				continue
			}
			// find the runes on either side of this space run
			j := i
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				j++
			}
			if len(out) > 0 && j < len(runes) && joinable(out[len(out)-1], runes[j]) {
				changed = true
				i = j - 1
				continue
			}
			out = append(out, ' ')
			i = j - 1
		}
		runes = out
		if !changed {
			break
		}
	}
	return string(runes)
}

func joinable(a, b rune) bool {
	if !IsTamilRune(a) || !IsTamilRune(b) {
		return false
	}
	switch {
	case isConsonant(a):
		return isConsonant(b) || isVowel(b) || isVowelSign(b)
	case isVowel(a):
		return isConsonant(b) || isVowelSign(b)
	case isVowelSign(a):
		return isConsonant(b) || isVowel(b)
	case isModifier(a):
		return isConsonant(b) || isVowel(b)
	}
	return false
}

// Segment re-inserts word boundaries into a run of Tamil text whose spaces
// were lost. It walks the text preferring the longest dictionary word at
// each position; runes that match nothing accumulate into a pending chunk
// that is emitted when a known word begins or the chunk reaches the
// candidate cap. Non-Tamil spans pass through untouched.
func Segment(s string, d *Dictionary) string {
	if d == nil || d.Len() == 0 {
		return s
	}
	var b strings.Builder
	runes := []rune(s)
	i := 0
	for i < len(runes) {
		if !IsTamilRune(runes[i]) {
			b.WriteRune(runes[i])
			i++
			continue
		}
		j := i
		for j < len(runes) && IsTamilRune(runes[j]) {
			j++
		}
		b.WriteString(segmentRun(runes[i:j], d))
		i = j
	}
	return b.String()
}

func segmentRun(runes []rune, d *Dictionary) string {
	var segs []string
	var pending []rune
	flush := func() {
		if len(pending) > 0 {
			segs = append(segs, string(pending))
			pending = pending[:0]
		}
	}
	i := 0
	for i < len(runes) {
		if n := d.longestPrefix(runes, i, maxCandidate); n > 0 {
			flush()
			segs = append(segs, string(runes[i:i+n]))
			i += n
			continue
		}
		pending = append(pending, runes[i])
		if len(pending) >= maxCandidate {
			flush()
		}
		i++
	}
	flush()
	return strings.Join(segs, " ")
}

// Clean is the full repair pipeline for a Tamil fragment: normalize glyphs
// and known words, close up intra-word spaces, then re-segment against the
// dictionary. Spacing around punctuation is tidied last.
func Clean(s string, d *Dictionary) string {
	if s == "" {
		return ""
	}
	s = Normalize(s)
	s = Despace(s)
	if d != nil {
		s = Segment(squashTamilSpaces(s), d)
	}
	s = collapseSpaces(s)
	return trimBeforePunct(s)
}

// squashTamilSpaces drops any space still sitting between two Tamil runes
// so the segmenter sees each run whole.
func squashTamilSpaces(s string) string {
	runes := []rune(s)
	var out []rune
	for i, r := range runes {
		if unicode.IsSpace(r) && len(out) > 0 && IsTamilRune(out[len(out)-1]) {
			// peek past the space run
			j := i
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				j++
			}
			if j < len(runes) && IsTamilRune(runes[j]) {
				continue
			}
		}
		out = append(out, r)
	}
	return string(out)
}

func trimBeforePunct(s string) string {
	var out []rune
	for _, r := range s {
		if (r == '.' || r == ',' || r == ';' || r == ':' || r == '!' || r == '?') &&
			len(out) > 0 && out[len(out)-1] == ' ' {
			out = out[:len(out)-1]
		}
		out = append(out, r)
	}
	return string(out)
}
