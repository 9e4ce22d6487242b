// Package tamil normalizes and segments Tamil text recovered from scanned
// exam papers. OCR output for Tamil is noisy in specific, recurring ways:
// stray spaces inside words, malformed glyphs from legacy font encodings,
// and whole words misread as near-lookalikes. The functions here repair
// those defects without touching well-formed text.
package tamil

import "unicode"

// Tamil block boundaries.
const (
	blockLo = 0x0B80
	blockHi = 0x0BFF
)

func IsTamilRune(r rune) bool { return r >= blockLo && r <= blockHi }

func isConsonant(r rune) bool {
	return (r >= 0x0B95 && r <= 0x0B9F) || (r >= 0x0BA3 && r <= 0x0BA9) || (r >= 0x0BAA && r <= 0x0BB9)
}

func isVowel(r rune) bool { return r >= 0x0B85 && r <= 0x0B94 }

func isVowelSign(r rune) bool { return r >= 0x0BBE && r <= 0x0BCD }

func isModifier(r rune) bool { return r == 0x0B82 || r == 0x0B83 }

// ContainsTamil reports whether any rune of s falls in the Tamil block.
func ContainsTamil(s string) bool {
	for _, r := range s {
		if IsTamilRune(r) {
			return true
		}
	}
	return false
}

// IsTamilDominant reports whether Tamil runes outnumber Latin letters in s.
// Digits, punctuation and spaces are ignored.
func IsTamilDominant(s string) bool {
	var tamil, latin int
	for _, r := range s {
		switch {
		case IsTamilRune(r):
			tamil++
		case unicode.Is(unicode.Latin, r):
			latin++
		}
	}
	return tamil > latin
}

// SplitScripts partitions mixed bilingual text into its Latin and Tamil
// parts. Runs of each script are collected in order; characters shared by
// both scripts (digits, punctuation) follow the script of the run they
// appear in.
func SplitScripts(s string) (english, tamilText string) {
	var eng, tam []rune
	// neutral runes buffer until the next scripted rune decides their side
	var pending []rune
	last := 0 // 0 unknown, 1 latin, 2 tamil
	flush := func(to int) {
		switch to {
		case 2:
			tam = append(tam, pending...)
		default:
			eng = append(eng, pending...)
		}
		pending = pending[:0]
	}
	for _, r := range s {
		switch {
		case IsTamilRune(r):
			if last != 2 {
				flush(2)
			} else {
				tam = append(tam, pending...)
				pending = pending[:0]
			}
			tam = append(tam, r)
			last = 2
		case unicode.Is(unicode.Latin, r):
			if last != 1 {
				flush(1)
			} else {
				eng = append(eng, pending...)
				pending = pending[:0]
			}
			eng = append(eng, r)
			last = 1
		default:
			pending = append(pending, r)
		}
	}
	flush(last)
	return collapseSpaces(string(eng)), collapseSpaces(string(tam))
}

func collapseSpaces(s string) string {
	out := make([]rune, 0, len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && len(out) > 0 {
			out = append(out, ' ')
		}
		space = false
		out = append(out, r)
	}
	return string(out)
}
