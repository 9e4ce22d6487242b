package tamil

import (
	"strings"
	"testing"
)

func TestNormalizeGlyphFixes(t *testing.T) {
	cases := map[string]string{
		"தமிழ்஥ாட்டின்": "தமிழ்நாட்டின்",
		"஧ள்஭த்தாக்கு":  "பள்ளத்தாக்கு",
		"நற்றும்":       "மற்றும்",
		"பின்யரும்":     "பின்வரும்",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeIdempotentOverDictionary(t *testing.T) {
	d := DefaultDictionary()
	for _, w := range d.Words() {
		once := Normalize(w)
		if twice := Normalize(once); twice != once {
			t.Fatalf("Normalize not idempotent for %q: %q then %q", w, once, twice)
		}
	}
}

func TestNormalizeLeavesCleanTextAlone(t *testing.T) {
	clean := "கோயம்புத்தூர் மற்றும் திருப்பூர்"
	if got := Normalize(clean); got != clean {
		t.Fatalf("clean text changed: %q", got)
	}
}

func TestHasOCRArtifacts(t *testing.T) {
	if !HasOCRArtifacts("தமிழ்஥ாடு") {
		t.Fatalf("malformed glyph not detected")
	}
	if HasOCRArtifacts("தமிழ்நாடு") {
		t.Fatalf("false positive on clean text")
	}
}

func TestDespaceJoinsSyllables(t *testing.T) {
	got := Despace("த மிழ்")
	if got != "தமிழ்" {
		t.Fatalf("Despace = %q", got)
	}
}

func TestDespaceKeepsLatinBoundaries(t *testing.T) {
	got := Despace("தமிழ் and English")
	if !strings.Contains(got, " and ") {
		t.Fatalf("space before Latin text lost: %q", got)
	}
}

func TestSegmentRecoversDictionaryWords(t *testing.T) {
	d := DefaultDictionary()
	joined := "பின்வரும்மற்றும்சரியான"
	got := Segment(joined, d)
	want := "பின்வரும் மற்றும் சரியான"
	if got != want {
		t.Fatalf("Segment = %q, want %q", got, want)
	}
}

func TestSegmentPassesUnknownThrough(t *testing.T) {
	d := NewDictionary([]string{"மற்றும்"})
	got := Segment("xyz 123", d)
	if got != "xyz 123" {
		t.Fatalf("non-Tamil text altered: %q", got)
	}
}

func TestCleanFullPipeline(t *testing.T) {
	d := DefaultDictionary()
	in := "பின்யரும் மற்றும் த மிழ்"
	got := Clean(in, d)
	if !strings.Contains(got, "பின்வரும்") || !strings.Contains(got, "மற்றும்") {
		t.Fatalf("Clean = %q", got)
	}
	if strings.Contains(got, "த மிழ்") {
		t.Fatalf("intra-word space survived: %q", got)
	}
}

func TestSplitScripts(t *testing.T) {
	eng, tam := SplitScripts("Which state? எந்த மாநிலம்?")
	if !strings.Contains(eng, "Which state") {
		t.Fatalf("english part = %q", eng)
	}
	if !strings.Contains(tam, "எந்த") || !strings.Contains(tam, "மாநிலம்") {
		t.Fatalf("tamil part = %q", tam)
	}
	if strings.ContainsAny(eng, "எந") {
		t.Fatalf("tamil leaked into english: %q", eng)
	}
}

func TestIsTamilDominant(t *testing.T) {
	if !IsTamilDominant("எந்த மாநிலம் sq km") {
		t.Fatalf("expected tamil dominant")
	}
	if IsTamilDominant("Which of the following மாநிலம்") {
		t.Fatalf("expected latin dominant")
	}
}

func TestLoadDictionary(t *testing.T) {
	d, err := LoadDictionary(strings.NewReader("மற்றும்\n# comment\n\nசரியான\n"))
	if err != nil {
		t.Fatalf("LoadDictionary: %v", err)
	}
	if d.Len() != 2 || !d.Has("மற்றும்") || !d.Has("சரியான") {
		t.Fatalf("unexpected dictionary: len=%d", d.Len())
	}
}
