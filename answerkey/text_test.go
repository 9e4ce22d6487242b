package answerkey

import "testing"

func TestFromTextFormats(t *testing.T) {
	text := `
1. (A)
2. B
3) C
4 - D
5 : A
6 Ans: B
7. The correct answer is (C)
Q8: D
9.
(A)
10
B
`
	m := FromText(text, nil)
	want := map[int]string{
		1: "A", 2: "B", 3: "C", 4: "D", 5: "A",
		6: "B", 7: "C", 8: "D", 9: "A", 10: "B",
	}
	if len(m) != len(want) {
		t.Fatalf("got %d answers, want %d: %v", len(m), len(want), m.Options())
	}
	for q, opt := range want {
		e, ok := m[q]
		if !ok || e.Option != opt {
			t.Fatalf("Q%d: got %+v, want %s", q, e, opt)
		}
		if e.Source != SourceText {
			t.Fatalf("Q%d: source = %s", q, e.Source)
		}
	}
}

func TestFromTextKeepsFirstOnConflict(t *testing.T) {
	m := FromText("5. (A)\n5. (C)\n", nil)
	if e := m[5]; e.Option != "A" {
		t.Fatalf("expected first answer kept, got %q", e.Option)
	}
}

func TestFromTextRejectsOutOfRange(t *testing.T) {
	m := FromText("250. (A)\n0. (B)\n2019 - C\n", nil)
	if len(m) != 0 {
		t.Fatalf("out-of-range numbers accepted: %v", m.Options())
	}
}

func TestFromTextLowercaseOption(t *testing.T) {
	m := FromText("3. (b)\n", nil)
	if e := m[3]; e.Option != "B" {
		t.Fatalf("lowercase option not normalized: %+v", e)
	}
}

func TestFromTextIgnoresProse(t *testing.T) {
	m := FromText("Answer Key for the 2019 examination\nSection One\n", nil)
	if len(m) != 0 {
		t.Fatalf("prose produced answers: %v", m.Options())
	}
}

func TestMergeHighlightWins(t *testing.T) {
	text := Map{
		1: {Option: "A", Source: SourceText},
		2: {Option: "B", Source: SourceText},
	}
	highlight := Map{
		2: {Option: "C", Source: SourceHighlight},
		3: {Option: "D", Source: SourceHighlight},
	}
	merged, conflicts := Merge(text, highlight)
	if merged[1].Option != "A" || merged[2].Option != "C" || merged[3].Option != "D" {
		t.Fatalf("unexpected merge: %v", merged.Options())
	}
	if len(conflicts) != 1 || conflicts[0].Question != 2 || conflicts[0].Text != "B" || conflicts[0].Highlight != "C" {
		t.Fatalf("unexpected conflicts: %+v", conflicts)
	}
}
