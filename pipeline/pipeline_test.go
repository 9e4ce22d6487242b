package pipeline

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/raminstitute/examkit/answerkey"
	"github.com/raminstitute/examkit/document"
	"github.com/raminstitute/examkit/ocr"
)

type fakeProvider struct {
	name      string
	available bool
	text      string
}

func (f *fakeProvider) Name() string                   { return f.name }
func (f *fakeProvider) Available(context.Context) bool { return f.available }
func (f *fakeProvider) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	return ocr.Result{InputID: in.ID, PlainText: f.text}, nil
}

func testMeta() Metadata {
	return Metadata{
		ExamCode:  "CE-2023",
		ExamName:  "Assistant Engineer",
		BatchName: "2023 main paper",
		Category:  "Civil Engineering",
	}
}

func TestProcessTextEndToEnd(t *testing.T) {
	p := New(DefaultConfig(), nil, nil, nil, nil)

	qText := strings.Join([]string{
		"1. Which of the following is the unit of stress?",
		"(A) newton",
		"(B) pascal",
		"(C) joule",
		"(D) watt",
		"2. Which test measures workability of concrete?",
		"(A) slump test",
		"(B) core test",
		"(C) impact test",
		"(D) fatigue test",
	}, "\n")
	aText := "1. (A)\n2. (B)"
	highlights := answerkey.Map{
		2: {Option: "C", Source: answerkey.SourceHighlight},
	}

	batch, err := p.ProcessText(qText, aText, highlights, testMeta())
	if err != nil {
		t.Fatalf("ProcessText: %v", err)
	}
	if batch.ID == "" {
		t.Errorf("batch id empty")
	}
	if batch.Meta.Category != "Civil" {
		t.Errorf("category = %q, want Civil", batch.Meta.Category)
	}
	if len(batch.Questions) != 2 {
		t.Fatalf("questions = %d, want 2", len(batch.Questions))
	}
	if batch.Questions[0].CorrectOption != "A" {
		t.Errorf("q1 answer = %q", batch.Questions[0].CorrectOption)
	}
	if batch.Questions[1].CorrectOption != "C" {
		t.Errorf("q2 answer = %q, highlight should win", batch.Questions[1].CorrectOption)
	}
	d := batch.Diagnostics
	if d.TotalParsed != 2 || d.AnsweredCount != 2 {
		t.Errorf("diagnostics = %+v", d)
	}
	if len(d.Conflicts) != 1 || d.Conflicts[0].Question != 2 {
		t.Errorf("conflicts = %v", d.Conflicts)
	}
}

func TestProcessTextUnansweredReported(t *testing.T) {
	p := New(DefaultConfig(), nil, nil, nil, nil)
	qText := strings.Join([]string{
		"1. Which gas is most abundant in the atmosphere?",
		"(A) oxygen",
		"(B) nitrogen",
	}, "\n")

	batch, err := p.ProcessText(qText, "", nil, testMeta())
	if err != nil {
		t.Fatalf("ProcessText: %v", err)
	}
	d := batch.Diagnostics
	if d.AnsweredCount != 0 {
		t.Errorf("answered = %d, want 0", d.AnsweredCount)
	}
	if len(d.UnansweredQuestions) != 1 || d.UnansweredQuestions[0] != 1 {
		t.Errorf("unanswered = %v", d.UnansweredQuestions)
	}
}

func TestProcessTextEmptyIsError(t *testing.T) {
	p := New(DefaultConfig(), nil, nil, nil, nil)
	if _, err := p.ProcessText("no questions here at all", "", nil, testMeta()); err == nil {
		t.Fatalf("expected error for text with no questions")
	}
}

func TestRunInputValidation(t *testing.T) {
	p := New(DefaultConfig(), nil, nil, nil, nil)
	ctx := context.Background()
	pdf := []byte("%PDF-1.4 not really")

	if _, err := p.Run(ctx, pdf, pdf, Metadata{ExamName: "x", BatchName: "y"}); err == nil {
		t.Errorf("missing exam code accepted")
	}
	if _, err := p.Run(ctx, nil, pdf, testMeta()); err == nil {
		t.Errorf("empty question PDF accepted")
	}
	if _, err := p.Run(ctx, []byte("not a pdf"), pdf, testMeta()); err == nil {
		t.Errorf("non-PDF question bytes accepted")
	}
}

func TestOCRPagesJoinsRecognizedText(t *testing.T) {
	local := &fakeProvider{name: "local", available: true, text: "recognized page body text"}
	p := New(DefaultConfig(), ocr.NewChain(nil, local), nil, nil, nil)

	pages := []document.PageImage{
		{Page: 1, Image: image.NewRGBA(image.Rect(0, 0, 8, 8))},
		{Page: 2, Err: errors.New("render failed")},
	}
	text, done, err := p.ocrPages(context.Background(), pages)
	if err != nil {
		t.Fatalf("ocrPages: %v", err)
	}
	if text != "recognized page body text" {
		t.Fatalf("unexpected text %q", text)
	}
	if done != 1 {
		t.Fatalf("done = %d, want 1", done)
	}
}

func TestOCRPagesSurfacesNoProviders(t *testing.T) {
	down := &fakeProvider{name: "cloud", available: false, text: "unused"}
	p := New(DefaultConfig(), ocr.NewChain(nil, down), nil, nil, nil)

	pages := []document.PageImage{{Page: 1, Image: image.NewRGBA(image.Rect(0, 0, 8, 8))}}
	_, _, err := p.ocrPages(context.Background(), pages)
	if !errors.Is(err, ocr.ErrNoProviders) {
		t.Fatalf("want ErrNoProviders, got %v", err)
	}
}

func TestOCRPagesCanceledContext(t *testing.T) {
	local := &fakeProvider{name: "local", available: true, text: "recognized page body text"}
	p := New(DefaultConfig(), ocr.NewChain(nil, local), nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pages := []document.PageImage{{Page: 1, Image: image.NewRGBA(image.Rect(0, 0, 8, 8))}}
	_, done, err := p.ocrPages(ctx, pages)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if done != 0 {
		t.Fatalf("done = %d, want 0", done)
	}
}

func TestNormalizeCategory(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Civil Engineering", "Civil"},
		{"General Knowledge", "GK"},
		{"Mathematics", "Mathematics"},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeCategory(c.in); got != c.want {
			t.Errorf("NormalizeCategory(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	id, sink := store.NewSink()
	if id == "" {
		t.Fatalf("empty correlation id")
	}

	sink.Report(StageParsing, "working", 30)
	u, ok := store.Get(id)
	if !ok {
		t.Fatalf("update not stored")
	}
	if u.Stage != StageParsing || u.Percent != 30 || u.Message != "working" {
		t.Errorf("update = %+v", u)
	}

	sink.Report(StageComplete, "done", 100)
	if u, _ = store.Get(id); u.Stage != StageComplete {
		t.Errorf("stage = %q after second report", u.Stage)
	}

	if _, ok := store.Get("unknown-id"); ok {
		t.Errorf("unknown id returned an update")
	}
}

func TestMemoryStoreTTL(t *testing.T) {
	store := NewMemoryStore(time.Nanosecond)
	id, sink := store.NewSink()
	sink.Report(StageParsing, "working", 10)
	time.Sleep(5 * time.Millisecond)
	if _, ok := store.Get(id); ok {
		t.Errorf("expired entry still readable")
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	yaml := strings.Join([]string{
		"highlight:",
		"  min_pixel_ratio: 0.1",
		"ocr:",
		"  min_text_len: 25",
	}, "\n")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Highlight.MinPixelRatio != 0.1 {
		t.Errorf("min pixel ratio = %v", cfg.Highlight.MinPixelRatio)
	}
	if cfg.OCR.MinTextLen != 25 {
		t.Errorf("min text len = %d", cfg.OCR.MinTextLen)
	}
	// untouched keys keep defaults
	if cfg.Highlight.SameLineMaxDY != DefaultConfig().Highlight.SameLineMaxDY {
		t.Errorf("same line dy = %v", cfg.Highlight.SameLineMaxDY)
	}
	if !cfg.OCR.Enabled {
		t.Errorf("ocr disabled by partial config")
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("missing file accepted")
	}
}
