package document

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
)

func TestFromBytesRejectsNonPDF(t *testing.T) {
	if _, err := FromBytes([]byte("hello"), "q.pdf", RoleQuestions); err == nil {
		t.Fatalf("expected error for non-PDF payload")
	}
	if _, err := FromBytes(nil, "empty.pdf", RoleAnswers); err == nil {
		t.Fatalf("expected error for empty payload")
	}
}

func TestNeedsOCR(t *testing.T) {
	if !NeedsOCR("short") {
		t.Fatalf("short text must need OCR")
	}
	latinOnly := strings.Repeat("Which of the following is correct? ", 5)
	if !NeedsOCR(latinOnly) {
		t.Fatalf("text without Tamil must need OCR")
	}
	bilingual := latinOnly + " பின்வரும் எந்த மாநிலம் சரியானது என்பதை தேர்ந்தெடுக்கவும்"
	if NeedsOCR(bilingual) {
		t.Fatalf("long bilingual text must not need OCR")
	}
}

func TestMergeRuns(t *testing.T) {
	texts := []pdf.Text{
		{S: "42. ", X: 50, Y: 700, W: 20, FontSize: 10},
		{S: "(B)", X: 71, Y: 700, W: 15, FontSize: 10},
		{S: "43. (A)", X: 50, Y: 680, W: 35, FontSize: 10},
	}
	runs := mergeRuns(texts)
	if len(runs) != 2 {
		t.Fatalf("expected 2 merged runs, got %d: %+v", len(runs), runs)
	}
	if runs[0].Text != "42. (B)" {
		t.Fatalf("merge failed: %q", runs[0].Text)
	}
	if runs[1].Y != 680 {
		t.Fatalf("second line lost: %+v", runs[1])
	}
}

func TestMergeRunsKeepsSeparateLines(t *testing.T) {
	texts := []pdf.Text{
		{S: "1. (A)", X: 50, Y: 700, W: 30, FontSize: 10},
		{S: "2. (C)", X: 50, Y: 600, W: 30, FontSize: 10},
	}
	if runs := mergeRuns(texts); len(runs) != 2 {
		t.Fatalf("distinct baselines merged: %+v", runs)
	}
}

func TestScaleToWidth(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 50))
	scaled := ScaleToWidth(img, 200)
	b := scaled.Bounds()
	if b.Dx() != 200 || b.Dy() != 100 {
		t.Fatalf("unexpected scaled size: %v", b)
	}
}

func TestPreprocessStretchesContrast(t *testing.T) {
	// low-contrast page: background 140, "ink" 110
	img := image.NewRGBA(image.Rect(0, 0, TargetOCRWidth, 10))
	bg := color.Gray{Y: 140}
	ink := color.Gray{Y: 110}
	for y := 0; y < 10; y++ {
		for x := 0; x < TargetOCRWidth; x++ {
			if x%7 == 0 {
				img.Set(x, y, ink)
			} else {
				img.Set(x, y, bg)
			}
		}
	}
	out := Preprocess(img)
	var lo, hi uint8 = 255, 0
	for _, v := range out.Pix {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi-lo < 100 {
		t.Fatalf("contrast not stretched: lo=%d hi=%d", lo, hi)
	}
}
