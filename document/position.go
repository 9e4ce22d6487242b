package document

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TextRun is one positioned fragment of the text layer. Coordinates are in
// PDF points with the origin at the lower-left corner of the page.
type TextRun struct {
	Text     string
	X        float64
	Y        float64
	Width    float64
	FontSize float64
}

// PageGeometry carries the positioned runs of a single page together with
// its media box, which highlight detection needs to map PDF points onto
// raster pixels.
type PageGeometry struct {
	Page   int
	Width  float64
	Height float64
	Runs   []TextRun
}

// PageRuns returns the positioned text runs of a 1-based page. Adjacent
// fragments on the same baseline with the same font size are merged into
// single runs so answer lines like "42. (B)" arrive whole.
func (d *Document) PageRuns(pageNr int) (PageGeometry, error) {
	r, err := d.reader()
	if err != nil {
		return PageGeometry{}, err
	}
	if pageNr < 1 || pageNr > r.NumPage() {
		return PageGeometry{}, fmt.Errorf("page %d out of range (1..%d)", pageNr, r.NumPage())
	}
	page := r.Page(pageNr)
	if page.V.IsNull() {
		return PageGeometry{}, fmt.Errorf("page %d has no content", pageNr)
	}
	w, h := mediaBox(page)
	geom := PageGeometry{Page: pageNr, Width: w, Height: h}
	content := page.Content()
	geom.Runs = mergeRuns(content.Text)
	return geom, nil
}

// mediaBox resolves the page media box, walking up the page tree for
// inherited values. Falls back to US Letter when absent.
func mediaBox(page pdf.Page) (w, h float64) {
	v := page.V
	for !v.IsNull() {
		if mb := v.Key("MediaBox"); !mb.IsNull() && mb.Len() == 4 {
			x0 := mb.Index(0).Float64()
			y0 := mb.Index(1).Float64()
			x1 := mb.Index(2).Float64()
			y1 := mb.Index(3).Float64()
			return x1 - x0, y1 - y0
		}
		v = v.Key("Parent")
	}
	return 612, 792
}

// mergeRuns joins consecutive fragments sharing a baseline into one run.
func mergeRuns(texts []pdf.Text) []TextRun {
	var runs []TextRun
	for _, t := range texts {
		if t.S == "" {
			continue
		}
		if n := len(runs); n > 0 {
			prev := &runs[n-1]
			sameLine := abs(prev.Y-t.Y) < 0.5 && prev.FontSize == t.FontSize
			adjacent := t.X >= prev.X && t.X-(prev.X+prev.Width) < t.FontSize
			if sameLine && adjacent {
				prev.Text += t.S
				prev.Width = t.X + t.W - prev.X
				continue
			}
		}
		runs = append(runs, TextRun{Text: t.S, X: t.X, Y: t.Y, Width: t.W, FontSize: t.FontSize})
	}
	for i := range runs {
		runs[i].Text = strings.TrimRight(runs[i].Text, " ")
	}
	return runs
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
