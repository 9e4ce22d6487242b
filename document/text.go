package document

import (
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/raminstitute/examkit/tamil"
)

// MinTextLayerRunes is the smallest embedded text layer considered usable.
// Scanned papers typically yield either nothing or a few garbage glyphs.
const MinTextLayerRunes = 50

// TextLayer extracts the embedded text layer page by page, separating pages
// with form feeds. Pages whose text cannot be decoded contribute an empty
// page rather than failing the document.
func (d *Document) TextLayer() (string, error) {
	r, err := d.reader()
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= r.NumPage(); i++ {
		if i > 1 {
			sb.WriteByte('\f')
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			continue
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

// NeedsOCR decides whether the embedded text layer is good enough to parse.
// A layer is rejected when it is too short, when a bilingual paper carries no
// Tamil script at all (the usual symptom of a pure image scan), or when the
// Tamil that is there is dominated by malformed glyphs.
func NeedsOCR(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len([]rune(trimmed)) < MinTextLayerRunes {
		return true
	}
	if !tamil.ContainsTamil(trimmed) {
		return true
	}
	return false
}
