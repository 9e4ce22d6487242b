package document

import (
	"fmt"
	"image"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"
)

// MaxOCRPages caps how many pages are rasterized for OCR. Exam papers run
// to a few dozen pages; anything beyond this is almost certainly a wrong
// upload and would burn minutes of OCR time.
const MaxOCRPages = 40

// PageImage is the dominant raster of one page. Scanned exam papers embed
// each page as a single full-page image XObject, so the largest image on a
// page stands in for the page itself.
type PageImage struct {
	// Page is the 1-based page number.
	Page  int
	Image image.Image
	// Err records why this page could not be recovered; Image is nil then.
	// A bad page degrades to a gap in the batch, not a failed document.
	Err error
}

// PageImages extracts the dominant image of each page, up to MaxOCRPages.
func (d *Document) PageImages() ([]PageImage, error) {
	if d.pdfctx == nil {
		return nil, fmt.Errorf("%s: document not initialized", d.Path)
	}
	n := d.pageCount
	if n > MaxOCRPages {
		n = MaxOCRPages
	}
	out := make([]PageImage, 0, n)
	for pageNr := 1; pageNr <= n; pageNr++ {
		img, err := d.pageImage(pageNr)
		out = append(out, PageImage{Page: pageNr, Image: img, Err: err})
	}
	return out, nil
}

func (d *Document) pageImage(pageNr int) (image.Image, error) {
	imgs, err := pdfcpu.ExtractPageImages(d.pdfctx, pageNr, false)
	if err != nil {
		return nil, fmt.Errorf("page %d: extract images: %w", pageNr, err)
	}
	if len(imgs) == 0 {
		return nil, fmt.Errorf("page %d: no image content", pageNr)
	}
	var best image.Image
	bestArea := 0
	var lastErr error
	for _, raw := range imgs {
		decoded, _, err := image.Decode(raw)
		if err != nil {
			lastErr = err
			continue
		}
		b := decoded.Bounds()
		if area := b.Dx() * b.Dy(); area > bestArea {
			best = decoded
			bestArea = area
		}
	}
	if best == nil {
		return nil, fmt.Errorf("page %d: decode images: %w", pageNr, lastErr)
	}
	return best, nil
}
