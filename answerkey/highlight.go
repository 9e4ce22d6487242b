package answerkey

import (
	"context"
	"image"
	"math"
	"regexp"
	"strconv"

	"github.com/raminstitute/examkit/document"
	"github.com/raminstitute/examkit/observability"
)

// HighlightConfig tunes the raster highlight detector. The defaults match
// the highlighter pens seen in real answer sheets; override via the
// pipeline config file when a board uses unusual colors or layouts.
type HighlightConfig struct {
	// MinPixelRatio is the fraction of sampled pixels that must look
	// highlighted for an option to count as marked.
	MinPixelRatio float64 `yaml:"min_pixel_ratio"`
	// SameLineMaxDY is the vertical pixel tolerance for treating a question
	// number and an option as being on the same line.
	SameLineMaxDY float64 `yaml:"same_line_max_dy"`
	// MaxAssocDistance caps the distance for last-resort nearest-question
	// association.
	MaxAssocDistance float64 `yaml:"max_assoc_distance"`
	// Padding widens the sampled box around each option, in pixels.
	Padding int `yaml:"padding"`
}

// DefaultHighlightConfig returns the tuned defaults.
func DefaultHighlightConfig() HighlightConfig {
	return HighlightConfig{
		MinPixelRatio:    0.05,
		SameLineMaxDY:    150,
		MaxAssocDistance: 500,
		Padding:          10,
	}
}

var (
	reQuestionNum = regexp.MustCompile(`^(\d+)[.)]?\s*$`)
	reOptionMark  = regexp.MustCompile(`^\(?([A-D])\)?[.)]?(\s|$)`)
)

type marker struct {
	number int     // question number, when this is a question marker
	option string  // option letter, when this is an option marker
	line   bool    // option followed by its text on the same run
	x, y   float64 // pixel position, y grows downward
	box    image.Rectangle
}

// FromHighlights renders each page of the answer document and detects
// highlighted options, associating each with its question number by layout.
// Pages that cannot be rasterized are skipped; highlight detection is a
// best-effort second source next to the text ladder. ctx is checked between
// pages so a canceled upload stops the pixel sampling.
func FromHighlights(ctx context.Context, doc *document.Document, cfg HighlightConfig, log observability.Logger) (Map, error) {
	if log == nil {
		log = observability.NopLogger{}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pages, err := doc.PageImages()
	if err != nil {
		return nil, err
	}
	answers := make(Map)
	for _, pg := range pages {
		if err := ctx.Err(); err != nil {
			return answers, err
		}
		if pg.Err != nil || pg.Image == nil {
			log.Debug("skipping page for highlight detection",
				observability.Int("page", pg.Page),
				observability.Error("err", pg.Err))
			continue
		}
		geom, err := doc.PageRuns(pg.Page)
		if err != nil {
			log.Debug("no text geometry for page",
				observability.Int("page", pg.Page),
				observability.Error("err", err))
			continue
		}
		pageAnswers := DetectPage(pg.Image, geom, cfg, log)
		for q, e := range pageAnswers {
			if _, ok := answers[q]; !ok {
				answers[q] = e
			}
		}
	}
	log.Info("highlight detection complete", observability.Int("answers", len(answers)))
	return answers, nil
}

// DetectPage finds highlighted options on a single rendered page. The text
// geometry is in PDF points with a bottom-left origin; it is mapped onto
// the raster's top-left pixel space before sampling.
func DetectPage(img image.Image, geom document.PageGeometry, cfg HighlightConfig, log observability.Logger) Map {
	if log == nil {
		log = observability.NopLogger{}
	}
	if cfg.MinPixelRatio <= 0 {
		cfg = DefaultHighlightConfig()
	}
	bounds := img.Bounds()
	imgW := float64(bounds.Dx())
	imgH := float64(bounds.Dy())
	if geom.Width <= 0 || geom.Height <= 0 || imgW == 0 || imgH == 0 {
		return nil
	}
	scaleX := imgW / geom.Width
	scaleY := imgH / geom.Height

	var questions, options []marker
	currentQ := make(map[int]int) // option index -> question number at scan time
	lastQ := 0
	for _, run := range geom.Runs {
		fontPx := run.FontSize * scaleY
		if fontPx <= 0 {
			fontPx = 12 * scaleY
		}
		h := fontPx * 1.2
		w := run.Width * scaleX
		if w <= 0 {
			w = float64(len(run.Text)) * fontPx * 0.6
		}
		px := run.X * scaleX
		py := imgH - run.Y*scaleY - h // flip to top-left origin
		box := image.Rect(int(px)-2, int(py)-2, int(px+w)+2, int(py+h)+2).Intersect(bounds)

		if m := reQuestionNum.FindStringSubmatch(run.Text); m != nil {
			n, _ := strconv.Atoi(m[1])
			if n >= 1 && n <= MaxQuestionNumber {
				questions = append(questions, marker{number: n, x: px, y: py, box: box})
				lastQ = n
				continue
			}
		}
		if m := reOptionMark.FindStringSubmatch(run.Text); m != nil {
			currentQ[len(options)] = lastQ
			options = append(options, marker{
				option: m[1],
				line:   len(run.Text) > 2,
				x:      px, y: py,
				box: box,
			})
		}
	}

	answers := make(Map)
	// distance of the assignment currently held per question, for the
	// closer-wins override
	dist := make(map[int]float64)

	for idx, opt := range options {
		sample := opt.box
		if opt.line {
			// a highlighter stroke usually covers the letter and the first
			// few words; sampling the whole run dilutes the ratio
			sample.Max.X = sample.Min.X + 150
			sample = sample.Intersect(bounds)
		}
		if !highlighted(img, sample, cfg) {
			// fall back to just the letter area for tight strokes
			letter := image.Rect(opt.box.Min.X-5, opt.box.Min.Y-5, opt.box.Min.X+30, opt.box.Max.Y+5).Intersect(bounds)
			if !highlighted(img, letter, cfg) {
				continue
			}
		}

		q, d := associate(opt, currentQ[idx], questions, cfg)
		if q == 0 {
			log.Warn("highlighted option without question number",
				observability.String("option", opt.option),
				observability.Int("page", geom.Page))
			continue
		}
		if prev, ok := answers[q]; ok {
			if d < dist[q] {
				log.Debug("reassigning highlighted answer to closer option",
					observability.Int("question", q),
					observability.String("was", prev.Option),
					observability.String("now", opt.option))
				answers[q] = Entry{Option: opt.option, Source: SourceHighlight}
				dist[q] = d
			}
			continue
		}
		answers[q] = Entry{Option: opt.option, Source: SourceHighlight}
		dist[q] = d
	}
	return answers
}

// associate resolves which question a highlighted option belongs to:
// the question number scanned just before it, then the nearest number on
// the same line, then the nearest number above, then the nearest number
// within MaxAssocDistance.
func associate(opt marker, scanQ int, questions []marker, cfg HighlightConfig) (int, float64) {
	if scanQ > 0 {
		for _, q := range questions {
			if q.number == scanQ {
				return scanQ, euclid(q, opt)
			}
		}
		return scanQ, 0
	}
	if len(questions) == 0 {
		return 0, 0
	}
	best, bestDist := 0, math.MaxFloat64
	for _, q := range questions {
		if math.Abs(q.y-opt.y) < cfg.SameLineMaxDY {
			if d := math.Abs(q.x - opt.x); d < bestDist {
				best, bestDist = q.number, d
			}
		}
	}
	if best > 0 {
		return best, bestDist
	}
	for _, q := range questions {
		if q.y < opt.y { // physically above the option
			if d := opt.y - q.y; d < bestDist {
				best, bestDist = q.number, d
			}
		}
	}
	if best > 0 {
		return best, bestDist
	}
	for _, q := range questions {
		if d := euclid(q, opt); d < bestDist {
			best, bestDist = q.number, d
		}
	}
	if bestDist > cfg.MaxAssocDistance {
		return 0, 0
	}
	return best, bestDist
}

func euclid(a, b marker) float64 {
	return math.Hypot(a.x-b.x, a.y-b.y)
}

// highlighted samples the box and reports whether enough pixels carry a
// yellow or green highlighter tint.
func highlighted(img image.Image, box image.Rectangle, cfg HighlightConfig) bool {
	box = image.Rect(box.Min.X-cfg.Padding, box.Min.Y-cfg.Padding, box.Max.X+cfg.Padding, box.Max.Y+cfg.Padding).
		Intersect(img.Bounds())
	if box.Empty() {
		return false
	}
	total, hits := 0, 0
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			r16, g16, b16, _ := img.At(x, y).RGBA()
			r, g, b := int(r16>>8), int(g16>>8), int(b16>>8)
			total++
			if isHighlightColor(r, g, b) {
				hits++
			}
		}
	}
	if total == 0 {
		return false
	}
	return float64(hits)/float64(total) > cfg.MinPixelRatio
}

// isHighlightColor matches the color families of yellow and green
// highlighter pens, including faded and pale strokes.
func isHighlightColor(r, g, b int) bool {
	switch {
	case r > 240 && g > 240 && b < 50: // bright yellow
		return true
	case (r > 200 && g > 200 && b < 100) ||
		(r > 220 && g > 220 && b < 150) ||
		(r > 180 && g > 180 && b < 120): // standard yellow
		return true
	case r > 240 && g > 240 && b > 200 && b < 250: // light yellow
		return true
	case r > 250 && g > 250 && b > 220 && b < 255: // pale yellow
		return true
	case (g > 160 && r < 150 && b < 150) ||
		(g > 200 && r < 100 && b < 100): // green
		return true
	case (r > 200 && g > 200 && r+g > b*2) ||
		(r > 180 && g > 180 && b < 180 && r+g-b > 100): // faded tint
		return true
	}
	return false
}
