// Package pipeline orchestrates a batch run: open the question and answer
// PDFs, recover text (text layer first, OCR fallback), extract the answer
// key both ways, parse questions and attach answers. Every recoverable
// problem is logged and surfaced in the batch diagnostics instead of
// failing the run; only an unreadable question PDF or an empty parse is
// fatal.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/raminstitute/examkit/answerkey"
	"github.com/raminstitute/examkit/document"
	"github.com/raminstitute/examkit/observability"
	"github.com/raminstitute/examkit/ocr"
	"github.com/raminstitute/examkit/questions"
	"github.com/raminstitute/examkit/tamil"
)

// MaxPDFBytes bounds accepted uploads.
const MaxPDFBytes = 50 << 20

// ErrNoQuestions is returned when parsing recovers nothing usable from the
// question PDF.
var ErrNoQuestions = errors.New("no questions could be parsed from the question PDF")

// Diagnostics summarizes everything a reviewer should look at before
// trusting a batch.
type Diagnostics struct {
	TotalParsed         int
	AnsweredCount       int
	UnansweredQuestions []int
	NeighborResolved    []questions.NeighborMatch
	Conflicts           []answerkey.Conflict
	DuplicatesResolved  int
	Dropped             int
	PagesOCRed          int
	Warnings            []string
}

// Batch is one processed exam paper pair.
type Batch struct {
	ID          string
	Meta        Metadata
	Questions   []questions.Question
	Diagnostics Diagnostics
	CreatedAt   time.Time
}

// Pipeline runs batches. Construct with New.
type Pipeline struct {
	cfg    Config
	chain  *ocr.Chain
	dict   *tamil.Dictionary
	log    observability.Logger
	tracer observability.Tracer
	sink   ProgressSink
}

// New wires a pipeline. chain may be nil to disable the OCR fallback; nil
// log, tracer and sink default to no-ops.
func New(cfg Config, chain *ocr.Chain, log observability.Logger, tracer observability.Tracer, sink ProgressSink) *Pipeline {
	if log == nil {
		log = observability.NopLogger{}
	}
	if tracer == nil {
		tracer = observability.NopTracer()
	}
	if sink == nil {
		sink = NopSink{}
	}
	if chain != nil {
		if cfg.OCR.MinTextLen > 0 {
			chain.MinTextLen = cfg.OCR.MinTextLen
		}
		if cfg.OCR.CallTimeout > 0 {
			chain.CallTimeout = cfg.OCR.CallTimeout
		}
	}
	if !cfg.OCR.Enabled {
		chain = nil
	}
	return &Pipeline{
		cfg:    cfg,
		chain:  chain,
		dict:   tamil.DefaultDictionary(),
		log:    log,
		tracer: tracer,
		sink:   sink,
	}
}

// Run processes one question/answer PDF pair.
func (p *Pipeline) Run(ctx context.Context, questionPDF, answerPDF []byte, meta Metadata) (*Batch, error) {
	ctx, span := p.tracer.StartSpan(ctx, "pipeline.run")
	defer span.Finish()

	if err := meta.Validate(); err != nil {
		return nil, err
	}
	if len(questionPDF) == 0 || len(answerPDF) == 0 {
		return nil, errors.New("uploaded PDFs are empty")
	}
	if len(questionPDF) > MaxPDFBytes || len(answerPDF) > MaxPDFBytes {
		return nil, fmt.Errorf("PDF exceeds %d byte limit", MaxPDFBytes)
	}
	meta.Category = NormalizeCategory(meta.Category)

	p.sink.Report(StageUpload, "files received, starting processing", 100)
	p.sink.Report(StageParsing, "validating PDFs", 5)

	qdoc, err := document.FromBytes(questionPDF, "questions.pdf", document.RoleQuestions)
	if err != nil {
		p.fail("question PDF unreadable", err)
		return nil, fmt.Errorf("question pdf: %w", err)
	}
	var warnings []string
	adoc, err := document.FromBytes(answerPDF, "answers.pdf", document.RoleAnswers)
	if err != nil {
		// Questions can still ship unanswered.
		p.log.Warn("answer PDF unreadable, continuing without answers",
			observability.Error("err", err))
		warnings = append(warnings, "answer PDF unreadable: "+err.Error())
		adoc = nil
	}

	p.sink.Report(StageParsing, "extracting question text", 10)
	extractStart := time.Now()
	qText, qPages, err := p.extractText(ctx, qdoc)
	if err != nil {
		p.fail("question text extraction failed", err)
		return nil, fmt.Errorf("question text: %w", err)
	}
	p.log.Info("question text extracted",
		observability.Int64(observability.MetricExtractTime, time.Since(extractStart).Milliseconds()),
		observability.Int(observability.MetricOCRPages, qPages))
	p.sink.Report(StageParsing, "question text extracted", 30)

	var aText string
	aPages := 0
	if adoc != nil {
		p.sink.Report(StageParsing, "extracting answer text", 40)
		aText, aPages, err = p.extractText(ctx, adoc)
		if err != nil {
			p.log.Warn("answer text extraction failed", observability.Error("err", err))
			warnings = append(warnings, "answer text extraction failed: "+err.Error())
		}
		p.sink.Report(StageParsing, "answer text extracted", 50)
	}

	p.sink.Report(StageParsing, "reading answer key", 60)
	textKey := answerkey.FromText(aText, p.log)

	var highlightKey answerkey.Map
	if adoc != nil {
		p.sink.Report(StageParsing, "detecting highlighted answers", 65)
		highlightKey, err = answerkey.FromHighlights(ctx, adoc, p.cfg.Highlight, p.log)
		if err != nil {
			p.log.Warn("highlight detection failed", observability.Error("err", err))
			warnings = append(warnings, "highlight detection failed: "+err.Error())
		}
	}

	batch, err := p.assemble(qText, textKey, highlightKey, meta)
	if err != nil {
		p.fail("no questions recovered", err)
		return nil, err
	}
	batch.Diagnostics.PagesOCRed = qPages + aPages
	batch.Diagnostics.Warnings = append(warnings, batch.Diagnostics.Warnings...)

	p.sink.Report(StageComplete, "batch ready", 100)
	span.SetTag("questions", len(batch.Questions))
	return batch, nil
}

// ProcessText runs the answer-key and parsing stages over already-extracted
// text. Run delegates here once both documents are reduced to text; tests
// and callers with their own extraction use it directly.
func (p *Pipeline) ProcessText(qText, aText string, highlights answerkey.Map, meta Metadata) (*Batch, error) {
	meta.Category = NormalizeCategory(meta.Category)
	return p.assemble(qText, answerkey.FromText(aText, p.log), highlights, meta)
}

func (p *Pipeline) assemble(qText string, textKey, highlightKey answerkey.Map, meta Metadata) (*Batch, error) {
	merged, conflicts := answerkey.Merge(textKey, highlightKey)
	for _, c := range conflicts {
		p.log.Warn("answer key conflict",
			observability.Int("question", c.Question),
			observability.String("text", c.Text),
			observability.String("highlight", c.Highlight),
			observability.Int(observability.MetricAnswerConflict, 1))
	}

	p.sink.Report(StageParsing, "parsing questions", 70)
	parseStart := time.Now()
	qs, report := questions.NewParser(p.dict, p.log).Parse(qText, merged)
	p.log.Info("questions parsed",
		observability.Int64(observability.MetricParseTime, time.Since(parseStart).Milliseconds()),
		observability.Int(observability.MetricQuestionCount, len(qs)))
	if len(qs) == 0 {
		return nil, ErrNoQuestions
	}
	p.sink.Report(StageSaving, "assembling batch", 80)

	d := Diagnostics{
		TotalParsed:        len(qs),
		NeighborResolved:   report.NeighborResolved,
		Conflicts:          conflicts,
		DuplicatesResolved: report.DuplicatesResolved,
		Dropped:            report.Dropped,
	}
	for _, q := range qs {
		if q.CorrectOption != "" {
			d.AnsweredCount++
		} else {
			d.UnansweredQuestions = append(d.UnansweredQuestions, q.Number)
		}
	}
	p.log.Info("answers attached",
		observability.Int(observability.MetricAnswerCount, d.AnsweredCount))

	return &Batch{
		ID:          uuid.NewString(),
		Meta:        meta,
		Questions:   qs,
		Diagnostics: d,
		CreatedAt:   time.Now(),
	}, nil
}

// extractText prefers the embedded text layer and falls back to page-level
// OCR when the layer is too thin or carries no Tamil. Returns the number of
// pages that went through OCR.
func (p *Pipeline) extractText(ctx context.Context, doc *document.Document) (string, int, error) {
	layer, err := doc.TextLayer()
	if err != nil {
		p.log.Warn("text layer unreadable", observability.Error("err", err))
		layer = ""
	}
	if !document.NeedsOCR(layer) || p.chain == nil {
		return p.cleanTamilRuns(layer), 0, nil
	}

	p.sink.Report(StageOCR, "text layer too thin, rasterizing pages", 15)
	pages, err := doc.PageImages()
	if err != nil {
		if layer != "" {
			p.log.Warn("rasterization failed, using thin text layer",
				observability.Error("err", err))
			return p.cleanTamilRuns(layer), 0, nil
		}
		return "", 0, fmt.Errorf("rasterize: %w", err)
	}

	text, done, err := p.ocrPages(ctx, pages)
	if err != nil {
		if errors.Is(err, ocr.ErrNoProviders) && layer != "" {
			p.log.Warn("no ocr provider available, using thin text layer",
				observability.Error("err", err))
			return p.cleanTamilRuns(layer), 0, nil
		}
		return "", done, err
	}
	if strings.TrimSpace(text) == "" {
		// Nothing recognized; the thin layer is still better than nothing.
		return p.cleanTamilRuns(layer), done, nil
	}
	return p.cleanTamilRuns(text), done, nil
}

// ocrPages runs the provider chain over each page raster, checking ctx
// between pages. Pages that cannot be rastered or encoded are skipped.
func (p *Pipeline) ocrPages(ctx context.Context, pages []document.PageImage) (string, int, error) {
	ocrStart := time.Now()
	var parts []string
	done := 0
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return "", done, err
		}
		if page.Err != nil {
			p.log.Warn("page image unavailable",
				observability.Int("page", page.Page),
				observability.Error("err", page.Err))
			continue
		}
		in, err := ocr.InputFromImage(document.Preprocess(page.Image), page.Page,
			ocr.WithLanguages(p.cfg.OCR.Languages...))
		if err != nil {
			p.log.Warn("page encode failed",
				observability.Int("page", page.Page),
				observability.Error("err", err))
			continue
		}
		res, err := p.chain.Recognize(ctx, in)
		if err != nil {
			return "", done, fmt.Errorf("ocr page %d: %w", page.Page, err)
		}
		parts = append(parts, res.PlainText)
		done++
	}
	p.log.Info("ocr complete",
		observability.Int64(observability.MetricOCRTime, time.Since(ocrStart).Milliseconds()),
		observability.Int(observability.MetricOCRPages, done))
	return strings.Join(parts, "\f"), done, nil
}

// cleanTamilRuns repairs OCR glyph damage line by line, leaving pure
// English lines untouched.
func (p *Pipeline) cleanTamilRuns(text string) string {
	if !tamil.ContainsTamil(text) {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if tamil.ContainsTamil(line) && tamil.HasOCRArtifacts(line) {
			lines[i] = tamil.Normalize(line)
		}
	}
	return strings.Join(lines, "\n")
}

func (p *Pipeline) fail(msg string, err error) {
	p.log.Error(msg, observability.Error("err", err))
	p.sink.Report(StageError, msg+": "+err.Error(), 100)
}
