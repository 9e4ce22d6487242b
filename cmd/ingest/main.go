package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/raminstitute/examkit/observability"
	"github.com/raminstitute/examkit/ocr"
	"github.com/raminstitute/examkit/ocr/ocrspace"
	"github.com/raminstitute/examkit/ocr/tesseract"
	"github.com/raminstitute/examkit/ocr/vision"
	"github.com/raminstitute/examkit/pipeline"
)

type options struct {
	questionsPath string
	answersPath   string
	configPath    string
	outPath       string
	verbose       bool
	noOCR         bool
	meta          pipeline.Metadata
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ingest: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "ingest: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: ingest -questions q.pdf -answers a.pdf -exam-code CODE -exam-name NAME -batch NAME [flags]\n")
		flag.PrintDefaults()
	}
	questions := flag.String("questions", "", "Question paper PDF")
	answers := flag.String("answers", "", "Answer key PDF")
	config := flag.String("config", "", "Optional yaml config for highlight and OCR tuning")
	out := flag.String("out", "", "Write batch JSON here instead of stdout")
	examCode := flag.String("exam-code", "", "Exam code")
	examName := flag.String("exam-name", "", "Exam name")
	batch := flag.String("batch", "", "Batch name")
	category := flag.String("category", "", "Exam category")
	year := flag.Int("year", 0, "Exam year")
	month := flag.String("month", "", "Exam month")
	duration := flag.Int("duration", 0, "Exam duration in minutes")
	verbose := flag.Bool("verbose", false, "Debug logging")
	noOCR := flag.Bool("no-ocr", false, "Disable the OCR fallback")
	flag.Parse()

	if *questions == "" || *answers == "" {
		flag.Usage()
		return options{}, fmt.Errorf("both -questions and -answers are required")
	}
	opts.questionsPath = *questions
	opts.answersPath = *answers
	opts.configPath = *config
	opts.outPath = *out
	opts.verbose = *verbose
	opts.noOCR = *noOCR
	opts.meta = pipeline.Metadata{
		ExamCode:  *examCode,
		ExamName:  *examName,
		BatchName: *batch,
		Category:  *category,
		Year:      *year,
		Month:     *month,
		Duration:  *duration,
	}
	return opts, nil
}

func run(opts options) error {
	level := observability.LevelInfo
	if opts.verbose {
		level = observability.LevelDebug
	}
	log := observability.NewConsoleLogger(os.Stderr, level)

	cfg := pipeline.DefaultConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = pipeline.LoadConfig(opts.configPath); err != nil {
			return err
		}
	}
	if opts.noOCR {
		cfg.OCR.Enabled = false
	}

	qPDF, err := os.ReadFile(opts.questionsPath)
	if err != nil {
		return fmt.Errorf("read questions: %w", err)
	}
	aPDF, err := os.ReadFile(opts.answersPath)
	if err != nil {
		return fmt.Errorf("read answers: %w", err)
	}

	chain := buildChain(log)
	p := pipeline.New(cfg, chain, log, nil, pipeline.LoggerSink{Log: log})

	batch, err := p.Run(context.Background(), qPDF, aPDF, opts.meta)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}
	data = append(data, '\n')

	if opts.outPath == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(opts.outPath, data, 0o644); err != nil {
		return fmt.Errorf("write batch: %w", err)
	}
	log.Info("batch written",
		observability.String("path", opts.outPath),
		observability.Int("questions", len(batch.Questions)))
	return nil
}

// buildChain assembles the provider fallback order: local tesseract, then
// OCR.space, then Google Vision. Providers without a binary or credentials
// report themselves unavailable and the chain skips them.
func buildChain(log observability.Logger) *ocr.Chain {
	return ocr.NewChain(log, tesseract.New(), ocrspace.New(), vision.New())
}
