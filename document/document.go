// Package document wraps PDF access for the ingestion pipeline: text-layer
// extraction, positioned text runs for highlight detection, and page image
// recovery for OCR. Structural parsing is delegated to pdfcpu and the
// text layer to ledongthuc/pdf; this package only adds the exam-paper
// specific policy on top.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrNotPDF marks payloads without a %PDF- header.
var ErrNotPDF = errors.New("not a PDF file")

// Role distinguishes the two uploads a batch consists of.
type Role string

const (
	RoleQuestions Role = "questions"
	RoleAnswers   Role = "answers"
)

// Document is an opened, validated PDF held in memory. All page numbers in
// this package are 1-based, matching pdfcpu.
type Document struct {
	Path string
	Role Role

	data      []byte
	pageCount int
	pdfctx    *model.Context
}

// Open reads and validates a PDF. A file without a %PDF- header or that
// pdfcpu cannot parse is rejected outright; the caller treats this as a bad
// upload, not a processing failure.
func Open(path string, role Role) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return FromBytes(data, path, role)
}

// FromBytes validates an in-memory PDF payload.
func FromBytes(data []byte, path string, role Role) (*Document, error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotPDF)
	}
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid PDF: %w", path, err)
	}
	return &Document{
		Path:      path,
		Role:      role,
		data:      data,
		pageCount: ctx.PageCount,
		pdfctx:    ctx,
	}, nil
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int { return d.pageCount }

// Bytes returns the raw PDF payload.
func (d *Document) Bytes() []byte { return d.data }

func (d *Document) reader() (*pdf.Reader, error) {
	return pdf.NewReader(bytes.NewReader(d.data), int64(len(d.data)))
}
