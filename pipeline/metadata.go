package pipeline

import (
	"errors"
	"strings"
)

// Metadata describes the exam a batch belongs to.
type Metadata struct {
	ExamCode    string
	ExamName    string
	BatchName   string
	Category    string
	Year        int
	Month       string
	Duration    int // minutes
	Description string
}

// categoryAliases maps display names to their short storage forms.
var categoryAliases = map[string]string{
	"Civil Engineering": "Civil",
	"General Knowledge": "GK",
}

// NormalizeCategory folds a display category into its canonical short form.
// Unknown categories pass through unchanged.
func NormalizeCategory(category string) string {
	if category == "" {
		return ""
	}
	if short, ok := categoryAliases[category]; ok {
		return short
	}
	return category
}

// Validate checks the fields a batch cannot be stored without.
func (m Metadata) Validate() error {
	if strings.TrimSpace(m.ExamCode) == "" {
		return errors.New("exam code is required")
	}
	if strings.TrimSpace(m.ExamName) == "" {
		return errors.New("exam name is required")
	}
	if strings.TrimSpace(m.BatchName) == "" {
		return errors.New("batch name is required")
	}
	return nil
}
