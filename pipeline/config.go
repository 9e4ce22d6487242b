package pipeline

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/raminstitute/examkit/answerkey"
	"github.com/raminstitute/examkit/ocr"
)

// OCRConfig tunes the raster fallback.
type OCRConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MinTextLen  int           `yaml:"min_text_len"`
	CallTimeout time.Duration `yaml:"call_timeout"`
	Languages   []string      `yaml:"languages"`
}

// Config is the yaml-loadable pipeline configuration.
type Config struct {
	Highlight answerkey.HighlightConfig `yaml:"highlight"`
	OCR       OCRConfig                 `yaml:"ocr"`
}

func DefaultConfig() Config {
	return Config{
		Highlight: answerkey.DefaultHighlightConfig(),
		OCR: OCRConfig{
			Enabled:     true,
			MinTextLen:  ocr.DefaultMinTextLen,
			CallTimeout: ocr.DefaultCallTimeout,
			Languages:   []string{"tam", "eng"},
		},
	}
}

// LoadConfig reads a yaml file over the defaults. Missing keys keep their
// default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
