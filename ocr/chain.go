package ocr

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/raminstitute/examkit/observability"
)

const (
	// DefaultMinTextLen is the shortest recognized text a chain accepts as a
	// usable result before moving to the next provider.
	DefaultMinTextLen = 10
	// DefaultCallTimeout bounds a single provider call.
	DefaultCallTimeout = 30 * time.Second
)

// ErrNoProviders is returned when a chain has no available provider at all.
var ErrNoProviders = errors.New("ocr: no available providers")

// Chain tries providers in order until one returns usable text. Providers
// that report unavailable are skipped. If every provider returns a poor or
// failed result, the best attempt seen is returned with Fallback set rather
// than an error: a short garbled page must not sink the whole document.
type Chain struct {
	providers   []Provider
	log         observability.Logger
	MinTextLen  int
	CallTimeout time.Duration
}

// NewChain builds a provider chain in fallback-priority order.
func NewChain(log observability.Logger, providers ...Provider) *Chain {
	if log == nil {
		log = observability.NopLogger{}
	}
	return &Chain{
		providers:   providers,
		log:         log,
		MinTextLen:  DefaultMinTextLen,
		CallTimeout: DefaultCallTimeout,
	}
}

func (c *Chain) Name() string { return "chain" }

// Recognize runs the fallback chain for one input.
func (c *Chain) Recognize(ctx context.Context, in Input) (Result, error) {
	var best Result
	bestLen := -1
	tried := 0
	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if !p.Available(ctx) {
			c.log.Debug("ocr provider unavailable", observability.String("provider", p.Name()))
			continue
		}
		tried++
		res, err := c.callProvider(ctx, p, in)
		if err != nil {
			c.log.Warn("ocr provider failed",
				observability.String("provider", p.Name()),
				observability.String("input", in.ID),
				observability.Error("err", err))
			continue
		}
		res.Provider = p.Name()
		n := len(strings.TrimSpace(res.PlainText))
		if n > c.MinTextLen {
			return res, nil
		}
		c.log.Debug("ocr provider returned poor result",
			observability.String("provider", p.Name()),
			observability.Int("chars", n))
		if n > bestLen {
			best = res
			bestLen = n
		}
	}
	if tried == 0 {
		return Result{}, ErrNoProviders
	}
	if bestLen < 0 {
		// every provider errored; still no exception up the stack
		return Result{InputID: in.ID, Fallback: true}, nil
	}
	best.Fallback = true
	return best, nil
}

// RecognizeBatch processes inputs sequentially, checking ctx between pages.
func (c *Chain) RecognizeBatch(ctx context.Context, inputs []Input) ([]Result, error) {
	results := make([]Result, 0, len(inputs))
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := c.Recognize(ctx, in)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (c *Chain) callProvider(ctx context.Context, p Provider, in Input) (Result, error) {
	timeout := c.CallTimeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.Recognize(cctx, in)
}
