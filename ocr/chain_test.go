package ocr

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeProvider struct {
	name      string
	available bool
	text      string
	err       error
	calls     int
}

func (f *fakeProvider) Name() string                       { return f.name }
func (f *fakeProvider) Available(context.Context) bool     { return f.available }
func (f *fakeProvider) Recognize(ctx context.Context, in Input) (Result, error) {
	f.calls++
	if f.err != nil {
		return Result{}, f.err
	}
	return Result{InputID: in.ID, PlainText: f.text}, nil
}

func TestChainFirstGoodResultWins(t *testing.T) {
	first := &fakeProvider{name: "local", available: true, text: "a full page of recognized text"}
	second := &fakeProvider{name: "remote", available: true, text: "even more text"}
	c := NewChain(nil, first, second)

	res, err := c.Recognize(context.Background(), Input{ID: "page-0"})
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if res.Provider != "local" || res.Fallback {
		t.Fatalf("unexpected result: %+v", res)
	}
	if second.calls != 0 {
		t.Fatalf("second provider should not run")
	}
}

func TestChainSkipsUnavailable(t *testing.T) {
	down := &fakeProvider{name: "cloud", available: false, text: "plenty of text here"}
	up := &fakeProvider{name: "local", available: true, text: "plenty of text here too"}
	c := NewChain(nil, down, up)

	res, err := c.Recognize(context.Background(), Input{ID: "page-0"})
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if res.Provider != "local" {
		t.Fatalf("expected local, got %q", res.Provider)
	}
	if down.calls != 0 {
		t.Fatalf("unavailable provider was called")
	}
}

func TestChainFallsThroughShortResults(t *testing.T) {
	short := &fakeProvider{name: "a", available: true, text: "abc"}
	good := &fakeProvider{name: "b", available: true, text: "this one recognized the page"}
	c := NewChain(nil, short, good)

	res, err := c.Recognize(context.Background(), Input{ID: "page-0"})
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if res.Provider != "b" || res.Fallback {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestChainBestAttemptFallback(t *testing.T) {
	worst := &fakeProvider{name: "a", available: true, text: "x"}
	best := &fakeProvider{name: "b", available: true, text: "xyz 12"}
	c := NewChain(nil, worst, best)

	res, err := c.Recognize(context.Background(), Input{ID: "page-0"})
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if !res.Fallback {
		t.Fatalf("expected fallback result")
	}
	if res.Provider != "b" {
		t.Fatalf("expected best attempt from b, got %q", res.Provider)
	}
}

func TestChainAllErrored(t *testing.T) {
	boom := errors.New("boom")
	a := &fakeProvider{name: "a", available: true, err: boom}
	b := &fakeProvider{name: "b", available: true, err: boom}
	c := NewChain(nil, a, b)

	res, err := c.Recognize(context.Background(), Input{ID: "page-3"})
	if err != nil {
		t.Fatalf("provider errors must not propagate: %v", err)
	}
	if !res.Fallback || res.PlainText != "" || res.InputID != "page-3" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestChainNoProviders(t *testing.T) {
	c := NewChain(nil, &fakeProvider{name: "a", available: false})
	if _, err := c.Recognize(context.Background(), Input{}); !errors.Is(err, ErrNoProviders) {
		t.Fatalf("expected ErrNoProviders, got %v", err)
	}
}

func TestChainBatchStopsOnCancel(t *testing.T) {
	p := &fakeProvider{name: "a", available: true, text: "long enough recognized text"}
	c := NewChain(nil, p)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.RecognizeBatch(ctx, []Input{{ID: "page-0"}}); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestChainDefaults(t *testing.T) {
	c := NewChain(nil)
	if c.MinTextLen != DefaultMinTextLen || c.CallTimeout != 30*time.Second {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}
