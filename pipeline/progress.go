package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raminstitute/examkit/observability"
)

// Stage identifies a phase of a batch run.
type Stage string

const (
	StageUpload   Stage = "upload"
	StageParsing  Stage = "parsing"
	StageOCR      Stage = "ocr"
	StageSaving   Stage = "saving"
	StageComplete Stage = "complete"
	StageError    Stage = "error"
)

// ProgressSink receives progress updates during a run. Implementations must
// be safe for use from a single goroutine; the pipeline never reports
// concurrently.
type ProgressSink interface {
	Report(stage Stage, message string, percent int)
}

// NopSink discards all updates.
type NopSink struct{}

func (NopSink) Report(Stage, string, int) {}

// LoggerSink forwards updates to a logger.
type LoggerSink struct {
	Log observability.Logger
}

func (s LoggerSink) Report(stage Stage, message string, percent int) {
	s.Log.Info("progress",
		observability.String("stage", string(stage)),
		observability.Int("percent", percent),
		observability.String("message", message))
}

// Update is the latest reported state of one run.
type Update struct {
	Stage   Stage
	Message string
	Percent int
	At      time.Time
}

// MemoryStore keeps per-run progress for pollers, evicting entries that
// have not been updated within the TTL.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]Update
}

// NewMemoryStore builds a store. A non-positive ttl keeps entries forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, entries: make(map[string]Update)}
}

// NewSink allocates a correlation id and returns a sink writing under it.
func (s *MemoryStore) NewSink() (string, ProgressSink) {
	id := uuid.NewString()
	return id, storeSink{store: s, id: id}
}

// Get returns the last update for id, if any is still live.
func (s *MemoryStore) Get(id string) (Update, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeLocked(time.Now())
	u, ok := s.entries[id]
	return u, ok
}

func (s *MemoryStore) set(id string, u Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeLocked(u.At)
	s.entries[id] = u
}

func (s *MemoryStore) purgeLocked(now time.Time) {
	if s.ttl <= 0 {
		return
	}
	for id, u := range s.entries {
		if now.Sub(u.At) > s.ttl {
			delete(s.entries, id)
		}
	}
}

type storeSink struct {
	store *MemoryStore
	id    string
}

func (s storeSink) Report(stage Stage, message string, percent int) {
	s.store.set(s.id, Update{Stage: stage, Message: message, Percent: percent, At: time.Now()})
}
