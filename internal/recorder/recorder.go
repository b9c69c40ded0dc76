// Package recorder samples characters on an interval and hands the
// snapshots to a storage backend.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/jamiegrech/RSBot-API/internal/character"
	"github.com/jamiegrech/RSBot-API/internal/queue"
	"github.com/jamiegrech/RSBot-API/internal/storage"
	"github.com/jamiegrech/RSBot-API/pkg/client"
	"github.com/jamiegrech/RSBot-API/pkg/core"
)

const instrumentationName = "github.com/jamiegrech/RSBot-API/internal/recorder"

// Defaults applied by New.
const (
	DefaultQueueLimit = 10_000
	DefaultBatchSize  = 500
)

var (
	ErrRunning    = errors.New("recorder already running")
	ErrNoInterval = errors.New("recorder interval must be positive")
)

// Source lists the occupied character slots.
type Source interface {
	Refs() []client.Ref
}

// Config controls sampling.
type Config struct {
	Interval time.Duration
	// QueueLimit bounds snapshots waiting for the backend; the oldest are
	// dropped first.
	QueueLimit int
	// BatchSize is how many snapshots one drain pass hands over at a time.
	BatchSize int
}

// Recorder samples tracked characters, or every loaded one when nothing
// is tracked.
type Recorder struct {
	cfg     Config
	deps    *character.Dependencies
	source  Source
	backend storage.Backend
	logger  *slog.Logger
	now     func() time.Time

	pending *queue.Queue[core.CharacterState]

	taken   metric.Int64Counter
	dropped metric.Int64Counter
	failed  metric.Int64Counter

	mu      sync.Mutex
	tracked map[client.Ref]struct{}
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a recorder. source may be nil, in which case only tracked
// refs are sampled.
func New(cfg Config, deps *character.Dependencies, source Source, backend storage.Backend, logger *slog.Logger) (*Recorder, error) {
	if cfg.Interval <= 0 {
		return nil, ErrNoInterval
	}
	if cfg.QueueLimit <= 0 {
		cfg.QueueLimit = DefaultQueueLimit
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Recorder{
		cfg:     cfg,
		deps:    deps,
		source:  source,
		backend: backend,
		logger:  logger,
		now:     time.Now,
		pending: queue.NewBounded[core.CharacterState](cfg.QueueLimit),
		tracked: make(map[client.Ref]struct{}),
	}

	m := otel.Meter(instrumentationName)
	var err error
	if r.taken, err = m.Int64Counter("recorder.samples.taken",
		metric.WithDescription("Character snapshots taken")); err != nil {
		return nil, fmt.Errorf("creating taken counter: %w", err)
	}
	if r.dropped, err = m.Int64Counter("recorder.samples.dropped",
		metric.WithDescription("Snapshots dropped because the queue was full")); err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}
	if r.failed, err = m.Int64Counter("recorder.samples.failed",
		metric.WithDescription("Snapshots the backend rejected")); err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}
	return r, nil
}

// Track adds ref to the sampled set.
func (r *Recorder) Track(ref client.Ref) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracked[ref] = struct{}{}
}

// Untrack removes ref. Once nothing is tracked the recorder falls back to
// every loaded character.
func (r *Recorder) Untrack(ref client.Ref) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tracked, ref)
}

// Tracked returns the tracked refs, NPCs first, each kind by index.
func (r *Recorder) Tracked() []client.Ref {
	r.mu.Lock()
	refs := make([]client.Ref, 0, len(r.tracked))
	for ref := range r.tracked {
		refs = append(refs, ref)
	}
	r.mu.Unlock()

	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Kind != refs[j].Kind {
			return refs[i].Kind < refs[j].Kind
		}
		return refs[i].Index < refs[j].Index
	})
	return refs
}

func (r *Recorder) targets() []client.Ref {
	if refs := r.Tracked(); len(refs) > 0 {
		return refs
	}
	if r.source == nil {
		return nil
	}
	return r.source.Refs()
}

// Sample snapshots every target once and queues the results. Unavailable
// characters are skipped. It returns how many snapshots were queued.
func (r *Recorder) Sample(ctx context.Context) int {
	at := r.now()
	n := 0
	for _, c := range character.FromRefs(r.deps, r.targets()) {
		s, ok := c.Snapshot(at)
		if !ok {
			continue
		}
		if dropped := r.pending.Push(s); dropped > 0 {
			r.dropped.Add(ctx, int64(dropped))
		}
		n++
	}
	r.taken.Add(ctx, int64(n))
	return n
}

// Pending reports how many snapshots await the backend.
func (r *Recorder) Pending() int {
	return r.pending.Len()
}

// Dropped reports how many snapshots were discarded for lack of room.
func (r *Recorder) Dropped() int {
	return r.pending.Dropped()
}

// Drain hands every queued snapshot to the backend. Rejected snapshots are
// counted and not retried.
func (r *Recorder) Drain(ctx context.Context) error {
	var errs []error
	for {
		batch := r.pending.Take(r.cfg.BatchSize)
		if len(batch) == 0 {
			break
		}
		for i := range batch {
			if err := r.backend.RecordCharacterState(&batch[i]); err != nil {
				r.failed.Add(ctx, 1)
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Start launches the sampling loop. It stops when ctx is done or Stop is
// called.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return ErrRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.loop(ctx, r.done)

	r.logger.Info("Recorder started", "interval", r.cfg.Interval)
	return nil
}

func (r *Recorder) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sample(ctx)
			if err := r.Drain(ctx); err != nil {
				r.logger.Error("Failed to record character states", "error", err)
			}
		}
	}
}

// Running reports whether the sampling loop is active.
func (r *Recorder) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}

// Stop ends the sampling loop and drains what is left.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done

	r.logger.Info("Recorder stopped")
	return r.Drain(context.Background())
}
