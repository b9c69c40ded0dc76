// Package gormstorage implements the storage.Backend interface on any gorm
// dialect, with internal queues and a background DB writer goroutine.
// The sqlite and postgres backends embed it.
package gormstorage

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/jamiegrech/RSBot-API/internal/database"
	"github.com/jamiegrech/RSBot-API/internal/model"
	"github.com/jamiegrech/RSBot-API/internal/model/convert"
	"github.com/jamiegrech/RSBot-API/internal/queue"
	"github.com/jamiegrech/RSBot-API/pkg/core"
)

// DefaultFlushInterval is how often the writer drains its queues.
const DefaultFlushInterval = 2 * time.Second

// Dependencies holds all dependencies for the GORM storage backend.
// A nil DB runs the backend in queue-only mode.
type Dependencies struct {
	DB            *gorm.DB
	Log           zerolog.Logger
	FlushInterval time.Duration
}

// queues holds the write queues for batch DB insertion.
type queues struct {
	States       *queue.Queue[model.CharacterState]
	Interactions *queue.Queue[model.Interaction]
}

func newQueues() *queues {
	return &queues{
		States:       queue.New[model.CharacterState](),
		Interactions: queue.New[model.Interaction](),
	}
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps      Dependencies
	queues    *queues
	sessionID atomic.Uint64
	stopChan  chan struct{}
	writerWg  sync.WaitGroup
	writeMu   sync.Mutex
	closeOnce sync.Once
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = DefaultFlushInterval
	}
	return &Backend{deps: deps}
}

// DB returns the underlying connection, nil in queue-only mode.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init creates internal queues, runs schema migration, and starts the DB
// writer goroutine.
func (b *Backend) Init() error {
	b.queues = newQueues()
	b.stopChan = make(chan struct{})

	if b.deps.DB == nil {
		return nil
	}
	if err := database.Migrate(b.deps.DB, b.deps.Log); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}

	b.writerWg.Add(1)
	go b.writer()
	return nil
}

// Close stops the DB writer goroutine and writes whatever is still queued.
func (b *Backend) Close() error {
	var err error
	b.closeOnce.Do(func() {
		if b.stopChan != nil {
			close(b.stopChan)
		}
		b.writerWg.Wait()
		err = b.Flush()
	})
	return err
}

// SessionID returns the active session, 0 when none.
func (b *Backend) SessionID() uint {
	return uint(b.sessionID.Load())
}

// StartSession inserts the session row synchronously so its ID can stamp
// every queued record.
func (b *Backend) StartSession(s *core.Session) error {
	if b.deps.DB == nil {
		return nil
	}

	row := convert.CoreToSession(*s)
	if err := b.deps.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert new session: %w", err)
	}
	s.ID = row.ID
	b.sessionID.Store(uint64(row.ID))
	b.deps.Log.Info().Uint("session", row.ID).Str("name", row.Name).Msg("Session started")
	return nil
}

// EndSession flushes the queues and stamps the session end time.
func (b *Backend) EndSession() error {
	if b.deps.DB == nil {
		return nil
	}
	id := b.SessionID()
	if id == 0 {
		return nil
	}

	if err := b.Flush(); err != nil {
		return err
	}
	if err := b.deps.DB.Model(&model.Session{}).Where("id = ?", id).
		Update("end_time", convert.EndTime(time.Now())).Error; err != nil {
		return fmt.Errorf("failed to end session %d: %w", id, err)
	}
	b.sessionID.Store(0)
	return nil
}

// RecordCharacterState converts and queues a character state.
func (b *Backend) RecordCharacterState(s *core.CharacterState) error {
	row, err := convert.CoreToCharacterState(*s)
	if err != nil {
		return err
	}
	b.queues.States.Push(row)
	return nil
}

// RecordInteraction converts and queues an interaction.
func (b *Backend) RecordInteraction(e *core.Interaction) error {
	b.queues.Interactions.Push(convert.CoreToInteraction(*e))
	return nil
}

// QueuedStates reports how many character states await the writer.
func (b *Backend) QueuedStates() int {
	return b.queues.States.Len()
}

// QueuedInteractions reports how many interactions await the writer.
func (b *Backend) QueuedInteractions() int {
	return b.queues.Interactions.Len()
}

// Flush writes every queued record now. Records stay queued while no
// session is active.
func (b *Backend) Flush() error {
	if b.deps.DB == nil || b.queues == nil {
		return nil
	}
	sessionID := b.SessionID()
	if sessionID == 0 {
		return nil
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	if err := writeQueue(b.deps.DB, b.queues.States, func(items []model.CharacterState) {
		for i := range items {
			items[i].SessionID = sessionID
		}
	}); err != nil {
		return fmt.Errorf("error creating character states: %w", err)
	}
	if err := writeQueue(b.deps.DB, b.queues.Interactions, func(items []model.Interaction) {
		for i := range items {
			items[i].SessionID = sessionID
		}
	}); err != nil {
		return fmt.Errorf("error creating interactions: %w", err)
	}
	return nil
}

// writeQueue writes all items from a queue to the database in a transaction.
// On failure the items go back to the front of the queue for the next cycle.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], prepare func([]T)) error {
	if q.Empty() {
		return nil
	}

	items := q.GetAndEmpty()
	if prepare != nil {
		prepare(items)
	}

	tx := db.Begin()
	if err := tx.Create(&items).Error; err != nil {
		tx.Rollback()
		q.PushFront(items...)
		return err
	}
	if err := tx.Commit().Error; err != nil {
		q.PushFront(items...)
		return err
	}
	return nil
}

// writer periodically drains queues into the DB.
func (b *Backend) writer() {
	defer b.writerWg.Done()

	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.Flush(); err != nil {
				b.deps.Log.Error().Err(err).Msg(":DB:WRITER:")
			}
		}
	}
}
