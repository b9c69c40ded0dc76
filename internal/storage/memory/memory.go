// Package memory keeps a session's samples in memory and exports them to a
// JSON file when the session ends.
package memory

import (
	"sync"

	"github.com/jamiegrech/RSBot-API/internal/config"
	"github.com/jamiegrech/RSBot-API/pkg/core"
)

// slotKey identifies a character slot. A slot may be reused by a different
// character over a session; the record keeps the latest name.
type slotKey struct {
	Kind  string
	Index int
}

// CharacterRecord groups a slot with all its sampled states
type CharacterRecord struct {
	Kind   string
	Index  int
	Name   string
	States []core.CharacterState
}

// Backend stores session data in memory and exports to JSON
type Backend struct {
	cfg     config.MemoryConfig
	session *core.Session

	characters   map[slotKey]*CharacterRecord
	interactions []core.Interaction

	idCounter      uint
	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:        cfg,
		characters: make(map[slotKey]*CharacterRecord),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartSession begins recording a new session and assigns its ID.
func (b *Backend) StartSession(s *core.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.idCounter++
	s.ID = b.idCounter
	copied := *s
	b.session = &copied

	b.characters = make(map[slotKey]*CharacterRecord)
	b.interactions = nil
	b.lastExportPath = ""
	return nil
}

// EndSession finalizes and exports the session data
func (b *Backend) EndSession() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return nil
	}
	if err := b.exportJSON(); err != nil {
		return err
	}
	b.session = nil
	return nil
}

// RecordCharacterState appends a sample to its slot's record.
func (b *Backend) RecordCharacterState(s *core.CharacterState) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := slotKey{Kind: s.Kind, Index: s.Index}
	record, ok := b.characters[key]
	if !ok {
		record = &CharacterRecord{Kind: s.Kind, Index: s.Index}
		b.characters[key] = record
	}
	if s.Name != "" {
		record.Name = s.Name
	}
	record.States = append(record.States, *s)
	return nil
}

// RecordInteraction appends an interaction.
func (b *Backend) RecordInteraction(e *core.Interaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.interactions = append(b.interactions, *e)
	return nil
}

// Character returns a copy of the record for a slot.
func (b *Backend) Character(kind string, index int) (CharacterRecord, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	record, ok := b.characters[slotKey{Kind: kind, Index: index}]
	if !ok {
		return CharacterRecord{}, false
	}
	out := *record
	out.States = append([]core.CharacterState(nil), record.States...)
	return out, true
}

// Interactions returns a copy of the recorded interactions.
func (b *Backend) Interactions() []core.Interaction {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.Interaction(nil), b.interactions...)
}

// GetExportedFilePath returns the path of the last export.
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
