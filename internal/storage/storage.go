// Package storage defines where recorded character states and interactions
// go. Each backend lives in its own subpackage; NewBackend picks one from
// config.
package storage

import (
	"errors"

	"github.com/jamiegrech/RSBot-API/pkg/core"
)

// ErrNoSession is returned when a record arrives before StartSession.
var ErrNoSession = errors.New("no session started")

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management (assigns ID to the passed pointer)
	StartSession(s *core.Session) error
	EndSession() error

	// Recording
	RecordCharacterState(s *core.CharacterState) error
	RecordInteraction(e *core.Interaction) error
}

// Exporter is an optional interface for backends that write a file when a
// session ends.
type Exporter interface {
	GetExportedFilePath() string
}

// Flusher is an optional interface for backends that buffer writes.
type Flusher interface {
	Flush() error
}
