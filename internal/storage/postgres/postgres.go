// Package postgres implements the storage.Backend interface on PostgreSQL by
// wrapping the GORM backend around a pooled postgres connection.
package postgres

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/jamiegrech/RSBot-API/internal/database"
	gormstorage "github.com/jamiegrech/RSBot-API/internal/storage/gorm"
)

// Dependencies holds all dependencies for the Postgres storage backend.
// When DB is nil, Init connects using the db.* config keys.
type Dependencies struct {
	DB            *gorm.DB
	Log           zerolog.Logger
	FlushInterval time.Duration
}

// Backend is the GORM backend bound to a Postgres connection.
type Backend struct {
	*gormstorage.Backend
	deps Dependencies
}

// New creates a new Postgres storage backend.
func New(deps Dependencies) *Backend {
	return &Backend{deps: deps}
}

// Init connects if needed, then initializes the embedded GORM backend.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		db, err := database.GetPostgresDBStandalone()
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		b.deps.DB = db
		b.deps.Log.Info().Msg("Connected to database")
	}

	b.Backend = gormstorage.New(gormstorage.Dependencies{
		DB:            b.deps.DB,
		Log:           b.deps.Log,
		FlushInterval: b.deps.FlushInterval,
	})
	return b.Backend.Init()
}

// Close stops the writer and releases the connection pool.
func (b *Backend) Close() error {
	if b.Backend == nil {
		return nil
	}
	if err := b.Backend.Close(); err != nil {
		return err
	}
	sqlDB, err := b.deps.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	return sqlDB.Close()
}
