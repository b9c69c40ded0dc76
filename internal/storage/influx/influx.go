// Package influxstorage writes character samples to InfluxDB as time
// series. When the server is unreachable at Init, points go to a gzipped
// line-protocol backup file instead.
package influxstorage

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"

	"github.com/jamiegrech/RSBot-API/internal/config"
	"github.com/jamiegrech/RSBot-API/pkg/core"
)

// Measurement names.
const (
	MeasurementState       = "character_state"
	MeasurementInteraction = "interaction"
	MeasurementSession     = "session"
)

// retentionSeconds is the bucket retention used when creating it (90 days).
const retentionSeconds = 60 * 60 * 24 * 90

// ErrNotInitialized is returned when a point is written before Init.
var ErrNotInitialized = errors.New("influxDB client not initialized and backup writer not available")

// Backend implements storage.Backend on InfluxDB.
type Backend struct {
	cfg        config.InfluxConfig
	backupPath string
	log        zerolog.Logger

	mu        sync.Mutex
	client    influxdb2.Client
	writer    influxdb2_api.WriteAPI
	backup    *gzip.Writer
	backupF   *os.File
	session   *core.Session
	idCounter uint
}

// New creates an InfluxDB backend. backupPath receives line protocol when
// the server cannot be reached.
func New(cfg config.InfluxConfig, backupPath string, log zerolog.Logger) *Backend {
	return &Backend{cfg: cfg, backupPath: backupPath, log: log}
}

// Init connects and prepares the bucket, or opens the backup file.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.client = influxdb2.NewClientWithOptions(
		b.cfg.URL(),
		b.cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(2500).
			SetFlushInterval(1000),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	running, err := b.client.Ping(ctx)
	if err != nil || !running {
		b.log.Warn().Err(err).Str("backupPath", b.backupPath).
			Msg("InfluxDB unreachable, writing to backup file")
		b.client.Close()
		b.client = nil
		return b.openBackup()
	}

	if err := b.ensureBucket(ctx); err != nil {
		return err
	}

	b.writer = b.client.WriteAPI(b.cfg.Org, b.cfg.Bucket)
	go func(errorsCh <-chan error) {
		for writeErr := range errorsCh {
			b.log.Error().Err(writeErr).Str("bucket", b.cfg.Bucket).Msg("Error sending data to InfluxDB")
		}
	}(b.writer.Errors())

	b.log.Info().Str("url", b.cfg.URL()).Str("bucket", b.cfg.Bucket).Msg("InfluxDB client initialized")
	return nil
}

func (b *Backend) openBackup() error {
	if b.backupPath == "" {
		return ErrNotInitialized
	}
	file, err := os.OpenFile(b.backupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	b.backupF = file
	b.backup = gzip.NewWriter(file)
	return nil
}

// ensureBucket creates the organization and bucket when missing.
func (b *Backend) ensureBucket(ctx context.Context) error {
	orgs := b.client.OrganizationsAPI()
	org, err := orgs.FindOrganizationByName(ctx, b.cfg.Org)
	if err != nil {
		b.log.Info().Str("org", b.cfg.Org).Msg("Organization not found, creating")
		if org, err = orgs.CreateOrganizationWithName(ctx, b.cfg.Org); err != nil {
			return fmt.Errorf("error creating organization %q: %w", b.cfg.Org, err)
		}
	}

	if _, err := b.client.BucketsAPI().FindBucketByName(ctx, b.cfg.Bucket); err == nil {
		return nil
	}

	b.log.Info().Str("bucket", b.cfg.Bucket).Msg("Bucket not found, creating")
	rule := domain.RetentionRuleTypeExpire
	_, err = b.client.BucketsAPI().CreateBucketWithName(ctx, org, b.cfg.Bucket, domain.RetentionRule{
		Type:         &rule,
		EverySeconds: retentionSeconds,
	})
	if err != nil {
		return fmt.Errorf("error creating bucket %q: %w", b.cfg.Bucket, err)
	}
	return nil
}

// UsingBackup reports whether points are going to the backup file.
func (b *Backend) UsingBackup() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.backup != nil
}

// Close flushes pending points and releases the client or backup file.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.writer != nil {
		b.writer.Flush()
		b.writer = nil
	}
	if b.client != nil {
		b.client.Close()
		b.client = nil
	}
	if b.backup != nil {
		err := b.backup.Close()
		b.backup = nil
		if cerr := b.backupF.Close(); err == nil {
			err = cerr
		}
		return err
	}
	return nil
}

// StartSession assigns a local ID and writes a session marker point.
func (b *Backend) StartSession(s *core.Session) error {
	b.mu.Lock()
	b.idCounter++
	s.ID = b.idCounter
	copied := *s
	b.session = &copied
	b.mu.Unlock()

	p := influxdb2_write.NewPointWithMeasurement(MeasurementSession).
		AddTag("session", s.Name).
		AddTag("tag", s.Tag).
		AddField("event", "start").
		AddField("sampleInterval", int64(s.SampleInterval)).
		SetTime(s.StartTime)
	return b.WritePoint(p)
}

// EndSession writes the end marker and flushes.
func (b *Backend) EndSession() error {
	b.mu.Lock()
	s := b.session
	b.session = nil
	b.mu.Unlock()
	if s == nil {
		return nil
	}

	p := influxdb2_write.NewPointWithMeasurement(MeasurementSession).
		AddTag("session", s.Name).
		AddTag("tag", s.Tag).
		AddField("event", "end").
		SetTime(time.Now())
	if err := b.WritePoint(p); err != nil {
		return err
	}
	return b.flush()
}

// RecordCharacterState implements storage.Backend.
func (b *Backend) RecordCharacterState(s *core.CharacterState) error {
	return b.WritePoint(StatePoint(b.sessionName(), s))
}

// RecordInteraction implements storage.Backend.
func (b *Backend) RecordInteraction(e *core.Interaction) error {
	return b.WritePoint(InteractionPoint(b.sessionName(), e))
}

func (b *Backend) sessionName() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.session == nil {
		return ""
	}
	return b.session.Name
}

// WritePoint writes a point to InfluxDB or the backup file.
func (b *Backend) WritePoint(point *influxdb2_write.Point) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case b.writer != nil:
		b.writer.WritePoint(point)
		return nil
	case b.backup != nil:
		line := strings.TrimSuffix(influxdb2_write.PointToLineProtocol(point, time.Nanosecond), "\n")
		if _, err := b.backup.Write([]byte(line + "\n")); err != nil {
			return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
		}
		return nil
	default:
		return ErrNotInitialized
	}
}

func (b *Backend) flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.writer != nil {
		b.writer.Flush()
	}
	if b.backup != nil {
		return b.backup.Flush()
	}
	return nil
}

// StatePoint builds the point for one sample. Slots are tags so series stay
// per character; everything observed is a field.
func StatePoint(session string, s *core.CharacterState) *influxdb2_write.Point {
	p := influxdb2_write.NewPointWithMeasurement(MeasurementState).
		AddTag("kind", s.Kind).
		AddTag("index", strconv.Itoa(s.Index)).
		AddTag("name", s.Name).
		AddField("loopCycle", int64(s.LoopCycle)).
		AddField("x", int64(s.Location.X)).
		AddField("y", int64(s.Location.Y)).
		AddField("plane", int64(s.Location.Plane)).
		AddField("orientation", int64(s.Orientation)).
		AddField("animation", int64(s.Animation)).
		AddField("hpRatio", int64(s.HPRatio)).
		AddField("hpPercent", int64(s.HPPercent)).
		AddField("inCombat", s.InCombat).
		AddField("moving", s.Moving).
		AddField("idle", s.Idle).
		AddField("onScreen", s.OnScreen).
		AddField("interacting", int64(s.Interacting)).
		SetTime(s.Time)
	if session != "" {
		p.AddTag("session", session)
	}
	return p
}

// InteractionPoint builds the point for one interaction.
func InteractionPoint(session string, e *core.Interaction) *influxdb2_write.Point {
	p := influxdb2_write.NewPointWithMeasurement(MeasurementInteraction).
		AddTag("kind", e.Kind).
		AddTag("index", strconv.Itoa(e.Index)).
		AddTag("action", e.Action).
		AddField("loopCycle", int64(e.LoopCycle)).
		AddField("success", e.Success).
		AddField("left", e.Left).
		SetTime(e.Time)
	if e.Verb != "" {
		p.AddField("verb", e.Verb)
	}
	if e.Option != "" {
		p.AddField("option", e.Option)
	}
	if session != "" {
		p.AddTag("session", session)
	}
	return p
}
