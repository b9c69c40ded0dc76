// Package handlers exposes character queries, interactions and session
// control as dispatcher commands. Every command addressing a character
// takes [kind, index, ...] where kind is npc or player.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jamiegrech/RSBot-API/internal/character"
	"github.com/jamiegrech/RSBot-API/internal/dispatcher"
	"github.com/jamiegrech/RSBot-API/internal/recorder"
	"github.com/jamiegrech/RSBot-API/internal/storage"
	"github.com/jamiegrech/RSBot-API/internal/util"
	"github.com/jamiegrech/RSBot-API/pkg/client"
	"github.com/jamiegrech/RSBot-API/pkg/core"
)

var (
	ErrSessionActive = errors.New("session already active")
	ErrNoSession     = storage.ErrNoSession
)

// Uploader sends an exported session file to a recording server.
type Uploader interface {
	Upload(filePath string, meta core.UploadMetadata) error
}

// Dependencies holds all dependencies needed by handlers. Backend,
// Recorder and Uploader are optional.
type Dependencies struct {
	Characters *character.Dependencies
	Backend    storage.Backend
	Recorder   *recorder.Recorder
	Uploader   Uploader
	Logger     *slog.Logger
	// Renderer receives debug overlays; :CHARACTER:DRAW: fails without one.
	Renderer client.Renderer
	// DefaultTag labels sessions started without a tag.
	DefaultTag     string
	SampleInterval time.Duration
}

// LocationResult answers :CHARACTER:LOCATION:.
type LocationResult struct {
	Tile   core.Tile         `json:"tile"`
	Region core.RegionOffset `json:"region"`
}

// HealthResult answers :CHARACTER:HEALTH:.
type HealthResult struct {
	HPRatio   int  `json:"hpRatio"`
	HPPercent int  `json:"hpPercent"`
	InCombat  bool `json:"inCombat"`
}

// SessionResult answers :SESSION:START: and :SESSION:END:.
type SessionResult struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	ExportPath string `json:"exportPath,omitempty"`
	Uploaded   bool   `json:"uploaded,omitempty"`
}

// RecordBufferSize bounds the :CHARACTER:RECORD: queue; further samples are
// dropped until it drains.
const RecordBufferSize = 1000

// Service provides handler methods for character commands
type Service struct {
	deps Dependencies
	now  func() time.Time

	mu      sync.Mutex
	session *core.Session
}

// NewService creates a new handler service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{deps: deps, now: time.Now}
}

// RegisterHandlers registers every command with the dispatcher.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher) {
	// Queries - sync, the caller wants the answer
	d.Register(":CHARACTER:LOCATION:", s.handleLocation, dispatcher.Logged())
	d.Register(":CHARACTER:HEALTH:", s.handleHealth, dispatcher.Logged())
	d.Register(":CHARACTER:STATE:", s.handleState, dispatcher.Logged())
	d.Register(":CHARACTER:VALIDATE:", s.handleValidate, dispatcher.Logged())
	d.Register(":CHARACTER:DRAW:", s.handleDraw)

	// Interactions - sync, they report whether the action landed
	d.Register(":CHARACTER:HOVER:", s.handleHover, dispatcher.Logged())
	d.Register(":CHARACTER:CLICK:", s.handleClick, dispatcher.Logged())
	d.Register(":CHARACTER:INTERACT:", s.handleInteract, dispatcher.Logged())

	// Script-driven samples - buffered, the caller does not wait for storage
	d.Register(":CHARACTER:RECORD:", s.handleRecord, dispatcher.Buffered(RecordBufferSize), dispatcher.Logged())

	// Recorder targets
	d.Register(":CHARACTER:TRACK:", s.handleTrack, dispatcher.Logged())
	d.Register(":CHARACTER:UNTRACK:", s.handleUntrack, dispatcher.Logged())

	// Session lifecycle
	d.Register(":SESSION:START:", s.handleSessionStart, dispatcher.Logged())
	d.Register(":SESSION:END:", s.handleSessionEnd, dispatcher.Logged())
}

// Session returns a copy of the active session.
func (s *Service) Session() (core.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return core.Session{}, false
	}
	return *s.session, true
}

func (s *Service) character(e dispatcher.Event) (*character.Character, []string, error) {
	ref, rest, err := util.RefArgs(e.Args)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", e.Command, err)
	}
	return character.New(s.deps.Characters, ref), rest, nil
}

func unavailable(c *character.Character) error {
	return fmt.Errorf("%s: %w", c, character.ErrActorUnavailable)
}

func (s *Service) handleLocation(e dispatcher.Event) (any, error) {
	c, _, err := s.character(e)
	if err != nil {
		return nil, err
	}
	region, ok := c.RegionOffset()
	if !ok {
		return nil, unavailable(c)
	}
	tile, ok := c.Location()
	if !ok {
		return nil, unavailable(c)
	}
	return LocationResult{Tile: tile, Region: region}, nil
}

func (s *Service) handleHealth(e dispatcher.Event) (any, error) {
	c, _, err := s.character(e)
	if err != nil {
		return nil, err
	}
	if _, ok := c.Get(); !ok {
		return nil, unavailable(c)
	}
	return HealthResult{
		HPRatio:   c.HPRatio(),
		HPPercent: c.HPPercent(),
		InCombat:  c.InCombat(),
	}, nil
}

// handleState snapshots the character and records it when a session is
// active.
func (s *Service) handleState(e dispatcher.Event) (any, error) {
	c, _, err := s.character(e)
	if err != nil {
		return nil, err
	}
	state, ok := c.Snapshot(e.Timestamp)
	if !ok {
		return nil, unavailable(c)
	}

	if _, active := s.Session(); active && s.deps.Backend != nil {
		if err := s.deps.Backend.RecordCharacterState(&state); err != nil {
			return nil, fmt.Errorf("record character state: %w", err)
		}
	}
	return state, nil
}

// handleRecord samples the character into the active session. It runs off
// the dispatcher queue, so the live state read is the one at drain time.
func (s *Service) handleRecord(e dispatcher.Event) (any, error) {
	c, _, err := s.character(e)
	if err != nil {
		return nil, err
	}
	if _, active := s.Session(); !active || s.deps.Backend == nil {
		return nil, fmt.Errorf("%s: %w", e.Command, ErrNoSession)
	}
	state, ok := c.Snapshot(e.Timestamp)
	if !ok {
		return nil, unavailable(c)
	}
	if err := s.deps.Backend.RecordCharacterState(&state); err != nil {
		s.deps.Logger.Error("Failed to record character state", "command", e.Command, "character", c.String(), "error", err)
		return nil, fmt.Errorf("record character state: %w", err)
	}
	return nil, nil
}

func (s *Service) handleValidate(e dispatcher.Event) (any, error) {
	c, _, err := s.character(e)
	if err != nil {
		return nil, err
	}
	return c.Validate(), nil
}

// handleDraw paints the debug marker and returns the anchor it was drawn at.
func (s *Service) handleDraw(e dispatcher.Event) (any, error) {
	c, _, err := s.character(e)
	if err != nil {
		return nil, err
	}
	if s.deps.Renderer == nil {
		return nil, fmt.Errorf("%s: no renderer attached", e.Command)
	}
	pt, ok := c.CentralPoint()
	if !ok {
		return nil, fmt.Errorf("%s: %w", c, character.ErrOffScreen)
	}
	c.Draw(s.deps.Renderer)
	return pt, nil
}

func (s *Service) handleHover(e dispatcher.Event) (any, error) {
	c, _, err := s.character(e)
	if err != nil {
		return nil, err
	}
	ok := c.Hover()
	s.recordInteraction(e, c, core.Interaction{Action: core.ActionHover, Success: ok})
	return ok, nil
}

// handleClick takes an optional button argument, left by default.
func (s *Service) handleClick(e dispatcher.Event) (any, error) {
	c, rest, err := s.character(e)
	if err != nil {
		return nil, err
	}
	button := ""
	if len(rest) > 0 {
		button = rest[0]
	}
	left, err := util.ParseButton(button)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Command, err)
	}

	ok := c.Click(left)
	s.recordInteraction(e, c, core.Interaction{Action: core.ActionClick, Left: left, Success: ok})
	return ok, nil
}

// handleInteract takes [kind, index, action, option?].
func (s *Service) handleInteract(e dispatcher.Event) (any, error) {
	c, rest, err := s.character(e)
	if err != nil {
		return nil, err
	}
	if len(rest) == 0 {
		return nil, fmt.Errorf("%s: %w: want an action", e.Command, util.ErrMissingArgs)
	}

	action := util.TrimQuotes(rest[0])
	var ok bool
	var option string
	if len(rest) > 1 {
		option = util.TrimQuotes(rest[1])
		ok = c.InteractOption(action, option)
	} else {
		ok = c.Interact(action)
	}
	s.recordInteraction(e, c, core.Interaction{Action: core.ActionInteract, Verb: action, Option: option, Success: ok})
	return ok, nil
}

// recordInteraction stores e against the active session. Storage failures
// are logged; the interaction itself already happened.
func (s *Service) recordInteraction(e dispatcher.Event, c *character.Character, rec core.Interaction) {
	if _, active := s.Session(); !active || s.deps.Backend == nil {
		return
	}

	ref := c.Ref()
	rec.Kind = ref.Kind.String()
	rec.Index = ref.Index
	rec.Time = e.Timestamp
	rec.LoopCycle = s.deps.Characters.Client.LoopCycle()

	if err := s.deps.Backend.RecordInteraction(&rec); err != nil {
		s.deps.Logger.Error("Failed to record interaction", "command", e.Command, "error", err)
	}
}

func (s *Service) handleTrack(e dispatcher.Event) (any, error) {
	ref, _, err := util.RefArgs(e.Args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Command, err)
	}
	if s.deps.Recorder == nil {
		return nil, fmt.Errorf("%s: recorder disabled", e.Command)
	}
	s.deps.Recorder.Track(ref)
	return refStrings(s.deps.Recorder.Tracked()), nil
}

func (s *Service) handleUntrack(e dispatcher.Event) (any, error) {
	ref, _, err := util.RefArgs(e.Args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Command, err)
	}
	if s.deps.Recorder == nil {
		return nil, fmt.Errorf("%s: recorder disabled", e.Command)
	}
	s.deps.Recorder.Untrack(ref)
	return refStrings(s.deps.Recorder.Tracked()), nil
}

func refStrings(refs []client.Ref) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		out = append(out, fmt.Sprintf("%s %d", ref.Kind, ref.Index))
	}
	return out
}

// handleSessionStart takes [name?, tag?].
func (s *Service) handleSessionStart(e dispatcher.Event) (any, error) {
	name := "session"
	tag := s.deps.DefaultTag
	if len(e.Args) > 0 {
		name = util.TrimQuotes(e.Args[0])
	}
	if len(e.Args) > 1 {
		tag = util.TrimQuotes(e.Args[1])
	}

	session, err := s.StartSession(name, tag, e.Timestamp)
	if err != nil {
		return nil, err
	}
	return SessionResult{ID: session.ID, Name: session.Name}, nil
}

func (s *Service) handleSessionEnd(dispatcher.Event) (any, error) {
	return s.EndSession()
}

// StartSession opens a session on the backend and starts the recorder.
func (s *Service) StartSession(name, tag string, at time.Time) (core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		return core.Session{}, fmt.Errorf("%w: %q", ErrSessionActive, s.session.Name)
	}
	if at.IsZero() {
		at = s.now()
	}

	session := &core.Session{
		Name:           name,
		Tag:            tag,
		StartTime:      at,
		SampleInterval: uint(s.deps.SampleInterval.Milliseconds()),
	}
	if s.deps.Backend != nil {
		if err := s.deps.Backend.StartSession(session); err != nil {
			return core.Session{}, fmt.Errorf("start session: %w", err)
		}
	}
	if s.deps.Recorder != nil {
		if err := s.deps.Recorder.Start(context.Background()); err != nil && !errors.Is(err, recorder.ErrRunning) {
			return core.Session{}, fmt.Errorf("start recorder: %w", err)
		}
	}

	s.session = session
	s.deps.Logger.Info("Session started", "id", session.ID, "name", name, "tag", tag)
	return *session, nil
}

// EndSession stops the recorder, drains it and closes the session on the
// backend.
func (s *Service) EndSession() (SessionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return SessionResult{}, ErrNoSession
	}
	session := s.session
	s.session = nil

	var errs []error
	if s.deps.Recorder != nil {
		if err := s.deps.Recorder.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop recorder: %w", err))
		}
	}

	result := SessionResult{ID: session.ID, Name: session.Name}
	if s.deps.Backend != nil {
		if err := s.deps.Backend.EndSession(); err != nil {
			errs = append(errs, fmt.Errorf("end session: %w", err))
		} else if exp, ok := s.deps.Backend.(storage.Exporter); ok {
			result.ExportPath = exp.GetExportedFilePath()
		}
	}

	if result.ExportPath != "" && s.deps.Uploader != nil {
		meta := core.UploadMetadata{
			SessionName: session.Name,
			Tag:         session.Tag,
			Duration:    s.now().Sub(session.StartTime).Seconds(),
		}
		if err := s.deps.Uploader.Upload(result.ExportPath, meta); err != nil {
			s.deps.Logger.Error("Failed to upload session", "path", result.ExportPath, "error", err)
		} else {
			result.Uploaded = true
		}
	}

	s.deps.Logger.Info("Session ended", "id", session.ID, "name", session.Name, "export", result.ExportPath)
	return result, errors.Join(errs...)
}
