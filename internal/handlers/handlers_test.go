package handlers

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamiegrech/RSBot-API/internal/character"
	"github.com/jamiegrech/RSBot-API/internal/config"
	"github.com/jamiegrech/RSBot-API/internal/dispatcher"
	"github.com/jamiegrech/RSBot-API/internal/logging"
	"github.com/jamiegrech/RSBot-API/internal/recorder"
	"github.com/jamiegrech/RSBot-API/internal/simclient"
	"github.com/jamiegrech/RSBot-API/internal/storage"
	"github.com/jamiegrech/RSBot-API/internal/storage/memory"
	"github.com/jamiegrech/RSBot-API/internal/util"
	"github.com/jamiegrech/RSBot-API/pkg/client"
	"github.com/jamiegrech/RSBot-API/pkg/core"
)

// mockBackend implements storage.Backend for testing
type mockBackend struct {
	started      *core.Session
	ended        bool
	states       []core.CharacterState
	interactions []core.Interaction
	startErr     error
	endErr       error
}

func (b *mockBackend) Init() error  { return nil }
func (b *mockBackend) Close() error { return nil }
func (b *mockBackend) StartSession(s *core.Session) error {
	if b.startErr != nil {
		return b.startErr
	}
	s.ID = 42
	b.started = s
	return nil
}
func (b *mockBackend) EndSession() error {
	b.ended = true
	return b.endErr
}
func (b *mockBackend) RecordCharacterState(s *core.CharacterState) error {
	b.states = append(b.states, *s)
	return nil
}
func (b *mockBackend) RecordInteraction(e *core.Interaction) error {
	b.interactions = append(b.interactions, *e)
	return nil
}

var _ storage.Backend = (*mockBackend)(nil)

// exportingBackend adds a fixed export path to mockBackend.
type exportingBackend struct {
	*mockBackend
	path string
}

func (b *exportingBackend) GetExportedFilePath() string { return b.path }

type mockUploader struct {
	paths []string
	metas []core.UploadMetadata
	err   error
}

func (u *mockUploader) Upload(path string, meta core.UploadMetadata) error {
	u.paths = append(u.paths, path)
	u.metas = append(u.metas, meta)
	return u.err
}

var eventTime = time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)

type fixture struct {
	world   *simclient.World
	goblin  *simclient.Actor
	backend *mockBackend
	service *Service
	d       *dispatcher.Dispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	w := simclient.NewWorld(3200, 3264)
	goblin := w.Spawn(client.NPCRef(1), simclient.Spec{
		Name:   "Goblin",
		Level:  2,
		X:      simclient.TileCenter(1),
		Y:      simclient.TileCenter(1),
		Height: 40,
	})
	w.Menu().SetEntries(simclient.MenuEntry{Action: "Attack", Option: "Goblin"})

	backend := &mockBackend{}
	svc := NewService(Dependencies{
		Characters:     &character.Dependencies{Client: w, Projector: w, Pointer: w.Mouse(), Menu: w.Menu()},
		Backend:        backend,
		Renderer:       &simclient.Canvas{},
		DefaultTag:     "Demo",
		SampleInterval: 600 * time.Millisecond,
	})

	d, err := dispatcher.New(logging.NewDispatcherLogger(zerolog.Nop()))
	require.NoError(t, err)
	svc.RegisterHandlers(d)
	t.Cleanup(d.Close)

	return &fixture{world: w, goblin: goblin, backend: backend, service: svc, d: d}
}

func (f *fixture) dispatch(command string, args ...string) (any, error) {
	return f.d.Dispatch(dispatcher.Event{Command: command, Args: args, Timestamp: eventTime})
}

func TestRegisterHandlers(t *testing.T) {
	f := newFixture(t)
	for _, cmd := range []string{
		":CHARACTER:LOCATION:", ":CHARACTER:HEALTH:", ":CHARACTER:STATE:", ":CHARACTER:VALIDATE:", ":CHARACTER:DRAW:",
		":CHARACTER:HOVER:", ":CHARACTER:CLICK:", ":CHARACTER:INTERACT:",
		":CHARACTER:RECORD:", ":CHARACTER:TRACK:", ":CHARACTER:UNTRACK:", ":SESSION:START:", ":SESSION:END:",
	} {
		assert.True(t, f.d.HasHandler(cmd), cmd)
	}
}

func TestLocation(t *testing.T) {
	f := newFixture(t)

	res, err := f.dispatch(":CHARACTER:LOCATION:", "npc", "1")
	require.NoError(t, err)
	assert.Equal(t, LocationResult{
		Tile:   core.Tile{X: 3201, Y: 3265},
		Region: core.RegionOffset{X: 1, Y: 1},
	}, res)
}

func TestLocation_Unavailable(t *testing.T) {
	f := newFixture(t)

	_, err := f.dispatch(":CHARACTER:LOCATION:", "npc", "9")
	assert.ErrorIs(t, err, character.ErrActorUnavailable)
}

func TestLocation_BadArgs(t *testing.T) {
	f := newFixture(t)

	_, err := f.dispatch(":CHARACTER:LOCATION:", "npc")
	assert.ErrorIs(t, err, util.ErrMissingArgs)

	_, err = f.dispatch(":CHARACTER:LOCATION:", "object", "1")
	assert.ErrorIs(t, err, util.ErrInvalidRef)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	res, err := f.dispatch(":CHARACTER:HEALTH:", "npc", "1")
	require.NoError(t, err)
	assert.Equal(t, HealthResult{HPRatio: 255, HPPercent: 100}, res)

	f.goblin.Hit(128, 0)
	res, err = f.dispatch(":CHARACTER:HEALTH:", "npc", "1")
	require.NoError(t, err)
	assert.Equal(t, HealthResult{HPRatio: 128, HPPercent: 51, InCombat: true}, res)

	_, err = f.dispatch(":CHARACTER:HEALTH:", "player", "0")
	assert.ErrorIs(t, err, character.ErrActorUnavailable)
}

func TestState_NotRecordedWithoutSession(t *testing.T) {
	f := newFixture(t)

	res, err := f.dispatch(":CHARACTER:STATE:", "npc", "1")
	require.NoError(t, err)
	state := res.(core.CharacterState)
	assert.Equal(t, "Goblin", state.Name)
	assert.Equal(t, eventTime, state.Time)
	assert.Empty(t, f.backend.states)
}

func TestState_RecordedInSession(t *testing.T) {
	f := newFixture(t)
	_, err := f.dispatch(":SESSION:START:", "goblins")
	require.NoError(t, err)

	_, err = f.dispatch(":CHARACTER:STATE:", "npc", "1")
	require.NoError(t, err)
	require.Len(t, f.backend.states, 1)
	assert.Equal(t, "npc", f.backend.states[0].Kind)
}

func TestValidate(t *testing.T) {
	f := newFixture(t)

	res, err := f.dispatch(":CHARACTER:VALIDATE:", "npc", "1")
	require.NoError(t, err)
	assert.Equal(t, true, res)

	res, err = f.dispatch(":CHARACTER:VALIDATE:", "npc", "2")
	require.NoError(t, err)
	assert.Equal(t, false, res)
}

func TestDraw(t *testing.T) {
	f := newFixture(t)
	canvas := f.service.deps.Renderer.(*simclient.Canvas)

	res, err := f.dispatch(":CHARACTER:DRAW:", "npc", "1")
	require.NoError(t, err)
	pt := res.(core.Point)

	rects := canvas.Rects()
	require.Len(t, rects, 1)
	assert.Equal(t, simclient.Rect{X: pt.X - 3, Y: pt.Y - 3, W: 6, H: 6, RGBA: character.MarkerColor}, rects[0])

	_, err = f.dispatch(":CHARACTER:DRAW:", "npc", "3")
	assert.ErrorIs(t, err, character.ErrOffScreen)
	assert.Len(t, canvas.Rects(), 1)
}

func TestHover_RecordsInteraction(t *testing.T) {
	f := newFixture(t)
	f.world.SetLoopCycle(77)
	_, err := f.dispatch(":SESSION:START:")
	require.NoError(t, err)

	res, err := f.dispatch(":CHARACTER:HOVER:", "npc", "1")
	require.NoError(t, err)
	assert.Equal(t, true, res)

	require.Len(t, f.backend.interactions, 1)
	got := f.backend.interactions[0]
	assert.Equal(t, core.Interaction{
		Kind: "npc", Index: 1, Time: eventTime, LoopCycle: 77, Action: core.ActionHover, Success: true,
	}, got)
}

func TestClick_Buttons(t *testing.T) {
	f := newFixture(t)

	res, err := f.dispatch(":CHARACTER:CLICK:", "npc", "1")
	require.NoError(t, err)
	assert.Equal(t, true, res)

	res, err = f.dispatch(":CHARACTER:CLICK:", "npc", "1", "right")
	require.NoError(t, err)
	assert.Equal(t, true, res)

	clicks := f.world.Mouse().Clicks()
	require.Len(t, clicks, 2)
	assert.True(t, clicks[0].Left)
	assert.False(t, clicks[1].Left)

	_, err = f.dispatch(":CHARACTER:CLICK:", "npc", "1", "middle")
	assert.Error(t, err)
}

func TestInteract(t *testing.T) {
	f := newFixture(t)
	_, err := f.dispatch(":SESSION:START:")
	require.NoError(t, err)

	res, err := f.dispatch(":CHARACTER:INTERACT:", "npc", "1", "Attack", "Goblin")
	require.NoError(t, err)
	assert.Equal(t, true, res)

	res, err = f.dispatch(":CHARACTER:INTERACT:", "npc", "1", "Talk-to")
	require.NoError(t, err)
	assert.Equal(t, false, res)

	_, err = f.dispatch(":CHARACTER:INTERACT:", "npc", "1")
	assert.ErrorIs(t, err, util.ErrMissingArgs)

	require.Len(t, f.backend.interactions, 2)
	assert.Equal(t, "Attack", f.backend.interactions[0].Verb)
	assert.Equal(t, "Goblin", f.backend.interactions[0].Option)
	assert.True(t, f.backend.interactions[0].Success)
	assert.False(t, f.backend.interactions[1].Success)
}

func TestInteract_Unavailable(t *testing.T) {
	f := newFixture(t)

	res, err := f.dispatch(":CHARACTER:INTERACT:", "npc", "5", "Attack")
	require.NoError(t, err)
	assert.Equal(t, false, res)
	assert.Zero(t, f.world.Mouse().Moves())
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t)

	res, err := f.dispatch(":SESSION:START:", `"Lumbridge goblins"`)
	require.NoError(t, err)
	assert.Equal(t, SessionResult{ID: 42, Name: "Lumbridge goblins"}, res)
	assert.Equal(t, "Demo", f.backend.started.Tag)
	assert.Equal(t, uint(600), f.backend.started.SampleInterval)
	assert.Equal(t, eventTime, f.backend.started.StartTime)

	_, err = f.dispatch(":SESSION:START:", "again")
	assert.ErrorIs(t, err, ErrSessionActive)

	res, err = f.dispatch(":SESSION:END:")
	require.NoError(t, err)
	assert.Equal(t, SessionResult{ID: 42, Name: "Lumbridge goblins"}, res)
	assert.True(t, f.backend.ended)

	_, ok := f.service.Session()
	assert.False(t, ok)

	_, err = f.dispatch(":SESSION:END:")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSessionEnd_Uploads(t *testing.T) {
	backend := &exportingBackend{mockBackend: &mockBackend{}, path: "/tmp/goblins.json.gz"}
	uploader := &mockUploader{}
	svc := NewService(Dependencies{Backend: backend, Uploader: uploader, DefaultTag: "Demo"})
	svc.now = func() time.Time { return eventTime.Add(90 * time.Second) }

	_, err := svc.StartSession("goblins", "", eventTime)
	require.NoError(t, err)

	res, err := svc.EndSession()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/goblins.json.gz", res.ExportPath)
	assert.True(t, res.Uploaded)
	assert.Equal(t, []string{"/tmp/goblins.json.gz"}, uploader.paths)
	assert.Equal(t, core.UploadMetadata{SessionName: "goblins", Duration: 90}, uploader.metas[0])
}

func TestSessionEnd_UploadFailureIsLogged(t *testing.T) {
	backend := &exportingBackend{mockBackend: &mockBackend{}, path: "/tmp/x.json"}
	uploader := &mockUploader{err: errors.New("403")}
	svc := NewService(Dependencies{Backend: backend, Uploader: uploader})

	_, err := svc.StartSession("x", "", eventTime)
	require.NoError(t, err)

	res, err := svc.EndSession()
	require.NoError(t, err)
	assert.False(t, res.Uploaded)
	assert.Len(t, uploader.paths, 1)
}

func TestSessionEnd_FailedExportIsNotUploaded(t *testing.T) {
	backend := &exportingBackend{
		mockBackend: &mockBackend{endErr: errors.New("disk full")},
		path:        "/tmp/previous_20260101_000000.json",
	}
	uploader := &mockUploader{}
	svc := NewService(Dependencies{Backend: backend, Uploader: uploader})

	_, err := svc.StartSession("second", "", eventTime)
	require.NoError(t, err)

	res, err := svc.EndSession()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, "second", res.Name)
	assert.Empty(t, res.ExportPath)
	assert.False(t, res.Uploaded)
	assert.Empty(t, uploader.paths)
}

func TestSessionStart_BackendError(t *testing.T) {
	f := newFixture(t)
	f.backend.startErr = errors.New("down")

	_, err := f.dispatch(":SESSION:START:", "x", "y")
	require.Error(t, err)
	_, ok := f.service.Session()
	assert.False(t, ok)
}

func TestRecord_QueuedIntoSession(t *testing.T) {
	f := newFixture(t)
	_, err := f.dispatch(":SESSION:START:", "goblins")
	require.NoError(t, err)

	res, err := f.dispatch(":CHARACTER:RECORD:", "npc", "1")
	require.NoError(t, err)
	assert.Equal(t, "queued", res)
	_, err = f.dispatch(":CHARACTER:RECORD:", "npc", "9")
	require.NoError(t, err, "an unavailable actor fails on the queue, not at the caller")

	// Close drains the queue
	f.d.Close()

	require.Len(t, f.backend.states, 1)
	assert.Equal(t, "Goblin", f.backend.states[0].Name)
	assert.Equal(t, eventTime, f.backend.states[0].Time)
}

func TestRecord_WithoutSessionStoresNothing(t *testing.T) {
	f := newFixture(t)

	_, err := f.dispatch(":CHARACTER:RECORD:", "npc", "1")
	require.NoError(t, err)
	f.d.Close()

	assert.Empty(t, f.backend.states)
}

func TestTrack_RecorderDisabled(t *testing.T) {
	f := newFixture(t)

	_, err := f.dispatch(":CHARACTER:TRACK:", "npc", "1")
	assert.Error(t, err)
}

func TestSession_WithRecorderAndMemory(t *testing.T) {
	w := simclient.NewWorld(3200, 3264)
	w.Spawn(client.NPCRef(1), simclient.Spec{Name: "Goblin", X: simclient.TileCenter(1), Y: simclient.TileCenter(1)})
	w.Spawn(client.NPCRef(2), simclient.Spec{Name: "Cow", X: simclient.TileCenter(3), Y: simclient.TileCenter(3)})
	deps := &character.Dependencies{Client: w, Projector: w, Pointer: w.Mouse(), Menu: w.Menu()}

	mem := memory.New(config.MemoryConfig{OutputDir: t.TempDir()})
	rec, err := recorder.New(recorder.Config{Interval: 5 * time.Millisecond}, deps, w, mem, nil)
	require.NoError(t, err)

	svc := NewService(Dependencies{Characters: deps, Backend: mem, Recorder: rec})
	d, err := dispatcher.New(logging.NewDispatcherLogger(zerolog.Nop()))
	require.NoError(t, err)
	svc.RegisterHandlers(d)
	defer d.Close()

	dispatch := func(cmd string, args ...string) (any, error) {
		return d.Dispatch(dispatcher.Event{Command: cmd, Args: args, Timestamp: time.Now()})
	}

	res, err := dispatch(":CHARACTER:TRACK:", "npc", "2")
	require.NoError(t, err)
	assert.Equal(t, []string{"npc 2"}, res)

	_, err = dispatch(":SESSION:START:", "pasture")
	require.NoError(t, err)
	assert.True(t, rec.Running())

	assert.Eventually(t, func() bool {
		cow, ok := mem.Character("npc", 2)
		return ok && len(cow.States) > 0
	}, 2*time.Second, 5*time.Millisecond)

	res, err = dispatch(":SESSION:END:")
	require.NoError(t, err)
	assert.False(t, rec.Running())
	assert.NotEmpty(t, res.(SessionResult).ExportPath)

	_, ok := mem.Character("npc", 1)
	assert.False(t, ok)

	res, err = dispatch(":CHARACTER:UNTRACK:", "npc", "2")
	require.NoError(t, err)
	assert.Equal(t, []string{}, res)
}
