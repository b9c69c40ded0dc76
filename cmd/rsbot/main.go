package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/jamiegrech/RSBot-API/internal/api"
	"github.com/jamiegrech/RSBot-API/internal/character"
	"github.com/jamiegrech/RSBot-API/internal/config"
	"github.com/jamiegrech/RSBot-API/internal/dispatcher"
	"github.com/jamiegrech/RSBot-API/internal/handlers"
	"github.com/jamiegrech/RSBot-API/internal/logging"
	"github.com/jamiegrech/RSBot-API/internal/monitor"
	intOtel "github.com/jamiegrech/RSBot-API/internal/otel"
	"github.com/jamiegrech/RSBot-API/internal/recorder"
	"github.com/jamiegrech/RSBot-API/internal/simclient"
	"github.com/jamiegrech/RSBot-API/internal/storage"
	"github.com/jamiegrech/RSBot-API/pkg/client"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.0.1"
	BuildDate      string = "unknown"

	AppName string = "rsbot"
)

// demo region origin, Lumbridge
const (
	demoBaseX = 3200
	demoBaseY = 3200

	gameTick = 600 * time.Millisecond
)

// global variables
var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	LogFilePath string
	LogFile     *os.File

	SessionStartTime time.Time = time.Now()

	// Services
	world           *simclient.World
	handlerService  *handlers.Service
	eventDispatcher *dispatcher.Dispatcher
	sampler         *recorder.Recorder
	monitorService  *monitor.Service

	// Storage backend (optional)
	storageBackend storage.Backend
)

func main() {
	configDir := os.Getenv("RSBOT_CONFIG_DIR")
	if configDir == "" {
		configDir = "."
	}

	world = simclient.NewWorld(demoBaseX, demoBaseY)
	setupLogging(configDir)
	defer shutdownLogging()

	args := os.Args[1:]
	if len(args) > 0 && strings.ToLower(args[0]) == "export" {
		if err := runExport(args[1:]); err != nil {
			Logger.Error("Export failed", "error", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdin, os.Stdout); err != nil {
		Logger.Error("Exited with error", "error", err)
		os.Exit(1)
	}
}

// setupLogging loads config and wires slog to the log file, Graylog and
// OTel. Until the file is open, records go to stdout.
func setupLogging(configDir string) {
	SlogManager = logging.NewSlogManager(AppName)
	SlogManager.Setup(nil, "info", nil)
	Logger = SlogManager.Logger()

	if err := config.Load(configDir); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config", "file", viper.ConfigFileUsed())
	}

	var err error
	LogFilePath = logging.LogFilePath(viper.GetString("logsDir"), AppName, SessionStartTime)
	LogFile, err = logging.OpenLogFile(viper.GetString("logsDir"), AppName, SessionStartTime)
	if err != nil {
		Logger.Error("Failed to create/open log file!", "error", err, "path", LogFilePath)
		LogFile = nil
	} else {
		Logger.Info("Begin logging in logs directory", "path", LogFilePath)
	}

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		var logWriter io.Writer
		if LogFile != nil {
			logWriter = LogFile
		}
		OTelProvider, err = intOtel.New(context.Background(), intOtel.ConfigFrom(otelCfg, logWriter))
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
			OTelProvider = nil
		} else {
			Logger.Info("OTel provider initialized", "endpoint", otelCfg.Endpoint)
		}
	}

	if viper.GetBool("graylog.enabled") {
		if err := SlogManager.EnableGraylog(viper.GetString("graylog.address")); err != nil {
			Logger.Error("Failed to connect to Graylog", "error", err)
		}
	}

	SlogManager.SetContextProvider(logging.ClientContext(world.LoopCycle, world.BaseX, world.BaseY))

	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}
	if LogFile != nil {
		SlogManager.Setup(LogFile, viper.GetString("logLevel"), otelLogProvider)
	} else {
		SlogManager.Setup(nil, viper.GetString("logLevel"), otelLogProvider)
	}
	Logger = SlogManager.Logger()
	slog.SetDefault(Logger)
}

func shutdownLogging() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if OTelProvider != nil {
		if err := OTelProvider.Shutdown(ctx); err != nil {
			Logger.Warn("Failed to shut down OTel provider", "error", err)
		}
	}
	if err := SlogManager.Close(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close logging: %v\n", err)
	}
	if LogFile != nil {
		LogFile.Close()
	}
}

// componentLogger returns a zerolog logger for the packages that log
// through zerolog, writing to the same file as slog.
func componentLogger(component string) zerolog.Logger {
	var w io.Writer = os.Stderr
	if LogFile != nil {
		w = LogFile
	}
	return logging.NewZerolog(w, viper.GetString("logLevel"), component)
}

// run wires the services, drives the demo host and serves console
// commands from in until it closes or ctx is cancelled.
func run(ctx context.Context, in io.Reader, out io.Writer) error {
	seedDemoWorld(world)

	deps := &character.Dependencies{
		Client:    world,
		Projector: world,
		Pointer:   world.Mouse(),
		Menu:      world.Menu(),
	}

	var err error
	storageBackend, err = initStorage()
	if err != nil {
		return err
	}
	defer func() {
		if err := storageBackend.Close(); err != nil {
			Logger.Error("Failed to close storage backend", "error", err)
		}
	}()

	recCfg := config.GetRecorderConfig()
	if recCfg.Enabled {
		sampler, err = recorder.New(recorder.Config{Interval: recCfg.Interval}, deps, world, storageBackend, Logger)
		if err != nil {
			return fmt.Errorf("failed to create recorder: %w", err)
		}
	}

	eventDispatcher, err = dispatcher.New(logging.NewDispatcherLogger(componentLogger("dispatcher")))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}
	defer eventDispatcher.Close()

	handlerDeps := handlers.Dependencies{
		Characters:     deps,
		Backend:        storageBackend,
		Recorder:       sampler,
		Logger:         Logger,
		Renderer:       &simclient.Canvas{},
		DefaultTag:     recCfg.Tag,
		SampleInterval: recCfg.Interval,
	}
	if apiCfg := config.GetAPIConfig(); apiCfg.Upload {
		apiClient := api.New(apiCfg.ServerURL, apiCfg.APIKey)
		if err := apiClient.Healthcheck(ctx); err != nil {
			Logger.Warn("Recording server is offline, uploads may fail", "url", apiCfg.ServerURL, "error", err)
		} else {
			Logger.Info("Recording server is online", "url", apiCfg.ServerURL)
		}
		handlerDeps.Uploader = apiClient
	}
	handlerService = handlers.NewService(handlerDeps)
	handlerService.RegisterHandlers(eventDispatcher)

	monCfg := config.GetMonitorConfig()
	monitorService = monitor.NewService(monitor.Dependencies{
		Recorder:   sampler,
		Backend:    storageBackend,
		Session:    handlerService.Session,
		Logger:     Logger,
		StatusPath: monCfg.StatusPath,
		Interval:   monCfg.Interval,
	})
	if err := monitorService.Start(); err != nil {
		Logger.Error("Failed to start status monitor", "error", err)
	}
	defer monitorService.Stop()

	registerLifecycleHandlers(eventDispatcher)
	Logger.Info("Handlers registered with dispatcher", "commands", len(eventDispatcher.Commands()))

	var wg sync.WaitGroup
	hostCtx, cancelHost := context.WithCancel(ctx)
	wg.Add(1)
	go func() {
		defer wg.Done()
		hostLoop(hostCtx, world, gameTick)
	}()

	lines := make(chan string)
	go readLines(in, lines)

	enc := json.NewEncoder(out)
	func() {
		for {
			select {
			case <-ctx.Done():
				Logger.Info("Shutting down", "reason", ctx.Err())
				return
			case line, ok := <-lines:
				if !ok {
					Logger.Info("Console closed, shutting down")
					return
				}
				if err := enc.Encode(handleLine(eventDispatcher, line, time.Now())); err != nil {
					Logger.Error("Failed to write response", "error", err)
				}
			}
		}
	}()

	cancelHost()
	wg.Wait()

	// drain queued :CHARACTER:RECORD: samples into the session before it ends
	eventDispatcher.Close()

	if _, active := handlerService.Session(); active {
		res, err := handlerService.EndSession()
		if err != nil {
			Logger.Error("Failed to end session on shutdown", "error", err)
		} else {
			Logger.Info("Session saved on shutdown", "id", res.ID, "export", res.ExportPath)
		}
	}
	return nil
}

func readLines(in io.Reader, lines chan<- string) {
	defer close(lines)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		lines <- scanner.Text()
	}
	if err := scanner.Err(); err != nil {
		Logger.Error("Failed to read console", "error", err)
	}
}

// Response is written as one JSON line per console command.
type Response struct {
	Command string `json:"command,omitempty"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

func handleLine(d *dispatcher.Dispatcher, line string, now time.Time) Response {
	e, err := dispatcher.ParseLine(line, now)
	if err != nil {
		if errors.Is(err, dispatcher.ErrEmptyLine) {
			return Response{}
		}
		return Response{Error: err.Error()}
	}
	res, err := d.Dispatch(e)
	if err != nil {
		return Response{Command: e.Command, Error: err.Error()}
	}
	return Response{Command: e.Command, Result: res}
}

// hostLoop advances the simulated client once per game tick.
func hostLoop(ctx context.Context, w *simclient.World, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Step()
			demoCombat(w)
		}
	}
}

// seedDemoWorld spawns a small pasture with a fight going on.
func seedDemoWorld(w *simclient.World) {
	w.Spawn(client.PlayerRef(0), simclient.Spec{
		Name:        "Zezima",
		Level:       126,
		X:           simclient.TileCenter(10),
		Y:           simclient.TileCenter(10),
		Interacting: 1,
		Animation:   422,
	})
	spawnGoblin(w)
	w.Spawn(client.NPCRef(2), simclient.Spec{
		Name:        "Cow",
		Level:       2,
		ID:          2805,
		X:           simclient.TileCenter(6),
		Y:           simclient.TileCenter(8),
		Height:      60,
		Orientation: 1536,
		Speed:       4,
	})
	w.Menu().SetEntries(
		simclient.MenuEntry{Action: "Attack", Option: "Goblin"},
		simclient.MenuEntry{Action: "Attack", Option: "Cow"},
		simclient.MenuEntry{Action: "Walk here"},
		simclient.MenuEntry{Action: "Examine", Option: "Cow"},
	)
}

func spawnGoblin(w *simclient.World) {
	w.Spawn(client.NPCRef(1), simclient.Spec{
		Name:        "Goblin",
		Level:       2,
		ID:          3029,
		X:           simclient.TileCenter(11),
		Y:           simclient.TileCenter(10),
		Height:      40,
		Interacting: client.PlayerIndexOffset,
		Captured:    true,
	})
}

// demoCombat lands a hit on the goblin every few ticks and respawns it
// once it dies.
func demoCombat(w *simclient.World) {
	const hitEvery = 4
	tick := w.LoopCycle()
	if tick%hitEvery != 0 {
		return
	}

	a, ok := w.Actor(client.NPCRef(1))
	if !ok {
		return
	}
	goblin := a.(*simclient.Actor)

	ratio := character.FullHPRatio
	if head := goblin.CombatStatus(); head != nil && head.Data != nil {
		ratio = head.Data.HPRatio
	}
	ratio -= 51
	if ratio <= 0 {
		w.Despawn(client.NPCRef(1))
		spawnGoblin(w)
		return
	}
	goblin.Hit(ratio, tick)
}
