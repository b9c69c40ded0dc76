package main

import (
	"fmt"
	"path/filepath"

	"github.com/jamiegrech/RSBot-API/internal/config"
	"github.com/jamiegrech/RSBot-API/internal/storage"
	influxstorage "github.com/jamiegrech/RSBot-API/internal/storage/influx"
	"github.com/jamiegrech/RSBot-API/internal/storage/memory"
	pgstorage "github.com/jamiegrech/RSBot-API/internal/storage/postgres"
	sqlitestorage "github.com/jamiegrech/RSBot-API/internal/storage/sqlite"
	wsstorage "github.com/jamiegrech/RSBot-API/internal/storage/websocket"
)

func initStorage() (storage.Backend, error) {
	storageCfg := config.GetStorageConfig()

	backend, err := createStorageBackend(storageCfg)
	if err != nil {
		Logger.Error("Failed to create storage backend", "error", err)
		return nil, err
	}
	if err := backend.Init(); err != nil {
		Logger.Error("Failed to initialize storage backend", "type", storageCfg.Type, "error", err)
		return nil, fmt.Errorf("init %s storage: %w", storageCfg.Type, err)
	}
	Logger.Info("Storage ready", "type", storageCfg.Type)
	return backend, nil
}

func createStorageBackend(storageCfg config.StorageConfig) (storage.Backend, error) {
	switch storageCfg.Type {
	case "postgres":
		Logger.Info("Postgres storage backend initialized")
		return pgstorage.New(pgstorage.Dependencies{
			Log: componentLogger("postgres"),
		}), nil

	case "sqlite":
		backend, err := sqlitestorage.New(sqlitestorage.Config{
			DumpInterval: storageCfg.SQLite.DumpInterval,
			DumpPath:     storageCfg.SQLite.DumpPath,
		}, componentLogger("sqlite"))
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		Logger.Info("SQLite storage backend initialized", "dumpPath", storageCfg.SQLite.DumpPath)
		return backend, nil

	case "websocket":
		wsCfg := config.GetWebSocketConfig()
		Logger.Info("WebSocket storage backend initialized", "url", wsCfg.URL)
		return wsstorage.New(wsstorage.Config{
			URL:    wsCfg.URL,
			Secret: wsCfg.Secret,
		}, Logger), nil

	case "influx":
		backupPath := filepath.Join(
			storageCfg.Memory.OutputDir,
			fmt.Sprintf("%s_%s.lp.gz", AppName, SessionStartTime.Format("20060102_150405")),
		)
		influxCfg := config.GetInfluxConfig()
		Logger.Info("InfluxDB storage backend initialized", "url", influxCfg.URL(), "backup", backupPath)
		return influxstorage.New(influxCfg, backupPath, componentLogger("influx")), nil

	case "memory", "":
		Logger.Info("Memory storage backend initialized", "outputDir", storageCfg.Memory.OutputDir)
		return memory.New(storageCfg.Memory), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", storageCfg.Type)
	}
}
