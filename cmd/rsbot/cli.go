package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/jamiegrech/RSBot-API/internal/config"
	"github.com/jamiegrech/RSBot-API/internal/database"
	"github.com/jamiegrech/RSBot-API/internal/model"
	"github.com/jamiegrech/RSBot-API/internal/model/convert"
	"github.com/jamiegrech/RSBot-API/internal/storage/memory"

	"gorm.io/gorm"
)

// runExport handles `rsbot export <sessionID>...`: it reads recorded
// sessions back from the configured database and writes them as JSON.
func runExport(args []string) error {
	if len(args) == 0 {
		return errors.New("no session IDs provided")
	}

	storageCfg := config.GetStorageConfig()
	db, err := openExportDB(storageCfg)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	for _, arg := range args {
		id, err := strconv.ParseUint(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid session ID %q: %w", arg, err)
		}
		path, err := exportSession(db, uint(id), storageCfg.Memory)
		if err != nil {
			return err
		}
		Logger.Info("Exported session", "id", id, "path", path)
		fmt.Println(path)
	}
	return nil
}

// openExportDB connects to postgres, or opens the last sqlite dump.
func openExportDB(storageCfg config.StorageConfig) (*gorm.DB, error) {
	switch storageCfg.Type {
	case "postgres":
		Logger.Info("Connecting to database...")
		return database.GetPostgresDBStandalone()
	case "sqlite":
		if storageCfg.SQLite.DumpPath == "" {
			return nil, database.ErrNoDumpPath
		}
		return database.GetSqliteDBStandalone(storageCfg.SQLite.DumpPath)
	default:
		return nil, fmt.Errorf("export needs a postgres or sqlite store, have %q", storageCfg.Type)
	}
}

// exportSession replays one stored session through the memory backend so
// the file matches what a live memory recording would have written.
func exportSession(db *gorm.DB, id uint, out config.MemoryConfig) (string, error) {
	var session model.Session
	if err := db.First(&session, id).Error; err != nil {
		return "", fmt.Errorf("load session %d: %w", id, err)
	}

	var states []model.CharacterState
	if err := db.Where("session_id = ?", id).Order("time asc, id asc").Find(&states).Error; err != nil {
		return "", fmt.Errorf("load character states: %w", err)
	}

	var interactions []model.Interaction
	if err := db.Where("session_id = ?", id).Order("time asc, id asc").Find(&interactions).Error; err != nil {
		return "", fmt.Errorf("load interactions: %w", err)
	}

	mem := memory.New(out)
	s := convert.SessionToCore(session)
	if err := mem.StartSession(&s); err != nil {
		return "", err
	}
	for _, row := range states {
		state, err := convert.CharacterStateToCore(row)
		if err != nil {
			return "", fmt.Errorf("character state %d: %w", row.ID, err)
		}
		if err := mem.RecordCharacterState(&state); err != nil {
			return "", err
		}
	}
	for _, row := range interactions {
		e := convert.InteractionToCore(row)
		if err := mem.RecordInteraction(&e); err != nil {
			return "", err
		}
	}
	if err := mem.EndSession(); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return mem.GetExportedFilePath(), nil
}
