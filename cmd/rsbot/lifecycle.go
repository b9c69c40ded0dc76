package main

import (
	"context"
	"time"

	"github.com/jamiegrech/RSBot-API/internal/dispatcher"
)

func registerLifecycleHandlers(d *dispatcher.Dispatcher) {
	// Simple queries - sync return is sufficient
	d.Register(":VERSION:", func(e dispatcher.Event) (any, error) {
		return []string{CurrentVersion, BuildDate}, nil
	})

	d.Register(":COMMANDS:", func(e dispatcher.Event) (any, error) {
		return d.Commands(), nil
	})

	d.Register(":GETDIR:LOG:", func(e dispatcher.Event) (any, error) {
		return LogFilePath, nil
	})

	d.Register(":TICK:", func(e dispatcher.Event) (any, error) {
		return world.LoopCycle(), nil
	})

	d.Register(":STATUS:", func(e dispatcher.Event) (any, error) {
		return monitorService.GetStatus(), nil
	})

	d.Register(":SAVE:", func(e dispatcher.Event) (any, error) {
		Logger.Info("Received :SAVE: command, ending session recording")
		res, err := handlerService.EndSession()
		if err != nil {
			return nil, err
		}
		// Flush OTel data if provider is available
		if OTelProvider != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := OTelProvider.Flush(ctx); err != nil {
				Logger.Warn("Failed to flush OTel", "error", err)
			}
		}
		return res, nil
	}, dispatcher.Logged())
}
