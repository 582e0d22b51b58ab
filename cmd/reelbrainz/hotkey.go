package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	hook "github.com/robotn/gohook"
)

// listenStopHotkey blocks until keys are pressed together or ctx is canceled,
// then calls stop. The global hook is torn down before returning.
func listenStopHotkey(ctx context.Context, keys []string, stop func(), logger *slog.Logger) error {
	if len(keys) == 0 {
		return nil
	}

	// hook.End must run once, whichever of the hotkey or ctx comes first.
	var endOnce sync.Once
	end := func() { endOnce.Do(hook.End) }

	hook.Register(hook.KeyDown, keys, func(e hook.Event) {
		logger.Info("stop hotkey pressed", "keys", strings.Join(keys, "+"))
		stop()
		end()
	})

	evChan := hook.Start()

	go func() {
		<-ctx.Done()
		end()
	}()

	logger.Debug("stop hotkey armed", "keys", strings.Join(keys, "+"))
	// Blocks until hook.End() is called.
	<-hook.Process(evChan)
	return nil
}
