//go:build !linux

package main

import (
	"context"
	"errors"
	"log/slog"
)

func watchStopKey(ctx context.Context, paths []string, keyCode int, stop func(), logger *slog.Logger) error {
	if len(paths) == 0 {
		return nil
	}
	return errors.New("stop.devices is only supported on linux")
}
