package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch reloads the global configuration whenever the config file is
// written or recreated, until ctx is cancelled. The directory rather
// than the file is watched, so editors that replace the file atomically
// still trigger a reload. Watching a missing config directory is an
// error; a missing file inside it is not.
func Watch(ctx context.Context, logger *zap.Logger) error {
	cfg := Get()
	dir := filepath.Dir(cfg.ConfigFilePath())
	file := filepath.Base(cfg.ConfigFilePath())

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	logger.Info("watching configuration", zap.String("path", cfg.ConfigFilePath()))

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != file {
				continue
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				if err := Reload(); err != nil {
					logger.Error("configuration reload failed", zap.Error(err))
					continue
				}
				logger.Info("configuration reloaded", zap.String("path", cfg.ConfigFilePath()))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", zap.Error(err))
		case <-ctx.Done():
			return nil
		}
	}
}
