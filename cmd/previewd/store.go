package main

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/arminHadzicAPL/scrollmedia/internal/scene"
)

// sceneStore serves the current scene and a version that bumps on every
// successful reload. Sessions compare versions to know when to rebind.
type sceneStore struct {
	path string

	mu      sync.RWMutex
	scene   *scene.Scene
	version int
}

func newSceneStore(path string) (*sceneStore, error) {
	sc, err := scene.ReadScene(path)
	if err != nil {
		return nil, err
	}
	return &sceneStore{path: path, scene: sc, version: 1}, nil
}

// Load returns the current scene and its version.
func (s *sceneStore) Load() (*scene.Scene, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scene, s.version
}

// Reload re-reads the scene file. A scene that fails to parse keeps the
// previous version serving.
func (s *sceneStore) Reload() error {
	sc, err := scene.ReadScene(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.scene = sc
	s.version++
	s.mu.Unlock()
	return nil
}

// Watch reloads the scene whenever its file is rewritten. Editors often
// replace files instead of writing them in place, so the parent directory
// is watched and events are filtered by name.
func (s *sceneStore) Watch(ctx context.Context, logger zerolog.Logger) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn().Err(err).Msg("scene watching disabled")
		return
	}
	defer func() {
		_ = watcher.Close()
	}()

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		logger.Warn().Err(err).Str("dir", dir).Msg("scene watching disabled")
		return
	}

	target := filepath.Base(s.path)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := s.Reload(); err != nil {
				logger.Warn().Err(err).Msg("scene reload failed, keeping previous version")
				continue
			}
			_, version := s.Load()
			logger.Info().Int("version", version).Msg("scene reloaded")
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn().Err(err).Msg("scene watcher error")
		}
	}
}
