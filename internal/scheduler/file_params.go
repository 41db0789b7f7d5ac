package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
	"github.com/vytor/skola/internal/logger"
)

type fileConfig struct {
	Scheduler Params `toml:"scheduler"`
}

// FileParams reads parameters from the [scheduler] table of a TOML file.
// The file is only read again after it changed on disk. A missing file
// yields the defaults.
type FileParams struct {
	path    string
	watcher *fsnotify.Watcher
	log     *logger.Logger

	mu     sync.Mutex
	cached Params
	loaded bool
	dirty  atomic.Bool
	done   chan struct{}
}

// NewFileParams watches the directory of path for changes to the file.
func NewFileParams(path string) (*FileParams, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// Editors often replace the file, so watch its directory.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	p := &FileParams{
		path:    abs,
		watcher: w,
		log:     logger.Default().WithPrefix("scheduler_params").WithField("path", abs),
		done:    make(chan struct{}),
	}
	go p.watch()
	return p, nil
}

func (p *FileParams) watch() {
	defer close(p.done)
	for {
		select {
		case ev, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != p.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
				p.log.Debug("params file changed: %s", ev.Op)
				p.dirty.Store(true)
			}
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.log.Warn("watch error: %v", err)
		}
	}
}

// Changed reports whether the file changed since it was last read.
func (p *FileParams) Changed() bool {
	return p.dirty.Load()
}

func (p *FileParams) Load(ctx context.Context) (Params, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.loaded && !p.dirty.Load() {
		return p.cached, nil
	}
	p.dirty.Store(false)

	params, err := readParamsFile(p.path)
	if err != nil {
		return Params{}, err
	}
	p.cached = params
	p.loaded = true
	logger.FromContext(ctx).WithPrefix("scheduler_params").Info("loaded scheduler params from %s", p.path)
	return params, nil
}

func (p *FileParams) Close() error {
	err := p.watcher.Close()
	<-p.done
	return err
}

func readParamsFile(path string) (Params, error) {
	cfg := fileConfig{Scheduler: DefaultParams()}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg.Scheduler, nil
	}
	if err != nil {
		return Params{}, fmt.Errorf("read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Params{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg.Scheduler, nil
}
