package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/docaccess/authz-core/internal/policydoc"
)

// ReloadEvent reports the outcome of a single debounced directory scan,
// grounded in the teacher's internal/policy.ReloadedEvent shape.
type ReloadEvent struct {
	Timestamp   time.Time
	ResourceIDs []string
	Error       error
}

// DirectoryWatcher hot-reloads resource policy documents from a
// directory of "<resourceId>.json" files into a Store, debouncing
// bursts of filesystem events the way the teacher's policy file
// watcher debounces YAML/JSON edits.
type DirectoryWatcher struct {
	watcher         *fsnotify.Watcher
	dir             string
	store           Store
	logger          *zap.Logger
	debounceTimeout time.Duration
	debounceTimer   *time.Timer
	eventChan       chan ReloadEvent
	stopChan        chan struct{}
	mu              sync.RWMutex
	isWatching      bool
}

func NewDirectoryWatcher(dir string, st Store, logger *zap.Logger) (*DirectoryWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	return &DirectoryWatcher{
		watcher:         w,
		dir:             dir,
		store:           st,
		logger:          logger,
		debounceTimeout: 500 * time.Millisecond,
		eventChan:       make(chan ReloadEvent, 10),
		stopChan:        make(chan struct{}),
	}, nil
}

func (dw *DirectoryWatcher) Watch(ctx context.Context) error {
	dw.mu.Lock()
	if dw.isWatching {
		dw.mu.Unlock()
		return fmt.Errorf("watcher is already running")
	}
	dw.isWatching = true
	dw.mu.Unlock()

	if err := dw.watcher.Add(dw.dir); err != nil {
		dw.mu.Lock()
		dw.isWatching = false
		dw.mu.Unlock()
		return fmt.Errorf("add path to watcher: %w", err)
	}

	dw.logger.Info("starting resource policy watcher",
		zap.String("dir", dw.dir),
		zap.Duration("debounce", dw.debounceTimeout),
	)

	go dw.loop(ctx)
	return nil
}

func (dw *DirectoryWatcher) loop(ctx context.Context) {
	defer func() {
		dw.mu.Lock()
		dw.isWatching = false
		dw.mu.Unlock()
		dw.logger.Info("resource policy watcher stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-dw.stopChan:
			return
		case event, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			if dw.shouldProcess(event) {
				dw.scheduleReload(event)
			}
		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			dw.logger.Error("watcher error", zap.Error(err))
		}
	}
}

func (dw *DirectoryWatcher) shouldProcess(event fsnotify.Event) bool {
	return filepath.Ext(event.Name) == ".json"
}

func (dw *DirectoryWatcher) scheduleReload(event fsnotify.Event) {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	dw.logger.Debug("resource policy file change detected",
		zap.String("file", event.Name),
		zap.String("op", event.Op.String()),
	)

	if dw.debounceTimer != nil {
		dw.debounceTimer.Stop()
	}
	dw.debounceTimer = time.AfterFunc(dw.debounceTimeout, dw.reload)
}

func (dw *DirectoryWatcher) reload() {
	entries, err := os.ReadDir(dw.dir)
	if err != nil {
		dw.emit(ReloadEvent{Timestamp: time.Now(), Error: fmt.Errorf("read dir %s: %w", dw.dir, err)})
		return
	}

	ctx := context.Background()
	var resourceIDs []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(dw.dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			dw.emit(ReloadEvent{Timestamp: time.Now(), Error: fmt.Errorf("read %s: %w", path, err)})
			return
		}

		doc, err := policydoc.DecodeResourcePolicyDocument(raw)
		if err != nil {
			dw.logger.Error("invalid resource policy file, skipping", zap.String("file", path), zap.Error(err))
			continue
		}
		if err := policydoc.ValidateResourcePolicyDocument(doc); err != nil {
			dw.logger.Error("resource policy file failed validation, skipping", zap.String("file", path), zap.Error(err))
			continue
		}

		if err := dw.store.SaveResourcePolicy(ctx, doc); err != nil {
			dw.emit(ReloadEvent{Timestamp: time.Now(), Error: fmt.Errorf("save %s: %w", path, err)})
			return
		}
		resourceIDs = append(resourceIDs, doc.Resource.ResourceID)
	}

	dw.logger.Info("resource policies reloaded", zap.Int("count", len(resourceIDs)))
	dw.emit(ReloadEvent{Timestamp: time.Now(), ResourceIDs: resourceIDs})
}

func (dw *DirectoryWatcher) emit(ev ReloadEvent) {
	select {
	case dw.eventChan <- ev:
	default:
	}
}

func (dw *DirectoryWatcher) EventChan() <-chan ReloadEvent {
	return dw.eventChan
}

func (dw *DirectoryWatcher) Stop() error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if !dw.isWatching {
		return nil
	}

	close(dw.stopChan)
	if dw.debounceTimer != nil {
		dw.debounceTimer.Stop()
	}

	if err := dw.watcher.Close(); err != nil {
		return err
	}
	close(dw.eventChan)
	return nil
}

func (dw *DirectoryWatcher) SetDebounceTimeout(d time.Duration) {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	dw.debounceTimeout = d
}

func (dw *DirectoryWatcher) IsWatching() bool {
	dw.mu.RLock()
	defer dw.mu.RUnlock()
	return dw.isWatching
}
