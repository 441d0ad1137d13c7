package scene

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"github.com/slicerar/arview/logging"
	"github.com/slicerar/arview/rimage/transform"
	"github.com/slicerar/arview/utils"
)

// ReloadDebounce is how long a calibration file has to stay unchanged before it is reloaded.
// Editors and calibration tools often write a file in several steps.
const ReloadDebounce = 50 * time.Millisecond

// WatchIntrinsicsFile loads the calibration JSON at path into the intrinsics node nodeID and
// reloads it every time the file is written. Reload failures are logged and leave the node as
// it was. Stop the returned workers to stop watching.
func WatchIntrinsicsFile(
	ctx context.Context,
	registry *Registry,
	nodeID, path string,
	logger logging.Logger,
) (utils.StoppableWorkers, error) {
	path = filepath.Clean(path)
	if err := loadIntrinsicsFile(registry, nodeID, path); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "cannot create file watcher")
	}
	// Watch the directory so editors that replace the file on save are still seen.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		goutils.UncheckedError(watcher.Close())
		return nil, errors.Wrapf(err, "cannot watch %q", path)
	}

	debounced := debounce.New(ReloadDebounce)

	return utils.NewStoppableWorkersWithContext(ctx, func(ctx context.Context) {
		rl := &intrinsicsReloader{ctx: ctx, registry: registry, nodeID: nodeID, path: path, logger: logger}
		defer func() {
			// drop a reload that is still pending and wait out one already running
			debounced(func() {})
			rl.wait()
			if err := watcher.Close(); err != nil {
				logger.Warnw("closing intrinsics watcher", "path", path, "error", err)
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != path || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				debounced(rl.reload)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warnw("intrinsics watcher error", "path", path, "error", err)
			}
		}
	}), nil
}

// intrinsicsReloader reloads a calibration file into a node until its context is done.
type intrinsicsReloader struct {
	ctx      context.Context
	registry *Registry
	nodeID   string
	path     string
	logger   logging.Logger

	mu sync.Mutex
}

// reload runs on the debounce timer's goroutine, possibly after the watch was stopped.
func (rl *intrinsicsReloader) reload() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.ctx.Err() != nil {
		return
	}
	if err := loadIntrinsicsFile(rl.registry, rl.nodeID, rl.path); err != nil {
		rl.logger.Warnw("cannot reload intrinsics", "node", rl.nodeID, "path", rl.path, "error", err)
		return
	}
	rl.logger.Infow("reloaded intrinsics", "node", rl.nodeID, "path", rl.path)
}

// wait returns once no reload is running.
func (rl *intrinsicsReloader) wait() {
	rl.mu.Lock()
	//nolint:staticcheck
	rl.mu.Unlock()
}

func loadIntrinsicsFile(registry *Registry, nodeID, path string) error {
	params, err := transform.NewPinholeCameraIntrinsicsFromJSONFile(path)
	if err != nil {
		return err
	}
	if err := params.CheckValid(); err != nil {
		return err
	}
	return registry.SetNode(&IntrinsicsNode{ID: nodeID, Intrinsics: *params})
}
