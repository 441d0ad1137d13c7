package passthrough

import (
	"sync"

	"github.com/slicerar/arview/logging"
	"github.com/slicerar/arview/scene"
	"github.com/slicerar/arview/viewport"
)

// Binder rebinds the stereo background whenever an eye node is reassigned or receives a frame.
type Binder struct {
	logger logging.Logger
	scene  scene.Scene
	vp     viewport.Viewport

	mu      sync.Mutex
	eyes    EyeSources
	subs    []scene.Subscription
	enabled bool
	closed  bool
}

// NewBinder returns a Binder with no eyes selected.
func NewBinder(s scene.Scene, vp viewport.Viewport, logger logging.Logger) *Binder {
	return &Binder{logger: logger, scene: s, vp: vp}
}

// SetLeftEye selects the volume node of the left eye.
func (b *Binder) SetLeftEye(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	eyes := b.eyes
	eyes.Left = id
	b.rebind(eyes)
}

// SetRightEye selects the volume node of the right eye.
func (b *Binder) SetRightEye(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	eyes := b.eyes
	eyes.Right = id
	b.rebind(eyes)
}

// Enabled reports whether the stereo background is shown.
func (b *Binder) Enabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enabled
}

// Close drops the subscriptions and turns the background off.
func (b *Binder) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.unsubscribe()
	b.enabled = applyStereoBackground(b.vp, StereoFrame{})
}

func (b *Binder) rebind(eyes EyeSources) {
	if b.closed {
		return
	}
	b.unsubscribe()
	b.eyes = eyes
	for _, id := range []string{eyes.Left, eyes.Right} {
		if id != "" {
			b.subs = append(b.subs, b.scene.Subscribe(id, b.onEyeEvent))
		}
	}
	b.refresh()
}

func (b *Binder) unsubscribe() {
	for _, sub := range b.subs {
		b.scene.Unsubscribe(sub)
	}
	b.subs = nil
}

func (b *Binder) refresh() {
	enabled := applyStereoBackground(b.vp, Snapshot(b.scene, b.eyes))
	if enabled != b.enabled {
		b.logger.Debugw("stereo background", "enabled", enabled, "left", b.eyes.Left, "right", b.eyes.Right)
	}
	b.enabled = enabled
}

func (b *Binder) onEyeEvent(ev scene.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.refresh()
	if ev.Type == scene.EventModified {
		b.vp.ScheduleRender()
	}
}
