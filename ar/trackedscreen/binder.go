// Package trackedscreen drives a viewport's camera from a tracked transform and shows a live
// video frame behind the scene, matching the virtual camera's projection to the calibration of
// the physical camera that produced the frame.
package trackedscreen

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/slicerar/arview/logging"
	"github.com/slicerar/arview/rimage/transform"
	"github.com/slicerar/arview/scene"
	"github.com/slicerar/arview/spatialmath"
	"github.com/slicerar/arview/viewport"
)

// DefaultRigidTolerance is used by Options.ValidatePose when no tolerance is given.
const DefaultRigidTolerance = 1e-6

// Options configure a Binder.
type Options struct {
	Mode transform.ProjectionMode
	// ValidatePose rejects camera transforms whose rotation is not orthonormal instead of
	// passing them to the camera as is.
	ValidatePose   bool
	RigidTolerance float64
}

// selection is the set of nodes the user picked.
type selection struct {
	sourceID     string
	intrinsicsID string
	transformID  string
}

// binding is the value-owned record of one selection. It is replaced, never patched, whenever
// the selection changes.
type binding struct {
	selection
	sourceSubs    []scene.Subscription
	transformSubs []scene.Subscription
	last          outcome
}

// Binder keeps a viewport in sync with a video source, its camera intrinsics and a camera
// transform.
type Binder struct {
	logger logging.Logger
	scene  scene.Scene
	vp     viewport.Viewport
	opts   Options

	mu      sync.Mutex
	current binding
	closed  bool
}

// NewBinder returns a Binder with nothing selected.
func NewBinder(s scene.Scene, vp viewport.Viewport, opts Options, logger logging.Logger) (*Binder, error) {
	mode, err := transform.ProjectionModeFromString(string(opts.Mode))
	if err != nil {
		return nil, err
	}
	opts.Mode = mode
	if opts.RigidTolerance <= 0 {
		opts.RigidTolerance = DefaultRigidTolerance
	}
	return &Binder{logger: logger, scene: s, vp: vp, opts: opts}, nil
}

// SetVideoSource selects the volume node whose frames become the background. An empty or
// unknown id unbinds the background.
func (b *Binder) SetVideoSource(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sel := b.current.selection
	sel.sourceID = id
	b.rebind(sel)
}

// SetIntrinsics selects the intrinsics node of the camera that produces the video frames. It is
// remembered even when no video source is bound yet.
func (b *Binder) SetIntrinsics(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sel := b.current.selection
	sel.intrinsicsID = id
	b.rebind(sel)
}

// SetCameraTransform selects the transform node that places the viewport camera and moves the
// camera there.
func (b *Binder) SetCameraTransform(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sel := b.current.selection
	sel.transformID = id
	b.rebind(sel)
	b.resetView()
}

// ResetView moves the camera to the current pose of the selected transform.
func (b *Binder) ResetView() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetView()
}

// HandleViewportResize recomputes the projection for the new viewport size.
func (b *Binder) HandleViewportResize() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refresh()
}

// State returns the current binding state.
func (b *Binder) State() BindingState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current.last.state
}

// Close drops all subscriptions and turns the background off.
func (b *Binder) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.unsubscribe(b.current)
	b.current = binding{}
	apply(b.vp, outcome{state: Unbound})
}

// rebind replaces the current binding with one for sel and recomputes everything.
// Callers hold b.mu.
func (b *Binder) rebind(sel selection) {
	if b.closed {
		return
	}
	b.unsubscribe(b.current)
	next := binding{selection: sel, last: b.current.last}
	if sel.sourceID != "" {
		next.sourceSubs = append(next.sourceSubs, b.scene.Subscribe(sel.sourceID, b.onSourceEvent))
	}
	if sel.intrinsicsID != "" {
		next.sourceSubs = append(next.sourceSubs, b.scene.Subscribe(sel.intrinsicsID, b.onIntrinsicsEvent))
	}
	next.transformSubs = b.subscribeTransform(sel.transformID)
	b.current = next
	b.refresh()
}

func (b *Binder) subscribeTransform(id string) []scene.Subscription {
	if id == "" {
		return nil
	}
	chain, err := scene.ParentChain(b.scene, id)
	if err != nil {
		b.logger.Warnw("camera transform parents", "transform", id, "error", err)
	}
	subs := make([]scene.Subscription, 0, len(chain))
	for _, tfID := range chain {
		subs = append(subs, b.scene.Subscribe(tfID, b.onTransformEvent))
	}
	return subs
}

func (b *Binder) unsubscribe(bd binding) {
	for _, sub := range bd.sourceSubs {
		b.scene.Unsubscribe(sub)
	}
	for _, sub := range bd.transformSubs {
		b.scene.Unsubscribe(sub)
	}
}

// refresh recomputes the background and projection from the current scene. Callers hold b.mu.
func (b *Binder) refresh() {
	in := inputs{
		sourceID: b.current.sourceID,
		viewport: b.vp.Size(),
		mode:     b.opts.Mode,
	}
	if node, ok := b.scene.Node(b.current.sourceID); ok {
		if vol, ok := node.(*scene.VolumeNode); ok {
			in.image = vol.Image
		} else {
			b.logger.Warnw("video source is not a volume", "node", node.NodeID(), "kind", node.Kind())
		}
	}
	if node, ok := b.scene.Node(b.current.intrinsicsID); ok {
		if intr, ok := node.(*scene.IntrinsicsNode); ok {
			params := intr.Intrinsics
			in.intrinsics = &params
		} else {
			b.logger.Warnw("camera parameters are not intrinsics", "node", node.NodeID(), "kind", node.Kind())
		}
	}

	out := evaluate(in)
	if out.err != nil {
		b.logger.Warnw("disabling video background", "source", in.sourceID,
			"intrinsics", b.current.intrinsicsID, "error", out.err)
	}
	if out.state != b.current.last.state {
		b.logger.Debugw("binding state changed", "from", b.current.last.state.String(), "to", out.state.String())
	}
	apply(b.vp, out)
	b.current.last = out
}

// resetView moves the camera to the selected transform. Callers hold b.mu.
func (b *Binder) resetView() {
	id := b.current.transformID
	if id == "" || b.closed {
		return
	}
	if _, ok := b.scene.Node(id); !ok {
		return
	}
	pose, err := b.scene.TransformToWorld(id)
	if err != nil {
		b.logger.Warnw("cannot place camera", "transform", id, "error", err)
		return
	}
	if b.opts.ValidatePose {
		if err := spatialmath.CheckRigid(pose, b.opts.RigidTolerance); err != nil {
			b.logger.Warnw("ignoring camera transform", "transform", id, "error", errors.Wrap(err, "camera pose"))
			return
		}
	}
	b.vp.SetCameraPose(spatialmath.NewCameraPoseFromPose(pose))
}

func (b *Binder) onSourceEvent(ev scene.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || ev.NodeID != b.current.sourceID {
		return
	}
	b.refresh()
	if ev.Type == scene.EventModified {
		b.vp.ScheduleRender()
	}
}

func (b *Binder) onIntrinsicsEvent(ev scene.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || ev.NodeID != b.current.intrinsicsID {
		return
	}
	b.refresh()
}

// onTransformEvent resubscribes because a parent may have been swapped, then moves the camera.
func (b *Binder) onTransformEvent(ev scene.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, sub := range b.current.transformSubs {
		b.scene.Unsubscribe(sub)
	}
	b.current.transformSubs = b.subscribeTransform(b.current.transformID)
	b.resetView()
	b.vp.ScheduleRender()
}
