package scene

import (
	"image"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/slicerar/arview/logging"
	"github.com/slicerar/arview/spatialmath"
)

type subscriber struct {
	sub       Subscription
	cb        Callback
	cancelled atomic.Bool
}

// Registry is an in-memory Scene. Events are delivered synchronously on the goroutine that
// caused them. An event published while another is being delivered is queued and delivered
// once the current callbacks return, so callbacks never run concurrently or re-entrantly.
type Registry struct {
	logger logging.Logger

	mu          sync.Mutex
	nodes       map[string]Node
	subscribers map[string][]*subscriber
	mtime       uint64
	pending     []Event
	dispatching bool
}

// NewRegistry returns an empty Registry.
func NewRegistry(logger logging.Logger) *Registry {
	return &Registry{
		logger:      logger,
		nodes:       map[string]Node{},
		subscribers: map[string][]*subscriber{},
	}
}

// Node returns the current snapshot of the node with the given identifier.
func (r *Registry) Node(id string) (Node, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	node, ok := r.nodes[id]
	return node, ok
}

// NodeIDs returns the identifiers of all nodes of the given kind, sorted.
func (r *Registry) NodeIDs(kind Kind) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for id, node := range r.nodes {
		if node.Kind() == kind {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// AddNode stores a new node and publishes EventAdded.
func (r *Registry) AddNode(node Node) error {
	if err := checkNode(node); err != nil {
		return err
	}
	r.mu.Lock()
	if _, ok := r.nodes[node.NodeID()]; ok {
		r.mu.Unlock()
		return errors.Errorf("node %q already exists", node.NodeID())
	}
	r.nodes[node.NodeID()] = r.stamp(node)
	r.mu.Unlock()

	r.logger.Debugw("node added", "id", node.NodeID(), "kind", node.Kind())
	r.publish(Event{NodeID: node.NodeID(), Type: EventAdded})
	return nil
}

// UpdateNode replaces an existing node of the same kind and publishes EventModified.
func (r *Registry) UpdateNode(node Node) error {
	if err := checkNode(node); err != nil {
		return err
	}
	r.mu.Lock()
	old, ok := r.nodes[node.NodeID()]
	if !ok {
		r.mu.Unlock()
		return errors.Wrapf(ErrNodeNotFound, "cannot update %q", node.NodeID())
	}
	if old.Kind() != node.Kind() {
		r.mu.Unlock()
		return errors.Errorf("cannot replace %s node %q with a %s node", old.Kind(), node.NodeID(), node.Kind())
	}
	r.nodes[node.NodeID()] = r.stamp(node)
	r.mu.Unlock()

	r.publish(Event{NodeID: node.NodeID(), Type: EventModified})
	return nil
}

// SetNode adds the node if it is new and updates it otherwise.
func (r *Registry) SetNode(node Node) error {
	if _, ok := r.Node(node.NodeID()); ok {
		return r.UpdateNode(node)
	}
	return r.AddNode(node)
}

// RemoveNode deletes a node and publishes EventRemoved. Subscriptions stay registered.
func (r *Registry) RemoveNode(id string) error {
	r.mu.Lock()
	if _, ok := r.nodes[id]; !ok {
		r.mu.Unlock()
		return errors.Wrapf(ErrNodeNotFound, "cannot remove %q", id)
	}
	delete(r.nodes, id)
	r.mu.Unlock()

	r.logger.Debugw("node removed", "id", id)
	r.publish(Event{NodeID: id, Type: EventRemoved})
	return nil
}

// PushFrame stores a new frame in the volume node id, as a video source does for every frame
// it receives, and publishes EventModified.
func (r *Registry) PushFrame(id string, frame image.Image) error {
	node, ok := r.Node(id)
	if !ok {
		return errors.Wrapf(ErrNodeNotFound, "cannot push a frame to %q", id)
	}
	if _, ok := node.(*VolumeNode); !ok {
		return errors.Errorf("node %q is a %s node, not a volume", id, node.Kind())
	}
	return r.UpdateNode(&VolumeNode{ID: id, Image: &ImageData{Frame: frame}})
}

// Subscribe registers cb for the events of node id.
func (r *Registry) Subscribe(id string, cb Callback) Subscription {
	s := &subscriber{sub: Subscription{ID: uuid.New(), NodeID: id}, cb: cb}
	r.mu.Lock()
	r.subscribers[id] = append(r.subscribers[id], s)
	r.mu.Unlock()
	return s.sub
}

// Unsubscribe removes a subscription. A callback that is unsubscribed while an event is being
// delivered does not receive it.
func (r *Registry) Unsubscribe(sub Subscription) {
	if sub.IsZero() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	subs := r.subscribers[sub.NodeID]
	idx := slices.IndexFunc(subs, func(s *subscriber) bool { return s.sub.ID == sub.ID })
	if idx < 0 {
		return
	}
	subs[idx].cancelled.Store(true)
	subs = slices.Delete(subs, idx, idx+1)
	if len(subs) == 0 {
		delete(r.subscribers, sub.NodeID)
		return
	}
	r.subscribers[sub.NodeID] = subs
}

// TransformToWorld composes the transform node id with all of its parents.
func (r *Registry) TransformToWorld(id string) (spatialmath.Pose, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pose := spatialmath.NewZeroPose()
	seen := map[string]bool{}
	for current := id; current != ""; {
		if seen[current] {
			return nil, errors.Wrapf(ErrTransformCycle, "at %q", current)
		}
		seen[current] = true
		node, ok := r.nodes[current]
		if !ok {
			return nil, errors.Wrapf(ErrNodeNotFound, "transform %q", current)
		}
		tf, ok := node.(*TransformNode)
		if !ok {
			return nil, errors.Errorf("node %q is a %s node, not a transform", current, node.Kind())
		}
		pose = spatialmath.Compose(tf.Pose, pose)
		current = tf.ParentID
	}
	return pose, nil
}

// stamp gives volume frames the next modification time. Callers hold r.mu.
func (r *Registry) stamp(node Node) Node {
	vol, ok := node.(*VolumeNode)
	if !ok || vol.Image == nil {
		return node
	}
	r.mtime++
	stamped := *vol.Image
	stamped.ModifiedTime = r.mtime
	return &VolumeNode{ID: vol.ID, Image: &stamped}
}

func (r *Registry) publish(ev Event) {
	r.mu.Lock()
	r.pending = append(r.pending, ev)
	if r.dispatching {
		r.mu.Unlock()
		return
	}
	r.dispatching = true
	for len(r.pending) > 0 {
		next := r.pending[0]
		r.pending = r.pending[1:]
		subs := slices.Clone(r.subscribers[next.NodeID])
		r.mu.Unlock()

		for _, s := range subs {
			if !s.cancelled.Load() {
				r.deliver(s, next)
			}
		}

		r.mu.Lock()
	}
	r.dispatching = false
	r.mu.Unlock()
}

// deliver runs one callback. A panicking callback is logged and does not stop delivery to the
// others.
func (r *Registry) deliver(s *subscriber, ev Event) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Errorw("subscriber panicked", "node", ev.NodeID, "event", ev.Type.String(),
				"subscription", s.sub.ID.String(), "panic", rec)
		}
	}()
	s.cb(ev)
}

func checkNode(node Node) error {
	if node == nil {
		return errors.New("node is nil")
	}
	if node.NodeID() == "" {
		return errors.Errorf("%s node has an empty identifier", node.Kind())
	}
	if tf, ok := node.(*TransformNode); ok && tf.Pose == nil {
		return errors.Errorf("transform node %q has no pose", tf.ID)
	}
	return nil
}
