package scene

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/slicerar/arview/spatialmath"
)

var (
	// ErrNodeNotFound is returned when no node has the requested identifier.
	ErrNodeNotFound = errors.New("node not found")
	// ErrTransformCycle is returned when a chain of transform parents loops.
	ErrTransformCycle = errors.New("transform parents form a cycle")
)

// EventType says what happened to a node.
type EventType int

// The events delivered to subscribers.
const (
	EventAdded EventType = iota
	EventModified
	EventRemoved
)

func (e EventType) String() string {
	switch e {
	case EventAdded:
		return "added"
	case EventModified:
		return "modified"
	case EventRemoved:
		return "removed"
	}
	return "unknown"
}

// Event is a change notification for a single node.
type Event struct {
	NodeID string
	Type   EventType
}

// Callback receives node events.
type Callback func(Event)

// Subscription identifies a registered Callback. The zero value is not a subscription.
type Subscription struct {
	ID     uuid.UUID
	NodeID string
}

// IsZero reports whether s was never returned by Subscribe.
func (s Subscription) IsZero() bool {
	return s.ID == uuid.Nil
}

// A Scene looks up nodes and notifies about their changes.
type Scene interface {
	// Node returns the current snapshot of the node with the given identifier.
	Node(id string) (Node, bool)
	// Subscribe registers cb for events of the node id, which need not exist yet. Callbacks run
	// one at a time, in subscription order.
	Subscribe(id string, cb Callback) Subscription
	// Unsubscribe removes a subscription. Unknown or zero subscriptions are ignored.
	Unsubscribe(sub Subscription)
	// TransformToWorld composes the transform node id with all of its parents.
	TransformToWorld(id string) (spatialmath.Pose, error)
}

// ParentChain returns id followed by the identifiers of its transform parents, nearest first.
// The chain stops at a missing or non-transform node.
func ParentChain(s Scene, id string) ([]string, error) {
	var chain []string
	seen := map[string]bool{}
	for id != "" {
		if seen[id] {
			return chain, errors.Wrapf(ErrTransformCycle, "at %q", id)
		}
		seen[id] = true
		chain = append(chain, id)
		node, ok := s.Node(id)
		if !ok {
			break
		}
		tf, ok := node.(*TransformNode)
		if !ok {
			break
		}
		id = tf.ParentID
	}
	return chain, nil
}
