package inject

import (
	"github.com/slicerar/arview/scene"
	"github.com/slicerar/arview/spatialmath"
)

// Scene is an injected scene.
type Scene struct {
	scene.Scene
	NodeFunc             func(id string) (scene.Node, bool)
	SubscribeFunc        func(id string, cb scene.Callback) scene.Subscription
	UnsubscribeFunc      func(sub scene.Subscription)
	TransformToWorldFunc func(id string) (spatialmath.Pose, error)
}

// NewScene returns a new injected scene around s.
func NewScene(s scene.Scene) *Scene {
	return &Scene{Scene: s}
}

// Node calls the injected Node or the real version.
func (s *Scene) Node(id string) (scene.Node, bool) {
	if s.NodeFunc == nil {
		return s.Scene.Node(id)
	}
	return s.NodeFunc(id)
}

// Subscribe calls the injected Subscribe or the real version.
func (s *Scene) Subscribe(id string, cb scene.Callback) scene.Subscription {
	if s.SubscribeFunc == nil {
		return s.Scene.Subscribe(id, cb)
	}
	return s.SubscribeFunc(id, cb)
}

// Unsubscribe calls the injected Unsubscribe or the real version.
func (s *Scene) Unsubscribe(sub scene.Subscription) {
	if s.UnsubscribeFunc == nil {
		s.Scene.Unsubscribe(sub)
		return
	}
	s.UnsubscribeFunc(sub)
}

// TransformToWorld calls the injected TransformToWorld or the real version.
func (s *Scene) TransformToWorld(id string) (spatialmath.Pose, error) {
	if s.TransformToWorldFunc == nil {
		return s.Scene.TransformToWorld(id)
	}
	return s.TransformToWorldFunc(id)
}
