// Package scene is an in-memory stand-in for the host application's node registry: it stores
// tracked transforms, camera intrinsics and video volumes, and notifies subscribers when they
// change.
package scene

import (
	"image"

	"github.com/slicerar/arview/rimage/transform"
	"github.com/slicerar/arview/spatialmath"
)

// Kind identifies the type of a Node.
type Kind string

// The node kinds a Scene stores.
const (
	KindTransform  Kind = "transform"
	KindIntrinsics Kind = "intrinsics"
	KindVolume     Kind = "volume"
)

// A Node is an immutable snapshot of a scene node. Changing a node means replacing it.
type Node interface {
	NodeID() string
	Kind() Kind
}

// TransformNode is a tracked rigid transform, expressed relative to its parent node or to the
// world when ParentID is empty.
type TransformNode struct {
	ID       string
	ParentID string
	Pose     spatialmath.Pose
}

// NodeID returns the node identifier.
func (n *TransformNode) NodeID() string { return n.ID }

// Kind returns KindTransform.
func (n *TransformNode) Kind() Kind { return KindTransform }

// IntrinsicsNode holds the calibration of a video camera.
type IntrinsicsNode struct {
	ID         string
	Intrinsics transform.PinholeCameraIntrinsics
}

// NodeID returns the node identifier.
func (n *IntrinsicsNode) NodeID() string { return n.ID }

// Kind returns KindIntrinsics.
func (n *IntrinsicsNode) Kind() Kind { return KindIntrinsics }

// VolumeNode is an image volume; for video sources it holds the latest frame.
type VolumeNode struct {
	ID    string
	Image *ImageData
}

// NodeID returns the node identifier.
func (n *VolumeNode) NodeID() string { return n.ID }

// Kind returns KindVolume.
func (n *VolumeNode) Kind() Kind { return KindVolume }

// ImageData is a frame plus the scene-wide modification counter value it was stored at.
type ImageData struct {
	Frame        image.Image
	ModifiedTime uint64
}

// Dimensions returns the pixel size of the frame, zero when there is none.
func (d *ImageData) Dimensions() transform.Dimensions {
	if d == nil || d.Frame == nil {
		return transform.Dimensions{}
	}
	size := d.Frame.Bounds().Size()
	return transform.Dimensions{Width: size.X, Height: size.Y}
}

// HasPixelData reports whether there is a non-empty frame.
func (d *ImageData) HasPixelData() bool {
	return !d.Dimensions().Empty()
}
