package trackedscreen

import (
	"github.com/pkg/errors"

	"github.com/slicerar/arview/rimage/transform"
	"github.com/slicerar/arview/scene"
	"github.com/slicerar/arview/viewport"
)

// BindingState is the observable state of a video source and intrinsics pair.
type BindingState int

const (
	// Unbound means there is no usable video frame; the textured background is off.
	Unbound BindingState = iota
	// BoundNoIntrinsics shows the raw frame as background and leaves the camera projection alone.
	BoundNoIntrinsics
	// BoundWithIntrinsics shows the frame and drives the camera projection from the intrinsics.
	BoundWithIntrinsics
)

func (s BindingState) String() string {
	switch s {
	case Unbound:
		return "unbound"
	case BoundNoIntrinsics:
		return "bound without intrinsics"
	case BoundWithIntrinsics:
		return "bound with intrinsics"
	}
	return "unknown"
}

// inputs is everything a recomputation depends on, copied out of the scene and viewport.
type inputs struct {
	sourceID   string
	image      *scene.ImageData
	intrinsics *transform.PinholeCameraIntrinsics
	viewport   transform.Dimensions
	mode       transform.ProjectionMode
}

// outcome is what gets applied to the viewport.
type outcome struct {
	state      BindingState
	texture    *viewport.Texture
	projection *transform.ViewProjection
	// err is set when a frame or intrinsics were present but unusable.
	err error
}

// evaluate derives the viewport state from in alone; it never looks at what was applied before.
func evaluate(in inputs) outcome {
	if in.image == nil || !in.image.HasPixelData() {
		out := outcome{state: Unbound}
		if in.image != nil {
			out.err = errors.Wrapf(transform.ErrInvalidInput, "video source %q has no pixel data", in.sourceID)
		}
		return out
	}
	if in.intrinsics == nil {
		return outcome{
			state:   BoundNoIntrinsics,
			texture: &viewport.Texture{SourceID: in.sourceID, Image: in.image.Frame},
		}
	}

	proj, err := transform.ComputeViewProjection(in.intrinsics, in.image.Dimensions(), in.viewport, in.mode)
	if err != nil {
		return outcome{state: Unbound, err: err}
	}
	return outcome{
		state:      BoundWithIntrinsics,
		texture:    &viewport.Texture{SourceID: in.sourceID, Image: in.image.Frame},
		projection: &proj,
	}
}

func apply(vp viewport.Viewport, out outcome) {
	if out.texture == nil {
		vp.SetTexturedBackground(false)
		vp.SetLeftBackgroundTexture(nil)
		return
	}
	vp.SetTexturedBackground(true)
	vp.SetLeftBackgroundTexture(out.texture)
	if out.projection != nil {
		vp.SetViewAngle(out.projection.ViewAngle)
		vp.SetWindowCenter(out.projection.WindowCenter)
	}
}
