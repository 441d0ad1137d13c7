// Package viewport defines the render viewport that AR bindings drive: its camera and its
// textured background.
package viewport

import (
	"image"

	"github.com/golang/geo/r2"

	"github.com/slicerar/arview/rimage/transform"
	"github.com/slicerar/arview/spatialmath"
)

// Texture is a background image bound to a viewport. SourceID names the scene node the image
// came from.
type Texture struct {
	SourceID string
	Image    image.Image
}

// Viewport is a 3D view whose camera and background can be set.
type Viewport interface {
	// Size returns the render target size in pixels.
	Size() transform.Dimensions

	SetViewAngle(degrees float64)
	SetWindowCenter(center r2.Point)
	SetCameraPose(pose spatialmath.CameraPose)

	SetTexturedBackground(enabled bool)
	// SetLeftBackgroundTexture sets the background of a mono view, or of the left eye of a
	// stereo one. nil clears it.
	SetLeftBackgroundTexture(tex *Texture)
	SetRightBackgroundTexture(tex *Texture)

	ScheduleRender()
}
