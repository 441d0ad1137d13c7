// Package fake implements an in-memory viewport that records what was set on it.
package fake

import (
	"sync"

	"github.com/golang/geo/r2"

	"github.com/slicerar/arview/rimage/transform"
	"github.com/slicerar/arview/spatialmath"
	"github.com/slicerar/arview/viewport"
)

// State is a snapshot of everything set on a Viewport.
type State struct {
	Size               transform.Dimensions
	ViewAngle          float64
	WindowCenter       r2.Point
	CameraPose         spatialmath.CameraPose
	TexturedBackground bool
	LeftTexture        *viewport.Texture
	RightTexture       *viewport.Texture
	Renders            int
}

// DefaultViewAngle is the view angle of a freshly created viewport.
const DefaultViewAngle = 30.

// Viewport is a viewport.Viewport that only keeps state.
type Viewport struct {
	mu    sync.Mutex
	state State
}

// NewViewport returns a viewport of the given size looking down +Z from the origin.
func NewViewport(width, height int) *Viewport {
	return &Viewport{state: State{
		Size:       transform.Dimensions{Width: width, Height: height},
		ViewAngle:  DefaultViewAngle,
		CameraPose: spatialmath.NewCameraPoseFromPose(spatialmath.NewZeroPose()),
	}}
}

// State returns a snapshot of the viewport.
func (v *Viewport) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Resize changes the render target size. Bindings are told separately.
func (v *Viewport) Resize(width, height int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Size = transform.Dimensions{Width: width, Height: height}
}

// Size returns the render target size.
func (v *Viewport) Size() transform.Dimensions {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.Size
}

// SetViewAngle sets the vertical view angle.
func (v *Viewport) SetViewAngle(degrees float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.ViewAngle = degrees
}

// SetWindowCenter sets the projection window center.
func (v *Viewport) SetWindowCenter(center r2.Point) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.WindowCenter = center
}

// SetCameraPose places the camera.
func (v *Viewport) SetCameraPose(pose spatialmath.CameraPose) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.CameraPose = pose
}

// SetTexturedBackground turns the textured background on or off.
func (v *Viewport) SetTexturedBackground(enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.TexturedBackground = enabled
}

// SetLeftBackgroundTexture sets the left background texture.
func (v *Viewport) SetLeftBackgroundTexture(tex *viewport.Texture) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.LeftTexture = tex
}

// SetRightBackgroundTexture sets the right background texture.
func (v *Viewport) SetRightBackgroundTexture(tex *viewport.Texture) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.RightTexture = tex
}

// ScheduleRender counts render requests.
func (v *Viewport) ScheduleRender() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Renders++
}
