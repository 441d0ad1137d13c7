package inject

import (
	"github.com/golang/geo/r2"

	"github.com/slicerar/arview/rimage/transform"
	"github.com/slicerar/arview/spatialmath"
	"github.com/slicerar/arview/viewport"
)

// Viewport is an injected viewport.
type Viewport struct {
	viewport.Viewport
	SizeFunc                      func() transform.Dimensions
	SetViewAngleFunc              func(degrees float64)
	SetWindowCenterFunc           func(center r2.Point)
	SetCameraPoseFunc             func(pose spatialmath.CameraPose)
	SetTexturedBackgroundFunc     func(enabled bool)
	SetLeftBackgroundTextureFunc  func(tex *viewport.Texture)
	SetRightBackgroundTextureFunc func(tex *viewport.Texture)
	ScheduleRenderFunc            func()
}

// NewViewport returns a new injected viewport around vp.
func NewViewport(vp viewport.Viewport) *Viewport {
	return &Viewport{Viewport: vp}
}

// Size calls the injected Size or the real version.
func (v *Viewport) Size() transform.Dimensions {
	if v.SizeFunc == nil {
		return v.Viewport.Size()
	}
	return v.SizeFunc()
}

// SetViewAngle calls the injected SetViewAngle or the real version.
func (v *Viewport) SetViewAngle(degrees float64) {
	if v.SetViewAngleFunc == nil {
		v.Viewport.SetViewAngle(degrees)
		return
	}
	v.SetViewAngleFunc(degrees)
}

// SetWindowCenter calls the injected SetWindowCenter or the real version.
func (v *Viewport) SetWindowCenter(center r2.Point) {
	if v.SetWindowCenterFunc == nil {
		v.Viewport.SetWindowCenter(center)
		return
	}
	v.SetWindowCenterFunc(center)
}

// SetCameraPose calls the injected SetCameraPose or the real version.
func (v *Viewport) SetCameraPose(pose spatialmath.CameraPose) {
	if v.SetCameraPoseFunc == nil {
		v.Viewport.SetCameraPose(pose)
		return
	}
	v.SetCameraPoseFunc(pose)
}

// SetTexturedBackground calls the injected SetTexturedBackground or the real version.
func (v *Viewport) SetTexturedBackground(enabled bool) {
	if v.SetTexturedBackgroundFunc == nil {
		v.Viewport.SetTexturedBackground(enabled)
		return
	}
	v.SetTexturedBackgroundFunc(enabled)
}

// SetLeftBackgroundTexture calls the injected SetLeftBackgroundTexture or the real version.
func (v *Viewport) SetLeftBackgroundTexture(tex *viewport.Texture) {
	if v.SetLeftBackgroundTextureFunc == nil {
		v.Viewport.SetLeftBackgroundTexture(tex)
		return
	}
	v.SetLeftBackgroundTextureFunc(tex)
}

// SetRightBackgroundTexture calls the injected SetRightBackgroundTexture or the real version.
func (v *Viewport) SetRightBackgroundTexture(tex *viewport.Texture) {
	if v.SetRightBackgroundTextureFunc == nil {
		v.Viewport.SetRightBackgroundTexture(tex)
		return
	}
	v.SetRightBackgroundTextureFunc(tex)
}

// ScheduleRender calls the injected ScheduleRender or the real version.
func (v *Viewport) ScheduleRender() {
	if v.ScheduleRenderFunc == nil {
		v.Viewport.ScheduleRender()
		return
	}
	v.ScheduleRenderFunc()
}
