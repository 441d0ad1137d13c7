package transform

import (
	"math"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

// ErrInvalidInput is returned when a projection cannot be computed from the given focal length,
// frame or viewport. Callers recover from it locally.
var ErrInvalidInput = errors.New("invalid projection input")

// Dimensions is the pixel size of a video frame or a render viewport.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty reports whether d covers no pixels.
func (d Dimensions) Empty() bool {
	return d.Width <= 0 || d.Height <= 0
}

// ProjectionMode selects how intrinsics expressed in frame pixels are mapped onto the viewport.
type ProjectionMode string

const (
	// FrameMatched assumes the viewport shows the frame one-to-one and ignores the viewport size.
	FrameMatched ProjectionMode = "frame_matched"
	// ViewportFit scales the frame to the viewport height and centers it horizontally,
	// compensating the principal point for the letterbox.
	ViewportFit ProjectionMode = "viewport_fit"
)

// ProjectionModeFromString parses a mode name; the empty string selects FrameMatched.
func ProjectionModeFromString(s string) (ProjectionMode, error) {
	switch ProjectionMode(strings.ToLower(s)) {
	case "", FrameMatched:
		return FrameMatched, nil
	case ViewportFit:
		return ViewportFit, nil
	}
	return "", errors.Errorf("unknown projection mode %q", s)
}

// ViewProjection is what a virtual camera needs to line its frustum up with the video frame.
type ViewProjection struct {
	// ViewAngle is the vertical field of view in degrees.
	ViewAngle float64
	// WindowCenter is the normalized [-1, 1] offset of the projection center.
	WindowCenter r2.Point
}

// ViewAngle returns the vertical field of view, in degrees, of a camera with vertical focal
// length fy (pixels) imaging a frame frameHeight pixels tall.
func ViewAngle(fy float64, frameHeight int) (float64, error) {
	if fy <= 0 || math.IsNaN(fy) {
		return 0, errors.Wrapf(ErrInvalidInput, "focal length fy must be positive, got %v", fy)
	}
	if frameHeight <= 0 {
		return 0, errors.Wrapf(ErrInvalidInput, "frame height must be positive, got %d", frameHeight)
	}
	return 2 * math.Atan2(float64(frameHeight)/2, fy) * 180 / math.Pi, nil
}

// WindowCenter returns the normalized window center for a principal point (ppx, ppy) given in
// pixels of frame. A centered principal point gives (0, 0).
func WindowCenter(ppx, ppy float64, frame Dimensions) (r2.Point, error) {
	if frame.Empty() {
		return r2.Point{}, errors.Wrapf(ErrInvalidInput, "frame has no pixels (%dx%d)", frame.Width, frame.Height)
	}
	w, h := float64(frame.Width), float64(frame.Height)
	return r2.Point{
		X: -2 * (ppx - w/2) / w,
		Y: 2 * (ppy - h/2) / h,
	}, nil
}

// ComputeViewProjection derives the virtual camera's view angle and window center from
// intrinsics calibrated on frames of size frame, shown in a viewport of size viewport.
func ComputeViewProjection(
	params *PinholeCameraIntrinsics,
	frame, viewport Dimensions,
	mode ProjectionMode,
) (ViewProjection, error) {
	if err := params.CheckValid(); err != nil {
		return ViewProjection{}, errors.Wrap(ErrInvalidInput, err.Error())
	}
	if frame.Empty() {
		return ViewProjection{}, errors.Wrapf(ErrInvalidInput, "frame has no pixels (%dx%d)", frame.Width, frame.Height)
	}

	fy, ppx, ppy := params.Fy, params.Ppx, params.Ppy
	target := frame
	switch mode {
	case FrameMatched, "":
	case ViewportFit:
		if viewport.Empty() {
			return ViewProjection{}, errors.Wrapf(ErrInvalidInput,
				"viewport has no pixels (%dx%d)", viewport.Width, viewport.Height)
		}
		if viewport != frame {
			fy, ppx, ppy = fitToViewport(fy, ppx, ppy, frame, viewport)
			target = viewport
		}
	default:
		return ViewProjection{}, errors.Errorf("unknown projection mode %q", mode)
	}

	angle, err := ViewAngle(fy, target.Height)
	if err != nil {
		return ViewProjection{}, err
	}
	center, err := WindowCenter(ppx, ppy, target)
	if err != nil {
		return ViewProjection{}, err
	}
	return ViewProjection{ViewAngle: angle, WindowCenter: center}, nil
}

// fitToViewport rescales the focal length and principal point from frame pixels to viewport
// pixels. The frame is fit to the viewport height; any horizontal slack is split evenly.
func fitToViewport(fy, ppx, ppy float64, frame, viewport Dimensions) (float64, float64, float64) {
	factor := float64(viewport.Height) / float64(frame.Height)
	ppx *= factor
	if expected := int(math.Round(factor * float64(frame.Width))); expected != viewport.Width {
		ppx += float64((viewport.Width - expected) / 2)
	}
	return fy * factor, ppx, ppy * factor
}
