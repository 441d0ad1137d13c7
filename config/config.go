// Package config describes an arview session: the viewport, the scene nodes to create and
// which of them drive the tracked-screen and passthrough bindings.
package config

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/slicerar/arview/rimage/transform"
	"github.com/slicerar/arview/spatialmath"
)

// Config is the top level of a config file.
type Config struct {
	Viewport       transform.Dimensions `json:"viewport"`
	ProjectionMode string               `json:"projection_mode,omitempty"`
	Transforms     []Transform          `json:"transforms,omitempty"`
	Intrinsics     []Intrinsics         `json:"intrinsics,omitempty"`
	Videos         []Video              `json:"videos,omitempty"`
	TrackedScreen  *TrackedScreen       `json:"tracked_screen,omitempty"`
	Passthrough    *Passthrough         `json:"passthrough,omitempty"`
}

// Transform is a tracked transform node. Matrix holds 16 row-major values of a homogeneous
// transform; an empty matrix is the identity.
type Transform struct {
	ID     string    `json:"id"`
	Parent string    `json:"parent,omitempty"`
	Matrix []float64 `json:"matrix,omitempty"`
}

// Intrinsics is a camera calibration given inline or as a path to a calibration file.
// A file is watched and reloaded when it changes.
type Intrinsics struct {
	ID         string                             `json:"id"`
	File       string                             `json:"file,omitempty"`
	Parameters *transform.PinholeCameraIntrinsics `json:"parameters,omitempty"`
}

// Video is a video source node. It starts with a blank frame of the given size.
type Video struct {
	ID     string `json:"id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// TrackedScreen selects the nodes of the tracked-screen binding.
type TrackedScreen struct {
	VideoSource     string `json:"video_source"`
	Intrinsics      string `json:"intrinsics,omitempty"`
	CameraTransform string `json:"camera_transform,omitempty"`
	ValidatePose    bool   `json:"validate_pose,omitempty"`
}

// Passthrough selects the eye nodes of the stereo binding. With Poll set the eyes are
// polled instead of followed through notifications. It owns the viewport background, so it
// cannot be set together with TrackedScreen.
type Passthrough struct {
	Left  string `json:"left"`
	Right string `json:"right"`
	Poll  bool   `json:"poll,omitempty"`
}

// Mode returns the projection mode, defaulting to frame matched.
func (c *Config) Mode() (transform.ProjectionMode, error) {
	return transform.ProjectionModeFromString(c.ProjectionMode)
}

// Pose returns the pose described by the transform's matrix.
func (t *Transform) Pose() (spatialmath.Pose, error) {
	if len(t.Matrix) == 0 {
		return spatialmath.NewZeroPose(), nil
	}
	return spatialmath.NewPoseFromSlice(t.Matrix)
}

// Validate checks the whole config and reports every problem found.
func (c *Config) Validate() error {
	var err error
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		err = multierr.Append(err, goutils.NewConfigValidationError("viewport",
			errors.Errorf("size must be positive, got %dx%d", c.Viewport.Width, c.Viewport.Height)))
	}
	if _, modeErr := c.Mode(); modeErr != nil {
		err = multierr.Append(err, goutils.NewConfigValidationError("projection_mode", modeErr))
	}

	kinds := map[string]string{}
	addID := func(path, id, kind string) {
		if id == "" {
			err = multierr.Append(err, goutils.NewConfigValidationFieldRequiredError(path, "id"))
			return
		}
		if _, ok := kinds[id]; ok {
			err = multierr.Append(err, goutils.NewConfigValidationError(path, errors.Errorf("duplicate node id %q", id)))
			return
		}
		kinds[id] = kind
	}
	for i := range c.Transforms {
		path := fmt.Sprintf("transforms.%d", i)
		addID(path, c.Transforms[i].ID, "transform")
		err = multierr.Append(err, c.Transforms[i].Validate(path))
	}
	for i := range c.Intrinsics {
		path := fmt.Sprintf("intrinsics.%d", i)
		addID(path, c.Intrinsics[i].ID, "intrinsics")
		err = multierr.Append(err, c.Intrinsics[i].Validate(path))
	}
	for i := range c.Videos {
		path := fmt.Sprintf("videos.%d", i)
		addID(path, c.Videos[i].ID, "video")
		err = multierr.Append(err, c.Videos[i].Validate(path))
	}
	for i, t := range c.Transforms {
		if t.Parent != "" && kinds[t.Parent] != "transform" {
			err = multierr.Append(err, goutils.NewConfigValidationError(fmt.Sprintf("transforms.%d", i),
				errors.Errorf("parent %q is not a transform", t.Parent)))
		}
	}

	refer := func(path, id, kind string) {
		if id != "" && kinds[id] != kind {
			err = multierr.Append(err, goutils.NewConfigValidationError(path, errors.Errorf("%q is not a %s node", id, kind)))
		}
	}
	if ts := c.TrackedScreen; ts != nil {
		if ts.VideoSource == "" {
			err = multierr.Append(err, goutils.NewConfigValidationFieldRequiredError("tracked_screen", "video_source"))
		}
		refer("tracked_screen.video_source", ts.VideoSource, "video")
		refer("tracked_screen.intrinsics", ts.Intrinsics, "intrinsics")
		refer("tracked_screen.camera_transform", ts.CameraTransform, "transform")
	}
	if c.TrackedScreen != nil && c.Passthrough != nil {
		// both would drive the background of the one viewport
		err = multierr.Append(err, goutils.NewConfigValidationError("passthrough",
			errors.New("cannot be combined with tracked_screen on the same viewport")))
	}
	if pt := c.Passthrough; pt != nil {
		if pt.Left == "" {
			err = multierr.Append(err, goutils.NewConfigValidationFieldRequiredError("passthrough", "left"))
		}
		if pt.Right == "" {
			err = multierr.Append(err, goutils.NewConfigValidationFieldRequiredError("passthrough", "right"))
		}
		refer("passthrough.left", pt.Left, "video")
		refer("passthrough.right", pt.Right, "video")
	}
	return err
}

// Validate ensures the matrix describes a pose.
func (t *Transform) Validate(path string) error {
	if _, err := t.Pose(); err != nil {
		return goutils.NewConfigValidationError(path, err)
	}
	return nil
}

// Validate ensures exactly one calibration source is given and that inline parameters are usable.
func (in *Intrinsics) Validate(path string) error {
	switch {
	case in.File == "" && in.Parameters == nil:
		return goutils.NewConfigValidationError(path, errors.New("one of file or parameters is required"))
	case in.File != "" && in.Parameters != nil:
		return goutils.NewConfigValidationError(path, errors.New("file and parameters are mutually exclusive"))
	case in.Parameters != nil:
		if err := in.Parameters.CheckValid(); err != nil {
			return goutils.NewConfigValidationError(path+".parameters", err)
		}
	}
	return nil
}

// Validate ensures the initial frame has a size.
func (v *Video) Validate(path string) error {
	if v.Width <= 0 || v.Height <= 0 {
		return goutils.NewConfigValidationError(path, errors.Errorf("size must be positive, got %dx%d", v.Width, v.Height))
	}
	return nil
}
