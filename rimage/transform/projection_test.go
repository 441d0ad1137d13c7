package transform

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

var vgaIntrinsics = &PinholeCameraIntrinsics{Fx: 800, Fy: 800, Ppx: 320, Ppy: 240}

func TestViewAngle(t *testing.T) {
	angle, err := ViewAngle(800, 480)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, angle, test.ShouldAlmostEqual, 2*math.Atan2(240, 800)*180/math.Pi)
	test.That(t, angle, test.ShouldAlmostEqual, 33.398, 1e-3)

	t.Run("focal length of half the height is 90 degrees", func(t *testing.T) {
		angle, err := ViewAngle(240, 480)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, angle, test.ShouldAlmostEqual, 90)
	})

	t.Run("strictly decreasing in fy", func(t *testing.T) {
		prev := math.Inf(1)
		for fy := 50.; fy < 5000; fy *= 1.5 {
			angle, err := ViewAngle(fy, 480)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, angle, test.ShouldBeLessThan, prev)
			prev = angle
		}
	})

	t.Run("strictly increasing in frame height", func(t *testing.T) {
		prev := 0.
		for h := 1; h < 4000; h *= 2 {
			angle, err := ViewAngle(800, h)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, angle, test.ShouldBeGreaterThan, prev)
			prev = angle
		}
	})

	t.Run("invalid input", func(t *testing.T) {
		for _, tc := range []struct {
			fy     float64
			height int
		}{
			{0, 480},
			{-1, 480},
			{math.NaN(), 480},
			{800, 0},
			{800, -10},
		} {
			_, err := ViewAngle(tc.fy, tc.height)
			test.That(t, errors.Is(err, ErrInvalidInput), test.ShouldBeTrue)
		}
	})
}

func TestWindowCenter(t *testing.T) {
	frame := Dimensions{640, 480}

	center, err := WindowCenter(320, 240, frame)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, center, test.ShouldResemble, r2.Point{X: 0, Y: 0})

	center, err = WindowCenter(300, 240, frame)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, center.X, test.ShouldAlmostEqual, 0.0625)
	test.That(t, center.Y, test.ShouldEqual, 0)

	center, err = WindowCenter(320, 300, frame)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, center.X, test.ShouldEqual, 0)
	test.That(t, center.Y, test.ShouldAlmostEqual, 0.25)

	// the principal point on the frame corners maps to the window edges
	center, err = WindowCenter(0, 480, frame)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, center, test.ShouldResemble, r2.Point{X: 1, Y: 1})

	_, err = WindowCenter(320, 240, Dimensions{0, 480})
	test.That(t, errors.Is(err, ErrInvalidInput), test.ShouldBeTrue)
	_, err = WindowCenter(320, 240, Dimensions{640, 0})
	test.That(t, errors.Is(err, ErrInvalidInput), test.ShouldBeTrue)
}

func TestComputeViewProjection(t *testing.T) {
	frame := Dimensions{640, 480}

	t.Run("frame matched ignores the viewport", func(t *testing.T) {
		proj, err := ComputeViewProjection(vgaIntrinsics, frame, Dimensions{1920, 1080}, FrameMatched)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, proj.ViewAngle, test.ShouldAlmostEqual, 33.398, 1e-3)
		test.That(t, proj.WindowCenter, test.ShouldResemble, r2.Point{X: 0, Y: 0})

		proj2, err := ComputeViewProjection(vgaIntrinsics, frame, Dimensions{}, "")
		test.That(t, err, test.ShouldBeNil)
		test.That(t, proj2, test.ShouldResemble, proj)
	})

	t.Run("off center principal point", func(t *testing.T) {
		params := *vgaIntrinsics
		params.Ppx = 300
		proj, err := ComputeViewProjection(&params, frame, frame, FrameMatched)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, proj.WindowCenter.X, test.ShouldAlmostEqual, 0.0625)
	})

	t.Run("viewport fit with identical viewport matches frame matched", func(t *testing.T) {
		params := &PinholeCameraIntrinsics{Fx: 612, Fy: 610, Ppx: 301.5, Ppy: 250.25}
		fit, err := ComputeViewProjection(params, frame, frame, ViewportFit)
		test.That(t, err, test.ShouldBeNil)
		matched, err := ComputeViewProjection(params, frame, frame, FrameMatched)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, fit, test.ShouldResemble, matched)
	})

	t.Run("viewport fit scales and letterboxes", func(t *testing.T) {
		params := *vgaIntrinsics
		params.Ppx = 300
		// 640x480 fit to a 1200x960 viewport: factor 2, frame becomes 1280 wide, so the
		// principal point moves by (1200-1280)/2 = -40 pixels.
		proj, err := ComputeViewProjection(&params, frame, Dimensions{1200, 960}, ViewportFit)
		test.That(t, err, test.ShouldBeNil)

		// the vertical field of view does not depend on the scale
		test.That(t, proj.ViewAngle, test.ShouldAlmostEqual, 33.398, 1e-3)
		expectedPx := 2*300. - 40
		test.That(t, proj.WindowCenter.X, test.ShouldAlmostEqual, -2*(expectedPx-600)/1200)
		test.That(t, proj.WindowCenter.Y, test.ShouldAlmostEqual, 0)
	})

	t.Run("viewport fit rejects an empty viewport", func(t *testing.T) {
		_, err := ComputeViewProjection(vgaIntrinsics, frame, Dimensions{}, ViewportFit)
		test.That(t, errors.Is(err, ErrInvalidInput), test.ShouldBeTrue)
	})

	t.Run("invalid intrinsics", func(t *testing.T) {
		_, err := ComputeViewProjection(nil, frame, frame, FrameMatched)
		test.That(t, errors.Is(err, ErrInvalidInput), test.ShouldBeTrue)
		_, err = ComputeViewProjection(&PinholeCameraIntrinsics{Fx: 800, Ppx: 320, Ppy: 240}, frame, frame, FrameMatched)
		test.That(t, errors.Is(err, ErrInvalidInput), test.ShouldBeTrue)
	})

	t.Run("empty frame", func(t *testing.T) {
		_, err := ComputeViewProjection(vgaIntrinsics, Dimensions{640, 0}, frame, FrameMatched)
		test.That(t, errors.Is(err, ErrInvalidInput), test.ShouldBeTrue)
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := ComputeViewProjection(vgaIntrinsics, frame, frame, ProjectionMode("stretch"))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, errors.Is(err, ErrInvalidInput), test.ShouldBeFalse)
	})

	t.Run("does not mutate the intrinsics", func(t *testing.T) {
		params := *vgaIntrinsics
		_, err := ComputeViewProjection(&params, frame, Dimensions{1200, 960}, ViewportFit)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, params, test.ShouldResemble, *vgaIntrinsics)
	})
}

func TestProjectionModeFromString(t *testing.T) {
	mode, err := ProjectionModeFromString("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mode, test.ShouldEqual, FrameMatched)

	mode, err = ProjectionModeFromString("Viewport_Fit")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mode, test.ShouldEqual, ViewportFit)

	_, err = ProjectionModeFromString("stretch")
	test.That(t, err, test.ShouldNotBeNil)
}
