package trackedscreen

import (
	"image"
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/slicerar/arview/logging"
	"github.com/slicerar/arview/rimage/transform"
	"github.com/slicerar/arview/scene"
	"github.com/slicerar/arview/spatialmath"
	"github.com/slicerar/arview/testutils/inject"
	"github.com/slicerar/arview/viewport/fake"
)

var vga = transform.PinholeCameraIntrinsics{Fx: 800, Fy: 800, Ppx: 320, Ppy: 240}

func frame(width, height int) image.Image {
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

func setup(t *testing.T, opts Options) (*scene.Registry, *fake.Viewport, *Binder) {
	t.Helper()
	logger := logging.NewTestLogger(t)
	registry := scene.NewRegistry(logger)
	vp := fake.NewViewport(640, 480)
	b, err := NewBinder(registry, vp, opts, logger)
	test.That(t, err, test.ShouldBeNil)
	t.Cleanup(b.Close)
	return registry, vp, b
}

func TestBindVideoSource(t *testing.T) {
	registry, vp, b := setup(t, Options{})
	test.That(t, registry.AddNode(&scene.VolumeNode{ID: "video", Image: &scene.ImageData{Frame: frame(640, 480)}}),
		test.ShouldBeNil)

	test.That(t, b.State(), test.ShouldEqual, Unbound)
	b.SetVideoSource("video")
	test.That(t, b.State(), test.ShouldEqual, BoundNoIntrinsics)

	st := vp.State()
	test.That(t, st.TexturedBackground, test.ShouldBeTrue)
	test.That(t, st.LeftTexture, test.ShouldNotBeNil)
	test.That(t, st.LeftTexture.SourceID, test.ShouldEqual, "video")
	// without intrinsics the projection is left alone
	test.That(t, st.ViewAngle, test.ShouldEqual, fake.DefaultViewAngle)

	b.SetVideoSource("")
	test.That(t, b.State(), test.ShouldEqual, Unbound)
	st = vp.State()
	test.That(t, st.TexturedBackground, test.ShouldBeFalse)
	test.That(t, st.LeftTexture, test.ShouldBeNil)
}

func TestBindUnknownOrEmptySource(t *testing.T) {
	registry, vp, b := setup(t, Options{})

	b.SetVideoSource("missing")
	test.That(t, b.State(), test.ShouldEqual, Unbound)
	test.That(t, vp.State().TexturedBackground, test.ShouldBeFalse)

	// the node shows up later
	test.That(t, registry.AddNode(&scene.VolumeNode{ID: "missing", Image: &scene.ImageData{Frame: frame(8, 8)}}),
		test.ShouldBeNil)
	test.That(t, b.State(), test.ShouldEqual, BoundNoIntrinsics)
	test.That(t, vp.State().TexturedBackground, test.ShouldBeTrue)

	// a frame without pixels unbinds
	test.That(t, registry.PushFrame("missing", nil), test.ShouldBeNil)
	test.That(t, b.State(), test.ShouldEqual, Unbound)
	test.That(t, vp.State().LeftTexture, test.ShouldBeNil)

	// the source node going away unbinds too
	test.That(t, registry.PushFrame("missing", frame(8, 8)), test.ShouldBeNil)
	test.That(t, b.State(), test.ShouldEqual, BoundNoIntrinsics)
	test.That(t, registry.RemoveNode("missing"), test.ShouldBeNil)
	test.That(t, b.State(), test.ShouldEqual, Unbound)
	test.That(t, vp.State().TexturedBackground, test.ShouldBeFalse)
}

func TestBindWithIntrinsics(t *testing.T) {
	registry, vp, b := setup(t, Options{})
	test.That(t, registry.AddNode(&scene.IntrinsicsNode{ID: "cam", Intrinsics: vga}), test.ShouldBeNil)
	test.That(t, registry.AddNode(&scene.VolumeNode{ID: "video", Image: &scene.ImageData{Frame: frame(640, 480)}}),
		test.ShouldBeNil)

	// intrinsics without a video source is a no-op that is remembered
	b.SetIntrinsics("cam")
	test.That(t, b.State(), test.ShouldEqual, Unbound)
	test.That(t, vp.State().ViewAngle, test.ShouldEqual, fake.DefaultViewAngle)

	b.SetVideoSource("video")
	test.That(t, b.State(), test.ShouldEqual, BoundWithIntrinsics)
	st := vp.State()
	test.That(t, st.TexturedBackground, test.ShouldBeTrue)
	test.That(t, st.ViewAngle, test.ShouldAlmostEqual, 2*math.Atan2(240, 800)*180/math.Pi)
	test.That(t, st.WindowCenter, test.ShouldResemble, r2.Point{X: 0, Y: 0})

	// new calibration
	offCenter := vga
	offCenter.Ppx = 300
	test.That(t, registry.UpdateNode(&scene.IntrinsicsNode{ID: "cam", Intrinsics: offCenter}), test.ShouldBeNil)
	test.That(t, vp.State().WindowCenter.X, test.ShouldAlmostEqual, 0.0625)

	// a frame of a different resolution
	rendersBefore := vp.State().Renders
	test.That(t, registry.PushFrame("video", frame(1280, 960)), test.ShouldBeNil)
	st = vp.State()
	test.That(t, st.ViewAngle, test.ShouldAlmostEqual, 2*math.Atan2(480, 800)*180/math.Pi)
	test.That(t, st.WindowCenter.X, test.ShouldAlmostEqual, -2*(300-640)/1280.)
	test.That(t, st.Renders, test.ShouldEqual, rendersBefore+1)

	// dropping the intrinsics keeps the background but stops driving the camera
	b.SetIntrinsics("")
	test.That(t, b.State(), test.ShouldEqual, BoundNoIntrinsics)
	test.That(t, vp.State().ViewAngle, test.ShouldEqual, st.ViewAngle)
}

func TestInvalidIntrinsicsDisableBackground(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	registry := scene.NewRegistry(logger)
	vp := fake.NewViewport(640, 480)
	b, err := NewBinder(registry, vp, Options{}, logger)
	test.That(t, err, test.ShouldBeNil)
	defer b.Close()

	test.That(t, registry.AddNode(&scene.IntrinsicsNode{ID: "cam", Intrinsics: vga}), test.ShouldBeNil)
	test.That(t, registry.AddNode(&scene.VolumeNode{ID: "video", Image: &scene.ImageData{Frame: frame(640, 480)}}),
		test.ShouldBeNil)
	b.SetIntrinsics("cam")
	b.SetVideoSource("video")
	angle := vp.State().ViewAngle

	broken := vga
	broken.Fy = 0
	test.That(t, registry.UpdateNode(&scene.IntrinsicsNode{ID: "cam", Intrinsics: broken}), test.ShouldBeNil)

	test.That(t, b.State(), test.ShouldEqual, Unbound)
	st := vp.State()
	test.That(t, st.TexturedBackground, test.ShouldBeFalse)
	test.That(t, st.LeftTexture, test.ShouldBeNil)
	test.That(t, st.ViewAngle, test.ShouldEqual, angle)
	test.That(t, logs.FilterMessage("disabling video background").Len(), test.ShouldEqual, 1)

	// fixing the calibration recovers
	test.That(t, registry.UpdateNode(&scene.IntrinsicsNode{ID: "cam", Intrinsics: vga}), test.ShouldBeNil)
	test.That(t, b.State(), test.ShouldEqual, BoundWithIntrinsics)
	test.That(t, vp.State().TexturedBackground, test.ShouldBeTrue)
}

func TestWrongNodeKinds(t *testing.T) {
	registry, vp, b := setup(t, Options{})
	test.That(t, registry.AddNode(&scene.IntrinsicsNode{ID: "cam", Intrinsics: vga}), test.ShouldBeNil)
	test.That(t, registry.AddNode(&scene.VolumeNode{ID: "video", Image: &scene.ImageData{Frame: frame(640, 480)}}),
		test.ShouldBeNil)

	b.SetVideoSource("cam")
	test.That(t, b.State(), test.ShouldEqual, Unbound)

	b.SetVideoSource("video")
	b.SetIntrinsics("video")
	test.That(t, b.State(), test.ShouldEqual, BoundNoIntrinsics)
	test.That(t, vp.State().ViewAngle, test.ShouldEqual, fake.DefaultViewAngle)
}

func TestViewportFitResize(t *testing.T) {
	registry, vp, b := setup(t, Options{Mode: transform.ViewportFit})
	offCenter := vga
	offCenter.Ppx = 300
	test.That(t, registry.AddNode(&scene.IntrinsicsNode{ID: "cam", Intrinsics: offCenter}), test.ShouldBeNil)
	test.That(t, registry.AddNode(&scene.VolumeNode{ID: "video", Image: &scene.ImageData{Frame: frame(640, 480)}}),
		test.ShouldBeNil)
	b.SetVideoSource("video")
	b.SetIntrinsics("cam")
	test.That(t, vp.State().WindowCenter.X, test.ShouldAlmostEqual, 0.0625)

	vp.Resize(1200, 960)
	b.HandleViewportResize()
	expected, err := transform.ComputeViewProjection(&offCenter, transform.Dimensions{Width: 640, Height: 480},
		transform.Dimensions{Width: 1200, Height: 960}, transform.ViewportFit)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, vp.State().WindowCenter, test.ShouldResemble, expected.WindowCenter)
	test.That(t, vp.State().ViewAngle, test.ShouldEqual, expected.ViewAngle)

	// a collapsed window cannot be fit
	vp.Resize(0, 0)
	b.HandleViewportResize()
	test.That(t, b.State(), test.ShouldEqual, Unbound)
}

func TestNewBinderRejectsUnknownMode(t *testing.T) {
	logger := logging.NewTestLogger(t)
	_, err := NewBinder(scene.NewRegistry(logger), fake.NewViewport(1, 1), Options{Mode: "stretch"}, logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestCameraTransform(t *testing.T) {
	registry, vp, b := setup(t, Options{})
	identity := spatialmath.NewZeroPose()
	test.That(t, registry.AddNode(&scene.TransformNode{ID: "tracker", Pose: identity}), test.ShouldBeNil)
	test.That(t, registry.AddNode(&scene.TransformNode{ID: "camera", ParentID: "tracker", Pose: identity}),
		test.ShouldBeNil)

	b.SetCameraTransform("camera")
	cam := vp.State().CameraPose
	test.That(t, cam.Position, test.ShouldResemble, r3.Vector{X: 0, Y: 0, Z: 0})
	test.That(t, cam.ViewUp, test.ShouldResemble, r3.Vector{X: 0, Y: 1, Z: 0})
	test.That(t, cam.FocalPoint, test.ShouldResemble, r3.Vector{X: 0, Y: 0, Z: 1})

	// the tracker moves
	moved := spatialmath.NewPose(r3.Vector{X: 5}, nil)
	test.That(t, registry.UpdateNode(&scene.TransformNode{ID: "tracker", Pose: moved}), test.ShouldBeNil)
	cam = vp.State().CameraPose
	test.That(t, cam.Position, test.ShouldResemble, r3.Vector{X: 5, Y: 0, Z: 0})
	test.That(t, cam.FocalPoint, test.ShouldResemble, r3.Vector{X: 5, Y: 0, Z: 1})

	// the camera is re-parented onto a new tracker, which is then followed
	test.That(t, registry.AddNode(&scene.TransformNode{ID: "other", Pose: spatialmath.NewPose(r3.Vector{Y: 2}, nil)}),
		test.ShouldBeNil)
	test.That(t, registry.UpdateNode(&scene.TransformNode{ID: "camera", ParentID: "other", Pose: identity}),
		test.ShouldBeNil)
	test.That(t, vp.State().CameraPose.Position, test.ShouldResemble, r3.Vector{X: 0, Y: 2, Z: 0})
	test.That(t, registry.UpdateNode(&scene.TransformNode{ID: "other", Pose: spatialmath.NewPose(r3.Vector{Y: 3}, nil)}),
		test.ShouldBeNil)
	test.That(t, vp.State().CameraPose.Position, test.ShouldResemble, r3.Vector{X: 0, Y: 3, Z: 0})

	// an unknown transform leaves the camera where it is
	b.SetCameraTransform("nope")
	test.That(t, vp.State().CameraPose.Position, test.ShouldResemble, r3.Vector{X: 0, Y: 3, Z: 0})
}

func TestValidatePose(t *testing.T) {
	logger := logging.NewTestLogger(t)
	registry := scene.NewRegistry(logger)
	scaled, err := spatialmath.NewPoseFromSlice([]float64{
		2, 0, 0, 1,
		0, 2, 0, 1,
		0, 0, 2, 1,
		0, 0, 0, 1,
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, registry.AddNode(&scene.TransformNode{ID: "camera", Pose: scaled}), test.ShouldBeNil)

	validated := fake.NewViewport(640, 480)
	b, err := NewBinder(registry, validated, Options{ValidatePose: true}, logger)
	test.That(t, err, test.ShouldBeNil)
	defer b.Close()
	b.SetCameraTransform("camera")
	test.That(t, validated.State().CameraPose, test.ShouldResemble,
		spatialmath.NewCameraPoseFromPose(spatialmath.NewZeroPose()))

	// without validation the pose is used as is
	unvalidated := fake.NewViewport(640, 480)
	b2, err := NewBinder(registry, unvalidated, Options{}, logger)
	test.That(t, err, test.ShouldBeNil)
	defer b2.Close()
	b2.SetCameraTransform("camera")
	test.That(t, unvalidated.State().CameraPose.ViewUp, test.ShouldResemble, r3.Vector{X: 0, Y: 2, Z: 0})
	test.That(t, unvalidated.State().CameraPose.FocalPoint, test.ShouldResemble, r3.Vector{X: 1, Y: 1, Z: 3})
}

func TestNoProjectionWithoutIntrinsics(t *testing.T) {
	logger := logging.NewTestLogger(t)
	registry := scene.NewRegistry(logger)
	vp := inject.NewViewport(fake.NewViewport(640, 480))
	angleCalls := 0
	vp.SetViewAngleFunc = func(float64) { angleCalls++ }

	b, err := NewBinder(registry, vp, Options{}, logger)
	test.That(t, err, test.ShouldBeNil)
	defer b.Close()
	test.That(t, registry.AddNode(&scene.VolumeNode{ID: "video", Image: &scene.ImageData{Frame: frame(640, 480)}}),
		test.ShouldBeNil)

	b.SetVideoSource("video")
	for i := 0; i < 3; i++ {
		test.That(t, registry.PushFrame("video", frame(640, 480)), test.ShouldBeNil)
	}
	test.That(t, angleCalls, test.ShouldEqual, 0)
}

func TestClose(t *testing.T) {
	logger := logging.NewTestLogger(t)
	registry := scene.NewRegistry(logger)
	subs := 0
	s := inject.NewScene(registry)
	s.SubscribeFunc = func(id string, cb scene.Callback) scene.Subscription {
		subs++
		return registry.Subscribe(id, cb)
	}
	s.UnsubscribeFunc = func(sub scene.Subscription) {
		subs--
		registry.Unsubscribe(sub)
	}
	vp := fake.NewViewport(640, 480)
	b, err := NewBinder(s, vp, Options{}, logger)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, registry.AddNode(&scene.VolumeNode{ID: "video", Image: &scene.ImageData{Frame: frame(640, 480)}}),
		test.ShouldBeNil)
	b.SetVideoSource("video")
	b.SetIntrinsics("cam")
	b.SetCameraTransform("camera")
	test.That(t, subs, test.ShouldEqual, 3)
	test.That(t, vp.State().TexturedBackground, test.ShouldBeTrue)

	b.Close()
	b.Close()
	test.That(t, subs, test.ShouldEqual, 0)
	test.That(t, vp.State().TexturedBackground, test.ShouldBeFalse)

	test.That(t, registry.PushFrame("video", frame(640, 480)), test.ShouldBeNil)
	test.That(t, vp.State().TexturedBackground, test.ShouldBeFalse)
	b.SetVideoSource("video")
	test.That(t, vp.State().TexturedBackground, test.ShouldBeFalse)
}
