package passthrough

import (
	"context"
	"testing"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"
	"go.viam.com/utils/testutils"

	"github.com/slicerar/arview/logging"
	"github.com/slicerar/arview/scene"
	"github.com/slicerar/arview/viewport/fake"
)

func TestPollOnlyOnChange(t *testing.T) {
	logger := logging.NewTestLogger(t)
	registry := scene.NewRegistry(logger)
	vp := fake.NewViewport(640, 480)
	addEyes(t, registry)

	p := NewPoller(registry, vp, EyeSources{Left: "left", Right: "right"}, PollerOptions{}, logger)
	test.That(t, p.interval, test.ShouldEqual, DefaultPollInterval)

	test.That(t, p.Poll(), test.ShouldBeTrue)
	test.That(t, vp.State().TexturedBackground, test.ShouldBeTrue)
	test.That(t, p.Poll(), test.ShouldBeFalse)
	test.That(t, vp.State().Renders, test.ShouldEqual, 1)

	test.That(t, registry.PushFrame("right", frame()), test.ShouldBeNil)
	test.That(t, p.Poll(), test.ShouldBeTrue)
	test.That(t, vp.State().Renders, test.ShouldEqual, 2)

	test.That(t, registry.RemoveNode("right"), test.ShouldBeNil)
	test.That(t, p.Poll(), test.ShouldBeTrue)
	st := vp.State()
	test.That(t, st.TexturedBackground, test.ShouldBeFalse)
	test.That(t, st.RightTexture, test.ShouldBeNil)
}

func TestPollerTicks(t *testing.T) {
	logger := logging.NewTestLogger(t)
	registry := scene.NewRegistry(logger)
	vp := fake.NewViewport(640, 480)
	mockClock := clock.NewMock()

	p := NewPoller(registry, vp, EyeSources{Left: "left", Right: "right"}, PollerOptions{Clock: mockClock}, logger)
	p.Start(context.Background())
	defer p.Stop()

	mockClock.Add(DefaultPollInterval)
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, vp.State().Renders, test.ShouldEqual, 1)
	})
	test.That(t, vp.State().TexturedBackground, test.ShouldBeFalse)

	addEyes(t, registry)
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		mockClock.Add(DefaultPollInterval)
		test.That(tb, vp.State().TexturedBackground, test.ShouldBeTrue)
	})
}

func TestPollerStopWithoutStart(t *testing.T) {
	logger := logging.NewTestLogger(t)
	p := NewPoller(scene.NewRegistry(logger), fake.NewViewport(1, 1), EyeSources{}, PollerOptions{}, logger)
	p.Stop()
}
