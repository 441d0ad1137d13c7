package cli

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/slicerar/arview/ar/passthrough"
	"github.com/slicerar/arview/ar/trackedscreen"
	"github.com/slicerar/arview/config"
	"github.com/slicerar/arview/logging"
	"github.com/slicerar/arview/rimage/transform"
	"github.com/slicerar/arview/scene"
	"github.com/slicerar/arview/utils"
	"github.com/slicerar/arview/viewport/fake"
)

// Session is a scene, a viewport and the bindings between them, built from a config.
type Session struct {
	Registry      *scene.Registry
	Viewport      *fake.Viewport
	TrackedScreen *trackedscreen.Binder
	Passthrough   *passthrough.Binder
	Poller        *passthrough.Poller

	watchers []utils.StoppableWorkers
}

// NewSession creates the nodes of cfg and binds them. Calibration files are watched until
// the session is closed.
func NewSession(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, err := cfg.Mode()
	if err != nil {
		return nil, err
	}
	s := &Session{
		Registry: scene.NewRegistry(logger.Sublogger("scene")),
		Viewport: fake.NewViewport(cfg.Viewport.Width, cfg.Viewport.Height),
	}
	if err := s.bind(ctx, cfg, mode, logger); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Session) bind(ctx context.Context, cfg *config.Config, mode transform.ProjectionMode, logger logging.Logger) error {
	for _, tc := range cfg.Transforms {
		pose, err := tc.Pose()
		if err != nil {
			return err
		}
		if err := s.Registry.AddNode(&scene.TransformNode{ID: tc.ID, ParentID: tc.Parent, Pose: pose}); err != nil {
			return err
		}
	}
	for _, ic := range cfg.Intrinsics {
		if ic.File == "" {
			if err := s.Registry.AddNode(&scene.IntrinsicsNode{ID: ic.ID, Intrinsics: *ic.Parameters}); err != nil {
				return err
			}
			continue
		}
		watcher, err := scene.WatchIntrinsicsFile(ctx, s.Registry, ic.ID, ic.File, logger.Sublogger("watch"))
		if err != nil {
			return err
		}
		s.watchers = append(s.watchers, watcher)
	}
	for _, vc := range cfg.Videos {
		frame := image.NewRGBA(image.Rect(0, 0, vc.Width, vc.Height))
		if err := s.Registry.AddNode(&scene.VolumeNode{ID: vc.ID, Image: &scene.ImageData{Frame: frame}}); err != nil {
			return err
		}
	}

	if ts := cfg.TrackedScreen; ts != nil {
		tracked, err := trackedscreen.NewBinder(s.Registry, s.Viewport, trackedscreen.Options{
			Mode:         mode,
			ValidatePose: ts.ValidatePose,
		}, logger.Sublogger("tracked_screen"))
		if err != nil {
			return err
		}
		s.TrackedScreen = tracked
		s.TrackedScreen.SetIntrinsics(ts.Intrinsics)
		s.TrackedScreen.SetCameraTransform(ts.CameraTransform)
		s.TrackedScreen.SetVideoSource(ts.VideoSource)
	}
	if pt := cfg.Passthrough; pt != nil {
		eyes := passthrough.EyeSources{Left: pt.Left, Right: pt.Right}
		if pt.Poll {
			s.Poller = passthrough.NewPoller(s.Registry, s.Viewport, eyes, passthrough.PollerOptions{},
				logger.Sublogger("passthrough"))
			s.Poller.Poll()
			s.Poller.Start(ctx)
		} else {
			s.Passthrough = passthrough.NewBinder(s.Registry, s.Viewport, logger.Sublogger("passthrough"))
			s.Passthrough.SetLeftEye(eyes.Left)
			s.Passthrough.SetRightEye(eyes.Right)
		}
	}
	return nil
}

// Close stops watching and unbinds everything.
func (s *Session) Close() {
	for _, w := range s.watchers {
		w.Stop()
	}
	if s.Poller != nil {
		s.Poller.Stop()
	}
	if s.Passthrough != nil {
		s.Passthrough.Close()
	}
	if s.TrackedScreen != nil {
		s.TrackedScreen.Close()
	}
}

// SimulateAction runs a session from a config file and prints the viewport it ends up with.
func SimulateAction(c *cli.Context) (err error) {
	logger := newLogger(c)
	defer func() {
		err = multierr.Combine(err, logger.Sync())
	}()

	cfg, err := config.Read(c.Path(simulateFlagConfig), logger)
	if err != nil {
		return err
	}
	s, err := NewSession(c.Context, cfg, logger)
	if err != nil {
		return err
	}
	if d := c.Duration(simulateFlagDuration); d > 0 {
		select {
		case <-c.Context.Done():
		case <-time.After(d):
		}
	}
	state := s.Viewport.State()
	var tracked string
	if s.TrackedScreen != nil {
		tracked = s.TrackedScreen.State().String()
	}
	s.Close()

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Property", "Value"})
	t.AppendRow(table.Row{"Viewport", fmt.Sprintf("%dx%d", state.Size.Width, state.Size.Height)})
	if tracked != "" {
		t.AppendRow(table.Row{"Tracked screen", tracked})
	}
	t.AppendRow(table.Row{"View angle (deg)", state.ViewAngle})
	t.AppendRow(table.Row{"Window center", fmt.Sprintf("(%g, %g)", state.WindowCenter.X, state.WindowCenter.Y)})
	t.AppendRow(table.Row{"Camera position", vecString(state.CameraPose.Position)})
	t.AppendRow(table.Row{"Camera view up", vecString(state.CameraPose.ViewUp)})
	t.AppendRow(table.Row{"Camera focal point", vecString(state.CameraPose.FocalPoint)})
	t.AppendRow(table.Row{"Textured background", state.TexturedBackground})
	t.AppendRow(table.Row{"Left texture", textureString(state.LeftTexture)})
	t.AppendRow(table.Row{"Right texture", textureString(state.RightTexture)})
	t.AppendRow(table.Row{"Renders", state.Renders})
	printf(c.App.Writer, "%s", t.Render())
	return nil
}

func newLogger(c *cli.Context) logging.Logger {
	logger := logging.NewBlankLogger("arview")
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	if !c.Bool(generalFlagDebug) {
		logger.SetLevel(logging.INFO)
	}
	return logger
}
