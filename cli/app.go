// Package cli contains the arview command line: projection and pose conversions and a
// simulation of a configured session.
package cli

import (
	"fmt"
	"io"

	"github.com/urfave/cli/v2"
)

const (
	generalFlagDebug = "debug"

	projectionFlagFx             = "fx"
	projectionFlagFy             = "fy"
	projectionFlagCx             = "cx"
	projectionFlagCy             = "cy"
	projectionFlagWidth          = "width"
	projectionFlagHeight         = "height"
	projectionFlagViewportWidth  = "viewport-width"
	projectionFlagViewportHeight = "viewport-height"
	projectionFlagMode           = "mode"

	poseFlagCheckRigid = "check-rigid"
	poseFlagTolerance  = "tolerance"

	simulateFlagConfig   = "config"
	simulateFlagDuration = "duration"
)

var app = &cli.App{
	Name:            "arview",
	Usage:           "line a 3D viewport up with a tracked camera's video",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    generalFlagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
	},
	Commands: []*cli.Command{
		{
			Name:      "projection",
			Usage:     "compute the view angle and window center of a calibrated camera",
			UsageText: "arview projection --fx F --fy F --cx X --cy Y --width W --height H [other options]",
			Flags: []cli.Flag{
				&cli.Float64Flag{Name: projectionFlagFx, Usage: "horizontal focal length in pixels"},
				&cli.Float64Flag{Name: projectionFlagFy, Required: true, Usage: "vertical focal length in pixels"},
				&cli.Float64Flag{Name: projectionFlagCx, Required: true, Usage: "principal point x in pixels"},
				&cli.Float64Flag{Name: projectionFlagCy, Required: true, Usage: "principal point y in pixels"},
				&cli.IntFlag{Name: projectionFlagWidth, Required: true, Usage: "frame width in pixels"},
				&cli.IntFlag{Name: projectionFlagHeight, Required: true, Usage: "frame height in pixels"},
				&cli.IntFlag{Name: projectionFlagViewportWidth, Usage: "viewport width, used by viewport_fit"},
				&cli.IntFlag{Name: projectionFlagViewportHeight, Usage: "viewport height, used by viewport_fit"},
				&cli.StringFlag{
					Name:  projectionFlagMode,
					Value: "frame_matched",
					Usage: "projection mode, frame_matched or viewport_fit",
				},
			},
			Action: ProjectionAction,
		},
		{
			Name:      "pose",
			Usage:     "convert a tracked transform into a camera position, view up and focal point",
			ArgsUsage: "<16 row-major matrix values>",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: poseFlagCheckRigid, Usage: "reject matrices that are not rigid transforms"},
				&cli.Float64Flag{Name: poseFlagTolerance, Value: 1e-6, Usage: "tolerance of the rigidity check"},
			},
			Action: PoseAction,
		},
		{
			Name:  "simulate",
			Usage: "build the scene and bindings of a config file and print the resulting viewport",
			Flags: []cli.Flag{
				&cli.PathFlag{
					Name:     simulateFlagConfig,
					Aliases:  []string{"c"},
					Required: true,
					Usage:    "load configuration from `FILE`",
				},
				&cli.DurationFlag{
					Name:  simulateFlagDuration,
					Usage: "keep watching calibration files and polling eyes this long before printing",
				},
			},
			Action: SimulateAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}

func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}
