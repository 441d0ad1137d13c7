package cli

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"github.com/slicerar/arview/rimage/transform"
)

// ProjectionAction prints the view projection of the intrinsics given on the command line.
func ProjectionAction(c *cli.Context) error {
	mode, err := transform.ProjectionModeFromString(c.String(projectionFlagMode))
	if err != nil {
		return err
	}
	fy := c.Float64(projectionFlagFy)
	fx := c.Float64(projectionFlagFx)
	if fx == 0 {
		fx = fy
	}
	params := &transform.PinholeCameraIntrinsics{
		Width:  c.Int(projectionFlagWidth),
		Height: c.Int(projectionFlagHeight),
		Fx:     fx,
		Fy:     fy,
		Ppx:    c.Float64(projectionFlagCx),
		Ppy:    c.Float64(projectionFlagCy),
	}
	frame := transform.Dimensions{Width: params.Width, Height: params.Height}
	vp := transform.Dimensions{Width: c.Int(projectionFlagViewportWidth), Height: c.Int(projectionFlagViewportHeight)}
	if vp.Empty() {
		vp = frame
	}

	proj, err := transform.ComputeViewProjection(params, frame, vp, mode)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Mode", "View angle (deg)", "Window center x", "Window center y"})
	t.AppendRow(table.Row{mode, proj.ViewAngle, proj.WindowCenter.X, proj.WindowCenter.Y})
	printf(c.App.Writer, "%s", t.Render())
	return nil
}
