package cli

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/slicerar/arview/spatialmath"
)

// PoseAction prints the camera pose of the transform matrix given as arguments.
func PoseAction(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return errors.New("a 4x4 matrix is required")
	}
	pose, err := spatialmath.NewPoseFromString(strings.Join(c.Args().Slice(), " "))
	if err != nil {
		return err
	}
	if c.Bool(poseFlagCheckRigid) {
		if err := spatialmath.CheckRigid(pose, c.Float64(poseFlagTolerance)); err != nil {
			return err
		}
	}

	cam := spatialmath.NewCameraPoseFromPose(pose)
	t := table.NewWriter()
	t.AppendHeader(table.Row{"", "X", "Y", "Z"})
	t.AppendRow(table.Row{"Position", cam.Position.X, cam.Position.Y, cam.Position.Z})
	t.AppendRow(table.Row{"View up", cam.ViewUp.X, cam.ViewUp.Y, cam.ViewUp.Z})
	t.AppendRow(table.Row{"Focal point", cam.FocalPoint.X, cam.FocalPoint.Y, cam.FocalPoint.Z})
	printf(c.App.Writer, "%s", t.Render())
	return nil
}
