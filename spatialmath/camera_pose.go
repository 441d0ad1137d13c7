package spatialmath

import "github.com/golang/geo/r3"

// CameraPose places a virtual camera: where it is, which way is up, and the point it looks at.
type CameraPose struct {
	Position   r3.Vector
	ViewUp     r3.Vector
	FocalPoint r3.Vector
}

// NewCameraPoseFromPose places a camera at the origin of p's frame, looking down p's Z axis
// with p's Y axis up. The rotation is used as is, so a pose that is not orthonormal yields a
// camera whose view up and view direction are not perpendicular.
func NewCameraPoseFromPose(p Pose) CameraPose {
	rm := p.RotationMatrix()
	position := p.Point()
	return CameraPose{
		Position:   position,
		ViewUp:     rm.Col(1),
		FocalPoint: position.Add(rm.Col(2)),
	}
}
