package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrMalformedPose is returned by CheckRigid for a pose whose rotation part is not a proper
// rotation.
var ErrMalformedPose = errors.New("pose rotation is not orthonormal")

// Pose represents a rigid transform: a rotation followed by a translation.
type Pose interface {
	Point() r3.Vector
	RotationMatrix() *RotationMatrix
}

type matrixPose struct {
	point    r3.Vector
	rotation RotationMatrix
}

func (p *matrixPose) Point() r3.Vector {
	return p.point
}

func (p *matrixPose) RotationMatrix() *RotationMatrix {
	rm := p.rotation
	return &rm
}

// NewZeroPose returns a pose at (0,0,0) with the same orientation as its parent.
func NewZeroPose() Pose {
	return &matrixPose{rotation: *IdentityRotationMatrix()}
}

// NewPose builds a pose out of a translation and a rotation matrix.
func NewPose(point r3.Vector, rotation *RotationMatrix) Pose {
	if rotation == nil {
		rotation = IdentityRotationMatrix()
	}
	return &matrixPose{point: point, rotation: *rotation}
}

// NewPoseFromMatrix reads a pose out of a 4x4 homogeneous transform. The upper left 3x3 block
// is taken as the rotation verbatim and the last column as the translation; the bottom row is
// ignored.
func NewPoseFromMatrix(m mat.Matrix) (Pose, error) {
	if m == nil {
		return nil, errors.New("pose matrix is nil")
	}
	if rows, cols := m.Dims(); rows != 4 || cols != 4 {
		return nil, errors.Errorf("pose matrix must be 4x4, got %dx%d", rows, cols)
	}
	p := &matrixPose{point: r3.Vector{X: m.At(0, 3), Y: m.At(1, 3), Z: m.At(2, 3)}}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			p.rotation.mat[3*r+c] = m.At(r, c)
		}
	}
	return p, nil
}

// NewPoseFromSlice reads a pose out of 16 values of a 4x4 matrix in row major order.
func NewPoseFromSlice(values []float64) (Pose, error) {
	if len(values) != 16 {
		return nil, errors.Errorf("pose matrix needs 16 values, got %d", len(values))
	}
	return NewPoseFromMatrix(mat.NewDense(4, 4, values))
}

// NewPoseFromString parses 16 space or comma separated values of a row major 4x4 matrix.
func NewPoseFromString(s string) (Pose, error) {
	values := spaceDelimitedStringToSlice(s)
	for i, v := range values {
		if math.IsNaN(v) {
			return nil, errors.Errorf("pose matrix value %d is not a number", i)
		}
	}
	return NewPoseFromSlice(values)
}

// PoseToMatrix returns the 4x4 homogeneous matrix of p.
func PoseToMatrix(p Pose) *mat.Dense {
	m := mat.NewDense(4, 4, nil)
	rm := p.RotationMatrix()
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m.Set(r, c, rm.At(r, c))
		}
	}
	pt := p.Point()
	m.Set(0, 3, pt.X)
	m.Set(1, 3, pt.Y)
	m.Set(2, 3, pt.Z)
	m.Set(3, 3, 1)
	return m
}

// Compose returns the pose a*b, that is b expressed in the frame that a is expressed in.
func Compose(a, b Pose) Pose {
	rotA := a.RotationMatrix()
	return &matrixPose{
		point:    rotA.Apply(b.Point()).Add(a.Point()),
		rotation: *rotA.Mul(b.RotationMatrix()),
	}
}

// PoseAlmostEqual returns whether two poses are equal within epsilon elementwise.
func PoseAlmostEqual(a, b Pose, epsilon float64) bool {
	if !R3VectorAlmostEqual(a.Point(), b.Point(), epsilon) {
		return false
	}
	ra, rb := a.RotationMatrix(), b.RotationMatrix()
	for i := range ra.mat {
		if math.Abs(ra.mat[i]-rb.mat[i]) >= epsilon {
			return false
		}
	}
	return true
}

// CheckRigid returns ErrMalformedPose when the rotation of p is not orthonormal with a
// positive determinant within tol. Pose conversions never call it; callers opt in.
func CheckRigid(p Pose, tol float64) error {
	rm := p.RotationMatrix()
	if !rm.IsOrthonormal(tol) {
		return errors.Wrap(ErrMalformedPose, "columns are not unit length and mutually orthogonal")
	}
	if det := rm.Determinant(); math.Abs(det-1) > tol {
		return errors.Wrapf(ErrMalformedPose, "determinant is %v", det)
	}
	return nil
}
