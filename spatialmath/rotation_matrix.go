package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// RotationMatrix is a 3x3 matrix in row major order.
// m[3*r + c] is the element in the r'th row and c'th column.
type RotationMatrix struct {
	mat [9]float64
}

// NewRotationMatrix creates the rotation matrix from a slice of 9 values in row major order.
// The values are stored as given; no orthonormalization is performed.
func NewRotationMatrix(m []float64) (*RotationMatrix, error) {
	if len(m) != 9 {
		return nil, errors.Errorf("input slice has %d elements, need exactly 9", len(m))
	}
	rm := &RotationMatrix{}
	copy(rm.mat[:], m)
	return rm, nil
}

// IdentityRotationMatrix returns the rotation matrix of no rotation.
func IdentityRotationMatrix() *RotationMatrix {
	return &RotationMatrix{mat: [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}}
}

// At returns the element at row and column.
func (rm *RotationMatrix) At(row, col int) float64 {
	return rm.mat[3*row+col]
}

// Row returns the a 3 element vector corresponding to the specified row.
func (rm *RotationMatrix) Row(row int) r3.Vector {
	return r3.Vector{X: rm.mat[3*row], Y: rm.mat[3*row+1], Z: rm.mat[3*row+2]}
}

// Col returns the a 3 element vector corresponding to the specified column.
func (rm *RotationMatrix) Col(col int) r3.Vector {
	return r3.Vector{X: rm.mat[col], Y: rm.mat[col+3], Z: rm.mat[col+6]}
}

// Determinant of the matrix.
func (rm *RotationMatrix) Determinant() float64 {
	return rm.Col(0).Dot(rm.Col(1).Cross(rm.Col(2)))
}

// IsOrthonormal reports whether the columns are unit length and mutually orthogonal within tol.
func (rm *RotationMatrix) IsOrthonormal(tol float64) bool {
	x, y, z := rm.Col(0), rm.Col(1), rm.Col(2)
	for _, c := range []r3.Vector{x, y, z} {
		if math.Abs(c.Norm2()-1) > tol {
			return false
		}
	}
	return math.Abs(x.Dot(y)) <= tol && math.Abs(y.Dot(z)) <= tol && math.Abs(z.Dot(x)) <= tol
}

// Mul returns rm * other.
func (rm *RotationMatrix) Mul(other *RotationMatrix) *RotationMatrix {
	out := &RotationMatrix{}
	for r := 0; r < 3; r++ {
		row := rm.Row(r)
		for c := 0; c < 3; c++ {
			out.mat[3*r+c] = row.Dot(other.Col(c))
		}
	}
	return out
}

// Apply rotates v.
func (rm *RotationMatrix) Apply(v r3.Vector) r3.Vector {
	return r3.Vector{X: rm.Row(0).Dot(v), Y: rm.Row(1).Dot(v), Z: rm.Row(2).Dot(v)}
}
