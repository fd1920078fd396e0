package l4egocentric

import (
	"fmt"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"

	"github.com/minhpvo/ORB-SLAM2/internal/egodata"
)

// RotationMatrix returns the body-to-world rotation for q. The quaternion is
// used as given; a non-unit q yields a scaled, non-orthonormal matrix.
func RotationMatrix(q quat.Number) *mat.Dense {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return mat.NewDense(3, 3, []float64{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y),
	})
}

// Orthonormal reports whether RᵀR is the identity within tol.
func Orthonormal(r mat.Matrix, tol float64) bool {
	var rtr mat.Dense
	rtr.Mul(r.T(), r)
	n, _ := rtr.Dims()
	id := mat.NewDiagDense(n, nil)
	for i := 0; i < n; i++ {
		id.SetDiag(i, 1)
	}
	return mat.EqualApprox(&rtr, id, tol)
}

// Anchor is the egocentric reference frame of one window.
type Anchor struct {
	Origin   r3.Vector
	Rotation *mat.Dense
}

// NewAnchor builds the reference frame at a pivot pose.
func NewAnchor(pivot egodata.FramePose, order egodata.QuaternionOrder) Anchor {
	return Anchor{
		Origin:   pivot.Position,
		Rotation: RotationMatrix(pivot.Orientation.Number(order)),
	}
}

// ToLocal maps a world position to Rᵀ(p − t).
func (a Anchor) ToLocal(p r3.Vector) r3.Vector {
	d := p.Sub(a.Origin)
	v := mat.NewVecDense(3, []float64{d.X, d.Y, d.Z})
	var out mat.VecDense
	out.MulVec(a.Rotation.T(), v)
	return r3.Vector{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}

// Reanchor expresses every row of a window in the frame of the pivot, the
// last past row. It returns the past and future positions separately.
func Reanchor(rows []egodata.FramePose, pastFrames int, order egodata.QuaternionOrder) (past, future []r3.Vector, err error) {
	if pastFrames < 1 || pastFrames > len(rows) {
		return nil, nil, fmt.Errorf("pivot %d outside window of %d rows", pastFrames-1, len(rows))
	}
	anchor := NewAnchor(rows[pastFrames-1], order)

	local := make([]r3.Vector, len(rows))
	for i, r := range rows {
		local[i] = anchor.ToLocal(r.Position)
	}
	return local[:pastFrames:pastFrames], local[pastFrames:], nil
}
