package relaytrace

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Mat2 is a 2×2 ray transfer (ABCD) matrix acting on (H, Theta):
//
//	| H' |   | A B | | H |
//	| θ' | = | C D | | θ |
type Mat2 struct {
	A, B, C, D Real
}

func I2() Mat2 { return Mat2{A: 1, D: 1} }

// FreeSpace propagates a distance d along the axis. Negative d steps backwards.
func FreeSpace(d Real) Mat2 { return Mat2{A: 1, B: d, C: 0, D: 1} }

// ThinLens refracts through an ideal lens of focal length f.
// f = ±Inf is the identity; f = 0 has no finite matrix and is rejected.
func ThinLens(f Real) (Mat2, error) {
	if f == 0 {
		return Mat2{}, ErrZeroFocalLength
	}
	if math.IsNaN(f) {
		return Mat2{}, fmt.Errorf("%w: focal length is NaN", ErrInvalidGeometry)
	}
	return Mat2{A: 1, B: 0, C: -1 / f, D: 1}, nil
}

// Mul returns A·B, i.e. B is applied to the ray first.
func (A Mat2) Mul(B Mat2) Mat2 {
	return Mat2{
		A: A.A*B.A + A.B*B.C,
		B: A.A*B.B + A.B*B.D,
		C: A.C*B.A + A.D*B.C,
		D: A.C*B.B + A.D*B.D,
	}
}

// Compose returns op1·op2: op2 acts first, then op1.
func Compose(op1, op2 Mat2) Mat2 { return op1.Mul(op2) }

// Chain composes operators in physical order, ops[0] being the first element
// the ray meets.
func Chain(ops ...Mat2) Mat2 {
	R := I2()
	for _, op := range ops {
		R = op.Mul(R)
	}
	return R
}

func (A Mat2) Apply(r Ray) Ray {
	return Ray{
		H:     A.A*r.H + A.B*r.Theta,
		Theta: A.C*r.H + A.D*r.Theta,
	}
}

func Apply(op Mat2, r Ray) Ray { return op.Apply(r) }

// Det is n1/n2 for the system; 1 for everything in a single medium.
func (A Mat2) Det() Real { return A.A*A.D - A.B*A.C }

// Dense copies the operator into a gonum matrix.
func (A Mat2) Dense() *mat.Dense {
	return mat.NewDense(2, 2, []float64{A.A, A.B, A.C, A.D})
}

func (A Mat2) String() string {
	return fmt.Sprintf("%.6g", mat.Formatted(A.Dense(), mat.Squeeze()))
}
