package motion

import "math"

// Field is a block's vectors split into the parallel arrays a quiver plot takes.
// Arrow tails are at (X, Y).
type Field struct {
	X         []float64
	Y         []float64
	DX        []float64
	DY        []float64
	Magnitude []float64
}

func (f Field) Len() int {
	return len(f.X)
}

// MaxMagnitude returns the largest magnitude in the field, 0 for an empty field.
func (f Field) MaxMagnitude() float64 {
	m := 0.0
	for _, v := range f.Magnitude {
		if v > m {
			m = v
		}
	}
	return m
}

// Derive computes displacements for a block. Magnitude is always taken from the
// raw displacement. With normalize set, DX and DY become unit vectors, and
// zero-length vectors stay at (0, 0).
func Derive(block FrameVectorBlock, normalize bool) Field {
	n := len(block.Vectors)
	f := Field{
		X:         make([]float64, n),
		Y:         make([]float64, n),
		DX:        make([]float64, n),
		DY:        make([]float64, n),
		Magnitude: make([]float64, n),
	}

	for i, v := range block.Vectors {
		dx := v.DstX - v.SrcX
		dy := v.DstY - v.SrcY
		m := math.Sqrt(dx*dx + dy*dy)

		if normalize && m != 0 {
			dx /= m
			dy /= m
		}

		f.X[i] = v.SrcX
		f.Y[i] = v.SrcY
		f.DX[i] = dx
		f.DY[i] = dy
		f.Magnitude[i] = m
	}
	return f
}
