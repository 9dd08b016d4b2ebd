package mandel

import "github.com/gogpu/mandel/internal/parallel"

// MaxIterations is the default iteration cap. Points that have not escaped
// after this many iterations are treated as members of the set.
const MaxIterations = 500

// RGB is a pixel color with normalized channels in [0, 1].
type RGB = parallel.Pixel

// Escape iterates z = z*z + c from z = 0 and returns the number of
// iterations performed before |z| >= 2, or maxIter if the orbit stays
// bounded.
//
// Escape is pure and safe for concurrent use.
func Escape(c complex128, maxIter int) int {
	var z complex128
	n := 0
	for n < maxIter && abs2(z) < 4 {
		z = z*z + c
		n++
	}
	return n
}

// abs2 returns |z|², avoiding the square root of cmplx.Abs.
func abs2(z complex128) float64 {
	re, im := real(z), imag(z)
	return re*re + im*im
}

// Shade maps an escape count to a color: a magenta ramp (q, 0, q) with
// q = n / maxIter for escaping points, and white for points that reached
// the cap.
func Shade(n, maxIter int) RGB {
	if n >= maxIter {
		return RGB{R: 1, G: 1, B: 1}
	}
	q := float32(n) / float32(maxIter)
	return RGB{R: q, G: 0, B: q}
}

// Evaluator turns a point of the complex plane into a pixel color.
//
// Implementations are called concurrently from every worker and must be
// safe for concurrent use.
type Evaluator interface {
	Evaluate(c complex128) RGB
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(c complex128) RGB

// Evaluate calls f(c).
func (f EvaluatorFunc) Evaluate(c complex128) RGB {
	return f(c)
}

// EscapeEvaluator is the default Evaluator: escape time with the magenta
// shading of Shade.
type EscapeEvaluator struct {
	// MaxIter is the iteration cap. Zero means MaxIterations.
	MaxIter int
}

// Evaluate implements Evaluator.
func (e EscapeEvaluator) Evaluate(c complex128) RGB {
	limit := e.MaxIter
	if limit <= 0 {
		limit = MaxIterations
	}
	return Shade(Escape(c, limit), limit)
}
