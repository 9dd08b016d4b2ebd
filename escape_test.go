package mandel

import (
	"testing"
)

// =============================================================================
// Escape Tests
// =============================================================================

func TestEscape(t *testing.T) {
	tests := []struct {
		name    string
		c       complex128
		maxIter int
		want    int
	}{
		{"origin stays bounded", 0, 500, 500},
		{"main cardioid", complex(-0.2, 0), 500, 500},
		{"period two bulb", complex(-1, 0), 100, 100},
		{"top left corner", complex(-2, 1.125), 500, 1},
		{"far outside", complex(3, 3), 500, 1},
		{"just outside", complex(0.3, 0), 500, 12},
		{"zero cap", complex(-0.2, 0), 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Escape(tt.c, tt.maxIter); got != tt.want {
				t.Errorf("Escape(%v, %d) = %d, want %d", tt.c, tt.maxIter, got, tt.want)
			}
		})
	}
}

func TestEscapeNeverExceedsCap(t *testing.T) {
	for _, c := range []complex128{0, complex(0.25, 0), complex(-0.75, 0.1), complex(0.28, 0.01)} {
		for _, limit := range []int{1, 10, 500} {
			if got := Escape(c, limit); got < 0 || got > limit {
				t.Errorf("Escape(%v, %d) = %d, outside [0, %d]", c, limit, got, limit)
			}
		}
	}
}

// =============================================================================
// Shade Tests
// =============================================================================

func TestShade(t *testing.T) {
	tests := []struct {
		n, maxIter int
		want       RGB
	}{
		{0, 500, RGB{}},
		{1, 500, RGB{R: 1.0 / 500, B: 1.0 / 500}},
		{250, 500, RGB{R: 0.5, B: 0.5}},
		{499, 500, RGB{R: 499.0 / 500, B: 499.0 / 500}},
		{500, 500, RGB{R: 1, G: 1, B: 1}},
		{10, 10, RGB{R: 1, G: 1, B: 1}},
	}

	for _, tt := range tests {
		got := Shade(tt.n, tt.maxIter)
		if got != tt.want {
			t.Errorf("Shade(%d, %d) = %+v, want %+v", tt.n, tt.maxIter, got, tt.want)
		}
	}
}

func TestShadeGreenOnlyWhenBounded(t *testing.T) {
	for n := 0; n < 100; n++ {
		if c := Shade(n, 100); c.G != 0 {
			t.Fatalf("Shade(%d, 100).G = %v, want 0", n, c.G)
		}
	}
}

// =============================================================================
// Evaluator Tests
// =============================================================================

func TestEscapeEvaluator(t *testing.T) {
	tests := []struct {
		name string
		e    EscapeEvaluator
		c    complex128
		want RGB
	}{
		{"interior is white", EscapeEvaluator{MaxIter: 500}, complex(-0.2, 0), RGB{R: 1, G: 1, B: 1}},
		{"corner escapes at once", EscapeEvaluator{MaxIter: 500}, complex(-2, 1.125), Shade(1, 500)},
		{"zero cap uses default", EscapeEvaluator{}, complex(-2, 1.125), Shade(1, MaxIterations)},
		{"small cap", EscapeEvaluator{MaxIter: 4}, complex(0.3, 0), RGB{R: 1, G: 1, B: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.e.Evaluate(tt.c); got != tt.want {
				t.Errorf("Evaluate(%v) = %+v, want %+v", tt.c, got, tt.want)
			}
		})
	}
}

func TestEvaluatorFunc(t *testing.T) {
	var got complex128
	f := EvaluatorFunc(func(c complex128) RGB {
		got = c
		return RGB{G: 1}
	})

	if c := f.Evaluate(complex(1, 2)); c != (RGB{G: 1}) {
		t.Errorf("Evaluate() = %+v, want {G: 1}", c)
	}
	if got != complex(1, 2) {
		t.Errorf("function received %v, want (1+2i)", got)
	}
}

// =============================================================================
// Benchmarks
// =============================================================================

func BenchmarkEscapeInterior(b *testing.B) {
	c := complex(-0.2, 0)
	for b.Loop() {
		_ = Escape(c, MaxIterations)
	}
}

func BenchmarkEscapeExterior(b *testing.B) {
	c := complex(0.3, 0.5)
	for b.Loop() {
		_ = Escape(c, MaxIterations)
	}
}
