package fft

import "gonum.org/v1/gonum/dsp/fourier"

// Gonum is a RealFFT backed by gonum's real-input FFT plan. It is the
// default backend on traditional desktop-class hardware, matching the
// reference implementation's preferred desktop FFT choice.
type Gonum struct {
	plan *fourier.FFT
	n    int
	buf  []complex128
}

// NewGonum builds a Gonum transform for n-sample blocks. The plan and
// scratch buffer are allocated once and reused by every Transform call.
func NewGonum(n int) *Gonum {
	return &Gonum{
		plan: fourier.NewFFT(n),
		n:    n,
		buf:  make([]complex128, n/2+1),
	}
}

// Transform computes the FFT of in and writes n/2 interleaved (real,
// imaginary) bins into out.
func (g *Gonum) Transform(in []float64, out []float32) {
	coeffs := g.plan.Coefficients(g.buf, in)

	half := g.n / 2
	for k := 0; k < half; k++ {
		out[2*k] = float32(real(coeffs[k]))
		out[2*k+1] = float32(imag(coeffs[k]))
	}
}
