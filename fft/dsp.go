package fft

import "github.com/mjibson/go-dsp/fft"

// DSP is a RealFFT backed by go-dsp's FFTReal, offered as a pure-Go
// alternative to the Gonum backend on targets where cgo or BLAS-backed
// builds aren't available.
type DSP struct {
	n int
}

// NewDSP builds a DSP transform for n-sample blocks.
func NewDSP(n int) *DSP {
	return &DSP{n: n}
}

// Transform computes the FFT of in and writes n/2 interleaved (real,
// imaginary) bins into out. go-dsp allocates its working buffers per call,
// unlike the Gonum backend.
func (d *DSP) Transform(in []float64, out []float32) {
	coeffs := fft.FFTReal(in)

	half := d.n / 2
	for k := 0; k < half; k++ {
		out[2*k] = float32(real(coeffs[k]))
		out[2*k+1] = float32(imag(coeffs[k]))
	}
}
