// Package window generates the analysis window applied to each audio block
// before its FFT (spec.md §4.6 step 2).
package window

import "math"

// Hamming returns an n-point Hamming window: 0.54 - 0.46*cos(2*pi*i/(n-1)).
// Unlike a Hann window, a Hamming window does not taper fully to zero at
// its edges, trading a touch more spectral leakage for a narrower main
// lobe.
func Hamming(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}
