package maxfilter

import "fmt"

// NaiveMaxFilter fills maxValues[i] with the maximum of array over a fixed
// window of filterWidth bins centered on i, clamped at the array edges. It
// is kept as a reference implementation and for testing Filter's Van Herk
// region against it (spec.md §8, property 7).
func NaiveMaxFilter(array []float32, filterWidth int, maxValues []float32) {
	arraySize := len(array)
	halfFilterWidth := filterWidth / 2

	for i := 0; i < arraySize; i++ {
		start := 0
		if i >= halfFilterWidth {
			start = i - halfFilterWidth
		}
		stop := i + halfFilterWidth + 1
		if stop > arraySize {
			stop = arraySize
		}

		maxVal := float32(-100000.0)
		for j := start; j < stop; j++ {
			if array[j] > maxVal {
				maxVal = array[j]
			}
		}
		maxValues[i] = maxVal
	}
}

// vanHerkGilWerman computes a fixed-width running maximum in amortized O(1)
// per output element using two auxiliary scan arrays R and S, following
// Van Herk (1992) / Gil & Werman (1993).
//
// array[offset:offset+arraySize] is the input; output is written to
// maxValues[outputOffset : outputOffset+...], offset so the filter result
// lands centered under its window (see Filter below). filterWidth is the
// caller's window width for this spectrum size; R and S are always sized to
// the largest supported window (maxVanHerkFilterWidth) so this never
// allocates regardless of which supported spectrum size is in use.
func vanHerkGilWerman(array []float32, offset, arraySize int, maxValues []float32, outputOffset, filterWidth int) {
	var r, s [maxVanHerkFilterWidth]float32

	for j := 0; j+filterWidth-1 < arraySize; j += filterWidth {
		rPos := j + filterWidth - 1
		if rPos > arraySize-1 {
			rPos = arraySize - 1
		}
		r[0] = array[offset+rPos]

		for i := rPos - 1; i+1 > j; i-- {
			v := array[offset+i]
			if r[rPos-i-1] > v {
				v = r[rPos-i-1]
			}
			r[rPos-i] = v
		}

		s[0] = array[offset+rPos]
		m1 := j + 2*filterWidth - 1
		if m1 > arraySize {
			m1 = arraySize
		}

		for i := rPos + 1; i < m1; i++ {
			v := array[offset+i]
			if s[i-rPos-1] > v {
				v = s[i-rPos-1]
			}
			s[i-rPos] = v
		}

		for i := 0; i < m1-rPos; i++ {
			a := s[i]
			b := r[(rPos-j+1)-i-1]
			if b > a {
				a = b
			}
			maxValues[outputOffset+j+i] = a
		}
	}
}

// Filter computes the perceptually-weighted max filter over a magnitude
// spectrum, writing the result into maxValues (spec.md §4.1).
//
// Bins below the spectrum size's minimum frequency bin are left at zero by
// the caller (the loop here starts there, matching the event point
// extractor's own floor). Bins up to the spectrum size's naive/Van-Herk
// split use a naive filter with a per-bin window taken from the perceptual
// tables; bins from there on use a fixed-width Van Herk filter.
//
// Only the spectrum lengths spec.md documents as supported (256 and 512
// bins, i.e. audioBlockSize 512 and 1024) have precomputed tables; any
// other length panics.
func Filter(array []float32, maxValues []float32) {
	arraySize := len(array)
	tables, ok := tablesBySize[arraySize]
	if !ok {
		panic(fmt.Sprintf("maxfilter: Filter only supports 256- or 512-bin input, got %d", arraySize))
	}

	for f := tables.minFrequencyBin; f < tables.naiveStopBin; f++ {
		start := tables.minIdx[f]
		stop := tables.maxIdx[f]

		maxVal := float32(-1000000.0)
		for j := start; j < stop; j++ {
			if array[j] > maxVal {
				maxVal = array[j]
			}
		}
		maxValues[f] = maxVal
	}

	outputOffset := tables.naiveStopBin + tables.vanHerkFilterWidth/2
	inputOffset := tables.naiveStopBin
	toFilterSize := arraySize - tables.naiveStopBin

	vanHerkGilWerman(array, inputOffset, toFilterSize, maxValues, outputOffset, tables.vanHerkFilterWidth)
}
