// Package eventpoint implements Olaf's time x frequency local-maximum peak
// picker with its rolling window state (spec.md §4.2).
package eventpoint

import (
	"fmt"
	"math"
	"os"

	"github.com/parasnair/olaf/config"
	"github.com/parasnair/olaf/maxfilter"
)

// TombstoneTimeIndex marks a retired event point slot, per spec.md §3.
const TombstoneTimeIndex = 1 << 23

// EventPoint is a local time x frequency maximum in the spectrogram.
type EventPoint struct {
	TimeIndex    int
	FrequencyBin int
	Magnitude    float32
	Usages       int
}

func (e EventPoint) String() string {
	return fmt.Sprintf("t:%d, f:%d, u:%d, mag:%.4f", e.TimeIndex, e.FrequencyBin, e.Usages, e.Magnitude)
}

// ExtractedEventPoints is the live, fixed-capacity event point buffer shared
// between the EP extractor (which appends to and retires from it) and the
// fingerprint extractor (which prunes and re-sorts it after every pass).
type ExtractedEventPoints struct {
	Points []EventPoint
	Index  int
}

// Extractor holds the rolling magnitude/max-filtered history across audio
// blocks and the live event point buffer.
type Extractor struct {
	config config.Config

	mags  [][]float32
	maxes [][]float32

	filterIndex     int
	audioBlockIndex int

	points ExtractedEventPoints

	timeslice []float32
}

// New builds an Extractor with all buffers pre-sized from cfg, per the
// memory budget in spec.md §5: nothing it allocates after this grows.
func New(cfg config.Config) *Extractor {
	half := cfg.HalfBlockSize()

	e := &Extractor{
		config: cfg,
		mags:   make([][]float32, cfg.FilterSizeTime),
		maxes:  make([][]float32, cfg.FilterSizeTime),
	}
	for i := range e.mags {
		e.mags[i] = make([]float32, half)
		e.maxes[i] = make([]float32, half)
	}

	e.points.Points = make([]EventPoint, cfg.MaxEventPoints)
	for i := range e.points.Points {
		e.points.Points[i].TimeIndex = TombstoneTimeIndex
	}
	e.points.Index = 0

	e.timeslice = make([]float32, cfg.FilterSizeTime)

	return e
}

// EventPoints returns the live event point buffer. The fingerprint extractor
// mutates it in place (usages, tombstoning, re-sorting); both extractors
// share exactly one instance per recognizer.
func (e *Extractor) EventPoints() *ExtractedEventPoints {
	return &e.points
}

// Extract ingests one block's FFT output (interleaved real/imag, length
// config.AudioBlockSize) and advances the rolling history by one block.
// Once the history is full it also runs peak extraction on the center row
// and rotates the history, per spec.md §4.2.
func (e *Extractor) Extract(fftOut []float32, audioBlockIndex int) {
	e.audioBlockIndex = audioBlockIndex

	mags := e.mags[e.filterIndex]
	magIndex := 0
	for j := 0; j < e.config.AudioBlockSize; j += 2 {
		m := float32(math.Hypot(float64(fftOut[j]), float64(fftOut[j+1])))
		if e.config.SqrtMagnitude {
			m = float32(math.Sqrt(float64(m)))
		}
		mags[magIndex] = m
		magIndex++
	}

	maxfilter.Filter(mags, e.maxes[e.filterIndex])

	if e.filterIndex == e.config.FilterSizeTime-1 {
		e.extractInternal()
		e.rotate()
	} else {
		e.filterIndex++
	}
}

// extractInternal runs peak extraction over the center time row, per the
// three-way eligibility test in spec.md §4.2 step 4.
func (e *Extractor) extractInternal() {
	halfFilterSizeTime := e.config.HalfFilterSizeTime
	halfBlock := e.config.HalfBlockSize()
	minFrequencyBin := e.config.MinFrequencyBin

	pointIndex := e.points.Index

	for j := minFrequencyBin; j < halfBlock-1; j++ {
		currentVal := e.mags[halfFilterSizeTime][j]
		maxVal := e.maxes[halfFilterSizeTime][j]

		if currentVal < e.config.MinEventPointMagnitude || currentVal != maxVal {
			continue
		}

		for t := 0; t < e.config.FilterSizeTime; t++ {
			e.timeslice[t] = e.maxes[t][j]
		}
		maxValTime := maxOf(e.timeslice)

		if currentVal != maxValTime {
			continue
		}

		if pointIndex == e.config.MaxEventPoints {
			fmt.Fprintf(os.Stderr,
				"Warning: Eventpoint maximum index %d reached, event points are ignored, "+
					"consider increasing config.MaxEventPoints if you see this often.\n",
				e.config.MaxEventPoints)
			continue
		}

		e.points.Points[pointIndex] = EventPoint{
			TimeIndex:    e.audioBlockIndex - halfFilterSizeTime,
			FrequencyBin: j,
			Magnitude:    currentVal,
			Usages:       0,
		}
		pointIndex++
	}

	e.points.Index = pointIndex
}

func maxOf(values []float32) float32 {
	m := float32(-10000000.0)
	for _, v := range values {
		if v > m {
			m = v
		}
	}
	return m
}

// rotate retires row 0 and shifts the rest down by one, reusing the retired
// backing arrays at the tail instead of reallocating (spec.md §9: "Sliding
// history rotation").
func (e *Extractor) rotate() {
	tempMax := e.maxes[0]
	tempMag := e.mags[0]

	copy(e.maxes, e.maxes[1:])
	copy(e.mags, e.mags[1:])

	last := e.config.FilterSizeTime - 1
	e.maxes[last] = tempMax
	e.mags[last] = tempMag
}
