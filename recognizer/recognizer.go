// Package recognizer wires the max-filtered event point extractor, the
// fingerprint extractor, and the vote-accumulating matcher into a single
// synchronous audio-processing pipeline (spec.md §4.6).
package recognizer

import (
	"fmt"

	"github.com/parasnair/olaf/config"
	"github.com/parasnair/olaf/eventpoint"
	"github.com/parasnair/olaf/fft"
	"github.com/parasnair/olaf/fingerprint"
	"github.com/parasnair/olaf/fpdb"
	"github.com/parasnair/olaf/matcher"
	"github.com/parasnair/olaf/window"
)

// Recognizer owns every stage of the pipeline and drives one audio block at
// a time through it. It is single-threaded and synchronous end to end: no
// internal goroutines, no locks, no suspension (spec.md §5).
type Recognizer struct {
	config config.Config

	fft    fft.RealFFT
	window []float64

	epExtractor *eventpoint.Extractor
	fpExtractor *fingerprint.Extractor
	matcher     *matcher.Matcher

	audioBlockIndex int

	floatBlock   []float64
	windowedFFT  []float32
}

// New builds a Recognizer. It validates cfg and refuses construction on a
// bad configuration rather than panicking later (spec.md §7).
func New(cfg config.Config, db *fpdb.DB, fftImpl fft.RealFFT, callback matcher.ResultCallback) (*Recognizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("recognizer: %w", err)
	}

	r := &Recognizer{
		config:      cfg,
		fft:         fftImpl,
		window:      window.Hamming(cfg.AudioBlockSize),
		epExtractor: eventpoint.New(cfg),
		fpExtractor: fingerprint.New(cfg),
		matcher:     matcher.New(cfg, db, callback),
		floatBlock:  make([]float64, cfg.AudioBlockSize),
		windowedFFT: make([]float32, cfg.AudioBlockSize),
	}
	return r, nil
}

// AudioBlockIndex returns the number of blocks processed so far.
func (r *Recognizer) AudioBlockIndex() int {
	return r.audioBlockIndex
}

// ProcessAudio ingests one block of exactly config.AudioBlockSize samples of
// signed 16-bit PCM and runs it through the full pipeline, per the six
// steps of spec.md §4.6.
func (r *Recognizer) ProcessAudio(block []int16) error {
	if len(block) != r.config.AudioBlockSize {
		return fmt.Errorf("recognizer: expected block of %d samples, got %d", r.config.AudioBlockSize, len(block))
	}

	for i, s := range block {
		r.floatBlock[i] = float64(s) / 32768.0 * r.window[i]
	}

	r.fft.Transform(r.floatBlock, r.windowedFFT)

	r.epExtractor.Extract(r.windowedFFT, r.audioBlockIndex)

	points := r.epExtractor.EventPoints()
	if points.Index > r.config.EventPointThreshold {
		r.fpExtractor.Extract(points, r.audioBlockIndex)

		fps := r.fpExtractor.Fingerprints()
		if fps.Index > 0 {
			r.matcher.Match(fps)
		}
	}

	r.audioBlockIndex++
	return nil
}
