package recognizer

import (
	"testing"

	"github.com/parasnair/olaf/config"
	"github.com/parasnair/olaf/fpdb"
)

// zeroFFT is a RealFFT stub that always reports silence, used to exercise
// the orchestrator's control flow without depending on a real transform.
type zeroFFT struct{}

func (zeroFFT) Transform(in []float64, out []float32) {
	for i := range out {
		out[i] = 0
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AudioBlockSize = 777

	_, err := New(cfg, fpdb.New(), zeroFFT{}, func(int, float32, float32, uint32, float32, float32) {})
	if err == nil {
		t.Fatal("expected error constructing recognizer with invalid config")
	}
}

func TestProcessAudioRejectsWrongBlockSize(t *testing.T) {
	cfg := config.DefaultConfig()
	r, err := New(cfg, fpdb.New(), zeroFFT{}, func(int, float32, float32, uint32, float32, float32) {})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := r.ProcessAudio(make([]int16, 10)); err == nil {
		t.Fatal("expected error for a block of the wrong size")
	}
}

// TestProcessAudioSupportsSmallerBlockSize builds a Recognizer with the
// other spec-documented audioBlockSize (512, half-block-size 256) and drives
// it past a full rolling-history rotation. This is a regression test for a
// bug where a validly-configured 512 block size panicked in maxfilter.Filter,
// which only ever supported the 512-bin (audioBlockSize 1024) spectrum.
func TestProcessAudioSupportsSmallerBlockSize(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AudioBlockSize = 512

	r, err := New(cfg, fpdb.New(), zeroFFT{}, func(int, float32, float32, uint32, float32, float32) {})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	block := make([]int16, cfg.AudioBlockSize)
	for i := 0; i < cfg.FilterSizeTime+1; i++ {
		if err := r.ProcessAudio(block); err != nil {
			t.Fatalf("ProcessAudio: %v", err)
		}
	}
}

func TestAudioBlockIndexIsMonotonic(t *testing.T) {
	cfg := config.DefaultConfig()
	r, err := New(cfg, fpdb.New(), zeroFFT{}, func(int, float32, float32, uint32, float32, float32) {})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	block := make([]int16, cfg.AudioBlockSize)
	const n = 5
	for i := 0; i < n; i++ {
		if err := r.ProcessAudio(block); err != nil {
			t.Fatalf("ProcessAudio: %v", err)
		}
	}

	if r.AudioBlockIndex() != n {
		t.Fatalf("AudioBlockIndex() = %d, want %d", r.AudioBlockIndex(), n)
	}
}
