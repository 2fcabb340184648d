package eventpoint

import (
	"testing"

	"github.com/parasnair/olaf/config"
)

func synthesizeBlock(cfg config.Config, peakBin int, peakMag float32) []float32 {
	out := make([]float32, cfg.AudioBlockSize)
	half := cfg.HalfBlockSize()
	for k := 0; k < half; k++ {
		mag := float32(0.0001)
		if k == peakBin {
			mag = peakMag
		}
		// purely real so hypot(re, 0) == re
		out[2*k] = mag
		out[2*k+1] = 0
	}
	return out
}

func TestExtractDoesNotEmitBeforeHistoryFills(t *testing.T) {
	cfg := config.DefaultConfig()
	e := New(cfg)

	for i := 0; i < cfg.FilterSizeTime-1; i++ {
		e.Extract(synthesizeBlock(cfg, 50, 1.0), i)
	}

	if e.EventPoints().Index != 0 {
		t.Fatalf("expected no event points before history fills, got %d", e.EventPoints().Index)
	}
}

func TestEventPointBufferSortedAscendingByTimeIndex(t *testing.T) {
	cfg := config.DefaultConfig()
	e := New(cfg)

	for i := 0; i < cfg.FilterSizeTime*3; i++ {
		peakBin := 50 + (i % 5)
		e.Extract(synthesizeBlock(cfg, peakBin, 1.0), i)
	}

	pts := e.EventPoints()
	for i := 1; i < pts.Index; i++ {
		if pts.Points[i].TimeIndex < pts.Points[i-1].TimeIndex {
			t.Fatalf("event points not sorted ascending by time index at %d: %d < %d",
				i, pts.Points[i].TimeIndex, pts.Points[i-1].TimeIndex)
		}
	}
}

func TestTombstoneTimeIndexConstant(t *testing.T) {
	if TombstoneTimeIndex != 1<<23 {
		t.Fatalf("TombstoneTimeIndex = %d, want %d", TombstoneTimeIndex, 1<<23)
	}
}

func TestExtractRespectsMaxEventPoints(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.MaxEventPoints = 3
	cfg.MinEventPointMagnitude = 0.0001

	e := New(cfg)

	for i := 0; i < cfg.FilterSizeTime+5; i++ {
		block := make([]float32, cfg.AudioBlockSize)
		half := cfg.HalfBlockSize()
		for k := 0; k < half; k++ {
			// every bin "peaks" locally by alternating magnitude, to push as
			// many candidate event points as possible through the extractor
			mag := float32(1.0)
			if k%2 == 0 {
				mag = 0.5
			}
			block[2*k] = mag
		}
		e.Extract(block, i)
	}

	if e.EventPoints().Index > cfg.MaxEventPoints {
		t.Fatalf("event point index %d exceeds MaxEventPoints %d", e.EventPoints().Index, cfg.MaxEventPoints)
	}
}
