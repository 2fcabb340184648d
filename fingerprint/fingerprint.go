// Package fingerprint combines event points into 48-bit fingerprint hashes
// and extracts fingerprints from a live event point buffer (spec.md §3,
// §4.3).
package fingerprint

import (
	"fmt"
	"os"

	"github.com/parasnair/olaf/config"
	"github.com/parasnair/olaf/eventpoint"
)

// Fingerprint is a geometric descriptor derived from two or three event
// points. For a 2-point fingerprint, the third point mirrors the second
// (spec.md §3).
type Fingerprint struct {
	FrequencyBin1 int
	TimeIndex1    int
	Magnitude1    float32

	FrequencyBin2 int
	TimeIndex2    int
	Magnitude2    float32

	FrequencyBin3 int
	TimeIndex3    int
	Magnitude3    float32
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// CalculateHash projects a Fingerprint to its normative 48-bit packed hash,
// per the bit layout in spec.md §3. Bits 9-11 (magnitude ordering) are
// always zero: the reference implementation computes them and then forces
// them off (spec.md §9), which this mirrors by simply never setting them.
func (f Fingerprint) CalculateHash() uint64 {
	f1, f2, f3 := f.FrequencyBin1, f.FrequencyBin2, f.FrequencyBin3
	t1, t3 := f.TimeIndex1, f.TimeIndex3
	t2 := f.TimeIndex2

	var f1LargerThanF2, f2LargerThanF3, f3LargerThanF1 uint64
	if f1 > f2 {
		f1LargerThanF2 = 1
	}
	if f2 > f3 {
		f2LargerThanF3 = 1
	}
	if f3 > f1 {
		f3LargerThanF1 = 1
	}

	var dt1t2LargerThanT3t2 uint64
	if (t2 - t1) > (t3 - t2) {
		dt1t2LargerThanT3t2 = 1
	}

	var df1f2LargerThanF3f2 uint64
	if absInt(f2-f1) > absInt(f3-f2) {
		df1f2LargerThanF3f2 = 1
	}

	f1Range := uint64(f1 >> 1)
	df2f1 := uint64(absInt(f2 - f1) >> 2)
	df3f2 := uint64(absInt(f3 - f2) >> 2)
	diffT := uint64(t3 - t1)

	hash := (diffT & ((1 << 6) - 1) << 0) +
		(f1LargerThanF2 & 1 << 6) +
		(f2LargerThanF3 & 1 << 7) +
		(f3LargerThanF1 & 1 << 8) +
		// bits 9-11: magnitude ordering, reserved, forced to zero
		(dt1t2LargerThanT3t2 & 1 << 12) +
		(df1f2LargerThanF3f2 & 1 << 13) +
		(f1Range & ((1 << 8) - 1) << 14) +
		(df2f1 & ((1 << 6) - 1) << 22) +
		(df3f2 & ((1 << 6) - 1) << 28)

	return hash
}

func (f Fingerprint) String() string {
	return fmt.Sprintf("FP hash: %d\n\tt1: %d, f1: %d, m1: %.3f\n\tt2: %d, f2: %d, m2: %.3f\n\tt3: %d, f3: %d, m3: %.3f",
		f.CalculateHash(),
		f.TimeIndex1, f.FrequencyBin1, f.Magnitude1,
		f.TimeIndex2, f.FrequencyBin2, f.Magnitude2,
		f.TimeIndex3, f.FrequencyBin3, f.Magnitude3)
}

// ExtractedFingerprints is the fixed-capacity fingerprint buffer. It is
// drained to empty by every matcher.Match call (spec.md §3 invariants).
type ExtractedFingerprints struct {
	Fingerprints []Fingerprint
	Index        int
}

// Extractor builds fingerprints out of the live event point buffer.
type Extractor struct {
	config         config.Config
	fingerprints   ExtractedFingerprints
	totalExtracted int
	warningGiven   bool
}

// New allocates the fingerprint buffer up front, per the memory budget in
// spec.md §5.
func New(cfg config.Config) *Extractor {
	return &Extractor{
		config: cfg,
		fingerprints: ExtractedFingerprints{
			Fingerprints: make([]Fingerprint, cfg.MaxFingerprints),
		},
	}
}

// Fingerprints returns the live fingerprint buffer.
func (x *Extractor) Fingerprints() *ExtractedFingerprints {
	return &x.fingerprints
}

// TotalExtracted returns the running count of fingerprints ever emitted,
// across all Extract calls.
func (x *Extractor) TotalExtracted() int {
	return x.totalExtracted
}

// Extract combines event points in points into fingerprints, appending them
// to the fingerprint buffer, then prunes and re-sorts the event point
// buffer per spec.md §4.3.
func (x *Extractor) Extract(points *eventpoint.ExtractedEventPoints, audioBlockIndex int) {
	if points.Index == 0 {
		return
	}

	if x.config.Verbose {
		fmt.Fprintf(os.Stderr, "Combining event points into fingerprints:\n")
		for i := 0; i < points.Index; i++ {
			fmt.Fprintf(os.Stderr, "\tidx: %d, %s\n", i, points.Points[i])
		}
	}

	switch x.config.NumberOfEPsPerFP {
	case 2:
		x.extractTwo(points, audioBlockIndex)
	case 3:
		x.extractThree(points, audioBlockIndex)
	default:
		panic("fingerprint: numberOfEPsPerFP must be 2 or 3")
	}

	cutoffTime := points.Points[points.Index-1].TimeIndex - x.config.MaxTimeDistance
	maxUsages := x.config.MaxEventPointUsages

	if x.config.Verbose {
		fmt.Fprintf(os.Stderr, "New EP index %d, cutoffTime %d\n", points.Index, cutoffTime)
		for i := 0; i < points.Index; i++ {
			fmt.Fprintf(os.Stderr, "idx:%d, %s\n", i, points.Points[i])
		}
	}

	for i := 0; i < points.Index; i++ {
		if points.Points[i].TimeIndex <= cutoffTime || points.Points[i].Usages == maxUsages {
			points.Points[i].TimeIndex = eventpoint.TombstoneTimeIndex
			points.Points[i].FrequencyBin = 0
			points.Points[i].Magnitude = 0
		}
	}

	sortByTimeIndexAscending(points.Points[:points.Index])

	for i := 0; i < points.Index; i++ {
		if points.Points[i].TimeIndex == eventpoint.TombstoneTimeIndex {
			points.Index = i
			break
		}
	}

	x.totalExtracted += x.fingerprints.Index
}

func sortByTimeIndexAscending(points []eventpoint.EventPoint) {
	// insertion sort: the buffer is small (maxEventPoints, typically <= 60)
	// and already nearly sorted block to block, exactly the shape this
	// algorithm performs best on.
	for i := 1; i < len(points); i++ {
		v := points[i]
		j := i - 1
		for j >= 0 && points[j].TimeIndex > v.TimeIndex {
			points[j+1] = points[j]
			j--
		}
		points[j+1] = v
	}
}

func (x *Extractor) tryEmit(i, j, k int, points *eventpoint.ExtractedEventPoints) bool {
	if x.fingerprints.Index >= x.config.MaxFingerprints {
		if !x.warningGiven {
			fmt.Fprintf(os.Stderr,
				"Warning: Fingerprint maximum index %d reached, fingerprints are ignored, "+
					"consider increasing config.MaxFingerprints if you see this often.\n",
				x.fingerprints.Index)
			x.warningGiven = true
		}
		return false
	}

	a, b, c := points.Points[i], points.Points[j], points.Points[k]
	x.fingerprints.Fingerprints[x.fingerprints.Index] = Fingerprint{
		TimeIndex1: a.TimeIndex, FrequencyBin1: a.FrequencyBin, Magnitude1: a.Magnitude,
		TimeIndex2: b.TimeIndex, FrequencyBin2: b.FrequencyBin, Magnitude2: b.Magnitude,
		TimeIndex3: c.TimeIndex, FrequencyBin3: c.FrequencyBin, Magnitude3: c.Magnitude,
	}

	points.Points[i].Usages++
	points.Points[j].Usages++
	if k != j {
		points.Points[k].Usages++
	}

	if x.config.Verbose {
		fmt.Fprintf(os.Stderr, "Fingerprint at index %d\n%s\n", x.fingerprints.Index, x.fingerprints.Fingerprints[x.fingerprints.Index])
	}

	x.fingerprints.Index++
	return true
}

// extractThree implements the triple combinatorial pass of spec.md §4.3.
func (x *Extractor) extractThree(points *eventpoint.ExtractedEventPoints, audioBlockIndex int) {
	cfg := x.config

	for i := 0; i < points.Index; i++ {
		p1 := points.Points[i]
		if p1.FrequencyBin == 0 && p1.TimeIndex == 0 {
			break
		}
		if p1.Usages > cfg.MaxEventPointUsages {
			break
		}
		if p1.TimeIndex > audioBlockIndex-cfg.MaxTimeDistance {
			break
		}

		for j := i + 1; j < points.Index; j++ {
			p2 := points.Points[j]
			fDiff := absInt(p1.FrequencyBin - p2.FrequencyBin)
			tDiff := p2.TimeIndex - p1.TimeIndex

			if p2.Usages > cfg.MaxEventPointUsages {
				break
			}
			if tDiff > cfg.MaxTimeDistance {
				break
			}

			if tDiff < cfg.MinTimeDistance || tDiff > cfg.MaxTimeDistance ||
				fDiff < cfg.MinFreqDistance || fDiff > cfg.MaxFreqDistance {
				continue
			}

			for k := j + 1; k < points.Index; k++ {
				p3 := points.Points[k]

				if p3.Usages > cfg.MaxEventPointUsages {
					break
				}

				// The reference implementation re-checks the (i,j) gap here
				// rather than the (j,k) gap — spec.md §9 calls this out as
				// an open question and says to treat the (j,k) check,
				// evaluated just below, as the real intent.
				if tDiff > cfg.MaxTimeDistance {
					break
				}

				jkFDiff := absInt(p2.FrequencyBin - p3.FrequencyBin)
				jkTDiff := p3.TimeIndex - p2.TimeIndex

				if jkTDiff < cfg.MinTimeDistance || jkTDiff > cfg.MaxTimeDistance ||
					jkFDiff < cfg.MinFreqDistance || jkFDiff > cfg.MaxFreqDistance {
					continue
				}

				x.tryEmit(i, j, k, points)
			}
		}
	}
}

// extractTwo implements the pair simplification of spec.md §4.3: the third
// peak mirrors the second.
func (x *Extractor) extractTwo(points *eventpoint.ExtractedEventPoints, audioBlockIndex int) {
	cfg := x.config

	for i := 0; i < points.Index; i++ {
		p1 := points.Points[i]
		if p1.FrequencyBin == 0 && p1.TimeIndex == 0 {
			break
		}
		if p1.Usages > cfg.MaxEventPointUsages {
			break
		}
		if p1.TimeIndex > audioBlockIndex-cfg.MaxTimeDistance {
			break
		}

		for j := i + 1; j < points.Index; j++ {
			p2 := points.Points[j]
			fDiff := absInt(p1.FrequencyBin - p2.FrequencyBin)
			tDiff := p2.TimeIndex - p1.TimeIndex

			if p2.Usages > cfg.MaxEventPointUsages {
				break
			}
			if tDiff > cfg.MaxTimeDistance {
				break
			}

			if tDiff < cfg.MinTimeDistance || tDiff > cfg.MaxTimeDistance ||
				fDiff < cfg.MinFreqDistance || fDiff > cfg.MaxFreqDistance {
				continue
			}

			x.tryEmit(i, j, j, points)
		}
	}
}
