package maxfilter

import (
	"math/rand"
	"testing"
)

func TestFilterAgreesWithNaiveInVanHerkRegion(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	array := make([]float32, 512)
	for i := range array {
		array[i] = r.Float32()*2 - 1
	}

	got := make([]float32, 512)
	Filter(array, got)

	naive := make([]float32, 512)
	NaiveMaxFilter(array, vanHerkFilterWidth, naive)

	// Van Herk region starts where the filter is centered a half-width past
	// naiveImplementationStopBin; the valid output range tested here mirrors
	// the coverage spec.md's testable property 7 asserts.
	start := naiveImplementationStopBin + vanHerkFilterWidth/2
	for i := start; i < 512-vanHerkFilterWidth/2; i++ {
		if got[i] != naive[i] {
			t.Fatalf("bin %d: Filter=%v naive=%v", i, got[i], naive[i])
		}
	}
}

func TestFilterIsAtLeastEachElementInWindow(t *testing.T) {
	array := make([]float32, 512)
	for i := range array {
		array[i] = float32(i % 7)
	}

	got := make([]float32, 512)
	Filter(array, got)

	for f := 9; f < naiveImplementationStopBin; f++ {
		start, stop := perceptualMinIdx[f], perceptualMaxIdx[f]
		for j := start; j < stop; j++ {
			if got[f] < array[j] {
				t.Fatalf("bin %d: Filter()=%v < array[%d]=%v", f, got[f], j, array[j])
			}
		}
	}
}

func TestNaiveMaxFilterClampsAtEdges(t *testing.T) {
	array := []float32{1, 2, 3, 2, 1}
	out := make([]float32, len(array))
	NaiveMaxFilter(array, 3, out)

	want := []float32{2, 3, 3, 3, 2}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestFilterPanicsOnWrongLength(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for an unsupported spectrum length")
		}
	}()
	Filter(make([]float32, 300), make([]float32, 300))
}

func TestFilterSupports256BinSpectrum(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	array := make([]float32, 256)
	for i := range array {
		array[i] = r.Float32()*2 - 1
	}

	got := make([]float32, 256)
	Filter(array, got)

	tables := tablesBySize[256]
	naive := make([]float32, 256)
	NaiveMaxFilter(array, tables.vanHerkFilterWidth, naive)

	start := tables.naiveStopBin + tables.vanHerkFilterWidth/2
	for i := start; i < 256-tables.vanHerkFilterWidth/2; i++ {
		if got[i] != naive[i] {
			t.Fatalf("bin %d: Filter=%v naive=%v", i, got[i], naive[i])
		}
	}
}

func TestPerceptualTablesAreMonotonicAndInBounds(t *testing.T) {
	for i := 1; i < 512; i++ {
		if perceptualMinIdx[i] < perceptualMinIdx[i-1] {
			t.Fatalf("perceptualMinIdx not monotone at %d", i)
		}
		if perceptualMaxIdx[i] < perceptualMaxIdx[i-1] {
			t.Fatalf("perceptualMaxIdx not monotone at %d", i)
		}
		if perceptualMaxIdx[i] > 512 {
			t.Fatalf("perceptualMaxIdx[%d] = %d exceeds array bounds", i, perceptualMaxIdx[i])
		}
		if perceptualMinIdx[i] > perceptualMaxIdx[i] {
			t.Fatalf("perceptualMinIdx[%d] > perceptualMaxIdx[%d]", i, i)
		}
	}
}
