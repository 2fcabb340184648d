package pcmsource

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeTestWAV(t *testing.T, path string, samples []int, numChans, sampleRate int) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, numChans, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: numChans, SampleRate: sampleRate},
		Data:   samples,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
}

func TestNextBlockReadsMonoSamples(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mono.wav")

	const blockSize = 8
	samples := make([]int, blockSize)
	for i := range samples {
		samples[i] = i * 100
	}
	writeTestWAV(t, path, samples, 1, 16000)

	src, err := Open(path, blockSize)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	if src.SampleRate() != 16000 {
		t.Fatalf("SampleRate() = %d, want 16000", src.SampleRate())
	}
	if src.NumChannels() != 1 {
		t.Fatalf("NumChannels() = %d, want 1", src.NumChannels())
	}

	block := make([]int16, blockSize)
	err = src.NextBlock(block)
	if err != nil && err != io.EOF {
		t.Fatalf("NextBlock: %v", err)
	}

	for i, v := range block {
		if int(v) != samples[i] {
			t.Fatalf("block[%d] = %d, want %d", i, v, samples[i])
		}
	}
}

func TestNextBlockDownmixesStereo(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stereo.wav")

	const blockSize = 4
	// interleaved L,R pairs: L=100, R=200 for every frame, averaging to 150
	samples := []int{100, 200, 100, 200, 100, 200, 100, 200}
	writeTestWAV(t, path, samples, 2, 16000)

	src, err := Open(path, blockSize)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	block := make([]int16, blockSize)
	_ = src.NextBlock(block)

	for i, v := range block {
		if v != 150 {
			t.Fatalf("block[%d] = %d, want 150 (downmixed average)", i, v)
		}
	}
}

func TestNextBlockZeroPadsShortFinalBlock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "short.wav")

	samples := []int{1, 2, 3}
	writeTestWAV(t, path, samples, 1, 16000)

	src, err := Open(path, 8)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	block := make([]int16, 8)
	err = src.NextBlock(block)
	if err != io.EOF {
		t.Fatalf("expected io.EOF for a file shorter than one block, got %v", err)
	}
	for i := 3; i < 8; i++ {
		if block[i] != 0 {
			t.Fatalf("block[%d] = %d, want 0 padding", i, block[i])
		}
	}
}

func TestOpenRejectsNonWAVFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "not-a-wav.txt")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	_, err := Open(path, 512)
	if err == nil {
		t.Fatal("expected error opening a non-WAV file")
	}
}
