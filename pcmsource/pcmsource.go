// Package pcmsource turns a WAV file into a stream of fixed-size mono PCM16
// blocks suitable for recognizer.ProcessAudio (spec.md §6's "audio input"
// boundary).
package pcmsource

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Source reads mono int16 PCM blocks of a fixed size out of a WAV file.
// Stereo files are downmixed by averaging channels; files at a different
// sample rate than expected are accepted as-is (resampling is out of
// scope, matching the "sample rate fixed by Config" contract in spec.md
// §6 — callers are responsible for feeding a Recognizer configured for the
// file's actual rate).
type Source struct {
	file      *os.File
	decoder   *wav.Decoder
	blockSize int

	pcmBuf *audio.IntBuffer
}

// Open opens path for reading and prepares to emit blockSize-sample mono
// blocks.
func Open(path string, blockSize int) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pcmsource: %w", err)
	}

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("pcmsource: %s is not a valid WAV file", path)
	}

	return &Source{
		file:      f,
		decoder:   dec,
		blockSize: blockSize,
	}, nil
}

// SampleRate reports the file's native sample rate.
func (s *Source) SampleRate() int {
	return int(s.decoder.SampleRate)
}

// NumChannels reports the file's native channel count.
func (s *Source) NumChannels() int {
	return int(s.decoder.NumChans)
}

// Close releases the underlying file handle.
func (s *Source) Close() error {
	return s.file.Close()
}

// NextBlock fills block (length must equal the configured blockSize) with
// the next span of mono PCM16 samples, downmixing stereo input by
// averaging channels. Padding at end of stream is zero-filled. It returns
// io.EOF once no more samples remain.
func (s *Source) NextBlock(block []int16) error {
	if len(block) != s.blockSize {
		return fmt.Errorf("pcmsource: block must have length %d, got %d", s.blockSize, len(block))
	}

	channels := s.NumChannels()
	if channels == 0 {
		channels = 1
	}

	if s.pcmBuf == nil || cap(s.pcmBuf.Data) < s.blockSize*channels {
		s.pcmBuf = &audio.IntBuffer{
			Format: &audio.Format{NumChannels: channels, SampleRate: s.SampleRate()},
			Data:   make([]int, s.blockSize*channels),
		}
	}
	s.pcmBuf.Data = s.pcmBuf.Data[:s.blockSize*channels]

	n, err := s.decoder.PCMBuffer(s.pcmBuf)
	if err != nil && err != io.EOF {
		return fmt.Errorf("pcmsource: %w", err)
	}
	if n == 0 {
		for i := range block {
			block[i] = 0
		}
		return io.EOF
	}

	framesRead := n / channels
	for i := 0; i < s.blockSize; i++ {
		if i >= framesRead {
			block[i] = 0
			continue
		}
		if channels == 1 {
			block[i] = int16(s.pcmBuf.Data[i])
			continue
		}
		sum := 0
		for c := 0; c < channels; c++ {
			sum += s.pcmBuf.Data[i*channels+c]
		}
		block[i] = int16(sum / channels)
	}

	if framesRead < s.blockSize {
		return io.EOF
	}
	return nil
}
