// Package config holds the tunable parameters that define Olaf's behaviour.
//
// A Config is built once (via one of the presets below, or by copying and
// adjusting one) and treated as immutable for the lifetime of a recognizer:
// changing it between runs can make previously indexed fingerprints stop
// matching newly extracted ones.
package config

import "fmt"

// Config holds every tunable parameter of the Olaf pipeline.
type Config struct {
	// ---- General ----
	AudioBlockSize   int // FFT length; only 512 or 1024 are supported
	AudioSampleRate  int // Hz
	AudioStepSize    int // samples advanced between blocks (hop)
	BytesPerSample   int
	Verbose          bool

	// ---- Event point extraction ----
	FilterSizeTime          int
	HalfFilterSizeTime      int
	FilterSizeFrequency     int
	HalfFilterSizeFrequency int
	MinEventPointMagnitude  float32
	MinFrequencyBin         int
	MaxEventPointUsages     int
	MaxEventPoints          int
	EventPointThreshold     int
	SqrtMagnitude           bool

	// ---- Fingerprint construction ----
	UseMagnitudeInfo bool // always overridden to false when hashing, see §9
	NumberOfEPsPerFP int  // 2 or 3
	MinTimeDistance  int
	MaxTimeDistance  int
	MinFreqDistance  int
	MaxFreqDistance  int
	MaxFingerprints  int

	// ---- Matching ----
	MaxResults       int
	SearchRange      int
	MinMatchCount    int
	MinMatchTimeDiff float32
	KeepMatchesFor   float32 // seconds, 0 disables aging
	PrintResultEvery float32 // seconds, 0 disables periodic reporting
	MaxDBCollisions  int
}

// DefaultConfig mirrors olaf_config.hpp's Config::create_default(), tuned for
// traditional desktop-class hardware.
func DefaultConfig() Config {
	var c Config

	c.AudioBlockSize = 1024
	c.AudioSampleRate = 16000
	c.AudioStepSize = 128
	c.BytesPerSample = 4

	c.MaxEventPoints = 60
	c.EventPointThreshold = 30
	c.SqrtMagnitude = false

	c.FilterSizeFrequency = 103
	c.HalfFilterSizeFrequency = c.FilterSizeFrequency / 2

	c.FilterSizeTime = 24
	c.HalfFilterSizeTime = c.FilterSizeTime / 2

	c.MinEventPointMagnitude = 0.001
	c.MaxEventPointUsages = 10
	c.MinFrequencyBin = 9

	c.NumberOfEPsPerFP = 3
	c.UseMagnitudeInfo = false

	c.MinTimeDistance = 2
	c.MaxTimeDistance = 33
	c.MinFreqDistance = 1
	c.MaxFreqDistance = 128

	c.MaxFingerprints = 300

	c.MaxResults = 50
	c.SearchRange = 5
	c.MinMatchCount = 6
	c.MinMatchTimeDiff = 0
	c.KeepMatchesFor = 0
	c.PrintResultEvery = 0
	c.MaxDBCollisions = 2000

	return c
}

// ESP32Config mirrors olaf_config.hpp's Config::create_esp_32(), tuned for a
// resource-constrained target: this is the preset spec.md's end-to-end
// scenarios (S1-S6) use.
func ESP32Config() Config {
	c := DefaultConfig()

	c.NumberOfEPsPerFP = 2
	c.MaxEventPointUsages = 20
	c.AudioStepSize = 256

	c.MaxResults = 20
	c.MaxEventPoints = 50
	c.EventPointThreshold = 30
	c.MaxFingerprints = 30
	c.SearchRange = 5
	c.MaxDBCollisions = 50
	c.MinMatchCount = 4
	c.MinMatchTimeDiff = 1.0
	c.KeepMatchesFor = 9
	c.PrintResultEvery = 1

	return c
}

// MemConfig mirrors olaf_config.hpp's Config::create_mem(): the ESP32 preset
// tuned for a pure in-RAM run with no periodic reporting or vote aging.
func MemConfig() Config {
	c := ESP32Config()

	c.MaxResults = 10
	c.PrintResultEvery = 0
	c.KeepMatchesFor = 0
	c.Verbose = false

	return c
}

// Validate checks the configuration error class described in spec.md §7:
// constructing a recognizer from a bad Config must fail, not panic later.
func (c Config) Validate() error {
	if c.AudioBlockSize != 512 && c.AudioBlockSize != 1024 {
		return fmt.Errorf("config: audioBlockSize must be 512 or 1024, got %d", c.AudioBlockSize)
	}
	if c.NumberOfEPsPerFP != 2 && c.NumberOfEPsPerFP != 3 {
		return fmt.Errorf("config: numberOfEPsPerFP must be 2 or 3, got %d", c.NumberOfEPsPerFP)
	}
	if c.FilterSizeTime%2 != 0 || c.FilterSizeTime/2 != c.HalfFilterSizeTime {
		return fmt.Errorf("config: filterSizeTime (%d) and halfFilterSizeTime (%d) must satisfy filterSizeTime == 2*halfFilterSizeTime",
			c.FilterSizeTime, c.HalfFilterSizeTime)
	}
	if c.MaxEventPoints <= 0 {
		return fmt.Errorf("config: maxEventPoints must be positive, got %d", c.MaxEventPoints)
	}
	if c.MaxFingerprints <= 0 {
		return fmt.Errorf("config: maxFingerprints must be positive, got %d", c.MaxFingerprints)
	}
	if c.AudioSampleRate <= 0 || c.AudioStepSize <= 0 {
		return fmt.Errorf("config: audioSampleRate and audioStepSize must be positive")
	}
	return nil
}

// SecondsPerBlock is the canonical seconds-per-step-block conversion used
// throughout the matcher (spec.md §4.5).
func (c Config) SecondsPerBlock() float32 {
	return float32(c.AudioStepSize) / float32(c.AudioSampleRate)
}

// BlocksFromSeconds converts a seconds duration into a block count, per the
// "blocks = (seconds * sampleRate) / stepSize" rule in spec.md §4.5.
func (c Config) BlocksFromSeconds(seconds float32) int {
	return int((seconds * float32(c.AudioSampleRate)) / float32(c.AudioStepSize))
}

// HalfBlockSize is the length of the magnitude spectrum derived from one FFT
// block (bins 0..audioBlockSize/2-1).
func (c Config) HalfBlockSize() int {
	return c.AudioBlockSize / 2
}
