package config

import "testing"

func TestDefaultConfigValidates(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig should validate, got %v", err)
	}
}

func TestESP32ConfigValidates(t *testing.T) {
	if err := ESP32Config().Validate(); err != nil {
		t.Fatalf("ESP32Config should validate, got %v", err)
	}
}

func TestMemConfigValidates(t *testing.T) {
	if err := MemConfig().Validate(); err != nil {
		t.Fatalf("MemConfig should validate, got %v", err)
	}
}

func TestValidateRejectsBadBlockSize(t *testing.T) {
	c := DefaultConfig()
	c.AudioBlockSize = 777
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for invalid AudioBlockSize")
	}
}

func TestValidateRejectsBadEPsPerFP(t *testing.T) {
	c := DefaultConfig()
	c.NumberOfEPsPerFP = 4
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for invalid NumberOfEPsPerFP")
	}
}

func TestValidateRejectsInconsistentFilterSizeTime(t *testing.T) {
	c := DefaultConfig()
	c.HalfFilterSizeTime = c.FilterSizeTime // should be half, not equal
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for inconsistent filter size time")
	}
}

func TestBlocksFromSecondsIsPositive(t *testing.T) {
	c := ESP32Config()
	blocks := c.BlocksFromSeconds(c.KeepMatchesFor)
	if blocks <= 0 {
		t.Fatalf("expected positive block count, got %d", blocks)
	}
}

func TestHalfBlockSize(t *testing.T) {
	c := DefaultConfig()
	if got := c.HalfBlockSize(); got != c.AudioBlockSize/2 {
		t.Fatalf("HalfBlockSize() = %d, want %d", got, c.AudioBlockSize/2)
	}
}
