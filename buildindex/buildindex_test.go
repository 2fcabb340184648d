package buildindex

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/parasnair/olaf/config"
)

func TestManifestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")

	m := &Manifest{
		Config: config.ESP32Config(),
		Segments: []SegmentInfo{
			{Path: "segment-0.gob", CreatedAt: time.Now().Truncate(time.Second), NumTracks: 2, Checksum: 123},
		},
	}

	if err := SaveManifest(path, m); err != nil {
		t.Fatalf("SaveManifest: %v", err)
	}

	got, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}

	if len(got.Segments) != 1 || got.Segments[0].Path != "segment-0.gob" {
		t.Fatalf("unexpected manifest contents: %+v", got)
	}
}

func TestSegmentSaveLoadVerifyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "segment-0.gob")

	seg := &Segment{
		CreatedAt: time.Now().Truncate(time.Second),
		Config:    config.DefaultConfig(),
		Tracks: []TrackEntry{
			{
				Meta:         TrackMeta{AudioID: 1, Path: "a.wav", Title: "A"},
				Fingerprints: []uint64{1, 2, 3},
			},
		},
	}

	checksum, err := SaveSegment(path, seg)
	if err != nil {
		t.Fatalf("SaveSegment: %v", err)
	}

	if err := VerifySegment(path, checksum); err != nil {
		t.Fatalf("VerifySegment: %v", err)
	}

	if err := VerifySegment(path, checksum+1); err == nil {
		t.Fatal("expected VerifySegment to fail for a mismatched checksum")
	}

	got, err := LoadSegment(path)
	if err != nil {
		t.Fatalf("LoadSegment: %v", err)
	}
	if len(got.Tracks) != 1 || got.Tracks[0].Meta.Title != "A" {
		t.Fatalf("unexpected segment contents: %+v", got)
	}
}

func TestAppendSegmentToManifestCreatesManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")

	info := SegmentInfo{Path: "segment-0.gob", NumTracks: 1, Checksum: 42}
	if err := AppendSegmentToManifest(path, info, config.DefaultConfig()); err != nil {
		t.Fatalf("AppendSegmentToManifest: %v", err)
	}

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if len(m.Segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(m.Segments))
	}

	if err := AppendSegmentToManifest(path, SegmentInfo{Path: "segment-1.gob"}, config.DefaultConfig()); err != nil {
		t.Fatalf("AppendSegmentToManifest (second): %v", err)
	}
	m, err = LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if len(m.Segments) != 2 {
		t.Fatalf("expected 2 segments after second append, got %d", len(m.Segments))
	}
}

func TestStagerPutGetHas(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenStager(dir)
	if err != nil {
		t.Fatalf("OpenStager: %v", err)
	}
	defer s.Close()

	if s.Has("track.wav") {
		t.Fatal("expected Has to be false before Put")
	}

	entry := TrackEntry{Meta: TrackMeta{AudioID: 9, Path: "track.wav"}, Fingerprints: []uint64{7, 8}}
	if err := s.Put("track.wav", entry); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if !s.Has("track.wav") {
		t.Fatal("expected Has to be true after Put")
	}

	got, found, err := s.Get("track.wav")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found || got.Meta.AudioID != 9 || len(got.Fingerprints) != 2 {
		t.Fatalf("unexpected staged entry: found=%v entry=%+v", found, got)
	}
}
