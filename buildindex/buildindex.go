// Package buildindex offline-builds sorted packed fingerprint segments from
// a directory of WAV files and tracks them in a JSON manifest, mirroring
// spec.md §6's reference database build format ("the build tool is out of
// scope" for the core engine; this is that tool).
package buildindex

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/OneOfOne/xxhash"
	"github.com/dhowden/tag"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/parasnair/olaf/config"
	"github.com/parasnair/olaf/eventpoint"
	"github.com/parasnair/olaf/fft"
	"github.com/parasnair/olaf/fingerprint"
	"github.com/parasnair/olaf/fpdb"
	"github.com/parasnair/olaf/pcmsource"
	"github.com/parasnair/olaf/window"
)

// TrackMeta records identity and tagging info for one indexed audio file.
type TrackMeta struct {
	AudioID  uint32
	Path     string
	RelPath  string
	Artist   string
	Album    string
	Title    string
	Duration float64
}

// TrackEntry is one track's sorted, packed fingerprint array, the unit
// persisted inside a segment file.
type TrackEntry struct {
	Meta         TrackMeta
	Fingerprints []uint64 // sorted ascending, Pack(hash, t1) encoding
}

// Segment is one gob-encoded batch of indexed tracks.
type Segment struct {
	CreatedAt time.Time
	Config    config.Config
	Tracks    []TrackEntry
}

// SegmentInfo is the manifest's record of one segment file on disk.
type SegmentInfo struct {
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
	NumTracks int       `json:"num_tracks"`
	Checksum  uint64    `json:"checksum"` // xxhash64 of the segment file's bytes
}

// Manifest is the append-only index of segments, persisted as JSON
// alongside the gob segment files it references (teacher's manifest +
// segment split, adapted from m4a tracks to fingerprint segments).
type Manifest struct {
	Segments []SegmentInfo `json:"segments"`
	Config   config.Config `json:"config"`
}

// LoadManifest reads a manifest from path.
func LoadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("buildindex: %w", err)
	}
	defer f.Close()

	var m Manifest
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return nil, fmt.Errorf("buildindex: decode manifest: %w", err)
	}
	return &m, nil
}

// SaveManifest writes m to path as indented JSON.
func SaveManifest(path string, m *Manifest) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("buildindex: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

// LoadSegment reads and gob-decodes a segment file.
func LoadSegment(path string) (*Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("buildindex: %w", err)
	}
	defer f.Close()

	var seg Segment
	if err := gob.NewDecoder(f).Decode(&seg); err != nil {
		return nil, fmt.Errorf("buildindex: decode segment: %w", err)
	}
	return &seg, nil
}

// SaveSegment gob-encodes seg to path and returns the xxhash64 checksum of
// the bytes written, for the manifest's integrity record.
func SaveSegment(path string, seg *Segment) (uint64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("buildindex: %w", err)
	}
	defer f.Close()

	h := xxhash.New64()
	w := io.MultiWriter(f, h)
	if err := gob.NewEncoder(w).Encode(seg); err != nil {
		return 0, fmt.Errorf("buildindex: encode segment: %w", err)
	}
	return h.Sum64(), nil
}

// VerifySegment recomputes a segment file's xxhash64 checksum and compares
// it against want, catching truncated or corrupted segment files before
// they're loaded into a live database.
func VerifySegment(path string, want uint64) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("buildindex: %w", err)
	}
	defer f.Close()

	h := xxhash.New64()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("buildindex: %w", err)
	}
	if got := h.Sum64(); got != want {
		return fmt.Errorf("buildindex: checksum mismatch for %s: want %x, got %x", path, want, got)
	}
	return nil
}

// AppendSegmentToManifest registers a freshly built segment in the
// manifest at manifestPath, creating the manifest if it doesn't exist.
func AppendSegmentToManifest(manifestPath string, info SegmentInfo, cfg config.Config) error {
	var m *Manifest
	if _, err := os.Stat(manifestPath); err == nil {
		existing, err := LoadManifest(manifestPath)
		if err != nil {
			return err
		}
		m = existing
	} else {
		m = &Manifest{Config: cfg}
	}

	m.Segments = append(m.Segments, info)
	return SaveManifest(manifestPath, m)
}

// BuildOptions controls how a directory of WAV files is turned into a
// segment.
type BuildOptions struct {
	Config     config.Config
	Workers    int    // <= 0 selects runtime.NumCPU()-1, floor 2
	Quiet      bool   // suppress the mpb progress bar
	StagingDir string // if set, stage per-track results in a badger db here so an interrupted build can resume
}

// newFFT builds the default Gonum-backed FFT for a given block size.
func newFFT(n int) fft.RealFFT {
	return fft.NewGonum(n)
}

// BuildSegment walks root for .wav files, extracts fingerprints from each
// using a worker pool (grounded on the teacher's buildIndex), and returns a
// Segment ready to be persisted with SaveSegment.
func BuildSegment(root string, opts BuildOptions) (*Segment, error) {
	paths, err := collectWavFiles(root)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("buildindex: no .wav files under %s", root)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU() - 1
		if workers < 2 {
			workers = 2
		}
	}

	var stager *Stager
	if opts.StagingDir != "" {
		s, err := OpenStager(opts.StagingDir)
		if err != nil {
			return nil, err
		}
		defer s.Close()
		stager = s
	}

	pending := paths
	if stager != nil {
		pending = make([]string, 0, len(paths))
		for _, p := range paths {
			if !stager.Has(p) {
				pending = append(pending, p)
			}
		}
	}

	var bar *mpb.Bar
	var progress *mpb.Progress
	if !opts.Quiet && len(pending) > 0 {
		progress = mpb.New(mpb.WithWidth(64))
		bar = progress.AddBar(int64(len(pending)),
			mpb.PrependDecorators(
				decor.Name("Indexing: "),
				decor.CountersNoUnit("%d / %d"),
			),
			mpb.AppendDecorators(
				decor.Percentage(),
				decor.EwmaETA(decor.ET_STYLE_GO, 60),
			),
		)
	}

	type result struct {
		path string
		meta TrackMeta
		fps  []uint64
		err  error
	}

	jobs := make(chan string, len(pending))
	results := make(chan result, len(pending))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				meta, fps, err := indexOneFile(root, path, opts.Config)
				results <- result{path: path, meta: meta, fps: fps, err: err}
			}
		}()
	}

	for _, p := range pending {
		jobs <- p
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	entriesByPath := make(map[string]TrackEntry, len(paths))

	for r := range results {
		if bar != nil {
			bar.Increment()
		}
		if r.err != nil {
			fmt.Fprintf(os.Stderr, "buildindex: skipping track: %v\n", r.err)
			continue
		}
		sort.Slice(r.fps, func(i, j int) bool { return r.fps[i] < r.fps[j] })
		entry := TrackEntry{Meta: r.meta, Fingerprints: r.fps}
		entriesByPath[r.path] = entry

		if stager != nil {
			if err := stager.Put(r.path, entry); err != nil {
				return nil, err
			}
		}
	}

	if progress != nil {
		progress.Wait()
	}

	if stager != nil {
		for _, p := range paths {
			if _, done := entriesByPath[p]; done {
				continue
			}
			entry, found, err := stager.Get(p)
			if err != nil {
				return nil, err
			}
			if found {
				entriesByPath[p] = entry
			}
		}
	}

	seg := &Segment{
		CreatedAt: time.Now(),
		Config:    opts.Config,
	}

	var audioID uint32
	for _, p := range paths {
		entry, ok := entriesByPath[p]
		if !ok {
			continue
		}
		entry.Meta.AudioID = audioID
		seg.Tracks = append(seg.Tracks, entry)
		audioID++
	}

	return seg, nil
}

// indexOneFile decodes one WAV file and extracts every fingerprint from it
// by driving the same event point/fingerprint extractor pipeline the live
// recognizer uses, so indexed hashes are bit-identical to what a query over
// the same audio would produce.
func indexOneFile(root, path string, cfg config.Config) (TrackMeta, []uint64, error) {
	src, err := pcmsource.Open(path, cfg.AudioBlockSize)
	if err != nil {
		return TrackMeta{}, nil, err
	}
	defer src.Close()

	win := window.Hamming(cfg.AudioBlockSize)
	fftImpl := newFFT(cfg.AudioBlockSize)
	epExtractor := eventpoint.New(cfg)
	fpExtractor := fingerprint.New(cfg)

	floatBlock := make([]float64, cfg.AudioBlockSize)
	fftOut := make([]float32, cfg.AudioBlockSize)
	block := make([]int16, cfg.AudioBlockSize)

	var packed []uint64
	blockIndex := 0

	for {
		err := src.NextBlock(block)
		if err != nil && err != io.EOF {
			return TrackMeta{}, nil, err
		}
		eof := err == io.EOF

		for i, s := range block {
			floatBlock[i] = float64(s) / 32768.0 * win[i]
		}
		fftImpl.Transform(floatBlock, fftOut)

		epExtractor.Extract(fftOut, blockIndex)

		points := epExtractor.EventPoints()
		if points.Index > cfg.EventPointThreshold {
			fpExtractor.Extract(points, blockIndex)

			fps := fpExtractor.Fingerprints()
			for i := 0; i < fps.Index; i++ {
				fp := fps.Fingerprints[i]
				packed = append(packed, fpdb.Pack(fp.CalculateHash(), uint32(fp.TimeIndex1)))
			}
			fps.Index = 0
		}

		blockIndex++
		if eof {
			break
		}
	}

	meta := TrackMeta{
		Path:    path,
		RelPath: relPath(root, path),
	}
	if artist, album, title, ok := readEmbeddedMetadata(path); ok {
		meta.Artist, meta.Album, meta.Title = artist, album, title
	}

	return meta, packed, nil
}

// readEmbeddedMetadata extracts ID3/Vorbis-style tags when present,
// falling back to reporting none found rather than an error: most WAV
// files carry no tags at all.
func readEmbeddedMetadata(path string) (artist, album, title string, ok bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", "", false
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return "", "", "", false
	}
	return m.Artist(), m.Album(), m.Title(), true
}

func collectWavFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(p), ".wav") {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("buildindex: %w", err)
	}
	return paths, nil
}

func relPath(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return p
	}
	return rel
}

// LoadDB materializes every segment referenced by a manifest into a live
// fpdb.DB, verifying each segment's checksum first.
func LoadDB(m *Manifest, manifestDir string) (*fpdb.DB, error) {
	db := fpdb.New()

	for _, info := range m.Segments {
		path := info.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(manifestDir, path)
		}

		if err := VerifySegment(path, info.Checksum); err != nil {
			return nil, err
		}

		seg, err := LoadSegment(path)
		if err != nil {
			return nil, err
		}

		for _, t := range seg.Tracks {
			db.RegisterAudio(fpdb.AudioReference{
				AudioID:      t.Meta.AudioID,
				Fingerprints: t.Fingerprints,
			})
		}
	}

	return db, nil
}
