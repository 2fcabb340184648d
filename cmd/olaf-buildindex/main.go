// Command olaf-buildindex builds and maintains an offline fingerprint
// database from a directory of WAV files (spec.md §6's build-tool
// boundary).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"path/filepath"

	"github.com/parasnair/olaf/buildindex"
	"github.com/parasnair/olaf/config"
)

func main() {
	log.SetFlags(0)

	mode := flag.String("mode", "", "add | stats")
	dataset := flag.String("dataset", "", "folder of .wav files to index (for -mode add)")
	manifestPath := flag.String("manifest", "manifest.json", "segment manifest path")
	segmentPath := flag.String("segment", "", "output segment path (for -mode add; default: <manifest dir>/segment-<n>.gob)")
	stagingDir := flag.String("staging", "", "badger staging directory, enables resumable indexing")
	workers := flag.Int("workers", 0, "worker count, 0 selects a default")
	presetName := flag.String("preset", "default", "config preset: default | esp32 | mem")
	mongoURI := flag.String("mongo-uri", "", "if set, mirror indexed track metadata into this Mongo instance")
	mongoDB := flag.String("mongo-db", "olaf", "Mongo database name for catalog mirroring")
	mongoColl := flag.String("mongo-collection", "tracks", "Mongo collection name for catalog mirroring")

	flag.Parse()

	cfg, err := preset(*presetName)
	if err != nil {
		log.Fatal(err)
	}

	switch *mode {
	case "add":
		if *dataset == "" {
			log.Fatal("olaf-buildindex: -dataset is required for -mode add")
		}

		seg, err := buildindex.BuildSegment(*dataset, buildindex.BuildOptions{
			Config:     cfg,
			Workers:    *workers,
			StagingDir: *stagingDir,
		})
		if err != nil {
			log.Fatalf("olaf-buildindex: %v", err)
		}

		outPath := *segmentPath
		if outPath == "" {
			outPath = filepath.Join(filepath.Dir(*manifestPath), fmt.Sprintf("segment-%d.gob", len(seg.Tracks)))
		}

		checksum, err := buildindex.SaveSegment(outPath, seg)
		if err != nil {
			log.Fatalf("olaf-buildindex: %v", err)
		}

		info := buildindex.SegmentInfo{
			Path:      outPath,
			CreatedAt: seg.CreatedAt,
			NumTracks: len(seg.Tracks),
			Checksum:  checksum,
		}
		if err := buildindex.AppendSegmentToManifest(*manifestPath, info, cfg); err != nil {
			log.Fatalf("olaf-buildindex: %v", err)
		}

		fmt.Printf("Added segment %s (%d tracks). Manifest: %s\n", outPath, len(seg.Tracks), *manifestPath)

		if *mongoURI != "" {
			ctx := context.Background()
			if err := buildindex.MirrorCatalog(ctx, *mongoURI, *mongoDB, *mongoColl, seg); err != nil {
				log.Fatalf("olaf-buildindex: %v", err)
			}
			fmt.Printf("Mirrored %d tracks into %s/%s\n", len(seg.Tracks), *mongoDB, *mongoColl)
		}

	case "stats":
		m, err := buildindex.LoadManifest(*manifestPath)
		if err != nil {
			log.Fatalf("olaf-buildindex: %v", err)
		}

		db, err := buildindex.LoadDB(m, filepath.Dir(*manifestPath))
		if err != nil {
			log.Fatalf("olaf-buildindex: %v", err)
		}

		fmt.Print(db.PrintStats(true))

	default:
		fmt.Println("Usage:")
		fmt.Println("  olaf-buildindex -mode add -dataset ./wavs -manifest manifest.json [-staging ./staging] [-workers N]")
		fmt.Println("  olaf-buildindex -mode stats -manifest manifest.json")
	}
}

func preset(name string) (config.Config, error) {
	switch name {
	case "default":
		return config.DefaultConfig(), nil
	case "esp32":
		return config.ESP32Config(), nil
	case "mem":
		return config.MemConfig(), nil
	default:
		return config.Config{}, fmt.Errorf("olaf-buildindex: unknown preset %q", name)
	}
}
