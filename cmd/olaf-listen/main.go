// Command olaf-listen drives a recognizer over a WAV file and prints
// matches against a fingerprint database, in the style of the reference
// implementation's on-device match reporting (spec.md §4.5, §4.6).
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"path/filepath"

	"github.com/parasnair/olaf/buildindex"
	"github.com/parasnair/olaf/config"
	"github.com/parasnair/olaf/fft"
	"github.com/parasnair/olaf/matcher"
	"github.com/parasnair/olaf/pcmsource"
	"github.com/parasnair/olaf/recognizer"
)

func main() {
	log.SetFlags(0)

	manifestPath := flag.String("manifest", "manifest.json", "segment manifest to match against")
	queryFile := flag.String("file", "", "WAV file to recognize")
	presetName := flag.String("preset", "esp32", "config preset: default | esp32 | mem")

	flag.Parse()

	if *queryFile == "" {
		log.Fatal("olaf-listen: -file is required")
	}

	cfg, err := preset(*presetName)
	if err != nil {
		log.Fatal(err)
	}

	m, err := buildindex.LoadManifest(*manifestPath)
	if err != nil {
		log.Fatalf("olaf-listen: %v", err)
	}

	db, err := buildindex.LoadDB(m, filepath.Dir(*manifestPath))
	if err != nil {
		log.Fatalf("olaf-listen: %v", err)
	}

	fmt.Print(matcher.FormatHeader())

	callback := func(matchCount int, queryStart, queryStop float32, audioID uint32, referenceStart, referenceStop float32) {
		if matchCount == 0 {
			return
		}
		fmt.Print(matcher.FormatResult(matchCount, queryStart, queryStop, audioID, referenceStart, referenceStop))
	}

	fftImpl := fft.NewGonum(cfg.AudioBlockSize)
	rec, err := recognizer.New(cfg, db, fftImpl, callback)
	if err != nil {
		log.Fatalf("olaf-listen: %v", err)
	}

	src, err := pcmsource.Open(*queryFile, cfg.AudioBlockSize)
	if err != nil {
		log.Fatalf("olaf-listen: %v", err)
	}
	defer src.Close()

	block := make([]int16, cfg.AudioBlockSize)
	for {
		err := src.NextBlock(block)
		if err != nil && err != io.EOF {
			log.Fatalf("olaf-listen: %v", err)
		}
		eof := err == io.EOF

		if procErr := rec.ProcessAudio(block); procErr != nil {
			log.Fatalf("olaf-listen: %v", procErr)
		}

		if eof {
			break
		}
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
		return config.Config{}, fmt.Errorf("olaf-listen: unknown preset %q", name)
	}
}
