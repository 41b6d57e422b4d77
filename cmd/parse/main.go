// Command parse decodes NDBC text feeds saved to disk into a buoy record,
// using the same domain package as the pipeline. It is useful for checking
// a captured feed offline or producing test fixtures.
//
// Usage:
//
//	go run ./cmd/parse \
//	  -buoy 44097 \
//	  -stdmet 44097.txt \
//	  -data-spec 44097.data_spec \
//	  -swdir 44097.swdir \
//	  -fetched 2026-10-16T12:40:00Z \
//	  -out data/buoy.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/couchcryptid/surf-data-etl/internal/adapter/file"
	"github.com/couchcryptid/surf-data-etl/internal/domain"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	buoy := flag.String("buoy", "", "buoy ID recorded in the output")
	stdmetPath := flag.String("stdmet", "", "path to a standard meteorological feed (<id>.txt)")
	densityPath := flag.String("data-spec", "", "path to a spectral density feed (<id>.data_spec)")
	directionPath := flag.String("swdir", "", "path to a spectral direction feed (<id>.swdir)")
	fetched := flag.String("fetched", "", "RFC 3339 fetch time to stamp instead of now")
	out := flag.String("out", "", "output path; stdout when empty")
	flag.Parse()

	if *buoy == "" || *stdmetPath == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -buoy, -stdmet")
	}
	if (*densityPath == "") != (*directionPath == "") {
		return fmt.Errorf("-data-spec and -swdir must be given together")
	}

	if *fetched != "" {
		at, err := time.Parse(time.RFC3339, *fetched)
		if err != nil {
			return fmt.Errorf("parse -fetched: %w", err)
		}
		// Fixed clock for reproducible fetch timestamps.
		domain.SetClock(clockwork.NewFakeClockAt(at))
		defer domain.SetClock(nil)
	}

	stdmet, err := os.ReadFile(*stdmetPath)
	if err != nil {
		return fmt.Errorf("read stdmet: %w", err)
	}
	reading := domain.ParseStdmet(string(stdmet))
	if reading == nil {
		log.Printf("%s: no observation row", *stdmetPath)
	}

	var spectral []domain.SpectralBin
	if *densityPath != "" {
		density, err := os.ReadFile(*densityPath)
		if err != nil {
			return fmt.Errorf("read data_spec: %w", err)
		}
		direction, err := os.ReadFile(*directionPath)
		if err != nil {
			return fmt.Errorf("read swdir: %w", err)
		}
		spectral = domain.MergeSpectrum(string(density), string(direction))
		log.Printf("spectrum: %d bins", len(spectral))
	}

	record := domain.NewBuoyRecord(domain.Spot{Buoy: *buoy}, reading, spectral)

	if *out == "" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(record)
	}
	if err := file.WriteJSON(*out, record); err != nil {
		return err
	}
	log.Printf("wrote %s", *out)
	return nil
}
