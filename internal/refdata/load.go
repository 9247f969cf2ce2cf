package refdata

import (
	"context"
	"embed"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// File names of the six reference tables inside a data release directory.
const (
	FileBatteryDegradation = "battery_degradation.json"
	FileRangeDelta         = "range_delta.csv"
	FileRecalls            = "recalls.csv"
	FileOwnerIssues        = "owner_issue_clusters.json"
	FileClimateZones       = "climate_zones.csv"
	FileChargerDensity     = "charger_density.csv"
)

// EmbeddedVersion is the data release compiled into the binary.
const EmbeddedVersion = "v1.0"

//go:embed data_v1.0
var embedded embed.FS

// Embedded returns the data release compiled into the binary.
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "data_v1.0")
	if err != nil {
		panic(err) // directory is part of the build
	}
	return sub
}

// Load reads the reference tables from dir, or from the embedded release
// when dir is empty.
func Load(ctx context.Context, dir string) (*Snapshot, error) {
	if dir == "" {
		return LoadFS(ctx, EmbeddedVersion, Embedded())
	}
	return LoadFS(ctx, dir, os.DirFS(dir))
}

// LoadFS reads all six tables from fsys concurrently. Any parse failure
// aborts the whole load.
func LoadFS(ctx context.Context, version string, fsys fs.FS) (*Snapshot, error) {
	var t Tables
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		var b BatteryData
		if err := decodeJSONFile(fsys, FileBatteryDegradation, &b); err != nil {
			return err
		}
		t.Battery = &b
		return nil
	})
	g.Go(func() error {
		var err error
		t.Ranges, err = decodeCSVFile[RangeDeltaRecord](fsys, FileRangeDelta)
		return err
	})
	g.Go(func() error {
		var err error
		t.Recalls, err = decodeCSVFile[RecallRecord](fsys, FileRecalls)
		return err
	})
	g.Go(func() error {
		return decodeJSONFile(fsys, FileOwnerIssues, &t.OwnerIssues)
	})
	g.Go(func() error {
		var err error
		t.Climate, err = decodeCSVFile[ClimateZoneRecord](fsys, FileClimateZones)
		return err
	})
	g.Go(func() error {
		var err error
		t.Chargers, err = decodeCSVFile[ChargerDensityRecord](fsys, FileChargerDensity)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := New(version, t)
	zap.L().Info("refdata: tables loaded",
		zap.String("version", version),
		zap.Int("chemistries", len(snap.battery.Chemistries)),
		zap.Int("ranges", len(snap.ranges)),
		zap.Int("recalls", len(snap.recalls)),
		zap.Int("owner_issue_models", len(snap.ownerIssues)),
		zap.Int("climate_zones", len(snap.climate)),
		zap.Int("charger_regions", len(snap.chargers)),
	)
	return snap, nil
}

func decodeJSONFile(fsys fs.FS, name string, v any) error {
	f, err := fsys.Open(name)
	if err != nil {
		return eris.Wrapf(err, "refdata: open %s", name)
	}
	defer f.Close() //nolint:errcheck

	if err := json.NewDecoder(f).Decode(v); err != nil {
		return eris.Wrapf(err, "refdata: decode %s", name)
	}
	return nil
}

func decodeCSVFile[T any](fsys fs.FS, name string) ([]T, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, eris.Wrapf(err, "refdata: open %s", name)
	}
	defer f.Close() //nolint:errcheck

	rows, err := DecodeCSV[T](f)
	if err != nil {
		return nil, eris.Wrapf(err, "refdata: decode %s", name)
	}
	return rows, nil
}

// DecodeCSV decodes a headered CSV stream into a slice of T using the
// struct's csv tags. Every tagged field must have a header column and
// numeric cells must parse.
func DecodeCSV[T any](r io.Reader) ([]T, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	dec, err := csvutil.NewDecoder(cr)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, eris.New("csv: missing header row")
		}
		return nil, eris.Wrap(err, "csv: read header")
	}
	dec.DisallowMissingColumns = true

	var rows []T
	if err := dec.Decode(&rows); err != nil && !errors.Is(err, io.EOF) {
		return nil, eris.Wrap(err, "csv: decode rows")
	}
	return rows, nil
}
