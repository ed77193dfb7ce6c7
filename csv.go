package knackpy

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// CSVOptions controls a ToCSV call.
type CSVOptions struct {
	// OutDir is the directory the file is written to. Defaults to "_csv".
	OutDir string
	// Delimiter defaults to ','.
	Delimiter rune
}

// ToCSV writes a container's formatted records to <out_dir>/<identifier>.csv
// and returns the path written. The header comes from the first record's
// field order; records are read through the cache like any other retrieval.
func (a *App) ToCSV(ctx context.Context, identifier string, opts *CSVOptions) (string, error) {
	if opts == nil {
		opts = &CSVOptions{}
	}
	outDir := opts.OutDir
	if outDir == "" {
		outDir = "_csv"
	}
	delimiter := opts.Delimiter
	if delimiter == 0 {
		delimiter = ','
	}

	records, err := a.Records(ctx, identifier, nil)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", fmt.Errorf("no records to write for %q", identifier)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", outDir, err)
	}

	fname := filepath.Join(outDir, identifier+".csv")
	fout, err := os.Create(fname)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", fname, err)
	}
	defer fout.Close()

	writer := csv.NewWriter(fout)
	writer.Comma = delimiter

	header := records[0].FieldNames()
	if err := writer.Write(header); err != nil {
		return "", err
	}

	for i := range records {
		row := make([]string, len(header))
		formatted := records[i].Format()
		for j, name := range header {
			row[j] = formatted[name]
		}
		if err := writer.Write(row); err != nil {
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}
	return fname, nil
}
