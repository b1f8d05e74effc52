package path

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"
)

// Format is a path file encoding.
type Format string

const (
	// FormatJSON is a list of {"x": .., "y": .., "v": ..} objects.
	FormatJSON Format = "json"
	// FormatCSV is one "x,y,v" row per waypoint, with an optional header row.
	FormatCSV Format = "csv"
)

// FormatFromFilename picks a format from the file extension.
func FormatFromFilename(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	}
	return "", errors.Errorf("cannot infer path format from %q, expected .json or .csv", filename)
}

// ReadFile reads a path from a JSON or CSV file. Environment variables in the file are
// expanded before parsing.
func ReadFile(filename string) (*Path, error) {
	format, err := FormatFromFilename(filename)
	if err != nil {
		return nil, err
	}
	var buf []byte
	if format == FormatJSON {
		buf, err = envsubst.ReadFile(filename)
	} else {
		buf, err = os.ReadFile(filepath.Clean(filename))
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading path file %q", filename)
	}
	p, err := Read(bytes.NewReader(buf), format)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing path file %q", filename)
	}
	return p, nil
}

// Read parses a path in the given format.
func Read(r io.Reader, format Format) (*Path, error) {
	switch format {
	case FormatJSON:
		var p Path
		if err := json.NewDecoder(r).Decode(&p); err != nil {
			return nil, err
		}
		return &p, nil
	case FormatCSV:
		return readCSV(r)
	}
	return nil, errors.Errorf("unsupported path format %q", format)
}

func readCSV(r io.Reader) (*Path, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}

	var waypoints []Waypoint
	for i, rec := range records {
		vals := make([]float64, 3)
		for j, field := range rec {
			vals[j], err = strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				break
			}
		}
		if err != nil {
			if i == 0 {
				// header row
				err = nil
				continue
			}
			return nil, errors.Wrapf(err, "row %d", i+1)
		}
		waypoints = append(waypoints, NewWaypoint(vals[0], vals[1], vals[2]))
	}
	return New(waypoints...)
}
