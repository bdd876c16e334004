package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ObsKey is the composite (date, segment) key observations are indexed by.
type ObsKey struct {
	Date  Day
	SegID int64
}

// ObsTable holds observed values for a single variable, indexed by
// (date, seg_id_nat). Dates/segments with no observation simply have no entry.
type ObsTable struct {
	Variable string
	Values   map[ObsKey]float64
}

// Lookup returns the observed value for a date/segment pair and whether one exists.
func (o *ObsTable) Lookup(date Day, segID int64) (float64, bool) {
	v, ok := o.Values[ObsKey{Date: date, SegID: segID}]
	return v, ok
}

// Len returns the number of observations.
func (o *ObsTable) Len() int { return len(o.Values) }

// ReadObsCSV loads an observations file for one variable. The file must have
// a header row with "date" (YYYY-MM-DD), "seg_id_nat" and the named variable
// column. Empty, "NA" and "NaN" cells are treated as missing and skipped.
// Duplicate (date, seg_id_nat) keys are a load error: the joiner assumes the
// composite key is unique.
func ReadObsCSV(path, variable string) (*ObsTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open observations file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.TrimSpace(strings.ToLower(col))] = i
	}
	dateIdx, ok := colIndex["date"]
	if !ok {
		return nil, fmt.Errorf("column \"date\" not found in %s", path)
	}
	segIdx, ok := colIndex["seg_id_nat"]
	if !ok {
		return nil, fmt.Errorf("column \"seg_id_nat\" not found in %s", path)
	}
	varIdx, ok := colIndex[strings.ToLower(variable)]
	if !ok {
		return nil, fmt.Errorf("column %q not found in %s", variable, path)
	}

	obs := &ObsTable{Variable: variable, Values: make(map[ObsKey]float64)}
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		line++

		raw := strings.TrimSpace(record[varIdx])
		if raw == "" || strings.EqualFold(raw, "na") || strings.EqualFold(raw, "nan") {
			continue
		}

		date, err := ParseDay(strings.TrimSpace(record[dateIdx]))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		segID, err := strconv.ParseInt(strings.TrimSpace(record[segIdx]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: failed to parse seg_id_nat: %w", path, line, err)
		}
		val, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: failed to parse %s: %w", path, line, variable, err)
		}

		key := ObsKey{Date: date, SegID: segID}
		if _, dup := obs.Values[key]; dup {
			return nil, fmt.Errorf("%s line %d: duplicate observation for (%s, %d)", path, line, date, segID)
		}
		obs.Values[key] = val
	}
	return obs, nil
}
