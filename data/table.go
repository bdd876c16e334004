package data

import (
	"fmt"
	"time"
)

// Day is a calendar date stored as days since the Unix epoch (UTC). This is
// the same encoding Arrow uses for its Date32 column type, so dates round-trip
// through Feather files without conversion.
type Day int32

// DayOf truncates a time to its UTC calendar day.
func DayOf(t time.Time) Day {
	return Day(t.UTC().Unix() / 86400)
}

// ParseDay parses a YYYY-MM-DD date string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return 0, fmt.Errorf("failed to parse date %q: %w", s, err)
	}
	return DayOf(t), nil
}

// Time returns the day as a UTC midnight time.Time.
func (d Day) Time() time.Time {
	return time.Unix(int64(d)*86400, 0).UTC()
}

// String formats the day as YYYY-MM-DD.
func (d Day) String() string {
	return d.Time().Format("2006-01-02")
}

// Table is the flat predictions table: one row per (batch, step) pair with
// columns [date, seg_id_nat, temp_c, discharge_cms]. Columns are parallel
// slices; rows carry no inherent ordering.
type Table struct {
	Dates        []Day
	SegIDs       []int64
	TempC        []float64
	DischargeCMS []float64
}

// NewTable allocates an empty table with capacity for n rows.
func NewTable(n int) *Table {
	return &Table{
		Dates:        make([]Day, 0, n),
		SegIDs:       make([]int64, 0, n),
		TempC:        make([]float64, 0, n),
		DischargeCMS: make([]float64, 0, n),
	}
}

// Len returns the row count.
func (t *Table) Len() int { return len(t.Dates) }

// Append adds one row.
func (t *Table) Append(date Day, segID int64, tempC, dischargeCMS float64) {
	t.Dates = append(t.Dates, date)
	t.SegIDs = append(t.SegIDs, segID)
	t.TempC = append(t.TempC, tempC)
	t.DischargeCMS = append(t.DischargeCMS, dischargeCMS)
}

// Validate checks that all column slices have the same length.
func (t *Table) Validate() error {
	n := len(t.Dates)
	if len(t.SegIDs) != n || len(t.TempC) != n || len(t.DischargeCMS) != n {
		return fmt.Errorf("ragged table: dates=%d seg_ids=%d temp=%d discharge=%d",
			len(t.Dates), len(t.SegIDs), len(t.TempC), len(t.DischargeCMS))
	}
	return nil
}
