package data

import (
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Feather v2 files are Arrow IPC files, so the tables written here are
// readable by pandas.read_feather and vice versa.

var predsSchema = arrow.NewSchema([]arrow.Field{
	{Name: "date", Type: arrow.FixedWidthTypes.Date32},
	{Name: "seg_id_nat", Type: arrow.PrimitiveTypes.Int64},
	{Name: "temp_c", Type: arrow.PrimitiveTypes.Float64},
	{Name: "discharge_cms", Type: arrow.PrimitiveTypes.Float64},
}, nil)

// WriteTable writes a predictions table as a Feather file.
func WriteTable(path string, t *Table) error {
	if err := t.Validate(); err != nil {
		return err
	}

	mem := memory.NewGoAllocator()
	bldr := array.NewRecordBuilder(mem, predsSchema)
	defer bldr.Release()

	dates := make([]arrow.Date32, t.Len())
	for i, d := range t.Dates {
		dates[i] = arrow.Date32(d)
	}
	bldr.Field(0).(*array.Date32Builder).AppendValues(dates, nil)
	bldr.Field(1).(*array.Int64Builder).AppendValues(t.SegIDs, nil)
	bldr.Field(2).(*array.Float64Builder).AppendValues(t.TempC, nil)
	bldr.Field(3).(*array.Float64Builder).AppendValues(t.DischargeCMS, nil)

	rec := bldr.NewRecord()
	defer rec.Release()

	return writeFeather(path, predsSchema, rec, mem)
}

// ReadTable reads a predictions table from a Feather file written by WriteTable.
func ReadTable(path string) (*Table, error) {
	t := NewTable(0)
	err := readFeather(path, func(rec arrow.Record) error {
		if rec.NumCols() != 4 {
			return fmt.Errorf("expected 4 columns, got %d", rec.NumCols())
		}
		dates, ok := rec.Column(0).(*array.Date32)
		if !ok {
			return fmt.Errorf("column date is not Date32")
		}
		segs, ok := rec.Column(1).(*array.Int64)
		if !ok {
			return fmt.Errorf("column seg_id_nat is not Int64")
		}
		temps, ok := rec.Column(2).(*array.Float64)
		if !ok {
			return fmt.Errorf("column temp_c is not Float64")
		}
		flows, ok := rec.Column(3).(*array.Float64)
		if !ok {
			return fmt.Errorf("column discharge_cms is not Float64")
		}
		for i := range int(rec.NumRows()) {
			t.Append(Day(dates.Value(i)), segs.Value(i), temps.Value(i), flows.Value(i))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read predictions file %s: %w", path, err)
	}
	return t, nil
}

// ReachTable holds per-segment metrics: one row per seg_id_nat. NaN marks
// segments with too few observations for a reliable metric.
type ReachTable struct {
	SegIDs []int64
	RMSE   []float64
	NSE    []float64
}

var reachSchema = arrow.NewSchema([]arrow.Field{
	{Name: "seg_id_nat", Type: arrow.PrimitiveTypes.Int64},
	{Name: "rmse", Type: arrow.PrimitiveTypes.Float64},
	{Name: "nse", Type: arrow.PrimitiveTypes.Float64},
}, nil)

// WriteReachTable writes a per-reach metrics table as a Feather file.
func WriteReachTable(path string, t *ReachTable) error {
	if len(t.RMSE) != len(t.SegIDs) || len(t.NSE) != len(t.SegIDs) {
		return fmt.Errorf("ragged reach table: seg_ids=%d rmse=%d nse=%d", len(t.SegIDs), len(t.RMSE), len(t.NSE))
	}

	mem := memory.NewGoAllocator()
	bldr := array.NewRecordBuilder(mem, reachSchema)
	defer bldr.Release()

	bldr.Field(0).(*array.Int64Builder).AppendValues(t.SegIDs, nil)
	bldr.Field(1).(*array.Float64Builder).AppendValues(t.RMSE, nil)
	bldr.Field(2).(*array.Float64Builder).AppendValues(t.NSE, nil)

	rec := bldr.NewRecord()
	defer rec.Release()

	return writeFeather(path, reachSchema, rec, mem)
}

// ReadReachTable reads a per-reach metrics table written by WriteReachTable.
func ReadReachTable(path string) (*ReachTable, error) {
	t := &ReachTable{}
	err := readFeather(path, func(rec arrow.Record) error {
		if rec.NumCols() != 3 {
			return fmt.Errorf("expected 3 columns, got %d", rec.NumCols())
		}
		segs, ok := rec.Column(0).(*array.Int64)
		if !ok {
			return fmt.Errorf("column seg_id_nat is not Int64")
		}
		rmse, ok := rec.Column(1).(*array.Float64)
		if !ok {
			return fmt.Errorf("column rmse is not Float64")
		}
		nse, ok := rec.Column(2).(*array.Float64)
		if !ok {
			return fmt.Errorf("column nse is not Float64")
		}
		for i := range int(rec.NumRows()) {
			t.SegIDs = append(t.SegIDs, segs.Value(i))
			t.RMSE = append(t.RMSE, rmse.Value(i))
			t.NSE = append(t.NSE, nse.Value(i))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read reach metrics file %s: %w", path, err)
	}
	return t, nil
}

func writeFeather(path string, schema *arrow.Schema, rec arrow.Record, mem memory.Allocator) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	w, err := ipc.NewFileWriter(f, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to create feather writer for %s: %w", path, err)
	}
	if err := w.Write(rec); err != nil {
		w.Close()
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		return fmt.Errorf("failed to finalize %s: %w", path, err)
	}
	return f.Close()
}

func readFeather(path string, fn func(arrow.Record) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := ipc.NewFileReader(f, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return err
	}
	defer r.Close()

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}
