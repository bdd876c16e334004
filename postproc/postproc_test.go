package postproc

import (
	"math"
	"testing"

	"github.com/jsadler2/drb-dl-model/data"
)

func mustArray3(t *testing.T, vals []float64, b, tt, v int) *data.Array3 {
	t.Helper()
	a, err := data.NewArray3(vals, b, tt, v)
	if err != nil {
		t.Fatalf("NewArray3 failed: %v", err)
	}
	return a
}

func mustIntArray3(t *testing.T, vals []int64, b, tt, v int) *data.IntArray3 {
	t.Helper()
	a, err := data.NewIntArray3(vals, b, tt, v)
	if err != nil {
		t.Fatalf("NewIntArray3 failed: %v", err)
	}
	return a
}

func TestPostProcess_FlattensBatchMajor(t *testing.T) {
	// B=2, T=3 with distinct sentinel values per position so ordering is
	// verifiable: preds[b][t] = (100*b+10*t, 100*b+10*t+1).
	var preds []float64
	var dates, ids []int64
	for b := int64(0); b < 2; b++ {
		for tt := int64(0); tt < 3; tt++ {
			preds = append(preds, float64(100*b+10*tt), float64(100*b+10*tt+1))
			dates = append(dates, 1000+b*3+tt)
			ids = append(ids, 42+b)
		}
	}

	tbl, err := PostProcess(
		mustArray3(t, preds, 2, 3, 2),
		mustIntArray3(t, dates, 2, 3, 1),
		mustIntArray3(t, ids, 2, 3, 1),
	)
	if err != nil {
		t.Fatalf("PostProcess failed: %v", err)
	}
	if tbl.Len() != 6 {
		t.Fatalf("expected 6 rows, got %d", tbl.Len())
	}

	// Row 4 is batch 1, step 1.
	if tbl.TempC[4] != 110 || tbl.DischargeCMS[4] != 111 {
		t.Errorf("row 4 values = (%v, %v), want (110, 111)", tbl.TempC[4], tbl.DischargeCMS[4])
	}
	if tbl.Dates[4] != 1004 {
		t.Errorf("row 4 date = %d, want 1004", tbl.Dates[4])
	}
	if tbl.SegIDs[4] != 43 {
		t.Errorf("row 4 seg id = %d, want 43", tbl.SegIDs[4])
	}
	// All steps of batch 0 come before batch 1.
	for i := range 3 {
		if tbl.SegIDs[i] != 42 {
			t.Errorf("row %d seg id = %d, want 42", i, tbl.SegIDs[i])
		}
	}
}

func TestPostProcess_ShapeMismatch(t *testing.T) {
	preds := mustArray3(t, make([]float64, 2*3*2), 2, 3, 2)
	dates := mustIntArray3(t, make([]int64, 2*3), 2, 3, 1)
	badIDs := mustIntArray3(t, make([]int64, 2*2), 2, 2, 1)

	if _, err := PostProcess(preds, dates, badIDs); err == nil {
		t.Fatal("expected error for mismatched id array, got nil")
	}

	badPreds := mustArray3(t, make([]float64, 2*3*3), 2, 3, 3)
	ids := mustIntArray3(t, make([]int64, 2*3), 2, 3, 1)
	if _, err := PostProcess(badPreds, dates, ids); err == nil {
		t.Fatal("expected error for 3-variable prediction array, got nil")
	}
}

func TestUnscale(t *testing.T) {
	tbl := data.NewTable(1)
	tbl.Append(0, 1, 1.0, 1.0)

	if err := Unscale(tbl, []float64{2, 1}, []float64{10, 0}, false); err != nil {
		t.Fatalf("Unscale failed: %v", err)
	}
	if tbl.TempC[0] != 12 {
		t.Errorf("temp = %v, want 12", tbl.TempC[0])
	}
	if tbl.DischargeCMS[0] != 1 {
		t.Errorf("discharge = %v, want 1", tbl.DischargeCMS[0])
	}
}

func TestUnscale_LoggedDischarge(t *testing.T) {
	tbl := data.NewTable(1)
	tbl.Append(0, 1, 1.0, 1.0)

	if err := Unscale(tbl, []float64{2, 1}, []float64{10, 0}, true); err != nil {
		t.Fatalf("Unscale failed: %v", err)
	}
	// exp is applied to discharge only, after unscaling.
	if tbl.TempC[0] != 12 {
		t.Errorf("temp = %v, want 12", tbl.TempC[0])
	}
	want := math.Exp(1)
	if math.Abs(tbl.DischargeCMS[0]-want) > 1e-12 {
		t.Errorf("discharge = %v, want %v", tbl.DischargeCMS[0], want)
	}
}

func TestUnscale_BadStats(t *testing.T) {
	tbl := data.NewTable(0)
	if err := Unscale(tbl, []float64{1}, []float64{0, 0}, false); err == nil {
		t.Fatal("expected error for short std vector, got nil")
	}
}

func TestTakeFirstHalf(t *testing.T) {
	// Unique dates {1, 2, 3}, each for two segments. Halfway index 3/2 = 1,
	// boundary date 2, inclusive: dates 1 and 2 stay.
	tbl := data.NewTable(6)
	for _, d := range []data.Day{1, 1, 2, 2, 3, 3} {
		tbl.Append(d, int64(d%2), 0, 0)
	}

	got := TakeFirstHalf(tbl)
	if got.Len() != 4 {
		t.Fatalf("expected 4 rows, got %d", got.Len())
	}
	for _, d := range got.Dates {
		if d > 2 {
			t.Errorf("date %d past the boundary survived", d)
		}
	}
}

func TestTakeFirstHalf_EvenUniqueCount(t *testing.T) {
	// Unique dates {1, 2, 3, 4}: halfway index 2, boundary 3 inclusive.
	tbl := data.NewTable(4)
	for _, d := range []data.Day{4, 2, 1, 3} {
		tbl.Append(d, 7, 0, 0)
	}

	got := TakeFirstHalf(tbl)
	if got.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", got.Len())
	}
}

func TestTakeFirstHalf_Empty(t *testing.T) {
	got := TakeFirstHalf(data.NewTable(0))
	if got.Len() != 0 {
		t.Fatalf("expected empty table, got %d rows", got.Len())
	}
}
