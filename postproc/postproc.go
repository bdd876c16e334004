// Package postproc turns raw standardized model outputs into predictions in
// physical units: it flattens the batched arrays into a flat table, unscales
// the two output variables, and optionally restricts the table to the first
// half of its date range so the rest stays held out.
package postproc

import (
	"fmt"
	"math"
	"sort"

	"github.com/jsadler2/drb-dl-model/data"
)

// PostProcess flattens a [B, T, 2] prediction array and its parallel
// [B, T, 1] date and segment-id arrays into a table with B*T rows, columns
// [date, seg_id_nat, temp_c, discharge_cms]. Flattening is batch-major: all
// steps of batch 0, then batch 1, and so on. Rows are not sorted; consumers
// needing chronological order must sort explicitly.
func PostProcess(preds *data.Array3, dates, ids *data.IntArray3) (*data.Table, error) {
	if preds.V != 2 {
		return nil, fmt.Errorf("prediction array must have 2 output variables, got %d", preds.V)
	}
	if dates.V != 1 || ids.V != 1 {
		return nil, fmt.Errorf("date and id arrays must have a single variable, got %d and %d", dates.V, ids.V)
	}
	if dates.B != preds.B || dates.T != preds.T || ids.B != preds.B || ids.T != preds.T {
		return nil, fmt.Errorf("array dimensions do not match: preds [%d, %d], dates [%d, %d], ids [%d, %d]",
			preds.B, preds.T, dates.B, dates.T, ids.B, ids.T)
	}

	out := data.NewTable(preds.B * preds.T)
	for b := range preds.B {
		for t := range preds.T {
			out.Append(
				data.Day(dates.At(b, t, 0)),
				ids.At(b, t, 0),
				preds.At(b, t, 0),
				preds.At(b, t, 1),
			)
		}
	}
	return out, nil
}

// Unscale converts the standardized temp_c and discharge_cms columns back to
// physical units: v*std + mean per variable, with std and mean ordered
// (temp_c, discharge_cms). When loggedQ is set the model predicted discharge
// in log space, so the unscaled discharge is additionally exponentiated.
// Other columns are untouched. The table is modified in place.
func Unscale(t *data.Table, std, mean []float64, loggedQ bool) error {
	if len(std) != 2 || len(mean) != 2 {
		return fmt.Errorf("expected 2 output statistics, got std=%d mean=%d", len(std), len(mean))
	}
	for i := range t.TempC {
		t.TempC[i] = t.TempC[i]*std[0] + mean[0]
	}
	for i := range t.DischargeCMS {
		q := t.DischargeCMS[i]*std[1] + mean[1]
		if loggedQ {
			q = math.Exp(q)
		}
		t.DischargeCMS[i] = q
	}
	return nil
}

// TakeFirstHalf keeps the chronologically first half of the table's date
// range: the distinct dates are sorted ascending, the date at index
// ⌊count/2⌋ is the boundary, and every row dated on or before the boundary is
// retained. The later half stays held out for downstream comparisons.
func TakeFirstHalf(t *data.Table) *data.Table {
	seen := make(map[data.Day]bool)
	var unique []data.Day
	for _, d := range t.Dates {
		if !seen[d] {
			seen[d] = true
			unique = append(unique, d)
		}
	}
	if len(unique) == 0 {
		return data.NewTable(0)
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i] < unique[j] })
	boundary := unique[len(unique)/2]

	out := data.NewTable(t.Len() / 2)
	for i, d := range t.Dates {
		if d <= boundary {
			out.Append(d, t.SegIDs[i], t.TempC[i], t.DischargeCMS[i])
		}
	}
	return out
}
