// Package metrics evaluates predictions tables against observations: it
// aligns the two on (date, seg_id_nat) and computes masked RMSE and
// Nash-Sutcliffe efficiency, globally and per river reach.
package metrics

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/jsadler2/drb-dl-model/data"
)

// Variable names one of the two predicted quantities, matching its column
// name in the predictions table and observation files.
type Variable string

const (
	VarTemp Variable = "temp_c"
	VarFlow Variable = "discharge_cms"
)

// Short returns the short name used in output file names.
func (v Variable) Short() string {
	if v == VarFlow {
		return "flow"
	}
	return "temp"
}

// Column returns the table column for the variable.
func (v Variable) Column(t *data.Table) ([]float64, error) {
	switch v {
	case VarTemp:
		return t.TempC, nil
	case VarFlow:
		return t.DischargeCMS, nil
	}
	return nil, fmt.Errorf("unknown variable %q", string(v))
}

// Pair is one prediction aligned with its observation. HasObs is false when
// no observation exists for the (date, segment) position; such pairs stay in
// the joined set but are skipped by every metric reduction.
type Pair struct {
	Date   data.Day
	SegID  int64
	Pred   float64
	Obs    float64
	HasObs bool
}

// Join aligns one variable of a predictions table with an observations table
// on the (date, seg_id_nat) composite key. The predictions table is
// authoritative for the row set: every prediction row yields a pair,
// observation-only rows are dropped. Duplicate keys in the predictions table
// are rejected; the observation loader already rejects its own duplicates.
func Join(t *data.Table, obs *data.ObsTable, v Variable) ([]Pair, error) {
	preds, err := v.Column(t)
	if err != nil {
		return nil, err
	}

	seen := make(map[data.ObsKey]bool, t.Len())
	pairs := make([]Pair, 0, t.Len())
	for i := range t.Dates {
		key := data.ObsKey{Date: t.Dates[i], SegID: t.SegIDs[i]}
		if seen[key] {
			return nil, fmt.Errorf("duplicate prediction for (%s, %d)", key.Date, key.SegID)
		}
		seen[key] = true

		p := Pair{Date: t.Dates[i], SegID: t.SegIDs[i], Pred: preds[i]}
		if o, ok := obs.Lookup(t.Dates[i], t.SegIDs[i]); ok && !math.IsNaN(o) {
			p.Obs = o
			p.HasObs = true
		} else {
			p.Obs = math.NaN()
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

// ErrNoObservations is returned when a metric has no observed pairs to
// reduce over.
var ErrNoObservations = errors.New("no observations to evaluate against")

// ErrZeroVariance is returned by NSE when the observations are constant, so
// its denominator is zero and the score undefined.
var ErrZeroVariance = errors.New("observations have zero variance")

// MaskedRMSE computes root-mean-squared error over only the pairs that carry
// an observation. Pairs without one contribute nothing to either the sum or
// the count. An empty observed set is an explicit error rather than NaN.
func MaskedRMSE(pairs []Pair) (float64, error) {
	var sumSq float64
	n := 0
	for _, p := range pairs {
		if !p.HasObs {
			continue
		}
		diff := p.Pred - p.Obs
		sumSq += diff * diff
		n++
	}
	if n == 0 {
		return 0, ErrNoObservations
	}
	return math.Sqrt(sumSq / float64(n)), nil
}

// NSE computes the Nash-Sutcliffe model efficiency coefficient: 1 is a
// perfect fit, 0 is no better than predicting the observed mean, negative is
// worse than the mean. Pairs without an observation are excluded from every
// reduction, including the mean. Zero observed variance is an explicit error.
func NSE(pairs []Pair) (float64, error) {
	var obs []float64
	for _, p := range pairs {
		if p.HasObs {
			obs = append(obs, p.Obs)
		}
	}
	if len(obs) == 0 {
		return 0, ErrNoObservations
	}
	mean := stat.Mean(obs, nil)

	var numerator, denominator float64
	for _, p := range pairs {
		if !p.HasObs {
			continue
		}
		numerator += (p.Obs - p.Pred) * (p.Obs - p.Pred)
		denominator += (p.Obs - mean) * (p.Obs - mean)
	}
	if denominator == 0 {
		return 0, ErrZeroVariance
	}
	return 1 - numerator/denominator, nil
}
