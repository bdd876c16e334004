package metrics

import (
	"errors"
	"math"
	"sort"

	"github.com/jsadler2/drb-dl-model/data"
)

// reachMinObs is the sample-size floor for per-reach metrics. A reach needs
// strictly more than this many observed pairs before its metrics are
// computed; at or below it both come out NaN, since a score over so few
// observations is statistically unreliable.
const reachMinObs = 10

// ReachMetrics groups joined pairs by segment and computes RMSE and NSE per
// reach. Reaches at or under the sample floor get NaN for both metrics. A
// reach whose observations are constant (zero variance) gets its RMSE but NaN
// for NSE. The returned table is sorted by seg_id_nat.
func ReachMetrics(pairs []Pair) (*data.ReachTable, error) {
	groups := make(map[int64][]Pair)
	for _, p := range pairs {
		groups[p.SegID] = append(groups[p.SegID], p)
	}

	segIDs := make([]int64, 0, len(groups))
	for id := range groups {
		segIDs = append(segIDs, id)
	}
	sort.Slice(segIDs, func(i, j int) bool { return segIDs[i] < segIDs[j] })

	out := &data.ReachTable{
		SegIDs: segIDs,
		RMSE:   make([]float64, len(segIDs)),
		NSE:    make([]float64, len(segIDs)),
	}
	for i, id := range segIDs {
		group := groups[id]
		observed := 0
		for _, p := range group {
			if p.HasObs {
				observed++
			}
		}
		if observed <= reachMinObs {
			out.RMSE[i] = math.NaN()
			out.NSE[i] = math.NaN()
			continue
		}

		rmse, err := MaskedRMSE(group)
		if err != nil {
			return nil, err
		}
		out.RMSE[i] = rmse

		nse, err := NSE(group)
		if errors.Is(err, ErrZeroVariance) {
			nse = math.NaN()
		} else if err != nil {
			return nil, err
		}
		out.NSE[i] = nse
	}
	return out, nil
}
