package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jsadler2/drb-dl-model/data"
)

// Record is the global metrics record persisted per run and tag.
type Record struct {
	RMSETemp float64 `json:"rmse_temp"`
	RMSEFlow float64 `json:"rmse_flow"`
	NSETemp  float64 `json:"nse_temp"`
	NSEFlow  float64 `json:"nse_flow"`
}

// EvalOptions configures an evaluation pass over one predictions file.
type EvalOptions struct {
	OutDir      string
	RunTag      string // already "_"-prefixed when set
	ObsTempFile string // temperature observations CSV
	ObsFlowFile string // discharge observations CSV

	// Plots additionally writes diagnostic PNGs next to the metric files.
	Plots bool
}

// RunEval reads a predictions Feather file, joins it against the temperature
// and discharge observation files, and persists the global metrics record
// (JSON) and the two per-reach metrics tables (Feather). Returns the global
// record.
func RunEval(predFile string, tag data.Tag, opts EvalOptions) (*Record, error) {
	if err := data.CheckTag(tag); err != nil {
		return nil, err
	}

	preds, err := data.ReadTable(predFile)
	if err != nil {
		return nil, err
	}

	obsTemp, err := data.ReadObsCSV(opts.ObsTempFile, string(VarTemp))
	if err != nil {
		return nil, err
	}
	obsFlow, err := data.ReadObsCSV(opts.ObsFlowFile, string(VarFlow))
	if err != nil {
		return nil, err
	}

	tempPairs, err := Join(preds, obsTemp, VarTemp)
	if err != nil {
		return nil, fmt.Errorf("failed to join temperature observations: %w", err)
	}
	flowPairs, err := Join(preds, obsFlow, VarFlow)
	if err != nil {
		return nil, fmt.Errorf("failed to join discharge observations: %w", err)
	}

	rec := &Record{}
	if rec.RMSETemp, err = MaskedRMSE(tempPairs); err != nil {
		return nil, fmt.Errorf("temperature RMSE: %w", err)
	}
	if rec.RMSEFlow, err = MaskedRMSE(flowPairs); err != nil {
		return nil, fmt.Errorf("discharge RMSE: %w", err)
	}
	if rec.NSETemp, err = NSE(tempPairs); err != nil {
		return nil, fmt.Errorf("temperature NSE: %w", err)
	}
	if rec.NSEFlow, err = NSE(flowPairs); err != nil {
		return nil, fmt.Errorf("discharge NSE: %w", err)
	}

	if err := writeRecord(data.MetricsFile(opts.OutDir, tag, opts.RunTag), rec); err != nil {
		return nil, err
	}

	for _, v := range []struct {
		variable Variable
		pairs    []Pair
	}{
		{VarTemp, tempPairs},
		{VarFlow, flowPairs},
	} {
		reach, err := ReachMetrics(v.pairs)
		if err != nil {
			return nil, fmt.Errorf("%s reach metrics: %w", v.variable.Short(), err)
		}
		path := data.ReachMetricsFile(opts.OutDir, tag, v.variable.Short(), opts.RunTag)
		if err := data.WriteReachTable(path, reach); err != nil {
			return nil, err
		}
		if opts.Plots {
			if err := PlotReachMetrics(plotPath(path), reach); err != nil {
				return nil, err
			}
			obsPredPath := filepath.Join(opts.OutDir, fmt.Sprintf("%s_%s_obs_pred%s.png", tag, v.variable.Short(), opts.RunTag))
			if err := PlotObsPred(obsPredPath, v.pairs, v.variable); err != nil {
				return nil, err
			}
		}
	}

	return rec, nil
}

func writeRecord(path string, rec *Record) error {
	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metrics record: %w", err)
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("failed to write metrics record: %w", err)
	}
	return nil
}

func plotPath(featherPath string) string {
	return featherPath[:len(featherPath)-len(".feather")] + ".png"
}
