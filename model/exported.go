package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/sbinet/npyio"

	"github.com/jsadler2/drb-dl-model/data"
)

// Exported replays raw standardized outputs that the trainer saved alongside
// its weights as y_hat_{tag}{runTag}.npy files. The graph model itself trains
// and runs elsewhere; this predictor is the bridge that lets the rest of the
// pipeline treat those saved arrays as a live model.
type Exported struct {
	preds *data.Array3
	path  string
}

// OpenExported loads the saved output array for one tag from the weights
// directory.
func OpenExported(weightsDir string, tag data.Tag, runTag string) (*Exported, error) {
	if err := data.CheckTag(tag); err != nil {
		return nil, err
	}
	path := filepath.Join(weightsDir, fmt.Sprintf("y_hat_%s%s.npy", tag, runTag))
	preds, err := readNpyArray3(path)
	if err != nil {
		return nil, err
	}
	if preds.V != 2 {
		return nil, fmt.Errorf("%s: expected 2 output variables, got %d", path, preds.V)
	}
	return &Exported{preds: preds, path: path}, nil
}

// Predict returns the saved outputs. The input is only used to validate that
// the saved array covers the same batch and step dimensions.
func (e *Exported) Predict(x *tensors.Tensor) (*tensors.Tensor, error) {
	dims := x.Shape().Dimensions
	if len(dims) != 3 {
		return nil, fmt.Errorf("expected a rank-3 input tensor, got rank %d", len(dims))
	}
	if dims[0] != e.preds.B || dims[1] != e.preds.T {
		return nil, fmt.Errorf("saved outputs %s are [%d, %d, 2] but inputs are [%d, %d, ...]",
			e.path, e.preds.B, e.preds.T, dims[0], dims[1])
	}
	return TensorFromArray3(e.preds), nil
}

func readNpyArray3(path string) (*data.Array3, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open saved outputs: %w", err)
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	shape := r.Header.Descr.Shape
	if len(shape) != 3 {
		return nil, fmt.Errorf("%s: expected a 3-D array, got shape %v", path, shape)
	}

	var flat []float64
	switch dtype := r.Header.Descr.Type; {
	case strings.Contains(dtype, "f8"):
		if err := r.Read(&flat); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	case strings.Contains(dtype, "f4"):
		var flat32 []float32
		if err := r.Read(&flat32); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		flat = make([]float64, len(flat32))
		for i, v := range flat32 {
			flat[i] = float64(v)
		}
	default:
		return nil, fmt.Errorf("%s: unsupported dtype %q (want f4 or f8)", path, dtype)
	}

	return data.NewArray3(flat, shape[0], shape[1], shape[2])
}
