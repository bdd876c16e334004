// Package model defines the boundary to the trained river model. The
// post-processing and evaluation code only ever sees the Predictor interface;
// how predictions are produced (in-process or replayed from a training run
// elsewhere) is hidden behind it.
package model

import (
	"fmt"

	"github.com/gomlx/gomlx/pkg/core/tensors"

	"github.com/jsadler2/drb-dl-model/data"
)

// Predictor produces standardized model outputs for a batch of inputs.
// Inputs are [B, T, F] feature tensors; outputs are [B, T, 2] tensors ordered
// (temp_c, discharge_cms), still in standardized units.
type Predictor interface {
	Predict(x *tensors.Tensor) (*tensors.Tensor, error)
}

// Func adapts a plain function to the Predictor interface.
type Func func(x *tensors.Tensor) (*tensors.Tensor, error)

// Predict calls f.
func (f Func) Predict(x *tensors.Tensor) (*tensors.Tensor, error) { return f(x) }

// TensorFromArray3 converts a [B, T, V] array to a rank-3 float64 tensor.
func TensorFromArray3(a *data.Array3) *tensors.Tensor {
	return tensors.FromFlatDataAndDimensions(a.Data, a.B, a.T, a.V)
}

// Array3FromTensor converts a rank-3 float64 tensor back to an array.
func Array3FromTensor(t *tensors.Tensor) (*data.Array3, error) {
	dims := t.Shape().Dimensions
	if len(dims) != 3 {
		return nil, fmt.Errorf("expected a rank-3 tensor, got rank %d", len(dims))
	}
	flat := tensors.CopyFlatData[float64](t)
	return data.NewArray3(flat, dims[0], dims[1], dims[2])
}
