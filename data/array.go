package data

import "fmt"

// Array3 is a dense 3-D float64 array stored row-major in a flat buffer,
// indexed [batch, step, variable]. Model outputs and inputs use this layout:
// all variables of a step are contiguous, all steps of a batch are contiguous.
type Array3 struct {
	Data    []float64
	B, T, V int
}

// NewArray3 wraps a flat buffer as a [b, t, v] array. The buffer length must
// be exactly b*t*v.
func NewArray3(data []float64, b, t, v int) (*Array3, error) {
	if b < 0 || t < 0 || v < 0 {
		return nil, fmt.Errorf("invalid dimensions [%d, %d, %d]", b, t, v)
	}
	if len(data) != b*t*v {
		return nil, fmt.Errorf("buffer length %d does not match dimensions [%d, %d, %d]", len(data), b, t, v)
	}
	return &Array3{Data: data, B: b, T: t, V: v}, nil
}

// At returns the element at [b, t, v]. No bounds checking beyond the slice's own.
func (a *Array3) At(b, t, v int) float64 {
	return a.Data[(b*a.T+t)*a.V+v]
}

// IntArray3 is the integer counterpart of Array3, used for the date and
// segment-id arrays that run parallel to the prediction array.
type IntArray3 struct {
	Data    []int64
	B, T, V int
}

// NewIntArray3 wraps a flat int64 buffer as a [b, t, v] array.
func NewIntArray3(data []int64, b, t, v int) (*IntArray3, error) {
	if b < 0 || t < 0 || v < 0 {
		return nil, fmt.Errorf("invalid dimensions [%d, %d, %d]", b, t, v)
	}
	if len(data) != b*t*v {
		return nil, fmt.Errorf("buffer length %d does not match dimensions [%d, %d, %d]", len(data), b, t, v)
	}
	return &IntArray3{Data: data, B: b, T: t, V: v}, nil
}

// At returns the element at [b, t, v].
func (a *IntArray3) At(b, t, v int) int64 {
	return a.Data[(b*a.T+t)*a.V+v]
}
