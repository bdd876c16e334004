package model

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/gomlx/gomlx/pkg/core/tensors"

	"github.com/jsadler2/drb-dl-model/data"
)

func TestTensorRoundTrip(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	a, err := data.NewArray3(vals, 2, 3, 2)
	if err != nil {
		t.Fatalf("NewArray3 failed: %v", err)
	}

	back, err := Array3FromTensor(TensorFromArray3(a))
	if err != nil {
		t.Fatalf("Array3FromTensor failed: %v", err)
	}
	if back.B != 2 || back.T != 3 || back.V != 2 {
		t.Fatalf("round-trip dims = [%d, %d, %d], want [2, 3, 2]", back.B, back.T, back.V)
	}
	for i, v := range back.Data {
		if v != vals[i] {
			t.Errorf("element %d = %v, want %v", i, v, vals[i])
		}
	}
}

func TestArray3FromTensor_WrongRank(t *testing.T) {
	flat := tensors.FromFlatDataAndDimensions([]float64{1, 2, 3, 4}, 2, 2)
	if _, err := Array3FromTensor(flat); err == nil {
		t.Fatal("expected error for rank-2 tensor, got nil")
	}
}

func TestFunc(t *testing.T) {
	called := false
	p := Func(func(x *tensors.Tensor) (*tensors.Tensor, error) {
		called = true
		return x, nil
	})

	in := tensors.FromFlatDataAndDimensions(make([]float64, 4), 2, 1, 2)
	out, err := p.Predict(in)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if !called || out != in {
		t.Fatal("Func did not delegate to the wrapped function")
	}
}

// writeNpy writes a minimal NPY v1.0 file holding a little-endian float64
// array with the given shape.
func writeNpy(t *testing.T, path string, vals []float64, shape ...int) {
	t.Helper()

	dims := ""
	for _, d := range shape {
		dims += fmt.Sprintf("%d, ", d)
	}
	header := fmt.Sprintf("{'descr': '<f8', 'fortran_order': False, 'shape': (%s), }", dims)
	// Pad so magic+version+length+header is a multiple of 64, ending in \n.
	pad := 64 - (6+2+2+len(header)+1)%64
	for range pad {
		header += " "
	}
	header += "\n"

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()

	if _, err := f.Write([]byte("\x93NUMPY\x01\x00")); err != nil {
		t.Fatalf("failed to write magic: %v", err)
	}
	if err := binary.Write(f, binary.LittleEndian, uint16(len(header))); err != nil {
		t.Fatalf("failed to write header length: %v", err)
	}
	if _, err := f.Write([]byte(header)); err != nil {
		t.Fatalf("failed to write header: %v", err)
	}
	if err := binary.Write(f, binary.LittleEndian, vals); err != nil {
		t.Fatalf("failed to write data: %v", err)
	}
}

func TestOpenExported(t *testing.T) {
	dir := t.TempDir()

	vals := make([]float64, 2*3*2)
	for i := range vals {
		vals[i] = float64(i)
	}
	writeNpy(t, filepath.Join(dir, "y_hat_tst.npy"), vals, 2, 3, 2)

	p, err := OpenExported(dir, data.TagTest, "")
	if err != nil {
		t.Fatalf("OpenExported failed: %v", err)
	}

	x := tensors.FromFlatDataAndDimensions(make([]float64, 2*3*4), 2, 3, 4)
	out, err := p.Predict(x)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	arr, err := Array3FromTensor(out)
	if err != nil {
		t.Fatalf("Array3FromTensor failed: %v", err)
	}
	if arr.B != 2 || arr.T != 3 || arr.V != 2 {
		t.Fatalf("output dims = [%d, %d, %d], want [2, 3, 2]", arr.B, arr.T, arr.V)
	}
	if arr.At(1, 2, 1) != 11 {
		t.Errorf("At(1,2,1) = %v, want 11", arr.At(1, 2, 1))
	}
}

func TestOpenExported_RunTagInFileName(t *testing.T) {
	dir := t.TempDir()
	writeNpy(t, filepath.Join(dir, "y_hat_trn_run1.npy"), make([]float64, 2), 1, 1, 2)

	if _, err := OpenExported(dir, data.TagTrain, "_run1"); err != nil {
		t.Fatalf("OpenExported failed: %v", err)
	}
	if _, err := OpenExported(dir, data.TagTrain, ""); err == nil {
		t.Fatal("expected error for missing un-tagged file, got nil")
	}
}

func TestOpenExported_InvalidTag(t *testing.T) {
	if _, err := OpenExported(t.TempDir(), data.Tag("dev"), ""); err == nil {
		t.Fatal("expected error for invalid tag, got nil")
	}
}

func TestExported_BatchMismatch(t *testing.T) {
	dir := t.TempDir()
	writeNpy(t, filepath.Join(dir, "y_hat_tst.npy"), make([]float64, 2*3*2), 2, 3, 2)

	p, err := OpenExported(dir, data.TagTest, "")
	if err != nil {
		t.Fatalf("OpenExported failed: %v", err)
	}

	x := tensors.FromFlatDataAndDimensions(make([]float64, 5*3*4), 5, 3, 4)
	if _, err := p.Predict(x); err == nil {
		t.Fatal("expected error for batch dimension mismatch, got nil")
	}
}
