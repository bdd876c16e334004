package data

import (
	"fmt"
	"strings"

	"github.com/sbinet/npyio/npz"
)

// Bundle is the prepared model I/O archive: standardized model inputs, the
// date/segment arrays that run parallel to them, and the statistics needed to
// unscale model outputs back to physical units. It is produced upstream by
// the data-prep step as a .npz archive.
type Bundle struct {
	XTrn, XTst         *Array3    // standardized inputs [B, T, F]
	DatesTrn, DatesTst *IntArray3 // epoch days [B, T, 1]
	IDsTrn, IDsTst     *IntArray3 // seg_id_nat [B, T, 1]

	StdDev []float64 // per output variable, ordered (temp_c, discharge_cms)
	Mean   []float64

	// NumSegments is the leading dimension of dist_matrix; the model predicts
	// in batches of one full segment set.
	NumSegments int
}

// X returns the model inputs for a tag. A valid tag whose arrays were never
// loaded is an error rather than a nil array.
func (b *Bundle) X(tag Tag) (*Array3, error) {
	var x *Array3
	switch tag {
	case TagTrain:
		x = b.XTrn
	case TagTest:
		x = b.XTst
	default:
		return nil, CheckTag(tag)
	}
	if x == nil {
		return nil, fmt.Errorf("no %s inputs loaded", tag)
	}
	return x, nil
}

// Dates returns the date array for a tag.
func (b *Bundle) Dates(tag Tag) (*IntArray3, error) {
	var d *IntArray3
	switch tag {
	case TagTrain:
		d = b.DatesTrn
	case TagTest:
		d = b.DatesTst
	default:
		return nil, CheckTag(tag)
	}
	if d == nil {
		return nil, fmt.Errorf("no %s dates loaded", tag)
	}
	return d, nil
}

// IDs returns the segment-id array for a tag.
func (b *Bundle) IDs(tag Tag) (*IntArray3, error) {
	var ids *IntArray3
	switch tag {
	case TagTrain:
		ids = b.IDsTrn
	case TagTest:
		ids = b.IDsTst
	default:
		return nil, CheckTag(tag)
	}
	if ids == nil {
		return nil, fmt.Errorf("no %s segment ids loaded", tag)
	}
	return ids, nil
}

// LoadBundle reads the prepared .npz archive. Expected keys: x_trn/x_tst,
// dates_trn/dates_tst, ids_trn/ids_tst, dist_matrix, y_trn_obs_std,
// y_trn_obs_mean. Date arrays must hold days since the Unix epoch; the
// datetime64 columns from the prep step are converted to that on export.
func LoadBundle(path string) (*Bundle, error) {
	r, err := npz.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input archive %s: %w", path, err)
	}
	defer r.Close()

	b := &Bundle{}

	for _, tag := range []Tag{TagTrain, TagTest} {
		x, err := readArray3(r, "x_"+string(tag))
		if err != nil {
			return nil, err
		}
		dates, err := readIntArray3(r, "dates_"+string(tag))
		if err != nil {
			return nil, err
		}
		ids, err := readIntArray3(r, "ids_"+string(tag))
		if err != nil {
			return nil, err
		}
		if tag == TagTrain {
			b.XTrn, b.DatesTrn, b.IDsTrn = x, dates, ids
		} else {
			b.XTst, b.DatesTst, b.IDsTst = x, dates, ids
		}
	}

	if b.StdDev, err = readFloats(r, "y_trn_obs_std"); err != nil {
		return nil, err
	}
	if b.Mean, err = readFloats(r, "y_trn_obs_mean"); err != nil {
		return nil, err
	}
	if len(b.StdDev) != 2 || len(b.Mean) != 2 {
		return nil, fmt.Errorf("expected 2 output statistics, got std=%d mean=%d", len(b.StdDev), len(b.Mean))
	}

	// Only the leading dimension of the distance matrix is needed.
	distKey, err := resolveKey(r, "dist_matrix")
	if err != nil {
		return nil, err
	}
	distShape := r.Header(distKey).Descr.Shape
	if len(distShape) == 0 {
		return nil, fmt.Errorf("dist_matrix is scalar in %s", path)
	}
	b.NumSegments = distShape[0]

	return b, nil
}

// resolveKey maps a logical array name to its entry in the archive. Archives
// written by numpy's savez store entries with a ".npy" suffix; both forms are
// accepted.
func resolveKey(r *npz.Reader, name string) (string, error) {
	for _, k := range r.Keys() {
		if k == name || k == name+".npy" {
			return k, nil
		}
	}
	return "", fmt.Errorf("key %q not found in input archive", name)
}

func readArray3(r *npz.Reader, name string) (*Array3, error) {
	key, err := resolveKey(r, name)
	if err != nil {
		return nil, err
	}
	vals, err := readFloats(r, name)
	if err != nil {
		return nil, err
	}
	shape := r.Header(key).Descr.Shape
	if len(shape) != 3 {
		return nil, fmt.Errorf("%s: expected a 3-D array, got shape %v", name, shape)
	}
	return NewArray3(vals, shape[0], shape[1], shape[2])
}

func readIntArray3(r *npz.Reader, name string) (*IntArray3, error) {
	key, err := resolveKey(r, name)
	if err != nil {
		return nil, err
	}
	vals, err := readInts(r, name)
	if err != nil {
		return nil, err
	}
	shape := r.Header(key).Descr.Shape
	if len(shape) != 3 {
		return nil, fmt.Errorf("%s: expected a 3-D array, got shape %v", name, shape)
	}
	return NewIntArray3(vals, shape[0], shape[1], shape[2])
}

// readFloats reads a float array of any shape as a flat float64 slice,
// accepting both float32 and float64 storage.
func readFloats(r *npz.Reader, name string) ([]float64, error) {
	key, err := resolveKey(r, name)
	if err != nil {
		return nil, err
	}
	dtype := r.Header(key).Descr.Type
	switch {
	case strings.Contains(dtype, "f8"):
		var vals []float64
		if err := r.Read(key, &vals); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		return vals, nil
	case strings.Contains(dtype, "f4"):
		var vals32 []float32
		if err := r.Read(key, &vals32); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		vals := make([]float64, len(vals32))
		for i, v := range vals32 {
			vals[i] = float64(v)
		}
		return vals, nil
	}
	return nil, fmt.Errorf("%s: unsupported dtype %q (want f4 or f8)", name, dtype)
}

// readInts reads an integer array of any shape as a flat int64 slice,
// accepting both int32 and int64 storage.
func readInts(r *npz.Reader, name string) ([]int64, error) {
	key, err := resolveKey(r, name)
	if err != nil {
		return nil, err
	}
	dtype := r.Header(key).Descr.Type
	switch {
	case strings.Contains(dtype, "i8"):
		var vals []int64
		if err := r.Read(key, &vals); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		return vals, nil
	case strings.Contains(dtype, "i4"):
		var vals32 []int32
		if err := r.Read(key, &vals32); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		vals := make([]int64, len(vals32))
		for i, v := range vals32 {
			vals[i] = int64(v)
		}
		return vals, nil
	}
	return nil, fmt.Errorf("%s: unsupported dtype %q (want i4 or i8)", name, dtype)
}
