package postproc

import (
	"fmt"

	"github.com/jsadler2/drb-dl-model/data"
	"github.com/jsadler2/drb-dl-model/model"
)

// Options configures a prediction run. Parsing of command-line flags happens
// in the caller; everything the run needs arrives through this struct.
type Options struct {
	OutDir string
	RunTag string // appended to output file names, already "_"-prefixed when set

	// LoggedQ marks the model as having predicted log discharge, which must
	// be exponentiated back during unscaling.
	LoggedQ bool

	// HalfTest holds back the second half of the test period: the "tst"
	// predictions table is cut at the halfway date before being written.
	HalfTest bool
}

// RunPredict runs the model over the inputs for one tag and writes the
// post-processed, unscaled predictions table as a Feather file. It returns
// the path written. The tag is validated before any computation.
func RunPredict(p model.Predictor, b *data.Bundle, tag data.Tag, opts Options) (string, error) {
	if err := data.CheckTag(tag); err != nil {
		return "", err
	}

	x, err := b.X(tag)
	if err != nil {
		return "", err
	}
	dates, err := b.Dates(tag)
	if err != nil {
		return "", err
	}
	ids, err := b.IDs(tag)
	if err != nil {
		return "", err
	}

	yT, err := p.Predict(model.TensorFromArray3(x))
	if err != nil {
		return "", fmt.Errorf("model prediction failed for %s: %w", tag, err)
	}
	y, err := model.Array3FromTensor(yT)
	if err != nil {
		return "", fmt.Errorf("model output for %s: %w", tag, err)
	}

	table, err := PostProcess(y, dates, ids)
	if err != nil {
		return "", fmt.Errorf("post-processing %s predictions: %w", tag, err)
	}
	if err := Unscale(table, b.StdDev, b.Mean, opts.LoggedQ); err != nil {
		return "", err
	}
	if opts.HalfTest && tag == data.TagTest {
		table = TakeFirstHalf(table)
	}

	path := data.PredsFile(opts.OutDir, tag, opts.RunTag)
	if err := data.WriteTable(path, table); err != nil {
		return "", err
	}
	return path, nil
}
