package data

import (
	"fmt"
	"path/filepath"
)

// Tag identifies which period a run covers: the training period or the test
// (dev) period. Output file names are keyed by it.
type Tag string

const (
	TagTrain Tag = "trn"
	TagTest  Tag = "tst"
)

// Valid reports whether the tag is one of the two recognized values.
func (t Tag) Valid() bool { return t == TagTrain || t == TagTest }

// CheckTag returns a descriptive error for anything other than "trn" or "tst".
func CheckTag(t Tag) error {
	if !t.Valid() {
		return fmt.Errorf("tag must be %q or %q, got %q", TagTrain, TagTest, t)
	}
	return nil
}

// PredsFile returns the predictions Feather path for a run,
// e.g. outdir/tst_preds_run1.feather. Here and in the other path helpers
// outdir is treated as a directory and joined with the file name, not
// concatenated as a raw prefix.
func PredsFile(outdir string, tag Tag, runTag string) string {
	return filepath.Join(outdir, fmt.Sprintf("%s_preds%s.feather", tag, runTag))
}

// MetricsFile returns the global metrics JSON path for a run.
func MetricsFile(outdir string, tag Tag, runTag string) string {
	return filepath.Join(outdir, fmt.Sprintf("%s_metrics%s.json", tag, runTag))
}

// ReachMetricsFile returns the per-reach metrics Feather path for a run and
// variable short name ("temp" or "flow").
func ReachMetricsFile(outdir string, tag Tag, variable, runTag string) string {
	return filepath.Join(outdir, fmt.Sprintf("%s_%s_reach_metrics%s.feather", tag, variable, runTag))
}
