package utils

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Tally counts classification results over one pass of a data set.
type Tally struct {
	Total        int
	Seen         int
	Errors       int
	classSeen    []float64
	classCorrect []float64
}

// NewTally prepares a tally for a pass over total samples of classes labels.
func NewTally(total, classes int) *Tally {
	return &Tally{
		Total:        total,
		classSeen:    make([]float64, classes),
		classCorrect: make([]float64, classes),
	}
}

// Record counts one sample. It reports whether the classification was right.
func (t *Tally) Record(label, classification int) bool {
	t.Seen++
	ok := label == classification
	if !ok {
		t.Errors++
	}
	if label >= 0 && label < len(t.classSeen) {
		t.classSeen[label]++
		if ok {
			t.classCorrect[label]++
		}
	}
	return ok
}

// Correct is Seen minus Errors.
func (t *Tally) Correct() int { return t.Seen - t.Errors }

// Accuracy is the share of correct classifications so far, in [0,1].
func (t *Tally) Accuracy() float64 {
	if t.Seen == 0 {
		return 0
	}
	return 1 - float64(t.Errors)/float64(t.Seen)
}

// ClassAccuracy returns per-label accuracy. Labels never seen report 0.
func (t *Tally) ClassAccuracy() []float64 {
	acc := make([]float64, len(t.classSeen))
	seen := append([]float64(nil), t.classSeen...)
	for i, s := range seen {
		if s == 0 {
			seen[i] = 1
		}
	}
	floats.DivTo(acc, t.classCorrect, seen)
	return acc
}

func progressLine(stage string, t *Tally) string {
	progress := 0
	if t.Total > 0 {
		progress = t.Seen * 100 / t.Total
	}
	return fmt.Sprintf("%-9s Reading image No. %6d of %6d images [%3d%%]  Result: Correct=%6d  Incorrect=%6d  Accuracy=%5.2f%%",
		stage+":", t.Seen, t.Total, progress, t.Correct(), t.Errors, t.Accuracy()*100)
}

// TrainingProgress rewrites the current line of Output with the training tally.
func TrainingProgress(t *Tally) {
	if Verbose {
		fmt.Fprint(Output, "\r"+progressLine("Training", t))
	}
}

// TestingProgress rewrites the current line of Output with the testing tally.
func TestingProgress(t *Tally) {
	if Verbose {
		fmt.Fprint(Output, "\r"+progressLine("Testing", t))
	}
}

// PrintClassAccuracy prints one line per label.
func PrintClassAccuracy(t *Tally) {
	if !Verbose {
		return
	}
	for label, acc := range t.ClassAccuracy() {
		fmt.Fprintf(Output, "  digit %d: %6.2f%% of %d\n", label, acc*100, int(t.classSeen[label]))
	}
}
