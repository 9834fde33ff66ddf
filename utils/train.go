package utils

import (
	"time"

	"dnn/mnist"
)

// Learner is the part of a network a training or testing pass drives.
type Learner interface {
	FeedInput(v []float64) error
	RunForward()
	RunBackward(label int) error
	Classify() int
}

// Classes is the number of MNIST labels.
const Classes = 10

// TrainEpoch runs one pass over set: feed, forward, classify, backward for
// every sample in order. Progress is printed every progressEvery samples and
// after the last one; progressEvery <= 0 prints only the final line.
func TrainEpoch(l Learner, set *mnist.Set, stats *TimingStats, progressEvery int) (*Tally, error) {
	set.Reset()
	tally := NewTally(set.Len(), Classes)
	for i := 0; i < set.Len(); i++ {
		s, err := set.Next()
		if err != nil {
			return tally, err
		}
		t := time.Now()
		if err := l.FeedInput(s.Input()); err != nil {
			return tally, err
		}
		l.RunForward()
		t = stats.Track(&stats.ForwardPassTime, t)
		tally.Record(s.Label, l.Classify())
		if err := l.RunBackward(s.Label); err != nil {
			return tally, err
		}
		stats.Track(&stats.BackwardPassTime, t)

		if progressEvery > 0 && tally.Seen%progressEvery == 0 {
			TrainingProgress(tally)
		}
	}
	TrainingProgress(tally)
	Logf("")
	return tally, nil
}

// Evaluate classifies every sample of set without learning.
func Evaluate(l Learner, set *mnist.Set, stats *TimingStats, progressEvery int) (*Tally, error) {
	set.Reset()
	tally := NewTally(set.Len(), Classes)
	start := time.Now()
	for i := 0; i < set.Len(); i++ {
		s, err := set.Next()
		if err != nil {
			return tally, err
		}
		if err := l.FeedInput(s.Input()); err != nil {
			return tally, err
		}
		l.RunForward()
		tally.Record(s.Label, l.Classify())

		if progressEvery > 0 && tally.Seen%progressEvery == 0 {
			TestingProgress(tally)
		}
	}
	stats.Track(&stats.TestingTime, start)
	TestingProgress(tally)
	Logf("")
	return tally, nil
}
