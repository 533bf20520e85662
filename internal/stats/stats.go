package stats

import (
	"errors"
	"fmt"

	"randomflight/internal/flights"
)

// ErrNoReturns is returned when no walk in a batch made it back to its start,
// leaving shortest, longest and average undefined.
var ErrNoReturns = errors.New("no walk returned home")

// Stats summarizes a batch of walks from one start airport.
// Shortest, Longest and Average are nil when no walk returned home.
type Stats struct {
	DeadEnds     int      `json:"dead_ends" yaml:"dead_ends"`
	DidNotFinish int      `json:"didnt_finish" yaml:"didnt_finish"`
	Returned     int      `json:"returned" yaml:"returned"`
	Shortest     *int     `json:"shortest" yaml:"shortest"`
	Longest      *int     `json:"longest" yaml:"longest"`
	Average      *float64 `json:"average" yaml:"average"`
}

// Trials is the number of walks folded into s.
func (s Stats) Trials() int { return s.DeadEnds + s.DidNotFinish + s.Returned }

// Accumulator folds walks one at a time so trajectories can be discarded
// right after they are produced.
type Accumulator struct {
	maxHops int

	deadEnds     int
	didNotFinish int
	returned     int
	shortest     int
	longest      int
	sum          int64
}

func NewAccumulator(maxHops int) *Accumulator {
	return &Accumulator{maxHops: maxHops}
}

// Add classifies w and folds it in, returning its outcome.
func (a *Accumulator) Add(w flights.Walk) flights.Outcome {
	o := w.Outcome(a.maxHops)
	switch o {
	case flights.ReturnedHome:
		n := len(w)
		if a.returned == 0 || n < a.shortest {
			a.shortest = n
		}
		if n > a.longest {
			a.longest = n
		}
		a.sum += int64(n)
		a.returned++
	case flights.DeadEnd:
		a.deadEnds++
	case flights.NotFinished:
		a.didNotFinish++
	}
	return o
}

// Result returns the statistics so far. When nothing returned home the
// counts are still set and the error wraps ErrNoReturns.
func (a *Accumulator) Result() (Stats, error) {
	s := Stats{
		DeadEnds:     a.deadEnds,
		DidNotFinish: a.didNotFinish,
		Returned:     a.returned,
	}
	if a.returned == 0 {
		return s, fmt.Errorf("%d walks, %d dead ends, %d unfinished: %w",
			s.Trials(), a.deadEnds, a.didNotFinish, ErrNoReturns)
	}
	shortest, longest := a.shortest, a.longest
	avg := float64(a.sum) / float64(a.returned)
	s.Shortest = &shortest
	s.Longest = &longest
	s.Average = &avg
	return s, nil
}

// Aggregate reduces a batch of walks produced with maxHops.
func Aggregate(walks []flights.Walk, maxHops int) (Stats, error) {
	acc := NewAccumulator(maxHops)
	for _, w := range walks {
		acc.Add(w)
	}
	return acc.Result()
}
