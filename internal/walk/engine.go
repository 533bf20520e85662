package walk

import (
	"math/rand/v2"

	"randomflight/internal/flights"
)

// Source picks a uniform index in [0, n). *rand.Rand satisfies it.
type Source interface {
	IntN(n int) int
}

// NewSource returns a PCG-backed source. A zero seed draws a random one.
func NewSource(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Engine performs random flights over a read-only route graph.
// An Engine is not safe for concurrent use unless its Source is.
type Engine struct {
	routes flights.Routes
	rng    Source
}

func NewEngine(routes flights.Routes, rng Source) *Engine {
	return &Engine{routes: routes, rng: rng}
}

// Walk flies from start until it lands back on start, runs out of hops
// or reaches an airport without outgoing routes.
func (e *Engine) Walk(start string, maxHops int) flights.Walk {
	visited := flights.Walk{start}
	current := start
	for hops := 0; ; {
		dests, ok := e.routes.Destinations(current)
		if !ok {
			// dead end
			return visited
		}
		current = dests[e.rng.IntN(len(dests))]
		visited = append(visited, current)
		hops++
		if current == start || hops >= maxHops {
			return visited
		}
	}
}

// RunTrials performs trials independent walks from start, in execution order.
func (e *Engine) RunTrials(start string, trials, maxHops int) []flights.Walk {
	if trials <= 0 {
		return nil
	}
	walks := make([]flights.Walk, 0, trials)
	for i := 0; i < trials; i++ {
		walks = append(walks, e.Walk(start, maxHops))
	}
	return walks
}
