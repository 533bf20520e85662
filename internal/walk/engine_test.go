package walk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"randomflight/internal/flights"
)

// mixed has a way home, a dead end (E) and a cycle that never returns (C <-> D).
func mixed() flights.Routes {
	return flights.NewRoutes(map[string][]string{
		"A": {"B", "C"},
		"B": {"A", "C", "E"},
		"C": {"D"},
		"D": {"C"},
	})
}

func TestWalkProperties(t *testing.T) {
	routes := mixed()
	const maxHops = 12
	engine := NewEngine(routes, NewSource(42))

	seen := map[flights.Outcome]int{}
	for _, w := range engine.RunTrials("A", 2000, maxHops) {
		require.NotEmpty(t, w)
		assert.Equal(t, "A", w.Start())
		assert.LessOrEqual(t, len(w), maxHops+1)
		for i := 0; i+1 < len(w); i++ {
			assert.True(t, routes.HasEdge(w[i], w[i+1]), "edge %s->%s", w[i], w[i+1])
		}

		o := w.Outcome(maxHops)
		seen[o]++
		switch o {
		case flights.ReturnedHome:
			assert.Equal(t, w.Start(), w.Last())
		case flights.DeadEnd:
			assert.NotEqual(t, w.Start(), w.Last())
			assert.False(t, routes.HasRoutes(w.Last()))
			assert.Less(t, len(w), maxHops+1)
		case flights.NotFinished:
			assert.NotEqual(t, w.Start(), w.Last())
			assert.Equal(t, maxHops+1, len(w))
		}
	}
	assert.Positive(t, seen[flights.ReturnedHome])
	assert.Positive(t, seen[flights.DeadEnd])
	assert.Positive(t, seen[flights.NotFinished])
}

func TestWalkScenarios(t *testing.T) {
	tests := []struct {
		name   string
		routes map[string][]string
		want   flights.Walk
	}{
		{"two cycle", map[string][]string{"A": {"B"}, "B": {"A"}}, flights.Walk{"A", "B", "A"}},
		{"dead end", map[string][]string{"A": {"B"}}, flights.Walk{"A", "B"}},
		{"self loop", map[string][]string{"A": {"A"}}, flights.Walk{"A", "A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewEngine(flights.NewRoutes(tt.routes), NewSource(7))
			walks := engine.RunTrials("A", 50, 5)
			require.Len(t, walks, 50)
			for _, w := range walks {
				assert.Equal(t, tt.want, w)
			}
		})
	}
}

func TestWalkStopsAtHopBound(t *testing.T) {
	engine := NewEngine(flights.NewRoutes(map[string][]string{
		"A": {"B"},
		"B": {"C"},
		"C": {"B"},
	}), NewSource(1))

	w := engine.Walk("A", 4)
	assert.Equal(t, flights.Walk{"A", "B", "C", "B", "C"}, w)
	assert.Equal(t, flights.NotFinished, w.Outcome(4))
}

func TestWalkReturnBeatsHopBound(t *testing.T) {
	engine := NewEngine(flights.NewRoutes(map[string][]string{
		"A": {"B"},
		"B": {"A"},
	}), NewSource(1))

	w := engine.Walk("A", 2)
	assert.Equal(t, flights.Walk{"A", "B", "A"}, w)
	assert.Equal(t, flights.ReturnedHome, w.Outcome(2))
}

func TestWalkFromAirportWithoutRoutes(t *testing.T) {
	engine := NewEngine(flights.NewRoutes(map[string][]string{"A": {"B"}}), NewSource(1))
	assert.Equal(t, flights.Walk{"B"}, engine.Walk("B", 5))
}

func TestSeededSourcesRepeat(t *testing.T) {
	routes := mixed()
	a := NewEngine(routes, NewSource(99)).RunTrials("A", 100, 20)
	b := NewEngine(routes, NewSource(99)).RunTrials("A", 100, 20)
	assert.Equal(t, a, b)
}

func TestRunTrialsZero(t *testing.T) {
	engine := NewEngine(mixed(), NewSource(1))
	assert.Empty(t, engine.RunTrials("A", 0, 5))
}
