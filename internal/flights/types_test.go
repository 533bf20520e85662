package flights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoutesNormalizes(t *testing.T) {
	r := NewRoutes(map[string][]string{
		"IAD": {"SFO", "LAX", "SFO", "BOS"},
		"XXX": {},
		"YYY": {""},
	})

	require.Len(t, r, 1)
	assert.Equal(t, []string{"BOS", "LAX", "SFO"}, r["IAD"])

	_, ok := r.Destinations("XXX")
	assert.False(t, ok)
	assert.False(t, r.HasRoutes("YYY"))
	assert.True(t, r.HasRoutes("IAD"))
}

func TestRoutesHasEdge(t *testing.T) {
	r := NewRoutes(map[string][]string{"A": {"C", "B"}})

	assert.True(t, r.HasEdge("A", "B"))
	assert.True(t, r.HasEdge("A", "C"))
	assert.False(t, r.HasEdge("A", "D"))
	assert.False(t, r.HasEdge("B", "A"))
}

func TestWalkOutcome(t *testing.T) {
	const maxHops = 3

	tests := []struct {
		name string
		walk Walk
		want Outcome
	}{
		{"returned early", Walk{"A", "B", "A"}, ReturnedHome},
		{"self loop", Walk{"A", "A"}, ReturnedHome},
		{"returned on last hop", Walk{"A", "B", "C", "A"}, ReturnedHome},
		{"dead end", Walk{"A", "B"}, DeadEnd},
		{"not finished", Walk{"A", "B", "C", "B"}, NotFinished},
		{"start without routes", Walk{"A"}, DeadEnd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.walk.Outcome(maxHops))
		})
	}
}

func TestWalkAccessors(t *testing.T) {
	w := Walk{"A", "B", "C"}
	assert.Equal(t, "A", w.Start())
	assert.Equal(t, "C", w.Last())
	assert.Equal(t, 2, w.Hops())

	var empty Walk
	assert.Equal(t, "", empty.Start())
	assert.Equal(t, 0, empty.Hops())
}

func TestAirportsCodesSorted(t *testing.T) {
	a := Airports{"SFO": {}, "BOS": {}, "IAD": {}}
	assert.Equal(t, []string{"BOS", "IAD", "SFO"}, a.Codes())
}
