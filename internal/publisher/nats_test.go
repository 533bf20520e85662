package publisher

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"randomflight/internal/stats"
)

func TestSubjectToken(t *testing.T) {
	tests := map[string]string{
		"IAD":         "IAD",
		" a.b ":       "a_b",
		"x>y*z":       "x_y_z",
		"":            "_",
		"with space":  "with_space",
		"slash/token": "slash_token",
	}
	for in, want := range tests {
		assert.Equal(t, want, SubjectToken(in), "input %q", in)
	}
}

func TestSubjects(t *testing.T) {
	p := &NATSPublisher{prefix: SubjectToken("randomflight")}
	assert.Equal(t, "randomflight.stats.IAD", p.StatsSubject("IAD"))
	assert.Equal(t, "randomflight.runs", p.RunSubject())
}

func TestStatsMessageJSON(t *testing.T) {
	b, err := json.Marshal(StatsMessage{RunID: "r1", Airport: "IAD", Stats: stats.Stats{DeadEnds: 3}})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "r1", got["runId"])
	assert.Equal(t, "IAD", got["airport"])
	inner := got["stats"].(map[string]any)
	assert.Equal(t, 3.0, inner["dead_ends"])
	assert.Nil(t, inner["average"])
}
