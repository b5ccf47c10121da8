package vitals

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reading(offset time.Duration, param Parameter, value float64) Reading {
	return Reading{Timestamp: time.Time{}.Add(offset), Parameter: param, Value: value}
}

func TestPartitionSpan(t *testing.T) {
	readings := []Reading{
		reading(0, ParamHeartRate, 70),
		reading(10*time.Second, ParamHeartRate, 72),
		reading(29*time.Second, ParamHeartRate, 74),
		reading(30*time.Second, ParamHeartRate, 76),
		reading(45*time.Second, ParamHeartRate, 78),
		reading(65*time.Second, ParamHeartRate, 80),
	}

	windows, err := Partition(readings, SpanPolicy(30*time.Second))
	require.NoError(t, err)
	require.Len(t, windows, 3)

	// A reading landing exactly at start+span opens the next window.
	assert.Len(t, windows[0].Readings, 3)
	assert.Len(t, windows[1].Readings, 2)
	assert.Len(t, windows[2].Readings, 1)

	assert.Equal(t, 0, windows[0].ID)
	assert.Equal(t, 1, windows[1].ID)
	assert.Equal(t, 2, windows[2].ID)

	assert.Equal(t, time.Time{}.Add(30*time.Second), windows[1].Start())
	assert.Equal(t, time.Time{}.Add(45*time.Second), windows[1].End())
}

func TestPartitionCount(t *testing.T) {
	readings := make([]Reading, 0, 7)
	for i := 0; i < 7; i++ {
		readings = append(readings, reading(time.Duration(i)*time.Second, ParamSpO2, 96))
	}

	windows, err := Partition(readings, CountPolicy(3))
	require.NoError(t, err)
	require.Len(t, windows, 3)
	assert.Len(t, windows[0].Readings, 3)
	assert.Len(t, windows[1].Readings, 3)
	// The trailing window may be short, never empty.
	assert.Len(t, windows[2].Readings, 1)
}

func TestPartitionSortsOutOfOrderInput(t *testing.T) {
	readings := []Reading{
		reading(40*time.Second, ParamHeartRate, 80),
		reading(0, ParamHeartRate, 70),
		reading(20*time.Second, ParamHeartRate, 75),
	}

	windows, err := Partition(readings, SpanPolicy(time.Minute))
	require.NoError(t, err)
	require.Len(t, windows, 1)

	values := []float64{}
	for _, r := range windows[0].Readings {
		values = append(values, r.Value)
	}
	assert.Equal(t, []float64{70, 75, 80}, values)
}

func TestPartitionDeterministic(t *testing.T) {
	readings := []Reading{
		reading(0, ParamHeartRate, 70),
		reading(10*time.Second, ParamSpO2, 96),
		reading(35*time.Second, ParamHeartRate, 72),
	}

	first, err := Partition(readings, SpanPolicy(30*time.Second))
	require.NoError(t, err)
	second, err := Partition(readings, SpanPolicy(30*time.Second))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPartitionEveryReadingAssignedOnce(t *testing.T) {
	readings := make([]Reading, 0, 25)
	for i := 0; i < 25; i++ {
		readings = append(readings, reading(time.Duration(i*7)*time.Second, ParamHeartRate, float64(60+i)))
	}

	for _, policy := range []Policy{SpanPolicy(30 * time.Second), CountPolicy(4)} {
		windows, err := Partition(readings, policy)
		require.NoError(t, err)

		total := 0
		for _, w := range windows {
			require.NotEmpty(t, w.Readings)
			total += len(w.Readings)
		}
		assert.Equal(t, len(readings), total)
	}
}

func TestPartitionInvalidPolicy(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
	}{
		{"zero span", SpanPolicy(0)},
		{"negative span", SpanPolicy(-time.Second)},
		{"zero count", CountPolicy(0)},
		{"unknown kind", Policy{Kind: PolicyKind(9)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Partition([]Reading{reading(0, ParamHeartRate, 70)}, tt.policy)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))
		})
	}
}

func TestPartitionEmpty(t *testing.T) {
	windows, err := Partition(nil, SpanPolicy(time.Minute))
	require.NoError(t, err)
	assert.Empty(t, windows)
}
