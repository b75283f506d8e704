package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}

func TestOverlapsSymmetry(t *testing.T) {
	a := NewInterval(mustTime(t, "2024-01-08T09:00:00Z"), 60)
	b := NewInterval(mustTime(t, "2024-01-08T09:30:00Z"), 60)

	require.True(t, a.Overlaps(b))
	require.Equal(t, a.Overlaps(b), b.Overlaps(a))

	c := NewInterval(mustTime(t, "2024-01-08T12:00:00Z"), 30)
	require.False(t, a.Overlaps(c))
	require.Equal(t, a.Overlaps(c), c.Overlaps(a))
}

func TestOverlapsTouchingEndpointsDoNotConflict(t *testing.T) {
	a := NewInterval(mustTime(t, "2024-01-08T09:00:00Z"), 60)
	b := NewInterval(mustTime(t, "2024-01-08T10:00:00Z"), 30)

	require.False(t, a.Overlaps(b))
	require.False(t, b.Overlaps(a))
}

func TestOverlapsStrictContainment(t *testing.T) {
	outer := NewInterval(mustTime(t, "2024-01-08T09:00:00Z"), 120)
	inner := NewInterval(mustTime(t, "2024-01-08T09:30:00Z"), 30)

	require.True(t, outer.Overlaps(inner))
	require.True(t, inner.Overlaps(outer))
}

func TestOverlapsIdenticalIntervals(t *testing.T) {
	a := NewInterval(mustTime(t, "2024-01-08T09:00:00Z"), 45)
	b := NewInterval(mustTime(t, "2024-01-08T09:00:00Z"), 45)

	require.True(t, a.Overlaps(b))
}

func TestNewIntervalDuration(t *testing.T) {
	iv := NewInterval(mustTime(t, "2024-01-08T09:00:00Z"), 90)
	require.Equal(t, mustTime(t, "2024-01-08T10:30:00Z"), iv.End)
}
