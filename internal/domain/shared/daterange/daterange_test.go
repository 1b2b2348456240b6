package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNew_RejectsEmptyOrInverted(t *testing.T) {
	_, err := New(date(2024, 6, 3), date(2024, 6, 1))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(date(2024, 6, 3), date(2024, 6, 3))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestDateRange_HalfOpenOverlap(t *testing.T) {
	a, err := New(date(2024, 6, 1), date(2024, 6, 3))
	require.NoError(t, err)
	backToBack, err := New(date(2024, 6, 3), date(2024, 6, 5))
	require.NoError(t, err)
	inside, err := New(date(2024, 6, 2), date(2024, 6, 4))
	require.NoError(t, err)

	assert.False(t, a.Overlaps(backToBack))
	assert.True(t, a.Overlaps(inside))
	assert.Equal(t, 2, a.Days())
	assert.True(t, a.ContainsDate(time.Date(2024, 6, 2, 15, 0, 0, 0, time.UTC)))
	assert.False(t, a.ContainsDate(date(2024, 6, 3)))
}

func TestDateRange_EachDay(t *testing.T) {
	dr, err := New(time.Date(2024, 2, 28, 9, 0, 0, 0, time.UTC), date(2024, 3, 2))
	require.NoError(t, err)

	var got []string
	dr.EachDay(func(d time.Time) { got = append(got, d.Format("2006-01-02")) })
	assert.Equal(t, []string{"2024-02-28", "2024-02-29", "2024-03-01"}, got)
}
