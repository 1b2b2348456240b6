package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, raw string) time.Time {
	t.Helper()
	d, err := ParseDate(raw)
	require.NoError(t, err)
	return d
}

func TestComputeRentalDays_CeilsStartedDays(t *testing.T) {
	cases := []struct {
		name     string
		pickup   string
		pickupAt string
		ret      string
		returnAt string
		wantDays int
	}{
		{"exact two days", "2024-06-01", "09:00", "2024-06-03", "09:00", 2},
		{"one hour over", "2024-06-01", "09:00", "2024-06-03", "10:00", 3},
		{"same day short rental", "2024-06-01", "09:00", "2024-06-01", "12:00", 1},
		{"overnight under 24h", "2024-06-01", "18:00", "2024-06-02", "08:00", 1},
		{"leap day", "2024-02-28", "10:00", "2024-03-01", "10:00", 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ComputeRentalDays(mustDate(t, tc.pickup), MustClock(tc.pickupAt), mustDate(t, tc.ret), MustClock(tc.returnAt), LateReturnRule{})
			require.NoError(t, err)
			assert.Equal(t, tc.wantDays, got.Days)
			assert.False(t, got.LateReturnApplied)
		})
	}
}

func TestComputeRentalDays_RejectsReturnNotAfterPickup(t *testing.T) {
	d := mustDate(t, "2024-06-01")
	_, err := ComputeRentalDays(d, MustClock("09:00"), d, MustClock("09:00"), LateReturnRule{})
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = ComputeRentalDays(d, MustClock("09:00"), mustDate(t, "2024-05-31"), MustClock("18:00"), LateReturnRule{})
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestComputeRentalDays_LateReturnAddsOneDay(t *testing.T) {
	pickup := mustDate(t, "2024-06-01")
	ret := mustDate(t, "2024-06-03")
	rule := LateReturnRule{Enabled: true, Threshold: MustClock("18:00")}

	plain, err := ComputeRentalDays(pickup, MustClock("19:00"), ret, MustClock("19:00"), LateReturnRule{})
	require.NoError(t, err)
	late, err := ComputeRentalDays(pickup, MustClock("19:00"), ret, MustClock("19:00"), rule)
	require.NoError(t, err)

	assert.Equal(t, plain.Days+1, late.Days)
	assert.True(t, late.LateReturnApplied)

	onTime, err := ComputeRentalDays(pickup, MustClock("09:00"), ret, MustClock("09:00"), rule)
	require.NoError(t, err)
	assert.False(t, onTime.LateReturnApplied)
	assert.Equal(t, 2, onTime.Days)

	atThreshold, err := ComputeRentalDays(pickup, MustClock("09:00"), ret, MustClock("18:00"), rule)
	require.NoError(t, err)
	assert.False(t, atThreshold.LateReturnApplied)
	assert.Equal(t, 3, atThreshold.Days)
}

func TestParseClock(t *testing.T) {
	c, err := ParseClock("07:05")
	require.NoError(t, err)
	assert.Equal(t, "07:05", c.String())
	assert.Equal(t, 7, c.Hour())

	_, err = ParseClock("7pm")
	assert.ErrorIs(t, err, ErrInvalidClock)

	_, err = ParseDate("01/06/2024")
	assert.ErrorIs(t, err, ErrInvalidDate)
}
