package recur

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func utc(y int, m time.Month, d, h, min, s int) time.Time {
	return time.Date(y, m, d, h, min, s, 0, time.UTC)
}

// drain pulls at most limit instants from a fresh iterator of r.
func drain(t *testing.T, r *RRule, limit int) []time.Time {
	t.Helper()
	it := r.Iterator()
	var out []time.Time
	for len(out) < limit {
		v, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, v)
	}
	require.NoError(t, it.Err())
	return out
}

func TestRRule_Generation(t *testing.T) {
	tests := []struct {
		name string
		opt  ROption
		want []time.Time
	}{
		{
			name: "daily count",
			opt:  ROption{Freq: Daily, Count: 5, Dtstart: utc(2024, time.January, 1, 9, 0, 0)},
			want: []time.Time{
				utc(2024, time.January, 1, 9, 0, 0),
				utc(2024, time.January, 2, 9, 0, 0),
				utc(2024, time.January, 3, 9, 0, 0),
				utc(2024, time.January, 4, 9, 0, 0),
				utc(2024, time.January, 5, 9, 0, 0),
			},
		},
		{
			name: "daily interval",
			opt:  ROption{Freq: Daily, Interval: 10, Count: 3, Dtstart: utc(2024, time.January, 1, 9, 0, 0)},
			want: []time.Time{
				utc(2024, time.January, 1, 9, 0, 0),
				utc(2024, time.January, 11, 9, 0, 0),
				utc(2024, time.January, 21, 9, 0, 0),
			},
		},
		{
			name: "weekly two days",
			opt: ROption{Freq: Weekly, Count: 4, ByDay: []Weekday{MO, WE},
				Dtstart: utc(2024, time.January, 1, 10, 0, 0)},
			want: []time.Time{
				utc(2024, time.January, 1, 10, 0, 0),
				utc(2024, time.January, 3, 10, 0, 0),
				utc(2024, time.January, 8, 10, 0, 0),
				utc(2024, time.January, 10, 10, 0, 0),
			},
		},
		{
			name: "weekly seed does not match",
			opt: ROption{Freq: Weekly, Count: 2, ByDay: []Weekday{MO},
				Dtstart: utc(2024, time.January, 2, 10, 0, 0)}, // a Tuesday
			want: []time.Time{
				utc(2024, time.January, 8, 10, 0, 0),
				utc(2024, time.January, 15, 10, 0, 0),
			},
		},
		{
			name: "monthly day 31 skips short months",
			opt: ROption{Freq: Monthly, Count: 4, ByMonthDay: []int{31},
				Dtstart: utc(2024, time.January, 31, 12, 0, 0)},
			want: []time.Time{
				utc(2024, time.January, 31, 12, 0, 0),
				utc(2024, time.March, 31, 12, 0, 0),
				utc(2024, time.May, 31, 12, 0, 0),
				utc(2024, time.July, 31, 12, 0, 0),
			},
		},
		{
			name: "monthly last day",
			opt: ROption{Freq: Monthly, Count: 3, ByMonthDay: []int{-1},
				Dtstart: utc(2024, time.January, 15, 8, 0, 0)},
			want: []time.Time{
				utc(2024, time.January, 31, 8, 0, 0),
				utc(2024, time.February, 29, 8, 0, 0),
				utc(2024, time.March, 31, 8, 0, 0),
			},
		},
		{
			name: "monthly third tuesday",
			opt: ROption{Freq: Monthly, Count: 3, ByDay: []Weekday{TU.Nth(3)},
				Dtstart: utc(2024, time.January, 1, 9, 0, 0)},
			want: []time.Time{
				utc(2024, time.January, 16, 9, 0, 0),
				utc(2024, time.February, 20, 9, 0, 0),
				utc(2024, time.March, 19, 9, 0, 0),
			},
		},
		{
			name: "monthly last friday",
			opt: ROption{Freq: Monthly, Count: 3, ByDay: []Weekday{FR.Nth(-1)},
				Dtstart: utc(2024, time.January, 1, 9, 0, 0)},
			want: []time.Time{
				utc(2024, time.January, 26, 9, 0, 0),
				utc(2024, time.February, 23, 9, 0, 0),
				utc(2024, time.March, 29, 9, 0, 0),
			},
		},
		{
			name: "yearly defaults to dtstart month and day",
			opt:  ROption{Freq: Yearly, Count: 3, Dtstart: utc(2024, time.March, 15, 9, 0, 0)},
			want: []time.Time{
				utc(2024, time.March, 15, 9, 0, 0),
				utc(2025, time.March, 15, 9, 0, 0),
				utc(2026, time.March, 15, 9, 0, 0),
			},
		},
		{
			name: "yearly twentieth monday",
			opt: ROption{Freq: Yearly, Count: 3, ByDay: []Weekday{MO.Nth(20)},
				Dtstart: utc(1997, time.May, 19, 9, 0, 0)},
			want: []time.Time{
				utc(1997, time.May, 19, 9, 0, 0),
				utc(1998, time.May, 18, 9, 0, 0),
				utc(1999, time.May, 17, 9, 0, 0),
			},
		},
		{
			name: "yearly first and last day",
			opt: ROption{Freq: Yearly, Count: 4, ByYearDay: []int{1, -1},
				Dtstart: utc(2024, time.January, 1, 0, 0, 0)},
			want: []time.Time{
				utc(2024, time.January, 1, 0, 0, 0),
				utc(2024, time.December, 31, 0, 0, 0),
				utc(2025, time.January, 1, 0, 0, 0),
				utc(2025, time.December, 31, 0, 0, 0),
			},
		},
		{
			name: "yearly week number one",
			opt: ROption{Freq: Yearly, Count: 3, ByWeekNo: []int{1}, ByDay: []Weekday{MO},
				Dtstart: utc(2024, time.January, 1, 9, 0, 0)},
			want: []time.Time{
				utc(2024, time.January, 1, 9, 0, 0),
				utc(2024, time.December, 30, 9, 0, 0),
				utc(2025, time.December, 29, 9, 0, 0),
			},
		},
		{
			name: "setpos last weekday of month",
			opt: ROption{Freq: Monthly, Count: 3, ByDay: []Weekday{MO, TU, WE, TH, FR},
				BySetPos: []int{-1}, Dtstart: utc(2024, time.January, 1, 9, 0, 0)},
			want: []time.Time{
				utc(2024, time.January, 31, 9, 0, 0),
				utc(2024, time.February, 29, 9, 0, 0),
				utc(2024, time.March, 29, 9, 0, 0),
			},
		},
		{
			name: "leap day only",
			opt:  ROption{Freq: Yearly, Count: 3, Dtstart: utc(2024, time.February, 29, 12, 0, 0)},
			want: []time.Time{
				utc(2024, time.February, 29, 12, 0, 0),
				utc(2028, time.February, 29, 12, 0, 0),
				utc(2032, time.February, 29, 12, 0, 0),
			},
		},
		{
			name: "hourly carries dtstart minute and second",
			opt:  ROption{Freq: Hourly, Count: 4, Dtstart: utc(2024, time.January, 1, 22, 30, 0)},
			want: []time.Time{
				utc(2024, time.January, 1, 22, 30, 0),
				utc(2024, time.January, 1, 23, 30, 0),
				utc(2024, time.January, 2, 0, 30, 0),
				utc(2024, time.January, 2, 1, 30, 0),
			},
		},
		{
			name: "hourly with byminute expansion",
			opt: ROption{Freq: Hourly, Count: 4, ByMinute: []int{0, 30},
				Dtstart: utc(2024, time.January, 1, 10, 15, 0)},
			want: []time.Time{
				utc(2024, time.January, 1, 10, 30, 0),
				utc(2024, time.January, 1, 11, 0, 0),
				utc(2024, time.January, 1, 11, 30, 0),
				utc(2024, time.January, 1, 12, 0, 0),
			},
		},
		{
			name: "minutely",
			opt:  ROption{Freq: Minutely, Count: 3, Dtstart: utc(2024, time.January, 1, 10, 58, 30)},
			want: []time.Time{
				utc(2024, time.January, 1, 10, 58, 30),
				utc(2024, time.January, 1, 10, 59, 30),
				utc(2024, time.January, 1, 11, 0, 30),
			},
		},
		{
			name: "secondly with interval",
			opt: ROption{Freq: Secondly, Interval: 30, Count: 3,
				Dtstart: utc(2024, time.January, 1, 10, 0, 0)},
			want: []time.Time{
				utc(2024, time.January, 1, 10, 0, 0),
				utc(2024, time.January, 1, 10, 0, 30),
				utc(2024, time.January, 1, 10, 1, 0),
			},
		},
		{
			name: "until is inclusive",
			opt: ROption{Freq: Daily, Until: utc(2024, time.January, 5, 9, 0, 0),
				Dtstart: utc(2024, time.January, 1, 9, 0, 0)},
			want: []time.Time{
				utc(2024, time.January, 1, 9, 0, 0),
				utc(2024, time.January, 2, 9, 0, 0),
				utc(2024, time.January, 3, 9, 0, 0),
				utc(2024, time.January, 4, 9, 0, 0),
				utc(2024, time.January, 5, 9, 0, 0),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRRule(tt.opt)
			require.NoError(t, err)
			got := drain(t, r, len(tt.want)+5)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRRule_CountIsExact(t *testing.T) {
	r, err := NewRRule(ROption{Freq: Daily, Count: 17, Dtstart: utc(2024, time.January, 1, 6, 0, 0)})
	require.NoError(t, err)
	got := drain(t, r, 100)
	assert.Len(t, got, 17)
}

func TestRRule_ImpossibleRuleTerminates(t *testing.T) {
	// February 30 can never match; the guard must end the sequence rather
	// than scan forever.
	r, err := NewRRule(ROption{Freq: Yearly, ByMonth: []int{2}, ByMonthDay: []int{30},
		Dtstart: utc(2024, time.January, 1, 0, 0, 0)})
	require.NoError(t, err)

	it := r.Iterator()
	_, ok := it.Next()
	assert.False(t, ok)
	assert.NoError(t, it.Err(), "a structurally non-matching rule is not an error")
}

func TestRRule_SparseFineFrequency(t *testing.T) {
	// An hourly rule confined to January, anchored in February: eleven months
	// of excluded hours lie before the first match, far more hour-periods than
	// the guard ceiling. The guard must count excluded days, not hours.
	r, err := NewRRule(ROption{Freq: Hourly, ByMonth: []int{1}, Count: 1,
		Dtstart: utc(2024, time.February, 1, 0, 0, 0)})
	require.NoError(t, err)

	got := drain(t, r, 10)
	require.Len(t, got, 1)
	assert.Equal(t, utc(2025, time.January, 1, 0, 0, 0), got[0])
}

func TestRRule_SparseFineFrequencyKeepsPhase(t *testing.T) {
	// Interval steps count from DTSTART even across the skipped months:
	// 2024-02-01T00:00 to 2025-01-01T00:00 is 8040 hours, and the first
	// multiple of 7 past that is 8043.
	r, err := NewRRule(ROption{Freq: Hourly, Interval: 7, ByMonth: []int{1}, Count: 2,
		Dtstart: utc(2024, time.February, 1, 0, 0, 0)})
	require.NoError(t, err)

	got := drain(t, r, 10)
	assert.Equal(t, []time.Time{
		utc(2025, time.January, 1, 3, 0, 0),
		utc(2025, time.January, 1, 10, 0, 0),
	}, got)
}

func TestRRule_IteratorIsLazy(t *testing.T) {
	// No COUNT, no UNTIL: infinite. Creating the iterator and taking a few
	// elements must not evaluate the rest.
	r, err := NewRRule(ROption{Freq: Daily, Dtstart: utc(2024, time.January, 1, 9, 0, 0)})
	require.NoError(t, err)

	it := r.Iterator()
	for i := 0; i < 3; i++ {
		v, ok := it.Next()
		require.True(t, ok)
		assert.Equal(t, utc(2024, time.January, 1+i, 9, 0, 0), v)
	}
}

func TestRRule_StrictlyIncreasing(t *testing.T) {
	r, err := NewRRule(ROption{Freq: Monthly, Count: 40, ByDay: []Weekday{MO, FR},
		Dtstart: utc(2024, time.January, 1, 9, 0, 0)})
	require.NoError(t, err)
	got := drain(t, r, 100)
	require.Len(t, got, 40)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i].After(got[i-1]), "occurrence %d (%v) not after %v", i, got[i], got[i-1])
	}
}

func TestNewRRule_Validation(t *testing.T) {
	dt := utc(2024, time.January, 1, 0, 0, 0)
	tests := []struct {
		name string
		opt  ROption
	}{
		{"count and until", ROption{Freq: Daily, Count: 3, Until: utc(2024, time.June, 1, 0, 0, 0), Dtstart: dt}},
		{"negative interval", ROption{Freq: Daily, Interval: -1, Dtstart: dt}},
		{"hour out of range", ROption{Freq: Daily, ByHour: []int{24}, Dtstart: dt}},
		{"zero monthday", ROption{Freq: Monthly, ByMonthDay: []int{0}, Dtstart: dt}},
		{"weekno outside yearly", ROption{Freq: Monthly, ByWeekNo: []int{1}, Dtstart: dt}},
		{"ordinal byday with weekly", ROption{Freq: Weekly, ByDay: []Weekday{MO.Nth(2)}, Dtstart: dt}},
		{"ordinal byday with weekno", ROption{Freq: Yearly, ByWeekNo: []int{10}, ByDay: []Weekday{MO.Nth(2)}, Dtstart: dt}},
		{"setpos alone", ROption{Freq: Monthly, BySetPos: []int{1}, Dtstart: dt}},
		{"month thirteen", ROption{Freq: Yearly, ByMonth: []int{13}, Dtstart: dt}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRRule(tt.opt)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRule))
		})
	}
}

func TestRRule_DTStartKeepsZone(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	r, err := NewRRule(ROption{Freq: Daily, Count: 1,
		Dtstart: time.Date(2024, time.June, 1, 9, 0, 0, 0, paris)})
	require.NoError(t, err)
	dt := r.DTStart()
	assert.Equal(t, "Europe/Paris", dt.Location().String())
	assert.Equal(t, 9, dt.Hour())
}
