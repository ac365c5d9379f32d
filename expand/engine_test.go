package expand

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasOccurrenceInRange(t *testing.T) {
	masterStart := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC) // a Monday
	masterEnd := masterStart.Add(time.Hour)

	tests := []struct {
		name       string
		info       RecurrenceInfo
		rangeStart time.Time
		rangeEnd   time.Time
		want       bool
	}{
		{
			name:       "master event inside range",
			info:       RecurrenceInfo{},
			rangeStart: time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
			rangeEnd:   time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC),
			want:       true,
		},
		{
			name:       "master event outside range, no recurrence",
			info:       RecurrenceInfo{},
			rangeStart: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
			rangeEnd:   time.Date(2025, 2, 2, 0, 0, 0, 0, time.UTC),
			want:       false,
		},
		{
			name:       "master overlaps range boundary",
			info:       RecurrenceInfo{},
			rangeStart: time.Date(2025, 1, 6, 10, 30, 0, 0, time.UTC),
			rangeEnd:   time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC),
			want:       true,
		},
		{
			name:       "daily rule reaches into range",
			info:       RecurrenceInfo{RRule: "FREQ=DAILY;COUNT=7"},
			rangeStart: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
			rangeEnd:   time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC),
			want:       true,
		},
		{
			name:       "daily rule exhausted before range",
			info:       RecurrenceInfo{RRule: "FREQ=DAILY;COUNT=3"},
			rangeStart: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
			rangeEnd:   time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC),
			want:       false,
		},
		{
			name: "occurrence in range excluded by EXDATE",
			info: RecurrenceInfo{
				RRule:   "FREQ=DAILY;COUNT=7",
				ExDates: []time.Time{time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)},
			},
			rangeStart: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
			rangeEnd:   time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC),
			want:       false,
		},
		{
			name: "RDATE inside range",
			info: RecurrenceInfo{
				RDates: []time.Time{time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
			},
			rangeStart: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			rangeEnd:   time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
			want:       true,
		},
		{
			name: "master excluded by date-only EXDATE",
			info: RecurrenceInfo{
				ExDates: []time.Time{time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)},
			},
			rangeStart: time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
			rangeEnd:   time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC),
			want:       false,
		},
	}

	engine := NewEngine()
	defer engine.Close()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.HasOccurrenceInRange(masterStart, masterEnd, tt.info, tt.rangeStart, tt.rangeEnd)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHasOccurrenceInRange_InvalidRRule(t *testing.T) {
	engine := NewEngine()
	defer engine.Close()

	masterStart := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	_, err := engine.HasOccurrenceInRange(
		masterStart, masterStart.Add(time.Hour),
		RecurrenceInfo{RRule: "FREQ=BOGUS"},
		time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 2, 2, 0, 0, 0, 0, time.UTC),
	)
	assert.Error(t, err)
}

func TestExpandBetween_WeeklyWithExDate(t *testing.T) {
	engine := NewEngine()
	defer engine.Close()

	masterStart := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	masterEnd := masterStart.Add(30 * time.Minute)
	info := RecurrenceInfo{
		RRule:   "FREQ=WEEKLY;BYDAY=MO;COUNT=4",
		ExDates: []time.Time{time.Date(2025, 1, 13, 9, 0, 0, 0, time.UTC)},
	}

	got, err := engine.ExpandBetween(
		masterStart, masterEnd, info,
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	require.Len(t, got, 3)
	wantStarts := []time.Time{
		time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 20, 9, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 27, 9, 0, 0, 0, time.UTC),
	}
	for i, occ := range got {
		assert.True(t, occ.Start.Equal(wantStarts[i]), "occurrence %d start", i)
		assert.Equal(t, 30*time.Minute, occ.End.Sub(occ.Start))
		assert.True(t, occ.RecurrenceID.Equal(occ.Start))
	}
}

func TestExpandBetween_NoRecurrence(t *testing.T) {
	engine := NewEngine()
	defer engine.Close()

	masterStart := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	got, err := engine.ExpandBetween(
		masterStart, masterStart.Add(time.Hour), RecurrenceInfo{},
		time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Start.Equal(masterStart))
}

func TestExpandBetween_MaxOccurrencesCap(t *testing.T) {
	config := DefaultConfig
	config.CacheEnabled = false
	config.MaxOccurrences = 5
	engine := NewEngineWithConfig(config)
	defer engine.Close()

	masterStart := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	got, err := engine.ExpandBetween(
		masterStart, masterStart.Add(time.Hour),
		RecurrenceInfo{RRule: "FREQ=DAILY"},
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestNewEngineWithConfig_CacheEnabledOnly(t *testing.T) {
	engine := NewEngineWithConfig(Config{CacheEnabled: true})
	defer engine.Close()

	masterStart := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	got, err := engine.ExpandBetween(
		masterStart, masterStart.Add(time.Hour),
		RecurrenceInfo{RRule: "FREQ=DAILY;COUNT=3"},
		time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestExpandBetween_UsesCache(t *testing.T) {
	engine := NewEngine()
	defer engine.Close()

	masterStart := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	info := RecurrenceInfo{RRule: "FREQ=DAILY;COUNT=10"}
	rangeStart := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rangeEnd := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

	first, err := engine.ExpandBetween(masterStart, masterStart.Add(time.Hour), info, rangeStart, rangeEnd)
	require.NoError(t, err)
	require.Equal(t, 1, engine.cache.Len())

	second, err := engine.ExpandBetween(masterStart, masterStart.Add(time.Hour), info, rangeStart, rangeEnd)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, engine.cache.Len())
}

func TestIsExcluded(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	occurrence := time.Date(2025, 6, 10, 14, 0, 0, 0, loc)

	assert.True(t, isExcluded(occurrence, []time.Time{occurrence}))
	assert.True(t, isExcluded(occurrence, []time.Time{time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)}))
	assert.False(t, isExcluded(occurrence, []time.Time{time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)}))
	assert.False(t, isExcluded(occurrence, nil))
}
