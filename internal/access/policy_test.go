package access

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/propdesk/portal/internal/models"
)

func TestModuleUnlockedImmediate(t *testing.T) {
	granted := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	m := models.Module{ImmediateAccess: true, ReleaseAfterDays: intPtr(90)}

	require.True(t, ModuleUnlocked(m, granted, granted.Add(-time.Hour)))
	require.True(t, ModuleUnlocked(m, granted, granted))
	require.True(t, ModuleUnlocked(m, granted, granted.AddDate(0, 0, 365)))
}

func TestModuleUnlockedDelayed(t *testing.T) {
	granted := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m := models.Module{ImmediateAccess: false, ReleaseAfterDays: intPtr(14)}

	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"at grant", granted, false},
		{"day 13", granted.AddDate(0, 0, 13), false},
		{"one second before", granted.AddDate(0, 0, 14).Add(-time.Second), false},
		{"boundary exact", granted.AddDate(0, 0, 14), true},
		{"one second after", granted.AddDate(0, 0, 14).Add(time.Second), true},
		{"day 30", granted.AddDate(0, 0, 30), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ModuleUnlocked(m, granted, tc.now))
		})
	}
}

func TestModuleUnlockedZeroDays(t *testing.T) {
	granted := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m := models.Module{ReleaseAfterDays: intPtr(0)}

	require.True(t, ModuleUnlocked(m, granted, granted))
	require.False(t, ModuleUnlocked(m, granted, granted.Add(-time.Minute)))
}

func TestModuleUnlockedNoOffsetPermanentlyLocked(t *testing.T) {
	granted := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m := models.Module{ImmediateAccess: false, ReleaseAfterDays: nil}

	require.False(t, ModuleUnlocked(m, granted, granted))
	require.False(t, ModuleUnlocked(m, granted, granted.AddDate(10, 0, 0)))
}

func TestReleaseDate(t *testing.T) {
	granted := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.Nil(t, ReleaseDate(granted, nil))

	got := ReleaseDate(granted, intPtr(14))
	require.NotNil(t, got)
	require.Equal(t, time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC), *got)
}

func TestReleaseDateCrossesMonth(t *testing.T) {
	granted := time.Date(2025, 1, 25, 8, 30, 0, 0, time.UTC)

	got := ReleaseDate(granted, intPtr(10))
	require.NotNil(t, got)
	require.Equal(t, time.Date(2025, 2, 4, 8, 30, 0, 0, time.UTC), *got)
}
