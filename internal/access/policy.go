package access

import (
	"time"

	"github.com/propdesk/portal/internal/models"
)

// ModuleUnlocked reports whether a module's drip window has opened for a user
// whose access was granted at grantedAt. Immediate-access modules are always
// open. A module with no release offset and no immediate access never opens.
// The offset is calendar-day addition, inclusive at the boundary: a module
// released after N days opens the moment grantedAt plus N days is reached.
func ModuleUnlocked(m models.Module, grantedAt, now time.Time) bool {
	if m.ImmediateAccess {
		return true
	}
	if m.ReleaseAfterDays == nil {
		return false
	}
	return !now.Before(grantedAt.AddDate(0, 0, *m.ReleaseAfterDays))
}

// ReleaseDate returns the date a delayed module unlocks, for display. Nil when
// there is no release offset.
func ReleaseDate(grantedAt time.Time, releaseAfterDays *int) *time.Time {
	if releaseAfterDays == nil {
		return nil
	}
	t := grantedAt.AddDate(0, 0, *releaseAfterDays)
	return &t
}
