package services

import (
	"strings"
	"time"

	"git.solsynth.dev/hypernet/janitor/pkg/internal/models"
)

// RetentionWindow is the resolved retention entitlement of a plan. Unlimited
// is its own case instead of a sentinel day count, so "never cleanup" can not
// be mistaken for a finite window.
type RetentionWindow struct {
	days      int
	unlimited bool
}

func WindowDays(days int) RetentionWindow {
	return RetentionWindow{days: days}
}

func WindowUnlimited() RetentionWindow {
	return RetentionWindow{unlimited: true}
}

func (w RetentionWindow) Unlimited() bool {
	return w.unlimited
}

// Days reports the window length, or -1 for unlimited.
func (w RetentionWindow) Days() int {
	if w.unlimited {
		return -1
	}
	return w.days
}

// Cutoff gives the oldest creation time an artifact may keep, or nil when the
// window never expires anything.
func (w RetentionWindow) Cutoff(now time.Time) *time.Time {
	if w.unlimited {
		return nil
	}
	cutoff := now.AddDate(0, 0, -w.days)
	return &cutoff
}

// PolicyResolver maps subscription plan tags to retention windows. It is a
// total function: plans it doesn't know resolve to the free window, which is
// the shortest one configured.
type PolicyResolver struct {
	windows RetentionWindows
}

func NewPolicyResolver(windows RetentionWindows) *PolicyResolver {
	return &PolicyResolver{windows: windows}
}

func (r *PolicyResolver) Resolve(plan string) RetentionWindow {
	switch strings.ToLower(plan) {
	case models.PlanBasic:
		return WindowDays(r.windows.BasicDays)
	case models.PlanPro:
		return WindowDays(r.windows.ProDays)
	case models.PlanEnterprise:
		return WindowUnlimited()
	default:
		return WindowDays(r.windows.FreeDays)
	}
}

// CutoffFor resolves the scan cutoff for one organization. A GDPR override
// ignores the entitlement entirely and puts every artifact in scope.
func (r *PolicyResolver) CutoffFor(plan string, now time.Time, gdprOverride bool) *time.Time {
	if gdprOverride {
		return &now
	}
	return r.Resolve(plan).Cutoff(now)
}
