// Package residency implements the residency manager of spec.md section
// 4.F: the coordinate-indexed cache of resident chunks, the view-distance
// policy, admission budgeting, the autosave timer, and the adaptive
// maintenance scheduler.
package residency

import "time"

// AutosaveReason is a closed enumeration (spec.md section 9 "Tagged
// variants").
type AutosaveReason uint8

const (
	AutosaveTimer AutosaveReason = iota
	AutosaveManual
)

func (r AutosaveReason) String() string {
	if r == AutosaveManual {
		return "manual"
	}
	return "timer"
}

// AutosaveSummary reports the outcome of one autosave pass. Exactly one is
// produced per tick where the autosave accumulator crosses the configured
// interval — the reimplementation note in spec.md section 9 ("a
// reimplementation should emit exactly one summary per tick") is honored by
// routing every autosave through the single tickAutosave call site.
type AutosaveSummary struct {
	SavedCount int
	ErrorCount int
	Duration   time.Duration
	Reason     AutosaveReason
}

// UpdateResult reports what one Update call did, for the CLI's profile log
// and for tests.
type UpdateResult struct {
	Installed        int
	Evicted          int
	QueuedCandidates int
	Autosave         *AutosaveSummary
	BackupsRotated   []string
}
