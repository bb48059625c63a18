// Package config holds the difficulty-driven tunables the residency manager
// and frame composer read on every call, modeled on the teacher's
// internal/config/config.go global-settings-with-clamped-setters pattern but
// keyed by Difficulty instead of a single global render distance.
package config

import "fmt"

// Difficulty is a closed enumeration (spec.md section 9 "Tagged variants").
type Difficulty uint8

const (
	Peaceful Difficulty = iota
	Easy
	Normal
	Hard
)

func (d Difficulty) String() string {
	switch d {
	case Peaceful:
		return "peaceful"
	case Easy:
		return "easy"
	case Normal:
		return "normal"
	case Hard:
		return "hard"
	default:
		return "unknown"
	}
}

// ParseDifficulty parses a --difficulty flag value.
func ParseDifficulty(s string) (Difficulty, error) {
	switch s {
	case "peaceful":
		return Peaceful, nil
	case "easy":
		return Easy, nil
	case "normal":
		return Normal, nil
	case "hard":
		return Hard, nil
	default:
		return Normal, fmt.Errorf("config: unknown difficulty %q", s)
	}
}

// viewDistances and admissionBudgets are the per-difficulty tables from
// spec.md section 6: view distance 6/8/10/12, admission budget 3..6.
var viewDistances = [...]int{Peaceful: 6, Easy: 8, Normal: 10, Hard: 12}
var admissionBudgets = [...]int{Peaceful: 3, Easy: 4, Normal: 5, Hard: 6}

// ViewDistance returns the L-infinity chunk radius for a difficulty.
func (d Difficulty) ViewDistance() int {
	if int(d) >= len(viewDistances) {
		return viewDistances[Normal]
	}
	return viewDistances[d]
}

// AdmissionBudget returns max_chunks_per_frame for a difficulty.
func (d Difficulty) AdmissionBudget() int {
	if int(d) >= len(admissionBudgets) {
		return admissionBudgets[Normal]
	}
	return admissionBudgets[d]
}

// WorldOptions holds the mutable, persisted per-world settings (spec.md
// section 3 "World metadata"). All setters clamp to sane ranges, mirroring
// the teacher's SetRenderDistance/SetFPSLimit discipline.
type WorldOptions struct {
	Difficulty          Difficulty
	Description         string
	AutosaveInterval    int // seconds
	BackupRetention     int // number of rotated backups kept
	MaintenanceInterval int // seconds between adaptive maintenance passes
}

// DefaultWorldOptions returns the settings a newly created world starts with.
func DefaultWorldOptions() WorldOptions {
	return WorldOptions{
		Difficulty:          Normal,
		Description:         "",
		AutosaveInterval:    120,
		BackupRetention:     3,
		MaintenanceInterval: 300,
	}
}

// SetAutosaveInterval clamps to 0 (disabled) or [10, 3600] seconds: any
// positive value below 10 is raised to the 10-second floor, but 0 and below
// pass through as 0 so autosave can be turned off entirely (spec.md section 3).
func (o *WorldOptions) SetAutosaveInterval(seconds int) {
	if seconds <= 0 {
		o.AutosaveInterval = 0
		return
	}
	if seconds < 10 {
		seconds = 10
	}
	if seconds > 3600 {
		seconds = 3600
	}
	o.AutosaveInterval = seconds
}

// SetBackupRetention clamps to [0, 20] rotated backups.
func (o *WorldOptions) SetBackupRetention(n int) {
	if n < 0 {
		n = 0
	}
	if n > 20 {
		n = 20
	}
	o.BackupRetention = n
}

// SetDifficulty updates the difficulty, which in turn changes the effective
// view distance and admission budget the residency manager reads.
func (o *WorldOptions) SetDifficulty(d Difficulty) {
	o.Difficulty = d
}

// SetDescription sets the free-text world description.
func (o *WorldOptions) SetDescription(desc string) {
	o.Description = desc
}

// ResetSettings restores every tunable to its default, preserving nothing
// but leaving difficulty at Normal (the safest default for a reset world).
func (o *WorldOptions) ResetSettings() {
	*o = DefaultWorldOptions()
}
