package domain

import (
	"encoding/json"
	"strconv"
)

// JobStatus is the execution state of a queue entry
type JobStatus string

// Job status constants
const (
	JobStatusPending JobStatus = "pending"
	JobStatusDone    JobStatus = "done"
)

const (
	// InfiniteCopies marks a job that repeats until removed by the user.
	InfiniteCopies = -1

	DefaultCopies       = 1
	DefaultCooldownTemp = 30
	UnknownJobName      = "Unknown"
)

// JobRecord is a single entry of the print queue
type JobRecord struct {
	Name          string    `json:"name" validate:"required"`
	SourceFile    string    `json:"source_file" validate:"required"`
	Copies        int       `json:"copies" validate:"min=-1,ne=0"`
	UseSweep      *bool     `json:"use_sweep,omitempty"`
	UseCooldown   bool      `json:"use_cooldown"`
	CooldownTemp  *int      `json:"cooldown_temp,omitempty"`
	Status        JobStatus `json:"status"`
	TargetSerial  string    `json:"target_serial,omitempty"`
	UseAMS        *bool     `json:"use_ams,omitempty"`
	GeneratedFile string    `json:"generated_file,omitempty"`
}

// LibraryJob is a reusable job template. Library entries are never executed
// directly; they are cloned into the queue first.
type LibraryJob struct {
	JobRecord
	Thumbnail json.RawMessage `json:"thumbnail,omitempty"`
}

// Normalize substitutes the documented default for every field that was
// absent in storage. It is the only place defaults are applied.
func (j *JobRecord) Normalize() {
	if j.Copies == 0 {
		j.Copies = DefaultCopies
	}
	if j.CooldownTemp == nil {
		j.CooldownTemp = Int(DefaultCooldownTemp)
	}
	if j.Status == "" {
		j.Status = JobStatusPending
	}
}

// IsInfinite reports whether the job repeats indefinitely.
func (j JobRecord) IsInfinite() bool {
	return j.Copies == InfiniteCopies
}

// EffectiveCopies is the copy count used for a single execution attempt.
// Infinite jobs run one cycle per invocation.
func (j JobRecord) EffectiveCopies() int {
	if j.IsInfinite() {
		return 1
	}
	return j.Copies
}

// Sweep reports whether finished prints are pushed off the bed. Defaults to true.
func (j JobRecord) Sweep() bool {
	return j.UseSweep == nil || *j.UseSweep
}

// AMS reports whether the automated material system is used. Defaults to true.
func (j JobRecord) AMS() bool {
	return j.UseAMS == nil || *j.UseAMS
}

// Cooldown returns the bed temperature to wait for after each print.
// Defaults to 30.
func (j JobRecord) Cooldown() int {
	if j.CooldownTemp == nil {
		return DefaultCooldownTemp
	}
	return *j.CooldownTemp
}

// DisplayName returns the job name, or a placeholder for unnamed records.
func (j JobRecord) DisplayName() string {
	if j.Name == "" {
		return UnknownJobName
	}
	return j.Name
}

// CopiesLabel renders the copy count the way listings show it.
func (j JobRecord) CopiesLabel() string {
	return CopiesLabel(j.Copies)
}

// CopiesLabel renders a copy count, using ∞ for infinite jobs.
func CopiesLabel(copies int) string {
	if copies == InfiniteCopies {
		return "∞"
	}
	return strconv.Itoa(copies)
}

// Bool returns a pointer to b, for optional record fields.
func Bool(b bool) *bool {
	return &b
}

// Int returns a pointer to n, for optional record fields.
func Int(n int) *int {
	return &n
}

// Copy returns a deep copy so optional fields are not shared between records.
func (j JobRecord) Copy() JobRecord {
	if j.UseSweep != nil {
		j.UseSweep = Bool(*j.UseSweep)
	}
	if j.UseAMS != nil {
		j.UseAMS = Bool(*j.UseAMS)
	}
	if j.CooldownTemp != nil {
		j.CooldownTemp = Int(*j.CooldownTemp)
	}
	return j
}
