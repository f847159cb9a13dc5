package feeengine

import "time"

// FeeType enumerates the obligation shapes the engine understands.
type FeeType string

const (
	FeeMonthly      FeeType = "MONTHLY"
	FeeExamination  FeeType = "EXAM"
	FeeAdmission    FeeType = "ADMISSION"
	FeeRegistration FeeType = "REGISTRATION"
)

// ScheduleEntry is one active fee-schedule row as fetched by the caller.
// The engine never sees inactive rows; filtering is the caller's job.
type ScheduleEntry struct {
	ClassID       string
	Type          FeeType
	Amount        float64
	EffectiveFrom time.Time
}

// Rate is a resolved fee amount together with the schedule date anchoring
// periodic occurrences (examination fees key off this anchor).
type Rate struct {
	Amount float64
	Anchor time.Time
}

type scheduleKey struct {
	classID string
	feeType FeeType
}

// ScheduleOptions tune resolution behaviour.
type ScheduleOptions struct {
	// HonorEffectiveDates restricts resolution to entries whose
	// effective-from date is on or before AsOf. The default (false)
	// matches historical behaviour: the latest-dated active entry wins
	// even when its effective date lies in the future, which lets
	// administrators pre-stage fee changes.
	HonorEffectiveDates bool
	AsOf                time.Time
}

// Schedule resolves the applicable fee per (class, fee type). Resolution is
// pure and total: a missing entry is a valid zero result, never an error.
type Schedule struct {
	rates map[scheduleKey]Rate
}

// NewSchedule indexes the given entries, keeping the entry with the latest
// effective-from date for every (class, fee type) pair.
func NewSchedule(entries []ScheduleEntry, opts ScheduleOptions) *Schedule {
	rates := make(map[scheduleKey]Rate, len(entries))
	effective := make(map[scheduleKey]time.Time, len(entries))
	for _, entry := range entries {
		if opts.HonorEffectiveDates && !opts.AsOf.IsZero() && entry.EffectiveFrom.After(opts.AsOf) {
			continue
		}
		key := scheduleKey{classID: entry.ClassID, feeType: entry.Type}
		if current, ok := effective[key]; ok && !entry.EffectiveFrom.After(current) {
			continue
		}
		effective[key] = entry.EffectiveFrom
		rates[key] = Rate{Amount: entry.Amount, Anchor: entry.EffectiveFrom}
	}
	return &Schedule{rates: rates}
}

// Resolve returns the applicable rate for the class and fee type. The second
// return value is false when no active entry exists, which callers must treat
// as "no obligation of this type for this class".
func (s *Schedule) Resolve(classID string, feeType FeeType) (Rate, bool) {
	rate, ok := s.rates[scheduleKey{classID: classID, feeType: feeType}]
	return rate, ok
}

// Amount returns the resolved amount, or zero when no entry exists.
func (s *Schedule) Amount(classID string, feeType FeeType) float64 {
	rate, _ := s.Resolve(classID, feeType)
	return rate.Amount
}
