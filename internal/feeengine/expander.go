package feeengine

import (
	"fmt"
	"time"
)

// Student is the engine's read-only view of a learner. AdmittedAt bounds
// eligibility: no obligation accrues for periods before the admission month.
type Student struct {
	ID         string
	Name       string
	ClassID    string
	ClassName  string
	AdmittedAt time.Time
}

// PeriodKey is the identity matching an obligation to a transaction.
// Monthly obligations carry month and year; periodic obligations
// (examination, admission, registration) carry the year only, since at most
// one such obligation exists per student per year.
type PeriodKey struct {
	Type  FeeType
	Month time.Month
	Year  int
}

// Obligation is one concrete, dated amount a student is expected to pay.
type Obligation struct {
	StudentID string
	Type      FeeType
	Period    PeriodKey
	// AnchorMonth is the calendar month the obligation belongs to: the fee
	// month for monthly fees, the schedule anchor for examination fees and
	// the admission month for admission/registration fees. Trend reporting
	// re-attributes unpaid amounts to this month.
	AnchorMonth YearMonth
	Amount      float64
	Label       string
}

// ExpandObligations produces every obligation the student owes inside the
// window, in presentation order: monthly fees chronologically, then the
// examination fee, then the admission/registration fee. An inverted window
// or a class with no schedule entries expands to nothing.
func ExpandObligations(stu Student, sched *Schedule, w Window) []Obligation {
	if w.Empty() {
		return nil
	}

	admission := MonthOf(stu.AdmittedAt)
	var obligations []Obligation

	if rate, ok := sched.Resolve(stu.ClassID, FeeMonthly); ok {
		first := MonthOf(w.Start)
		if admission.After(first) {
			first = admission
		}
		last := MonthOf(w.End)
		for ym := first; !ym.After(last); ym = ym.Next() {
			obligations = append(obligations, Obligation{
				StudentID:   stu.ID,
				Type:        FeeMonthly,
				Period:      PeriodKey{Type: FeeMonthly, Month: ym.Month, Year: ym.Year},
				AnchorMonth: ym,
				Amount:      rate.Amount,
				Label:       ym.Label(),
			})
		}
	}

	if rate, ok := sched.Resolve(stu.ClassID, FeeExamination); ok {
		anchor := MonthOf(rate.Anchor)
		if w.ContainsMonth(anchor) && !admission.After(anchor) {
			obligations = append(obligations, Obligation{
				StudentID:   stu.ID,
				Type:        FeeExamination,
				Period:      PeriodKey{Type: FeeExamination, Year: anchor.Year},
				AnchorMonth: anchor,
				Amount:      rate.Amount,
				Label:       fmt.Sprintf("Exam Fee (%s)", anchor.Month.String()[:3]),
			})
		}
	}

	if w.ContainsMonth(admission) {
		if rate, ok := sched.Resolve(stu.ClassID, FeeAdmission); ok {
			obligations = append(obligations, Obligation{
				StudentID:   stu.ID,
				Type:        FeeAdmission,
				Period:      PeriodKey{Type: FeeAdmission, Year: admission.Year},
				AnchorMonth: admission,
				Amount:      rate.Amount,
				Label:       "Admission Fee",
			})
		}
		if rate, ok := sched.Resolve(stu.ClassID, FeeRegistration); ok {
			obligations = append(obligations, Obligation{
				StudentID:   stu.ID,
				Type:        FeeRegistration,
				Period:      PeriodKey{Type: FeeRegistration, Year: admission.Year},
				AnchorMonth: admission,
				Amount:      rate.Amount,
				Label:       "Registration Fee",
			})
		}
	}

	return obligations
}
