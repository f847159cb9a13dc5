package feeengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchedule() *Schedule {
	return NewSchedule([]ScheduleEntry{
		{ClassID: "class-1", Type: FeeMonthly, Amount: 1000, EffectiveFrom: date(2023, time.April, 1)},
		{ClassID: "class-1", Type: FeeExamination, Amount: 500, EffectiveFrom: date(2024, time.April, 1)},
		{ClassID: "class-1", Type: FeeAdmission, Amount: 2000, EffectiveFrom: date(2023, time.April, 1)},
	}, ScheduleOptions{})
}

func midWindowStudent() Student {
	return Student{ID: "stu-1", Name: "Asha", ClassID: "class-1", ClassName: "Class 1", AdmittedAt: date(2024, time.March, 15)}
}

func TestExpandMonthlyStartsAtAdmissionMonth(t *testing.T) {
	w := Window{Start: date(2024, time.January, 1), End: date(2024, time.June, 30)}
	obligations := ExpandObligations(midWindowStudent(), testSchedule(), w)

	var monthly []Obligation
	for _, ob := range obligations {
		if ob.Type == FeeMonthly {
			monthly = append(monthly, ob)
		}
	}
	require.Len(t, monthly, 4)
	assert.Equal(t, "Mar 2024", monthly[0].Label)
	assert.Equal(t, "Jun 2024", monthly[3].Label)
	for _, ob := range monthly {
		assert.False(t, ob.AnchorMonth.Before(YearMonth{Year: 2024, Month: time.March}), "no obligation before admission month")
		assert.True(t, w.ContainsMonth(ob.AnchorMonth), "no obligation outside the window")
		assert.Equal(t, 1000.0, ob.Amount)
	}
}

func TestExpandOrderingMonthlyThenExamThenAdmission(t *testing.T) {
	w := Window{Start: date(2024, time.January, 1), End: date(2024, time.June, 30)}
	obligations := ExpandObligations(midWindowStudent(), testSchedule(), w)

	require.Len(t, obligations, 6)
	types := make([]FeeType, 0, len(obligations))
	for _, ob := range obligations {
		types = append(types, ob.Type)
	}
	assert.Equal(t, []FeeType{FeeMonthly, FeeMonthly, FeeMonthly, FeeMonthly, FeeExamination, FeeAdmission}, types)
}

func TestExpandExamRequiresAnchorInWindowAndEligibility(t *testing.T) {
	sched := testSchedule()

	// Window ends before the April anchor: no exam obligation.
	early := Window{Start: date(2024, time.January, 1), End: date(2024, time.March, 31)}
	for _, ob := range ExpandObligations(midWindowStudent(), sched, early) {
		assert.NotEqual(t, FeeExamination, ob.Type)
	}

	// Student admitted after the anchor month owes no exam fee.
	late := Student{ID: "stu-2", ClassID: "class-1", AdmittedAt: date(2024, time.May, 10)}
	w := Window{Start: date(2024, time.January, 1), End: date(2024, time.June, 30)}
	for _, ob := range ExpandObligations(late, sched, w) {
		assert.NotEqual(t, FeeExamination, ob.Type)
	}
}

func TestExpandAdmissionOnlyWhenAdmittedInWindow(t *testing.T) {
	sched := testSchedule()
	w := Window{Start: date(2024, time.January, 1), End: date(2024, time.June, 30)}

	older := Student{ID: "stu-3", ClassID: "class-1", AdmittedAt: date(2023, time.June, 1)}
	for _, ob := range ExpandObligations(older, sched, w) {
		assert.NotEqual(t, FeeAdmission, ob.Type)
	}

	var admission []Obligation
	for _, ob := range ExpandObligations(midWindowStudent(), sched, w) {
		if ob.Type == FeeAdmission {
			admission = append(admission, ob)
		}
	}
	require.Len(t, admission, 1)
	assert.Equal(t, 2000.0, admission[0].Amount)
	assert.Equal(t, "Admission Fee", admission[0].Label)
	assert.Equal(t, YearMonth{Year: 2024, Month: time.March}, admission[0].AnchorMonth)
}

func TestExpandInvertedWindowYieldsNothing(t *testing.T) {
	w := Window{Start: date(2024, time.June, 1), End: date(2024, time.January, 1)}
	assert.Empty(t, ExpandObligations(midWindowStudent(), testSchedule(), w))
}

func TestExpandNoMonthlyEntryNoMonthlyInstances(t *testing.T) {
	sched := NewSchedule([]ScheduleEntry{
		{ClassID: "class-1", Type: FeeAdmission, Amount: 2000, EffectiveFrom: date(2023, time.April, 1)},
	}, ScheduleOptions{})
	w := Window{Start: date(2024, time.January, 1), End: date(2024, time.June, 30)}

	obligations := ExpandObligations(midWindowStudent(), sched, w)
	require.Len(t, obligations, 1)
	assert.Equal(t, FeeAdmission, obligations[0].Type)
}
