package feeengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleLatestEntryWins(t *testing.T) {
	sched := NewSchedule([]ScheduleEntry{
		{ClassID: "class-1", Type: FeeMonthly, Amount: 800, EffectiveFrom: date(2023, time.April, 1)},
		{ClassID: "class-1", Type: FeeMonthly, Amount: 1000, EffectiveFrom: date(2024, time.April, 1)},
		{ClassID: "class-2", Type: FeeMonthly, Amount: 1200, EffectiveFrom: date(2024, time.January, 1)},
	}, ScheduleOptions{})

	rate, ok := sched.Resolve("class-1", FeeMonthly)
	require.True(t, ok)
	assert.Equal(t, 1000.0, rate.Amount)
	assert.Equal(t, date(2024, time.April, 1), rate.Anchor)
	assert.Equal(t, 1200.0, sched.Amount("class-2", FeeMonthly))
}

func TestScheduleMissingEntryIsZeroNotError(t *testing.T) {
	sched := NewSchedule(nil, ScheduleOptions{})
	_, ok := sched.Resolve("class-1", FeeExamination)
	assert.False(t, ok)
	assert.Zero(t, sched.Amount("class-1", FeeExamination))
}

func TestScheduleFutureEntryWinsByDefault(t *testing.T) {
	entries := []ScheduleEntry{
		{ClassID: "class-1", Type: FeeMonthly, Amount: 1000, EffectiveFrom: date(2024, time.January, 1)},
		{ClassID: "class-1", Type: FeeMonthly, Amount: 1500, EffectiveFrom: date(2025, time.January, 1)},
	}

	sched := NewSchedule(entries, ScheduleOptions{})
	assert.Equal(t, 1500.0, sched.Amount("class-1", FeeMonthly))
}

func TestScheduleHonorEffectiveDates(t *testing.T) {
	entries := []ScheduleEntry{
		{ClassID: "class-1", Type: FeeMonthly, Amount: 1000, EffectiveFrom: date(2024, time.January, 1)},
		{ClassID: "class-1", Type: FeeMonthly, Amount: 1500, EffectiveFrom: date(2025, time.January, 1)},
	}

	sched := NewSchedule(entries, ScheduleOptions{HonorEffectiveDates: true, AsOf: date(2024, time.June, 30)})
	assert.Equal(t, 1000.0, sched.Amount("class-1", FeeMonthly))

	all := NewSchedule(entries, ScheduleOptions{HonorEffectiveDates: true, AsOf: date(2025, time.February, 1)})
	assert.Equal(t, 1500.0, all.Amount("class-1", FeeMonthly))
}
