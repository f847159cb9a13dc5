package feeengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentIndexKeySymmetry(t *testing.T) {
	// Every obligation's period key must round-trip through a transaction
	// recorded with the same (type, month, year).
	w := Window{Start: date(2024, time.January, 1), End: date(2024, time.June, 30)}
	obligations := ExpandObligations(midWindowStudent(), testSchedule(), w)
	require.NotEmpty(t, obligations)

	txns := make([]Transaction, 0, len(obligations))
	for _, ob := range obligations {
		txns = append(txns, Transaction{
			StudentID: ob.StudentID,
			Type:      ob.Type,
			Month:     ob.Period.Month,
			Year:      ob.Period.Year,
			Amount:    ob.Amount,
			Status:    TxnVerified,
			PaidAt:    date(2024, time.June, 1),
		})
	}
	idx := BuildPaymentIndex(txns)
	for _, ob := range obligations {
		assert.True(t, idx.HasPaid(ob.StudentID, ob.Period), "obligation %s should be cleared", ob.Label)
	}
}

func TestPaymentIndexIgnoresMonthOnPeriodicTypes(t *testing.T) {
	// A recorded month on an exam transaction must not break matching:
	// periodic identity is year only.
	txn := Transaction{StudentID: "stu-1", Type: FeeExamination, Month: time.April, Year: 2024, Status: TxnPending}
	idx := BuildPaymentIndex([]Transaction{txn})
	assert.True(t, idx.HasPaid("stu-1", PeriodKey{Type: FeeExamination, Year: 2024}))
}

func TestPaymentIndexRejectedNeverClears(t *testing.T) {
	txn := Transaction{StudentID: "stu-1", Type: FeeMonthly, Month: time.March, Year: 2024, Status: TxnRejected}
	idx := BuildPaymentIndex([]Transaction{txn})
	assert.False(t, idx.HasPaid("stu-1", PeriodKey{Type: FeeMonthly, Month: time.March, Year: 2024}))
}

func TestPaymentIndexDistinguishesStudentsAndPeriods(t *testing.T) {
	idx := BuildPaymentIndex([]Transaction{
		{StudentID: "stu-1", Type: FeeMonthly, Month: time.March, Year: 2024, Status: TxnVerified},
	})
	assert.True(t, idx.HasPaid("stu-1", PeriodKey{Type: FeeMonthly, Month: time.March, Year: 2024}))
	assert.False(t, idx.HasPaid("stu-2", PeriodKey{Type: FeeMonthly, Month: time.March, Year: 2024}))
	assert.False(t, idx.HasPaid("stu-1", PeriodKey{Type: FeeMonthly, Month: time.April, Year: 2024}))
	assert.False(t, idx.HasPaid("stu-1", PeriodKey{Type: FeeMonthly, Month: time.March, Year: 2023}))
}
