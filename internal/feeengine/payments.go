package feeengine

import "time"

// TransactionStatus mirrors the ledger's verification states.
type TransactionStatus string

const (
	TxnPending  TransactionStatus = "PENDING"
	TxnVerified TransactionStatus = "VERIFIED"
	TxnRejected TransactionStatus = "REJECTED"
)

// Transaction is the engine's read-only view of a fee ledger row.
type Transaction struct {
	StudentID string
	Type      FeeType
	Month     time.Month // meaningful for monthly fees only
	Year      int
	Amount    float64
	Status    TransactionStatus
	PaidAt    time.Time
}

// PeriodKey derives the payment-period identity of the transaction using the
// same scheme the obligation expander uses. The month participates only for
// monthly fees; any recorded month on a periodic transaction is ignored so
// that both sides of the match normalise identically.
func (t Transaction) PeriodKey() PeriodKey {
	if t.Type == FeeMonthly {
		return PeriodKey{Type: FeeMonthly, Month: t.Month, Year: t.Year}
	}
	return PeriodKey{Type: t.Type, Year: t.Year}
}

type paymentKey struct {
	studentID string
	period    PeriodKey
}

// PaymentIndex answers "has this student paid this period" in O(1).
// Pending and verified transactions both clear an obligation; rejected
// transactions are treated as if they never happened.
type PaymentIndex struct {
	paid map[paymentKey]struct{}
}

// BuildPaymentIndex indexes the given transactions by payment period.
func BuildPaymentIndex(txns []Transaction) *PaymentIndex {
	paid := make(map[paymentKey]struct{}, len(txns))
	for _, txn := range txns {
		if txn.Status == TxnRejected {
			continue
		}
		paid[paymentKey{studentID: txn.StudentID, period: txn.PeriodKey()}] = struct{}{}
	}
	return &PaymentIndex{paid: paid}
}

// HasPaid reports whether a pending or verified transaction covers the
// student's payment period.
func (idx *PaymentIndex) HasPaid(studentID string, period PeriodKey) bool {
	_, ok := idx.paid[paymentKey{studentID: studentID, period: period}]
	return ok
}
