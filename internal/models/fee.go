package models

import "time"

// FeeType values stored on schedule entries and transactions. They map
// one-to-one onto the engine's obligation shapes.
const (
	FeeTypeMonthly      = "MONTHLY"
	FeeTypeExamination  = "EXAM"
	FeeTypeAdmission    = "ADMISSION"
	FeeTypeRegistration = "REGISTRATION"
)

// Fee transaction verification states. Only pending and verified
// transactions clear obligations; rejected rows are dead weight.
const (
	FeeTxnPending  = "PENDING"
	FeeTxnVerified = "VERIFIED"
	FeeTxnRejected = "REJECTED"
)

// FeeScheduleEntry is one row of the per-class fee schedule. Several rows
// may exist per (class, type) forming the fee history; only active rows are
// ever fetched for reconciliation.
type FeeScheduleEntry struct {
	ID            string    `db:"id" json:"id"`
	ClassID       string    `db:"class_id" json:"class_id"`
	FeeType       string    `db:"fee_type" json:"fee_type"`
	Amount        float64   `db:"amount" json:"amount"`
	EffectiveFrom time.Time `db:"effective_from" json:"effective_from"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// FeeTransaction is one row of the payment ledger, consumed read-only.
// Month is null except for monthly fees.
type FeeTransaction struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	FeeType   string    `db:"fee_type" json:"fee_type"`
	Month     *int      `db:"month" json:"month,omitempty"`
	Year      int       `db:"year" json:"year"`
	Amount    float64   `db:"amount" json:"amount"`
	Status    string    `db:"status" json:"status"`
	ReceiptNo string    `db:"receipt_no" json:"receipt_no"`
	PaidAt    time.Time `db:"paid_at" json:"paid_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// FeeTransactionFilter restricts ledger reads for a reconciliation run.
type FeeTransactionFilter struct {
	Years   []int
	ClassID string
}
