package feeengine

import (
	"fmt"
	"strings"
)

// Result is the per-student reconciliation outcome.
//
// Collected counts verified transaction amounts dated inside the window.
// Pending counts pending amounts the same way; a pending transaction clears
// an obligation (it is "not due") but does not count as collected revenue
// until verified.
type Result struct {
	StudentID   string  `json:"student_id"`
	StudentName string  `json:"student_name"`
	ClassID     string  `json:"class_id"`
	ClassName   string  `json:"class_name"`
	Expected    float64 `json:"expected"`
	Collected   float64 `json:"collected"`
	Pending     float64 `json:"pending"`
	Due         float64 `json:"due"`

	Unpaid        []Obligation `json:"-"`
	UnpaidLabels  []string     `json:"unpaid_periods"`
	UnpaidSummary string       `json:"unpaid_summary"`
}

// Reconciler matches obligation instances against the payment index and
// carries pre-folded per-student collection sums for the window.
type Reconciler struct {
	index     *PaymentIndex
	collected map[string]float64
	pending   map[string]float64
}

// NewReconciler builds the payment index from every non-rejected transaction
// and folds verified/pending amounts per student for transactions dated
// inside the window. Obligation clearing deliberately ignores the transaction
// date: a March fee paid in July still clears March.
func NewReconciler(txns []Transaction, w Window) *Reconciler {
	r := &Reconciler{
		index:     BuildPaymentIndex(txns),
		collected: make(map[string]float64),
		pending:   make(map[string]float64),
	}
	for _, txn := range txns {
		if !w.ContainsDate(txn.PaidAt) {
			continue
		}
		switch txn.Status {
		case TxnVerified:
			r.collected[txn.StudentID] += txn.Amount
		case TxnPending:
			r.pending[txn.StudentID] += txn.Amount
		}
	}
	return r
}

// Index exposes the underlying payment index.
func (r *Reconciler) Index() *PaymentIndex {
	return r.index
}

// Reconcile computes the student's expected, collected, pending and due
// amounts for the given obligation instances, preserving the expander's
// ordering in the unpaid list.
func (r *Reconciler) Reconcile(stu Student, obligations []Obligation) Result {
	res := Result{
		StudentID:   stu.ID,
		StudentName: stu.Name,
		ClassID:     stu.ClassID,
		ClassName:   stu.ClassName,
		Collected:   r.collected[stu.ID],
		Pending:     r.pending[stu.ID],
	}
	for _, ob := range obligations {
		res.Expected += ob.Amount
		if r.index.HasPaid(stu.ID, ob.Period) {
			continue
		}
		res.Due += ob.Amount
		res.Unpaid = append(res.Unpaid, ob)
		res.UnpaidLabels = append(res.UnpaidLabels, ob.Label)
	}
	res.UnpaidSummary = SummarizeUnpaid(res.Unpaid)
	return res
}

// SummarizeUnpaid compresses an ordered unpaid list for display. Up to three
// entries are joined literally; longer lists collapse the monthly entries
// into a first-last range with a count and append short suffixes for unpaid
// periodic fees. The summary is purely presentational: amounts are never
// derived from it.
func SummarizeUnpaid(unpaid []Obligation) string {
	if len(unpaid) == 0 {
		return ""
	}
	labels := make([]string, 0, len(unpaid))
	for _, ob := range unpaid {
		labels = append(labels, ob.Label)
	}
	if len(labels) <= 3 {
		return strings.Join(labels, ", ")
	}

	var months []Obligation
	hasExam := false
	hasAdmission := false
	for _, ob := range unpaid {
		switch ob.Type {
		case FeeMonthly:
			months = append(months, ob)
		case FeeExamination:
			hasExam = true
		case FeeAdmission, FeeRegistration:
			hasAdmission = true
		}
	}
	if len(months) == 0 {
		return strings.Join(labels, ", ")
	}

	summary := fmt.Sprintf("%s - %s (%d Months)", months[0].Label, months[len(months)-1].Label, len(months))
	if hasExam {
		summary += " + Exam Fee"
	}
	if hasAdmission {
		summary += " + Adm. Fee"
	}
	return summary
}
