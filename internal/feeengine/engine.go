// Package feeengine computes what each student owed, paid and still owes
// over an arbitrary reconciliation window. It is a pure batch computation
// over immutable in-memory snapshots: no I/O, no clock, no shared state, and
// no failure modes, since absent data degrades to zero values. Callers fetch the
// roster, the fee schedule and the transaction ledger, hand them over, and
// render the result.
package feeengine

import "time"

// Options tune engine behaviour.
type Options struct {
	// HonorEffectiveDates makes the schedule resolver ignore entries whose
	// effective-from date lies after the computation date. Off by default:
	// historically the latest-dated active entry always wins, letting
	// administrators pre-stage future fee changes.
	HonorEffectiveDates bool
	// TopUnpaidLimit caps the ranked unpaid list. Defaults to 10.
	TopUnpaidLimit int
}

// Engine is the reconciliation entry point shared by the dashboard report,
// the unpaid list and the export adapters.
type Engine struct {
	opts Options
}

// New constructs an Engine.
func New(opts Options) *Engine {
	if opts.TopUnpaidLimit <= 0 {
		opts.TopUnpaidLimit = 10
	}
	return &Engine{opts: opts}
}

// Inputs is the immutable snapshot one computation runs over. AsOf is the
// computation date used when HonorEffectiveDates is set; a zero AsOf falls
// back to the window end.
type Inputs struct {
	Window       Window
	AsOf         time.Time
	Students     []Student
	Schedule     []ScheduleEntry
	Transactions []Transaction
}

// Report runs the full pipeline: expand obligations per student, reconcile
// them against the ledger, and aggregate totals, trend, top unpaid and
// per-class rollups.
func (e *Engine) Report(in Inputs) Report {
	results := e.reconcileAll(in)
	return Aggregate(results, in.Transactions, in.Students, in.Window, e.opts.TopUnpaidLimit)
}

// UnpaidList runs the same core and returns the students that still owe,
// in roster order.
func (e *Engine) UnpaidList(in Inputs) []Result {
	results := e.reconcileAll(in)
	unpaid := make([]Result, 0, len(results))
	for _, res := range results {
		if res.Due > 0 {
			unpaid = append(unpaid, res)
		}
	}
	return unpaid
}

func (e *Engine) reconcileAll(in Inputs) []Result {
	asOf := in.AsOf
	if asOf.IsZero() {
		asOf = in.Window.End
	}
	sched := NewSchedule(in.Schedule, ScheduleOptions{
		HonorEffectiveDates: e.opts.HonorEffectiveDates,
		AsOf:                asOf,
	})
	rec := NewReconciler(in.Transactions, in.Window)

	results := make([]Result, 0, len(in.Students))
	for _, stu := range in.Students {
		obligations := ExpandObligations(stu, sched, in.Window)
		results = append(results, rec.Reconcile(stu, obligations))
	}
	return results
}
