package feeengine

import "sort"

// Totals are the headline figures of an aggregate report.
type Totals struct {
	Collected float64 `json:"collected"`
	Pending   float64 `json:"pending"`
	Expected  float64 `json:"expected"`
	Unpaid    float64 `json:"unpaid"`
}

// TrendPoint is one calendar month in the trend series. Collected and
// pending come strictly from transactions dated in the month; unpaid is the
// sum of unpaid obligations anchored to the month, wherever in the window
// the report runs.
type TrendPoint struct {
	Month     YearMonth `json:"month"`
	Label     string    `json:"label"`
	Collected float64   `json:"collected"`
	Pending   float64   `json:"pending"`
	Unpaid    float64   `json:"unpaid"`
}

// ClassCollection is the per-class rollup of transaction amounts.
type ClassCollection struct {
	ClassID   string  `json:"class_id"`
	ClassName string  `json:"class_name"`
	Collected float64 `json:"collected"`
	Pending   float64 `json:"pending"`
}

// Report is the full aggregate output of one reconciliation run.
type Report struct {
	Window    Window            `json:"window"`
	Totals    Totals            `json:"totals"`
	Trend     []TrendPoint      `json:"trend"`
	TopUnpaid []Result          `json:"top_unpaid"`
	Classes   []ClassCollection `json:"classes"`
}

// Aggregate folds per-student results and the raw transaction ledger into a
// report. Empty input aggregates to zeroes and empty series, never an error.
func Aggregate(results []Result, txns []Transaction, students []Student, w Window, topN int) Report {
	if topN <= 0 {
		topN = 10
	}
	report := Report{Window: w}

	for _, res := range results {
		report.Totals.Expected += res.Expected
		report.Totals.Unpaid += res.Due
	}

	months := w.Months()
	index := make(map[YearMonth]int, len(months))
	report.Trend = make([]TrendPoint, len(months))
	for i, ym := range months {
		report.Trend[i] = TrendPoint{Month: ym, Label: ym.Label()}
		index[ym] = i
	}

	studentsByID := make(map[string]Student, len(students))
	for _, stu := range students {
		studentsByID[stu.ID] = stu
	}

	classTotals := make(map[string]*ClassCollection)
	for _, txn := range txns {
		if !w.ContainsDate(txn.PaidAt) {
			continue
		}
		var point *TrendPoint
		if i, ok := index[MonthOf(txn.PaidAt)]; ok {
			point = &report.Trend[i]
		}
		stu, known := studentsByID[txn.StudentID]
		var class *ClassCollection
		if known {
			class = classTotals[stu.ClassID]
			if class == nil {
				class = &ClassCollection{ClassID: stu.ClassID, ClassName: stu.ClassName}
				classTotals[stu.ClassID] = class
			}
		}
		switch txn.Status {
		case TxnVerified:
			report.Totals.Collected += txn.Amount
			if point != nil {
				point.Collected += txn.Amount
			}
			if class != nil {
				class.Collected += txn.Amount
			}
		case TxnPending:
			report.Totals.Pending += txn.Amount
			if point != nil {
				point.Pending += txn.Amount
			}
			if class != nil {
				class.Pending += txn.Amount
			}
		}
	}

	for _, res := range results {
		for _, ob := range res.Unpaid {
			if i, ok := index[ob.AnchorMonth]; ok {
				report.Trend[i].Unpaid += ob.Amount
			}
		}
	}

	report.TopUnpaid = topUnpaid(results, topN)

	report.Classes = make([]ClassCollection, 0, len(classTotals))
	for _, class := range classTotals {
		report.Classes = append(report.Classes, *class)
	}
	sort.SliceStable(report.Classes, func(i, j int) bool {
		if report.Classes[i].Collected != report.Classes[j].Collected {
			return report.Classes[i].Collected > report.Classes[j].Collected
		}
		return report.Classes[i].ClassName < report.Classes[j].ClassName
	})

	return report
}

func topUnpaid(results []Result, limit int) []Result {
	ranked := make([]Result, 0, len(results))
	for _, res := range results {
		if res.Due > 0 {
			ranked = append(ranked, res)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Due > ranked[j].Due
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
