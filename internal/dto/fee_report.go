package dto

// FeeReportResponse is the aggregate reconciliation payload for the
// dashboard report endpoint.
type FeeReportResponse struct {
	From      string                  `json:"from"`
	To        string                  `json:"to"`
	Totals    FeeTotals               `json:"totals"`
	Trend     []TrendPoint            `json:"trend"`
	TopUnpaid []StudentReconciliation `json:"top_unpaid"`
	Classes   []ClassCollection       `json:"classes"`
}

// FeeTotals are the headline figures across the window.
type FeeTotals struct {
	Collected float64 `json:"collected"`
	Pending   float64 `json:"pending"`
	Expected  float64 `json:"expected"`
	Unpaid    float64 `json:"unpaid"`
}

// TrendPoint is one calendar month of the collection trend.
type TrendPoint struct {
	Month     string  `json:"month"`
	Collected float64 `json:"collected"`
	Pending   float64 `json:"pending"`
	Unpaid    float64 `json:"unpaid"`
}

// StudentReconciliation is one student's balance over the window.
type StudentReconciliation struct {
	StudentID     string   `json:"student_id"`
	NIS           string   `json:"nis,omitempty"`
	StudentName   string   `json:"student_name"`
	ClassID       string   `json:"class_id"`
	ClassName     string   `json:"class_name"`
	Expected      float64  `json:"expected"`
	Collected     float64  `json:"collected"`
	Pending       float64  `json:"pending"`
	Due           float64  `json:"due"`
	UnpaidPeriods []string `json:"unpaid_periods"`
	UnpaidSummary string   `json:"unpaid_summary"`
}

// ClassCollection is one class's transaction rollup.
type ClassCollection struct {
	ClassID   string  `json:"class_id"`
	ClassName string  `json:"class_name"`
	Collected float64 `json:"collected"`
	Pending   float64 `json:"pending"`
}

// UnpaidListResponse enumerates students that still owe inside the window.
type UnpaidListResponse struct {
	From     string                  `json:"from"`
	To       string                  `json:"to"`
	Students []StudentReconciliation `json:"students"`
	Total    int                     `json:"total"`
}

// ClassOption is a class entry for report filter dropdowns.
type ClassOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ExportRequest enqueues an asynchronous export.
type ExportRequest struct {
	Type    string  `json:"type" validate:"required,oneof=unpaid_list fee_report"`
	Format  string  `json:"format" validate:"required,oneof=csv pdf"`
	From    string  `json:"from" validate:"omitempty,datetime=2006-01-02"`
	To      string  `json:"to" validate:"omitempty,datetime=2006-01-02"`
	ClassID *string `json:"classId,omitempty"`
	Search  string  `json:"search,omitempty"`
}

// ExportJobResponse acknowledges a queued export.
type ExportJobResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// ExportStatusResponse reports background job progress.
type ExportStatusResponse struct {
	JobID        string  `json:"job_id"`
	Type         string  `json:"type"`
	Status       string  `json:"status"`
	Progress     int     `json:"progress"`
	DownloadURL  *string `json:"download_url,omitempty"`
	ErrorMessage *string `json:"error_message,omitempty"`
}
