package models

import "time"

// Student represents a learner registered in the institution. The
// reconciliation engine consumes students read-only; admission date bounds
// fee eligibility and falls back to created_at when absent.
type Student struct {
	ID            string     `db:"id" json:"id"`
	NIS           string     `db:"nis" json:"nis"`
	FullName      string     `db:"full_name" json:"full_name"`
	ClassID       string     `db:"class_id" json:"class_id"`
	Section       string     `db:"section" json:"section"`
	AdmissionDate *time.Time `db:"admission_date" json:"admission_date,omitempty"`
	Phone         string     `db:"phone" json:"phone"`
	PhotoURL      string     `db:"photo_url" json:"photo_url"`
	Active        bool       `db:"active" json:"active"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// StudentDetail joins the student with its class name for display.
type StudentDetail struct {
	Student
	ClassName string `db:"class_name" json:"class_name"`
}

// AdmittedAt returns the eligibility boundary: the admission date when
// recorded, otherwise the record creation date.
func (s Student) AdmittedAt() time.Time {
	if s.AdmissionDate != nil && !s.AdmissionDate.IsZero() {
		return *s.AdmissionDate
	}
	return s.CreatedAt
}

// StudentFilter restricts which students enter a reconciliation run.
type StudentFilter struct {
	Search  string
	ClassID string
	Active  *bool
}
