package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sas-fee-api/internal/models"
)

// FeeScheduleRepository reads the per-class fee schedule. Only active rows
// participate in reconciliation; history stays in the table.
type FeeScheduleRepository struct {
	db *sqlx.DB
}

// NewFeeScheduleRepository constructs a FeeScheduleRepository.
func NewFeeScheduleRepository(db *sqlx.DB) *FeeScheduleRepository {
	return &FeeScheduleRepository{db: db}
}

// ListActive returns every active schedule entry, optionally restricted to
// one class.
func (r *FeeScheduleRepository) ListActive(ctx context.Context, classID string) ([]models.FeeScheduleEntry, error) {
	query := `SELECT id, class_id, fee_type, amount, effective_from, active, created_at
        FROM fee_schedule_entries WHERE active = true`
	args := []interface{}{}
	if classID != "" {
		query += " AND class_id = $1"
		args = append(args, classID)
	}
	query += " ORDER BY class_id ASC, fee_type ASC, effective_from ASC"

	var entries []models.FeeScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list fee schedule entries: %w", err)
	}
	return entries, nil
}
