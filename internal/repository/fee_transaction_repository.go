package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sas-fee-api/internal/models"
)

// FeeTransactionRepository reads the payment ledger. Rejected rows never
// leave the database: the engine treats them as if they did not exist, so
// filtering here keeps every caller honest.
type FeeTransactionRepository struct {
	db *sqlx.DB
}

// NewFeeTransactionRepository constructs a FeeTransactionRepository.
func NewFeeTransactionRepository(db *sqlx.DB) *FeeTransactionRepository {
	return &FeeTransactionRepository{db: db}
}

// ListForReconciliation returns pending and verified transactions for the
// given year set, optionally restricted to students of one class.
func (r *FeeTransactionRepository) ListForReconciliation(ctx context.Context, filter models.FeeTransactionFilter) ([]models.FeeTransaction, error) {
	query := `SELECT t.id, t.student_id, t.fee_type, t.month, t.year, t.amount, t.status, t.receipt_no, t.paid_at, t.created_at
        FROM fee_transactions t`
	conditions := []string{"t.status IN ('PENDING', 'VERIFIED')"}
	args := []interface{}{}

	if len(filter.Years) > 0 {
		conditions = append(conditions, fmt.Sprintf("t.year = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(filter.Years))
	}
	if filter.ClassID != "" {
		query += " JOIN students s ON s.id = t.student_id"
		conditions = append(conditions, fmt.Sprintf("s.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}

	query = fmt.Sprintf("%s WHERE %s ORDER BY t.paid_at ASC", query, strings.Join(conditions, " AND "))

	var txns []models.FeeTransaction
	if err := r.db.SelectContext(ctx, &txns, query, args...); err != nil {
		return nil, fmt.Errorf("list fee transactions: %w", err)
	}
	return txns, nil
}
