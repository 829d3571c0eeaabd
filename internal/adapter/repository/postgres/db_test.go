package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/srgjo27/hotel_booking/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

type rowsResult int64

func (r rowsResult) LastInsertId() (int64, error) { return 0, nil }
func (r rowsResult) RowsAffected() (int64, error) { return int64(r), nil }

func TestMapError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"no rows", sql.ErrNoRows, domain.ErrNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", sql.ErrNoRows), domain.ErrNotFound},
		{"unique violation", &pq.Error{Code: "23505", Constraint: "payments_transaction_id_key"}, domain.ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapError(tt.err, "payment pi_1")
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorContains(t, err, "payment pi_1")
		})
	}

	assert.NoError(t, mapError(nil, "anything"))

	other := &pq.Error{Code: "40001"}
	err := mapError(other, "update booking")
	assert.False(t, errors.Is(err, domain.ErrConflict))
	assert.ErrorIs(t, err, other)
}

func TestMapPaymentError_SeparatesSlotFromDuplicate(t *testing.T) {
	slot := mapPaymentError(&pq.Error{Code: "23505", Constraint: slotIndex}, "insert payment")
	assert.ErrorIs(t, slot, domain.ErrConflict)
	assert.ErrorIs(t, slot, domain.ErrActivePaymentExists)

	dup := mapPaymentError(&pq.Error{Code: "23505", Constraint: "payments_transaction_id_key"}, "insert payment")
	assert.ErrorIs(t, dup, domain.ErrConflict)
	assert.False(t, errors.Is(dup, domain.ErrActivePaymentExists))

	assert.NoError(t, mapPaymentError(nil, "insert payment"))
}

func TestExpectOneRow(t *testing.T) {
	assert.NoError(t, expectOneRow(rowsResult(1), "booking"))
	assert.ErrorIs(t, expectOneRow(rowsResult(0), "booking"), domain.ErrNotFound)
}

func TestNullString(t *testing.T) {
	assert.False(t, nullString("").Valid)
	assert.Equal(t, sql.NullString{String: "late", Valid: true}, nullString("late"))
}
