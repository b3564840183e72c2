package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// requireRowsAffected converts a zero-row UPDATE into a wrapped sql.ErrNoRows
// so the service layer can distinguish "missing row" from a real failure.
func requireRowsAffected(result sql.Result, entity string, id uuid.UUID) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected for %s %s: %w", entity, id, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s %s not found: %w", entity, id, sql.ErrNoRows)
	}
	return nil
}
