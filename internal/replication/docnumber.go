package replication

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"
)

const nextBTNumber = `
	UPDATE document_nos
	SET next_number = next_number + 1
	WHERE document_type = 'BT'
	RETURNING next_number`

type btDocumentNumbers struct{}

// NewBTDocumentNumbers returns a generator that draws BT-XXXXXXXX
// tokens from the replica's document sequence table, matching the
// numbering the mobile ERP uses for its own issue transactions.
func NewBTDocumentNumbers() DocumentNumberGenerator {
	return btDocumentNumbers{}
}

func (btDocumentNumbers) Next(ctx context.Context, conn *sql.Conn) (string, error) {
	var n int64
	if err := conn.QueryRowContext(ctx, nextBTNumber).Scan(&n); err != nil {
		if err == sql.ErrNoRows {
			return "", errors.New("document sequence BT not found on replica")
		}
		return "", err
	}
	return fmt.Sprintf("BT-%08d", n), nil
}
