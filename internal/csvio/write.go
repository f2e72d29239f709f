package csvio

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/JonMunkholm/cleanse/internal/table"
)

// Write writes t as CSV with a header row. Nulls are written as empty cells,
// numbers in their shortest form and datetimes as a date when they fall on
// midnight UTC, otherwise as RFC 3339.
func Write(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Names()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	cols := t.Columns()
	rec := make([]string, len(cols))
	for i := 0; i < t.NumRows(); i++ {
		for j, c := range cols {
			rec[j] = c.Format(i)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
