package database

import (
	"database/sql"
	"fmt"
)

// ValueConverter rewrites a scanned value before it is stringified, for
// driver types whose raw form is not meaningful as text.
type ValueConverter func(ct *sql.ColumnType, v any) any

// ScanRows drains rows from a database/sql result into stringified Rows.
// convert may be nil.
func ScanRows(rows *sql.Rows, convert ValueConverter) ([]string, []Row, error) {
	fields, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("read columns: %w", err)
	}
	var types []*sql.ColumnType
	if convert != nil {
		if types, err = rows.ColumnTypes(); err != nil {
			return nil, nil, fmt.Errorf("read column types: %w", err)
		}
	}

	data := []Row{}
	for rows.Next() {
		values := make([]any, len(fields))
		ptrs := make([]any, len(fields))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("scan row: %w", err)
		}
		if convert != nil {
			for i := range values {
				values[i] = convert(types[i], values[i])
			}
		}
		data = append(data, StringifyRow(fields, values))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return fields, data, nil
}

// NullableString returns nil for an invalid NullString.
func NullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

// EmptyAsNull returns nil for an invalid or empty NullString. Catalogs that
// report "no value" as an empty string go through here.
func EmptyAsNull(s sql.NullString) *string {
	if s.String == "" {
		return nil
	}
	return NullableString(s)
}

// NullableInt returns nil for an invalid NullInt64.
func NullableInt(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
