package database

import (
	"fmt"
	"strings"
)

// Placeholder renders the n-th (1-based) bind parameter for a SQL dialect.
type Placeholder func(n int) string

// DollarPlaceholder is the PostgreSQL style ($1, $2, ...).
func DollarPlaceholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

// QuestionPlaceholder is the MySQL and SQLite style.
func QuestionPlaceholder(int) string {
	return "?"
}

// Where builds the WHERE clause (with leading " WHERE " when non-empty) and
// its arguments for the identity and time filters.
func (f AttendanceFilter) Where(ph Placeholder) (string, []any) {
	var conds []string
	var args []any

	if f.Identity != "" {
		args = append(args, f.Identity)
		conds = append(conds, "identity = "+ph(len(args)))
	}
	if !f.Since.IsZero() {
		args = append(args, f.Since.UTC())
		conds = append(conds, "ts >= "+ph(len(args)))
	}
	if !f.Until.IsZero() {
		args = append(args, f.Until.UTC())
		conds = append(conds, "ts < "+ph(len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Page builds the LIMIT/OFFSET suffix. A zero limit means no limit.
func (f AttendanceFilter) Page() string {
	var sb strings.Builder
	if f.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", f.Limit)
		if f.Offset > 0 {
			fmt.Fprintf(&sb, " OFFSET %d", f.Offset)
		}
	}
	return sb.String()
}
