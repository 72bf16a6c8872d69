package query

import (
	"fmt"
	"strings"
)

// ApplyRowLimit appends " LIMIT n" to sqlText unless limit is not positive or
// the text already contains LIMIT anywhere (case-insensitive substring match,
// so a column or literal named "limit" also suppresses it). One trailing
// semicolon is dropped before appending.
func ApplyRowLimit(sqlText string, limit int) string {
	if limit <= 0 || strings.Contains(strings.ToUpper(sqlText), "LIMIT") {
		return sqlText
	}
	trimmed := strings.TrimSuffix(strings.TrimSpace(sqlText), ";")
	return fmt.Sprintf("%s LIMIT %d", trimmed, limit)
}
