package query

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

const minColumnWidth = 3

// FormatTable renders a result as a pipe table: a header row, an alignment
// row with numeric columns right-aligned, then one line per row. A result
// without columns renders as an empty string.
func FormatTable(result Result) string {
	if len(result.Columns) == 0 {
		return ""
	}

	cells := make([][]string, len(result.Rows))
	for i, row := range result.Rows {
		cells[i] = make([]string, len(result.Columns))
		for j := range result.Columns {
			if j < len(row) {
				cells[i][j] = formatValue(row[j])
			}
		}
	}

	widths := make([]int, len(result.Columns))
	numeric := make([]bool, len(result.Columns))
	for j, column := range result.Columns {
		widths[j] = max(runewidth.StringWidth(column), minColumnWidth)
		numeric[j] = isNumericColumn(result.Rows, j)
		for i := range cells {
			widths[j] = max(widths[j], runewidth.StringWidth(cells[i][j]))
		}
	}

	var b strings.Builder
	writeRow(&b, result.Columns, widths, numeric)

	b.WriteString("\n|")
	for j, width := range widths {
		if numeric[j] {
			b.WriteString(strings.Repeat("-", width+1) + ":")
		} else {
			b.WriteString(":" + strings.Repeat("-", width+1))
		}
		b.WriteString("|")
	}

	for _, row := range cells {
		b.WriteString("\n")
		writeRow(&b, row, widths, numeric)
	}
	return b.String()
}

func writeRow(b *strings.Builder, values []string, widths []int, numeric []bool) {
	b.WriteString("|")
	for j, value := range values {
		b.WriteString(" ")
		if numeric[j] {
			b.WriteString(runewidth.FillLeft(value, widths[j]))
		} else {
			b.WriteString(runewidth.FillRight(value, widths[j]))
		}
		b.WriteString(" |")
	}
}

func isNumericColumn(rows [][]any, column int) bool {
	seen := false
	for _, row := range rows {
		if column >= len(row) || row[column] == nil {
			continue
		}
		if !isNumeric(row[column]) {
			return false
		}
		seen = true
	}
	return seen
}

type floatValuer interface {
	Float64() float64
}

func isNumeric(value any) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, *big.Int, floatValuer:
		return true
	default:
		return false
	}
}

func formatValue(value any) string {
	if value == nil {
		return ""
	}
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(renderValue(value, false))
}

// renderValue prints lists as [1, 2], structs as {'a': 1} and maps as
// {k=v}, the way DuckDB prints them. Strings inside a nested value are
// single-quoted.
func renderValue(value any, nested bool) string {
	switch typed := value.(type) {
	case nil:
		if nested {
			return "NULL"
		}
		return ""
	case string:
		if nested {
			return "'" + typed + "'"
		}
		return typed
	case []byte:
		return renderValue(string(typed), nested)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32)
	case time.Time:
		if typed.Hour() == 0 && typed.Minute() == 0 && typed.Second() == 0 && typed.Nanosecond() == 0 {
			return typed.Format(time.DateOnly)
		}
		return typed.Format(time.DateTime)
	case []any:
		elements := make([]string, len(typed))
		for i, element := range typed {
			elements[i] = renderValue(element, true)
		}
		return "[" + strings.Join(elements, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		fields := make([]string, len(keys))
		for i, key := range keys {
			fields[i] = "'" + key + "': " + renderValue(typed[key], true)
		}
		return "{" + strings.Join(fields, ", ") + "}"
	case map[any]any:
		entries := make([]string, 0, len(typed))
		for key, entry := range typed {
			entries = append(entries, renderValue(key, false)+"="+renderValue(entry, false))
		}
		sort.Strings(entries)
		return "{" + strings.Join(entries, ", ") + "}"
	case fmt.Stringer:
		return typed.String()
	default:
		return fmt.Sprint(typed)
	}
}
