package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BaukJ/databricks-sql-python/service"
)

const minColWidth = 5

// renderTable renders rows into bordered lines of at most maxLineWidth
// characters, header first. Returns nothing when the result has no columns.
func renderTable(schema *service.Schema, rows []service.Row, maxLineWidth int) []string {
	numCols := 0
	if schema != nil {
		numCols = len(schema.Columns)
	}
	if numCols == 0 && len(rows) > 0 {
		numCols = len(rows[0])
	}
	if numCols == 0 {
		return nil
	}
	columnNames := make([]string, numCols)
	for i := range columnNames {
		if schema != nil && i < len(schema.Columns) {
			columnNames[i] = schema.Columns[i].Name
		} else {
			columnNames[i] = fmt.Sprintf("col%d", i)
		}
	}
	columnWidths := calcEvenColWidths(numCols, maxLineWidth)
	header := writeHeader(columnNames, columnWidths)
	headerBorder := createHeaderBorder(len(header))
	lines := []string{headerBorder, header, headerBorder}
	for _, row := range rows {
		lines = append(lines, formatLine(row, columnWidths))
	}
	if len(rows) > 0 {
		lines = append(lines, headerBorder)
	}
	return lines
}

func writeHeader(columnNames []string, columnWidths []int) string {
	sb := &strings.Builder{}
	sb.WriteString("|")
	for i, v := range columnNames {
		sb.WriteRune(' ')
		cw := columnWidths[i]
		if len(v) > cw {
			v = v[:cw-2] + ".."
		}
		sb.WriteString(rightPadToWidth(cw, v))
		sb.WriteString(" |")
	}
	return sb.String()
}

func createHeaderBorder(headerLen int) string {
	return "+" + strings.Repeat("-", headerLen-2) + "+"
}

func rightPadToWidth(width int, s string) string {
	padSpaces := width - len(s)
	pad := strings.Repeat(" ", padSpaces)
	s += pad
	return s
}

func formatLine(row service.Row, colWidths []int) string {
	sb := &strings.Builder{}
	sb.WriteString("|")
	for i := range row {
		sb.WriteRune(' ')
		v := valueAsString(row[i])
		cw := minColWidth
		if i < len(colWidths) {
			cw = colWidths[i]
		}
		if len(v) > cw {
			v = v[:cw-2] + ".."
		}
		sb.WriteString(rightPadToWidth(cw, v))
		sb.WriteString(" |")
	}
	return sb.String()
}

func valueAsString(v interface{}) string {
	switch tv := v.(type) {
	case nil:
		return "null"
	case string:
		return tv
	case float64:
		// Avoid the exponent form the default formatting would produce
		return strconv.FormatFloat(tv, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(tv), 'f', -1, 32)
	case time.Time:
		return tv.UTC().Format("2006-01-02 15:04:05.000000")
	case []byte:
		return fmt.Sprintf("%x", tv)
	default:
		return fmt.Sprintf("%v", tv)
	}
}

func calcEvenColWidths(numCols int, maxLineWidth int) []int {
	colWidth := (maxLineWidth - 3*numCols - 1) / numCols
	if colWidth < minColWidth {
		colWidth = minColWidth
	}
	colWidths := make([]int, numCols)
	for i := range colWidths {
		colWidths[i] = colWidth
	}
	return colWidths
}
