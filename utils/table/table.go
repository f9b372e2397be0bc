/*
 * Copyright 2025 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package table

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rulego/streamagg/utils/cast"
)

// NullText is printed for nil cells.
const NullText = "null"

// Print writes rows as an aligned text table.
// Columns follow fieldOrder; columns not listed there are appended sorted.
func Print(w io.Writer, rows []map[string]interface{}, fieldOrder []string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "(0 rows)")
		return
	}
	columns := arrangeColumns(rows, fieldOrder)

	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = len(col)
		for _, row := range rows {
			if n := len(cell(row, col)); n > widths[i] {
				widths[i] = n
			}
		}
		// Minimum width is 4
		if widths[i] < 4 {
			widths[i] = 4
		}
	}

	printBorder(w, widths)
	printLine(w, widths, columns)
	printBorder(w, widths)
	vals := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			vals[i] = cell(row, col)
		}
		printLine(w, widths, vals)
	}
	printBorder(w, widths)
	fmt.Fprintf(w, "(%d rows)\n", len(rows))
}

func arrangeColumns(rows []map[string]interface{}, fieldOrder []string) []string {
	set := make(map[string]bool)
	for _, row := range rows {
		for col := range row {
			set[col] = true
		}
	}
	columns := make([]string, 0, len(set))
	for _, field := range fieldOrder {
		if set[field] {
			columns = append(columns, field)
			delete(set, field)
		}
	}
	rest := make([]string, 0, len(set))
	for col := range set {
		rest = append(rest, col)
	}
	sort.Strings(rest)
	return append(columns, rest...)
}

func cell(row map[string]interface{}, col string) string {
	v, exists := row[col]
	if !exists {
		return ""
	}
	if v == nil {
		return NullText
	}
	return cast.ToString(v)
}

func printLine(w io.Writer, widths []int, vals []string) {
	var b strings.Builder
	b.WriteByte('|')
	for i, v := range vals {
		fmt.Fprintf(&b, " %-*s |", widths[i], v)
	}
	fmt.Fprintln(w, b.String())
}

func printBorder(w io.Writer, widths []int) {
	var b strings.Builder
	b.WriteByte('+')
	for _, width := range widths {
		b.WriteString(strings.Repeat("-", width+2))
		b.WriteByte('+')
	}
	fmt.Fprintln(w, b.String())
}

// Rows is a finalized row set with a preferred column order.
type Rows interface {
	Maps() []map[string]interface{}
	FieldOrder() []string
}

// PrintResult prints a finalized row set in its own column order.
func PrintResult(w io.Writer, r Rows) {
	Print(w, r.Maps(), r.FieldOrder())
}
