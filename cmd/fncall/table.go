package main

import (
	"fmt"

	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/core/parse"
)

// Table is what the extract command asks the model to produce for each chunk.
type Table struct {
	Columns []string   `json:"columns" jsonschema:"description=Column names in table order"`
	Rows    [][]string `json:"rows" jsonschema:"description=Data rows; each row lists its cell values in column order"`
}

func (Table) CallableName() string { return "extract_table" }

func (Table) Doc() string {
	return `Extract the rows of an HTML table as plain text cells.

	Args:
	    columns: Column names taken from the header row, in order.
	    rows: One list of cell values per data row, same length as columns.
	          Leave a cell empty when the table has no value for it.
	`
}

// Validate rejects ragged rows.
func (t Table) Validate() error {
	if len(t.Columns) == 0 {
		return parse.Invalid("columns", "at least one column is required")
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return parse.Invalid(fmt.Sprintf("rows.%d", i),
				fmt.Sprintf("has %d cells, expected %d (one per column)", len(row), len(t.Columns)))
		}
	}
	return nil
}

// merge appends the rows of other. Column names come from the first chunk.
func (t *Table) merge(other Table) {
	if len(t.Columns) == 0 {
		t.Columns = other.Columns
	}
	t.Rows = append(t.Rows, other.Rows...)
}
