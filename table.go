package csv2jsonl

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
)

// Row is one data record laid out against the header. Fields[i] belongs to
// Columns[i]. With a reusing Reader, field strings are only valid until the
// iteration advances.
type Row struct {
	// Record is the 1-based index of the data record, excluding the header.
	Record int
	// Line is the input line on which the record starts.
	Line    int
	Columns []string
	Fields  []string
}

// Table reads a header record and then yields the remaining records as rows.
type Table struct {
	r       *Reader
	columns []string
	// slots maps a record position to its column; repeated header names share
	// the slot of their first occurrence.
	slots  []int
	fields []string
	record int
	err    error
}

// NewTable consumes the header record from r. Empty input produces a table
// without columns or rows.
func NewTable(r *Reader) (*Table, error) {
	t := &Table{r: r}
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	t.slots = make([]int, len(header))
	for i, name := range header {
		if slot, ok := index[name]; ok {
			t.slots[i] = slot
			continue
		}
		name = strings.Clone(name)
		index[name] = len(t.columns)
		t.slots[i] = len(t.columns)
		t.columns = append(t.columns, name)
	}
	t.fields = make([]string, len(t.columns))
	return t, nil
}

// Columns returns the distinct header names in header order.
func (t *Table) Columns() []string {
	return t.columns
}

// Rows returns a single-use iterator over the data records. Iteration stops at
// the first error, which is yielded once.
func (t *Table) Rows() iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		if t.columns == nil || t.err != nil {
			return
		}
		for {
			row, err := t.next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				t.err = err
				yield(Row{Record: t.record, Line: t.r.Line()}, err)
				return
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}

func (t *Table) next() (Row, error) {
	record, err := t.r.Read()
	if errors.Is(err, io.EOF) {
		return Row{}, io.EOF
	}
	t.record++
	if err != nil {
		return Row{}, fmt.Errorf("record %d: %w", t.record, err)
	}
	for i, field := range record {
		t.fields[t.slots[i]] = field
	}
	return Row{
		Record:  t.record,
		Line:    t.r.Line(),
		Columns: t.columns,
		Fields:  t.fields,
	}, nil
}
