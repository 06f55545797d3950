// Package dataset loads, inspects and prepares the tabular training data.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// ErrMissingColumn is returned when a requested column is absent.
var ErrMissingColumn = errors.New("missing column")

// Frame is a numeric table with named columns. Missing cells hold NaN.
type Frame struct {
	Columns []string
	Rows    [][]float64
}

// ReadCSVFile parses a CSV file with a header row into a Frame.
func ReadCSVFile(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only dataset.
			_ = cerr
		}
	}()
	return ReadCSV(file)
}

// ReadCSV parses CSV data with a header row. Every cell must be numeric or empty.
func ReadCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF"))
	}

	frame := &Frame{Columns: columns}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		row := make([]float64, len(columns))
		for j, cell := range record {
			cell = strings.TrimSpace(cell)
			if cell == "" || strings.EqualFold(cell, "nan") || strings.EqualFold(cell, "na") {
				row[j] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %q: %w", line, columns[j], err)
			}
			row[j] = v
		}
		frame.Rows = append(frame.Rows, row)
	}
	if len(frame.Rows) == 0 {
		return nil, fmt.Errorf("dataset has no rows")
	}
	return frame, nil
}

// Shape returns the row and column counts.
func (f *Frame) Shape() (rows, cols int) {
	return len(f.Rows), len(f.Columns)
}

// Index returns the position of a column.
func (f *Frame) Index(name string) (int, error) {
	for i, c := range f.Columns {
		if c == name {
			return i, nil
		}
	}
	for i, c := range f.Columns {
		if strings.EqualFold(c, name) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w %q", ErrMissingColumn, name)
}

// Column returns a copy of one column.
func (f *Frame) Column(j int) []float64 {
	out := make([]float64, len(f.Rows))
	for i, row := range f.Rows {
		out[i] = row[j]
	}
	return out
}

// Select returns a new frame with the named columns in the given order.
func (f *Frame) Select(names []string) (*Frame, error) {
	idx := make([]int, len(names))
	for k, name := range names {
		j, err := f.Index(name)
		if err != nil {
			return nil, err
		}
		idx[k] = j
	}
	out := &Frame{
		Columns: append([]string(nil), names...),
		Rows:    make([][]float64, len(f.Rows)),
	}
	for i, row := range f.Rows {
		sel := make([]float64, len(idx))
		for k, j := range idx {
			sel[k] = row[j]
		}
		out.Rows[i] = sel
	}
	return out, nil
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	out := &Frame{
		Columns: append([]string(nil), f.Columns...),
		Rows:    make([][]float64, len(f.Rows)),
	}
	for i, row := range f.Rows {
		out.Rows[i] = append([]float64(nil), row...)
	}
	return out
}

// Take returns the rows at the given indices.
func (f *Frame) Take(indices []int) *Frame {
	out := &Frame{
		Columns: append([]string(nil), f.Columns...),
		Rows:    make([][]float64, len(indices)),
	}
	for k, i := range indices {
		out.Rows[k] = append([]float64(nil), f.Rows[i]...)
	}
	return out
}

// Labeled is a feature frame with its binary class labels.
type Labeled struct {
	Features *Frame
	Labels   []int
}

// SplitLabel separates the label column from the named feature columns.
// Labels must be 0 or 1.
func SplitLabel(f *Frame, label string, features []string) (Labeled, error) {
	labelIdx, err := f.Index(label)
	if err != nil {
		return Labeled{}, err
	}
	feats, err := f.Select(features)
	if err != nil {
		return Labeled{}, err
	}
	labels := make([]int, len(f.Rows))
	for i, row := range f.Rows {
		v := row[labelIdx]
		switch v {
		case 0:
			labels[i] = 0
		case 1:
			labels[i] = 1
		default:
			return Labeled{}, fmt.Errorf("row %d: label %q must be 0 or 1, got %v", i, label, v)
		}
	}
	return Labeled{Features: feats, Labels: labels}, nil
}

// Take returns the labelled rows at the given indices.
func (l Labeled) Take(indices []int) Labeled {
	labels := make([]int, len(indices))
	for k, i := range indices {
		labels[k] = l.Labels[i]
	}
	return Labeled{Features: l.Features.Take(indices), Labels: labels}
}
