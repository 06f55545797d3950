package dataset

import (
	"errors"
	"math"
	"strings"
	"testing"
)

const sampleCSV = `name_a,Status,b
1.5,1,10
2.5,0,
3.5,1,30
`

func TestReadCSVParsesRowsAndMissingCells(t *testing.T) {
	frame, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	rows, cols := frame.Shape()
	if rows != 3 || cols != 3 {
		t.Fatalf("expected 3x3, got %dx%d", rows, cols)
	}
	if frame.Rows[0][0] != 1.5 {
		t.Fatalf("expected 1.5, got %v", frame.Rows[0][0])
	}
	if !math.IsNaN(frame.Rows[1][2]) {
		t.Fatalf("expected NaN for empty cell, got %v", frame.Rows[1][2])
	}
}

func TestReadCSVStripsByteOrderMark(t *testing.T) {
	frame, err := ReadCSV(strings.NewReader("\uFEFFStatus,x\n1,2\n"))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if frame.Columns[0] != "Status" {
		t.Fatalf("expected BOM stripped from header, got %q", frame.Columns[0])
	}
}

func TestReadCSVRejectsText(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,b\n1,x\n"))
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if !strings.Contains(err.Error(), `column "b"`) {
		t.Fatalf("expected column in error, got %v", err)
	}
}

func TestSelectMissingColumn(t *testing.T) {
	frame, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	_, err = frame.Select([]string{"name_a", "nope"})
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestSelectIsCaseInsensitiveFallback(t *testing.T) {
	frame, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	sel, err := frame.Select([]string{"B", "NAME_A"})
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if sel.Rows[2][0] != 30 || sel.Rows[2][1] != 3.5 {
		t.Fatalf("unexpected selection: %v", sel.Rows[2])
	}
}

func TestSplitLabel(t *testing.T) {
	frame, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	labeled, err := SplitLabel(frame, "status", []string{"name_a"})
	if err != nil {
		t.Fatalf("SplitLabel failed: %v", err)
	}
	expected := []int{1, 0, 1}
	for i, y := range expected {
		if labeled.Labels[i] != y {
			t.Fatalf("label %d: expected %d, got %d", i, y, labeled.Labels[i])
		}
	}
	if len(labeled.Features.Columns) != 1 {
		t.Fatalf("expected one feature column, got %v", labeled.Features.Columns)
	}

	sub := labeled.Take([]int{2, 1})
	if sub.Labels[0] != 1 || sub.Features.Rows[1][0] != 2.5 {
		t.Fatalf("unexpected take result: %v %v", sub.Labels, sub.Features.Rows)
	}
}

func TestSplitLabelRejectsNonBinary(t *testing.T) {
	frame, err := ReadCSV(strings.NewReader("x,Status\n1,2\n"))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if _, err := SplitLabel(frame, "Status", []string{"x"}); err == nil {
		t.Fatalf("expected error for label 2")
	}
}
