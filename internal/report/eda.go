package report

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/verte-zerg/parkinsight/internal/dataset"
)

// RenderShape prints the row and column counts of a frame.
func RenderShape(w io.Writer, name string, f *dataset.Frame) error {
	rows, cols := f.Shape()
	_, err := fmt.Fprintf(w, "%s shape: (%d, %d)\n", name, rows, cols)
	return err
}

// RenderHead prints the first n rows transposed, one column per line.
func RenderHead(w io.Writer, f *dataset.Frame, n int) error {
	head := dataset.Head(f, n)
	headers := make([]string, 0, len(head.Rows)+1)
	headers = append(headers, "Column")
	for i := range head.Rows {
		headers = append(headers, strconv.Itoa(i))
	}
	rows := make([][]string, len(head.Columns))
	for j, name := range head.Columns {
		row := make([]string, 0, len(head.Rows)+1)
		row = append(row, name)
		for _, r := range head.Rows {
			row = append(row, formatNumber(r[j]))
		}
		rows[j] = row
	}
	if err := heading(w, fmt.Sprintf("First %d rows", len(head.Rows))); err != nil {
		return err
	}
	if err := writeLines(w, formatTable(headers, rows, rightAlignFrom(1, len(headers)))); err != nil {
		return err
	}
	return blank(w)
}

// RenderNulls prints the missing-value count of every column.
func RenderNulls(w io.Writer, f *dataset.Frame) error {
	counts := dataset.NullCounts(f)
	rows := make([][]string, len(counts))
	total := 0
	for j, c := range counts {
		rows[j] = []string{f.Columns[j], strconv.Itoa(c)}
		total += c
	}
	if err := heading(w, fmt.Sprintf("Missing values (%d total)", total)); err != nil {
		return err
	}
	if err := writeLines(w, formatTable([]string{"Column", "Missing"}, rows, map[int]bool{1: true})); err != nil {
		return err
	}
	return blank(w)
}

// RenderDuplicates prints the duplicate-row count.
func RenderDuplicates(w io.Writer, f *dataset.Frame) error {
	_, err := fmt.Fprintf(w, "Duplicate rows: %d\n\n", dataset.DuplicateRows(f))
	return err
}

// RenderDescribe prints count, mean, std, min, quartiles and max per column.
func RenderDescribe(w io.Writer, summaries []dataset.ColumnSummary) error {
	headers := []string{"Column", "count", "mean", "std", "min", "25%", "50%", "75%", "max"}
	rows := make([][]string, len(summaries))
	for i, s := range summaries {
		rows[i] = []string{
			s.Column,
			strconv.Itoa(s.Count),
			formatNumber(s.Mean),
			formatNumber(s.Std),
			formatNumber(s.Min),
			formatNumber(s.Q25),
			formatNumber(s.Median),
			formatNumber(s.Q75),
			formatNumber(s.Max),
		}
	}
	if err := heading(w, "Summary statistics"); err != nil {
		return err
	}
	if err := writeLines(w, formatTable(headers, rows, rightAlignFrom(1, len(headers)))); err != nil {
		return err
	}
	return blank(w)
}

// RenderClassCounts draws the label distribution as a bar chart.
func RenderClassCounts(w io.Writer, label string, counts []dataset.ClassCount, width int) error {
	bars := make([]Bar, len(counts))
	for i, c := range counts {
		bars[i] = Bar{Label: fmt.Sprintf("%s=%d", label, c.Class), Value: float64(c.Count)}
	}
	return BarChart{
		Title:  fmt.Sprintf("Count of %s", label),
		Bars:   bars,
		Width:  width,
		Format: "%.0f",
	}.Render(w)
}

// RenderCorrelation prints a correlation matrix with numbered column headers.
// When colour is enabled, positive cells are tinted blue and negative ones red.
func RenderCorrelation(w io.Writer, names []string, corr [][]float64, forceColor bool) error {
	headers := make([]string, 0, len(names)+1)
	headers = append(headers, "")
	for i := range names {
		headers = append(headers, strconv.Itoa(i+1))
	}
	rows := make([][]string, len(names))
	for i, name := range names {
		row := make([]string, 0, len(names)+1)
		row = append(row, fmt.Sprintf("%d %s", i+1, name))
		for j := range names {
			row = append(row, formatCorrelation(corr[i][j]))
		}
		rows[i] = row
	}
	colCount := len(headers)
	widths := columnWidths(headers, rows, colCount)
	rightAlign := rightAlignFrom(1, colCount)
	useColor := shouldUseColor(w, forceColor)

	if err := heading(w, "Correlation matrix"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, formatRow(headers, widths, rightAlign)); err != nil {
		return err
	}
	for i, row := range rows {
		if !useColor {
			if _, err := fmt.Fprintln(w, formatRow(row, widths, rightAlign)); err != nil {
				return err
			}
			continue
		}
		line := padCell(row[0], widths[0], false)
		for j := 1; j < colCount; j++ {
			line += "  " + correlationColor(corr[i][j-1]) + padCell(row[j], widths[j], true) + colorReset
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return blank(w)
}

func formatCorrelation(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func correlationColor(v float64) string {
	switch {
	case math.IsNaN(v):
		return ""
	case v >= 0.7:
		return "\x1b[1;34m"
	case v >= 0.3:
		return "\x1b[34m"
	case v <= -0.7:
		return "\x1b[1;31m"
	case v <= -0.3:
		return "\x1b[31m"
	default:
		return "\x1b[2m"
	}
}

// RenderOutliers prints outlier row counts before and after cleaning.
func RenderOutliers(w io.Writer, before, after int) error {
	if _, err := fmt.Fprintf(w, "Rows with outliers before cleaning: %d\n", before); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Rows with outliers after cleaning: %d\n\n", after)
	return err
}
