package report

import (
	"fmt"
	"io"
	"math"
	"strings"
)

// Bar is one labelled value of a horizontal bar chart.
type Bar struct {
	Label string
	Value float64
}

// BarChart is a horizontal bar chart scaled to its largest value.
type BarChart struct {
	Title string
	Bars  []Bar
	// Width is the total line width; zero uses the terminal width.
	Width int
	// Format prints each value next to its bar.
	Format     string
	ForceColor bool
}

var barEighths = []rune{' ', '▏', '▎', '▍', '▌', '▋', '▊', '▉', '█'}

// Render draws the chart to w.
func (c BarChart) Render(w io.Writer) error {
	if len(c.Bars) == 0 {
		return nil
	}
	format := c.Format
	if format == "" {
		format = "%g"
	}
	labelWidth := 0
	valueWidth := 0
	values := make([]string, len(c.Bars))
	maxValue := 0.0
	for i, bar := range c.Bars {
		labelWidth = max(labelWidth, displayWidth(bar.Label))
		values[i] = fmt.Sprintf(format, bar.Value)
		valueWidth = max(valueWidth, displayWidth(values[i]))
		if bar.Value > maxValue {
			maxValue = bar.Value
		}
	}
	total := c.Width
	if total <= 0 {
		total = terminalWidth()
	}
	barWidth := total - labelWidth - valueWidth - 4
	if barWidth < minPlotWidth {
		barWidth = minPlotWidth
	}

	useColor := shouldUseColor(w, c.ForceColor)
	if c.Title != "" {
		if err := heading(w, c.Title); err != nil {
			return err
		}
	}
	for i, bar := range c.Bars {
		body := renderBar(bar.Value, maxValue, barWidth)
		if useColor {
			body = colorPalette[i%len(colorPalette)].code + body + colorReset
		}
		line := fmt.Sprintf("%s │%s %s",
			padCell(bar.Label, labelWidth, false), body, padCell(values[i], valueWidth, true))
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return blank(w)
}

// renderBar returns a bar of exactly width cells using eighth-block glyphs.
func renderBar(value, maxValue float64, width int) string {
	if maxValue <= 0 || value <= 0 || math.IsNaN(value) {
		return strings.Repeat(" ", width)
	}
	eighths := int(math.Round(value / maxValue * float64(width*8)))
	full := eighths / 8
	rest := eighths % 8
	var b strings.Builder
	b.WriteString(strings.Repeat(string(barEighths[8]), full))
	cells := full
	if rest > 0 && cells < width {
		b.WriteRune(barEighths[rest])
		cells++
	}
	b.WriteString(strings.Repeat(" ", width-cells))
	return b.String()
}
