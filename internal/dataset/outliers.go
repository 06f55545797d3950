package dataset

import "math"

// IQRFactor scales the interquartile range into outlier fences.
const IQRFactor = 1.5

// ColumnBounds holds the fences and replacement value learned for one column.
type ColumnBounds struct {
	Column string
	Q1     float64
	Q3     float64
	Lower  float64
	Upper  float64
	Median float64
	// Skip is set when the column has no finite values.
	Skip bool
}

// IQR returns the interquartile range.
func (b ColumnBounds) IQR() float64 {
	return b.Q3 - b.Q1
}

// Outside reports whether v falls beyond the fences.
func (b ColumnBounds) Outside(v float64) bool {
	if b.Skip || math.IsNaN(v) {
		return false
	}
	return v < b.Lower || v > b.Upper
}

// OutlierBounds holds per-column fences in frame column order.
type OutlierBounds []ColumnBounds

// FitOutlierBounds learns Q1/Q3 fences and medians for every column.
func FitOutlierBounds(f *Frame) OutlierBounds {
	bounds := make(OutlierBounds, len(f.Columns))
	for j, name := range f.Columns {
		sorted := finiteSorted(f.Column(j))
		q1 := quantileSorted(sorted, 0.25)
		q3 := quantileSorted(sorted, 0.75)
		iqr := q3 - q1
		bounds[j] = ColumnBounds{
			Column: name,
			Q1:     q1,
			Q3:     q3,
			Lower:  q1 - IQRFactor*iqr,
			Upper:  q3 + IQRFactor*iqr,
			Median: quantileSorted(sorted, 0.5),
			Skip:   math.IsNaN(iqr),
		}
	}
	return bounds
}

// Apply replaces every out-of-fence value with its column median, in place.
// It returns the number of replaced cells.
func (b OutlierBounds) Apply(f *Frame) int {
	replaced := 0
	for _, row := range f.Rows {
		for j := range row {
			if j >= len(b) {
				break
			}
			if b[j].Outside(row[j]) {
				row[j] = b[j].Median
				replaced++
			}
		}
	}
	return replaced
}

// CountOutlierRows returns the number of rows holding at least one value
// outside the fences.
func (b OutlierBounds) CountOutlierRows(f *Frame) int {
	count := 0
	for _, row := range f.Rows {
		for j := range row {
			if j < len(b) && b[j].Outside(row[j]) {
				count++
				break
			}
		}
	}
	return count
}

// CleanOutliers fits fences on f and replaces outliers in place.
func CleanOutliers(f *Frame) OutlierBounds {
	bounds := FitOutlierBounds(f)
	bounds.Apply(f)
	return bounds
}
