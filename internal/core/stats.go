package core

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/JonMunkholm/cleanse/internal/table"
)

// quantile returns the p-quantile of sorted data using linear interpolation
// between closest ranks (h = (n-1)p).
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	h := float64(n-1) * p
	lo := math.Floor(h)
	i := int(lo)
	if i >= n-1 {
		return sorted[n-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

func sortedCopy(xs []float64) []float64 {
	s := make([]float64, len(xs))
	copy(s, xs)
	sort.Float64s(s)
	return s
}

func median(xs []float64) float64 {
	return quantile(sortedCopy(xs), 0.5)
}

// meanStd returns the mean and sample standard deviation of xs.
// The deviation is zero for fewer than two values.
func meanStd(xs []float64) (mean, std float64) {
	if len(xs) == 0 {
		return math.NaN(), 0
	}
	mean = stat.Mean(xs, nil)
	if len(xs) < 2 {
		return mean, 0
	}
	return mean, stat.StdDev(xs, nil)
}

// mode returns the most frequent non-null value of c. Ties go to the value
// that occurs first in row order.
func mode(c table.Column) (table.Value, bool) {
	counts := make(map[string]int)
	first := make(map[string]int)
	for i := 0; i < c.Len(); i++ {
		v := c.Value(i)
		if !v.Valid {
			continue
		}
		k := v.Key(c.Type())
		if _, ok := first[k]; !ok {
			first[k] = i
		}
		counts[k]++
	}
	best, bestCount, bestPos := "", 0, 0
	for k, n := range counts {
		if n > bestCount || (n == bestCount && first[k] < bestPos) {
			best, bestCount, bestPos = k, n, first[k]
		}
	}
	if bestCount == 0 {
		return table.Null(), false
	}
	return c.Value(first[best]), true
}

// numericView returns the non-null values of a numeric or datetime column
// as floats. Datetimes are expressed in Unix nanoseconds.
func numericView(c table.Column) []float64 {
	switch c.Type() {
	case table.Numeric:
		xs, _ := c.Floats()
		return xs
	case table.Datetime:
		xs := make([]float64, 0, c.Len())
		for i := 0; i < c.Len(); i++ {
			if v := c.Value(i); v.Valid {
				xs = append(xs, float64(v.Time.UnixNano()))
			}
		}
		return xs
	default:
		return nil
	}
}

// fromFloat is the inverse of numericView for a single value.
func fromFloat(typ table.Type, f float64) table.Value {
	if typ == table.Datetime {
		return table.Time(time.Unix(0, int64(math.Round(f))).UTC())
	}
	return table.Float(f)
}
