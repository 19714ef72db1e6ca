package series

import (
	"math"
	"sort"

	"github.com/finboardhq/finboard/pkg/models"
)

// Describe computes the descriptive-statistics projection of a windowed
// table: count, mean, sample standard deviation, min, quartiles, and max
// per column, over defined values only.
func Describe(t *models.Table) []models.ColumnStats {
	out := make([]models.ColumnStats, 0, len(t.Columns))
	for _, col := range t.Columns {
		out = append(out, describeColumn(col))
	}
	return out
}

func describeColumn(col models.Column) models.ColumnStats {
	var vals []float64
	for _, v := range col.Values {
		if v != nil {
			vals = append(vals, *v)
		}
	}

	stats := models.ColumnStats{Name: col.Name, Count: len(vals)}
	if len(vals) == 0 {
		return stats
	}

	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	stats.Mean = sum / float64(len(vals))

	if len(vals) > 1 {
		var sq float64
		for _, v := range vals {
			d := v - stats.Mean
			sq += d * d
		}
		stats.Std = math.Sqrt(sq / float64(len(vals)-1))
	}

	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	stats.Min = sorted[0]
	stats.Max = sorted[len(sorted)-1]
	stats.Q25 = quantile(sorted, 0.25)
	stats.Q50 = quantile(sorted, 0.50)
	stats.Q75 = quantile(sorted, 0.75)
	return stats
}

// quantile returns the q-th quantile of sorted data using linear
// interpolation between closest ranks.
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
