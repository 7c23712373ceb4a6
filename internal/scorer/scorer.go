package scorer

import (
	"math"

	"go.uber.org/zap"

	"github.com/sells-group/vendor-kpi/internal/config"
	"github.com/sells-group/vendor-kpi/internal/model"
)

// ScoringColumns are the six KPIs averaged into Vendor_Score, in mean order.
var ScoringColumns = []string{
	model.ColOnTimeDelivery,
	model.ColInvoiceAccuracy,
	model.ColReturnRate,
	model.ColAvgDeliveryDelay,
	model.ColPOCycleDays,
	model.ColTotalSpend,
}

var lowerIsBetter = map[string]bool{
	model.ColReturnRate:       true,
	model.ColAvgDeliveryDelay: true,
	model.ColPOCycleDays:      true,
}

// LowerIsBetter reports whether col is inverted before normalization.
func LowerIsBetter(col string) bool {
	return lowerIsBetter[col]
}

// Matrix is the normalized scoring matrix for one vendor set. Values[i][j]
// is vendor i's normalized value for Columns[j], in [0,1] or NaN.
type Matrix struct {
	Columns  []string
	Vendors  []string
	Values   [][]float64
	Excluded map[string]bool // constant columns left out of the mean
}

// Row returns the normalized values of vendor, or nil when absent.
func (m *Matrix) Row(vendor string) []float64 {
	for i, v := range m.Vendors {
		if v == vendor {
			return m.Values[i]
		}
	}
	return nil
}

// Normalize inverts the lower-is-better columns to max(col)-v and min-max
// scales every scoring column over the vendors in rows. Nil metrics become
// NaN. A column with zero range is NaN for every vendor, or marked excluded
// under the exclude policy.
func Normalize(rows []model.VendorKPI, cfg config.ScoringConfig) *Matrix {
	m := &Matrix{
		Columns:  ScoringColumns,
		Vendors:  make([]string, len(rows)),
		Values:   make([][]float64, len(rows)),
		Excluded: map[string]bool{},
	}
	for i, row := range rows {
		m.Vendors[i] = row.Vendor
		m.Values[i] = make([]float64, len(ScoringColumns))
	}
	if len(rows) == 0 {
		return m
	}

	for j, col := range ScoringColumns {
		values := column(rows, col)
		if LowerIsBetter(col) {
			invert(values)
		}
		lo, hi, ok := bounds(values)
		span := hi - lo
		if !ok || span == 0 {
			zap.L().Warn("scorer: scoring column has zero range",
				zap.String("column", col),
				zap.String("policy", policy(cfg)),
				zap.Int("vendors", len(rows)),
			)
			if policy(cfg) == ZeroRangeExclude {
				m.Excluded[col] = true
			}
			for i := range values {
				m.Values[i][j] = math.NaN()
			}
			continue
		}
		for i, v := range values {
			m.Values[i][j] = (v - lo) / span
		}
	}
	return m
}

// Score returns a copy of rows with Vendor_Score set to the unweighted mean
// of the normalized scoring columns. Metric columns keep their original
// values. A vendor with any undefined normalized value gets a nil score.
func Score(rows []model.VendorKPI, cfg config.ScoringConfig) []model.VendorKPI {
	return ScoreMatrix(rows, Normalize(rows, cfg))
}

// ScoreMatrix scores rows from a matrix Normalize already built for them.
func ScoreMatrix(rows []model.VendorKPI, m *Matrix) []model.VendorKPI {
	out := make([]model.VendorKPI, len(rows))
	scored := 0
	for i, row := range rows {
		out[i] = row.Clone()
		out[i].VendorScore = nil
		if s, ok := m.score(i); ok {
			out[i].VendorScore = model.Float(s)
			scored++
		}
	}

	zap.L().Debug("scorer: scored vendors",
		zap.Int("vendors", len(rows)),
		zap.Int("defined_scores", scored),
		zap.Int("excluded_columns", len(m.Excluded)),
	)
	return out
}

func (m *Matrix) score(i int) (float64, bool) {
	var sum float64
	n := 0
	for j, col := range m.Columns {
		if m.Excluded[col] {
			continue
		}
		v := m.Values[i][j]
		if math.IsNaN(v) {
			return 0, false
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func policy(cfg config.ScoringConfig) string {
	if cfg.ZeroRange == "" {
		return ZeroRangeNaN
	}
	return cfg.ZeroRange
}

// column extracts col from rows with nil as NaN.
func column(rows []model.VendorKPI, col string) []float64 {
	out := make([]float64, len(rows))
	for i, row := range rows {
		if p := row.Metric(col); p != nil {
			out[i] = *p
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// invert replaces v with max-v in place, max taken over defined values.
func invert(values []float64) {
	_, hi, ok := bounds(values)
	if !ok {
		return
	}
	for i, v := range values {
		values[i] = hi - v
	}
}

// bounds returns the min and max of the defined values; ok is false when
// every value is NaN.
func bounds(values []float64) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		ok = true
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi, ok
}
