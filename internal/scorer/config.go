// Package scorer combines per-vendor KPIs into a composite Vendor_Score.
package scorer

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/vendor-kpi/internal/config"
	"github.com/sells-group/vendor-kpi/internal/kpi"
)

// Zero-range column policies.
const (
	// ZeroRangeNaN leaves a constant column's normalized value undefined, so
	// every vendor's score is undefined.
	ZeroRangeNaN = "nan"
	// ZeroRangeExclude drops a constant column from the mean.
	ZeroRangeExclude = "exclude"
)

// DefaultScoringConfig returns a config.ScoringConfig with the standard
// 5% invoice band and NaN zero-range handling.
func DefaultScoringConfig() config.ScoringConfig {
	return config.ScoringConfig{
		InvoiceTolerance: kpi.DefaultInvoiceTolerance,
		ZeroRange:        ZeroRangeNaN,
	}
}

// ValidateConfig checks that a ScoringConfig is usable.
func ValidateConfig(c config.ScoringConfig) error {
	var errs []string

	if c.InvoiceTolerance < 0 {
		errs = append(errs, "invoice_tolerance must be >= 0")
	}
	if c.InvoiceTolerance > 1 {
		errs = append(errs, fmt.Sprintf("invoice_tolerance must be <= 1, got %.2f", c.InvoiceTolerance))
	}

	switch c.ZeroRange {
	case "", ZeroRangeNaN, ZeroRangeExclude:
	default:
		errs = append(errs, fmt.Sprintf("zero_range must be %q or %q, got %q", ZeroRangeNaN, ZeroRangeExclude, c.ZeroRange))
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
