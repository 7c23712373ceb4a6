package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/vendor-kpi/internal/kpi"
	"github.com/sells-group/vendor-kpi/internal/model"
)

const vendorWidth = 30

var tableHeaders = []string{"Vendor", "On-Time %", "Invoice %", "Return %", "Items", "Total Spend", "Avg Delay", "Cycle Days", "Score"}

// WriteTable writes an aligned text table of rows followed by the summary
// figures. Numbers use English digit grouping.
func WriteTable(w io.Writer, rows []model.VendorKPI, summary kpi.Summary) error {
	p := message.NewPrinter(language.English)

	header := fmt.Sprintf("%-30s %10s %10s %9s %6s %15s %10s %11s %7s\n",
		tableHeaders[0], tableHeaders[1], tableHeaders[2], tableHeaders[3], tableHeaders[4],
		tableHeaders[5], tableHeaders[6], tableHeaders[7], tableHeaders[8])
	if _, err := io.WriteString(w, header); err != nil {
		return eris.Wrap(err, "report: write table header")
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("-", len(header)-1)); err != nil {
		return eris.Wrap(err, "report: write table separator")
	}

	for _, r := range rows {
		line := fmt.Sprintf("%-30s %10s %10s %9s %6s %15s %10s %11s %7s\n",
			truncate(r.Vendor, vendorWidth),
			num(p, r.OnTimeDeliveryPct, 2),
			num(p, r.InvoiceAccuracyPct, 2),
			num(p, r.ReturnRatePct, 2),
			items(p, r.ItemsSupplied),
			num(p, r.TotalSpend, 2),
			num(p, r.AvgDeliveryDelay, 2),
			num(p, r.POCycleDays, 2),
			num(p, r.VendorScore, 3),
		)
		if _, err := io.WriteString(w, line); err != nil {
			return eris.Wrap(err, "report: write table row")
		}
	}

	f := summary.Format()
	if _, err := fmt.Fprintf(w, "\nAvg On-Time Delivery: %s  Avg Invoice Accuracy: %s  Avg Return Rate: %s\n",
		f.OnTimeDelivery, f.InvoiceAccuracy, f.ReturnRate); err != nil {
		return eris.Wrap(err, "report: write summary")
	}
	return nil
}

func num(p *message.Printer, v *float64, decimals int) string {
	if v == nil || math.IsNaN(*v) {
		return "-"
	}
	return p.Sprintf(fmt.Sprintf("%%.%df", decimals), *v)
}

func items(p *message.Printer, n *int) string {
	if n == nil {
		return "-"
	}
	return p.Sprintf("%d", *n)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}
