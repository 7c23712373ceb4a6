package kpi

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/vendor-kpi/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func twoVendors() model.Workbook {
	return model.Workbook{
		POs: []model.PurchaseOrder{
			{POID: "PO1", Vendor: "A", Item: "Bolts", Amount: 600, Date: date(2024, 1, 1)},
			{POID: "PO2", Vendor: "A", Item: "Nuts", Amount: 400, Date: date(2024, 1, 2)},
			{POID: "PO3", Vendor: "B", Item: "Bolts", Amount: 500, Date: date(2024, 1, 3)},
		},
		Receipts: []model.GoodsReceipt{
			{Vendor: "A", Item: "Bolts", PODate: date(2024, 1, 1), ExpectedDelivery: date(2024, 1, 8), DeliveryDate: date(2024, 1, 8)},
			{Vendor: "A", Item: "Nuts", PODate: date(2024, 1, 2), ExpectedDelivery: date(2024, 1, 9), DeliveryDate: date(2024, 1, 9)},
			{Vendor: "B", Item: "Bolts", PODate: date(2024, 1, 3), ExpectedDelivery: date(2024, 1, 10), DeliveryDate: date(2024, 1, 13)},
		},
		Invoices: []model.Invoice{
			{Vendor: "A", InvoiceAmount: 600, POAmount: 600},
			{Vendor: "A", InvoiceAmount: 400, POAmount: 400},
			{Vendor: "B", InvoiceAmount: 600, POAmount: 500},
		},
		Returns: []model.Return{
			{Vendor: "B", Item: "Bolts", ReturnID: "R1"},
		},
	}
}

func TestAggregate_TwoVendors(t *testing.T) {
	rows := Aggregate(twoVendors(), DefaultOptions())
	require.Len(t, rows, 2)

	a, b := rows[0], rows[1]
	assert.Equal(t, "A", a.Vendor)
	assert.Equal(t, 100.0, *a.OnTimeDeliveryPct)
	assert.Equal(t, 100.0, *a.InvoiceAccuracyPct)
	assert.Equal(t, 0.0, *a.ReturnRatePct)
	assert.Equal(t, 2, *a.ItemsSupplied)
	assert.Equal(t, 1000.0, *a.TotalSpend)
	assert.Equal(t, 0.0, *a.AvgDeliveryDelay)
	assert.Equal(t, 7.0, *a.POCycleDays)
	assert.Nil(t, a.VendorScore)

	assert.Equal(t, "B", b.Vendor)
	assert.Equal(t, 0.0, *b.OnTimeDeliveryPct)
	assert.Equal(t, 0.0, *b.InvoiceAccuracyPct)
	assert.Equal(t, 100.0, *b.ReturnRatePct)
	assert.Equal(t, 1, *b.ItemsSupplied)
	assert.Equal(t, 500.0, *b.TotalSpend)
	assert.Equal(t, 3.0, *b.AvgDeliveryDelay)
	assert.Equal(t, 10.0, *b.POCycleDays)
}

func TestAggregate_JoinCompleteness(t *testing.T) {
	wb := model.Workbook{
		POs:      []model.PurchaseOrder{{POID: "1", Vendor: "P", Item: "x", Amount: 1}},
		Receipts: []model.GoodsReceipt{{Vendor: "G", ExpectedDelivery: date(2024, 1, 1), DeliveryDate: date(2024, 1, 1)}},
		Invoices: []model.Invoice{{Vendor: "I", InvoiceAmount: 1, POAmount: 1}},
		Returns:  []model.Return{{Vendor: "R", Item: "x", ReturnID: "r"}, {Vendor: "P", Item: "x", ReturnID: "r2"}},
	}

	rows := Aggregate(wb, DefaultOptions())
	vendors := make([]string, len(rows))
	for i, r := range rows {
		vendors[i] = r.Vendor
	}
	assert.Equal(t, []string{"G", "I", "P", "R"}, vendors)
}

func TestAggregate_ReturnOnlyVendor(t *testing.T) {
	wb := twoVendors()
	wb.Returns = append(wb.Returns, model.Return{Vendor: "Z", Item: "Washers", ReturnID: "R2"})

	rows := Aggregate(wb, DefaultOptions())
	require.Len(t, rows, 3)
	z := rows[2]
	assert.Equal(t, "Z", z.Vendor)
	assert.Nil(t, z.OnTimeDeliveryPct)
	assert.Nil(t, z.InvoiceAccuracyPct)
	assert.Nil(t, z.ItemsSupplied)
	assert.Nil(t, z.TotalSpend)
	assert.Nil(t, z.AvgDeliveryDelay)
	assert.Nil(t, z.POCycleDays)
	require.NotNil(t, z.ReturnRatePct)
	assert.Equal(t, 0.0, *z.ReturnRatePct)
}

func TestAggregate_ReturnRateNilWithoutPOsOrReturns(t *testing.T) {
	wb := model.Workbook{
		Invoices: []model.Invoice{{Vendor: "I", InvoiceAmount: 1, POAmount: 1}},
	}
	rows := Aggregate(wb, DefaultOptions())
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].ReturnRatePct)
}

func TestAggregate_PercentBounds(t *testing.T) {
	wb := twoVendors()
	wb.Receipts = append(wb.Receipts,
		model.GoodsReceipt{Vendor: "A", ExpectedDelivery: date(2024, 2, 1), DeliveryDate: date(2024, 1, 20)},
		model.GoodsReceipt{Vendor: "B", ExpectedDelivery: date(2024, 2, 1)},
	)
	wb.Invoices = append(wb.Invoices,
		model.Invoice{Vendor: "B", InvoiceAmount: 524, POAmount: 500},
		model.Invoice{Vendor: "B", InvoiceAmount: math.NaN(), POAmount: 500},
	)

	for _, row := range Aggregate(wb, DefaultOptions()) {
		for _, p := range []*float64{row.OnTimeDeliveryPct, row.InvoiceAccuracyPct} {
			require.NotNil(t, p)
			assert.GreaterOrEqual(t, *p, 0.0)
			assert.LessOrEqual(t, *p, 100.0)
		}
	}
}

func TestAggregate_MissingDatesSkippedInMeans(t *testing.T) {
	wb := model.Workbook{
		Receipts: []model.GoodsReceipt{
			{Vendor: "A", PODate: date(2024, 1, 1), ExpectedDelivery: date(2024, 1, 8), DeliveryDate: date(2024, 1, 7)},
			{Vendor: "A", PODate: date(2024, 1, 1), ExpectedDelivery: date(2024, 1, 5)},
			{Vendor: "B", ExpectedDelivery: date(2024, 1, 5)},
		},
	}
	rows := Aggregate(wb, DefaultOptions())
	require.Len(t, rows, 2)

	assert.Equal(t, 50.0, *rows[0].OnTimeDeliveryPct)
	assert.Equal(t, -1.0, *rows[0].AvgDeliveryDelay)
	assert.Equal(t, 6.0, *rows[0].POCycleDays)

	assert.Equal(t, 0.0, *rows[1].OnTimeDeliveryPct)
	assert.Nil(t, rows[1].AvgDeliveryDelay)
	assert.Nil(t, rows[1].POCycleDays)
}

func TestAggregate_InvoiceTolerance(t *testing.T) {
	tests := []struct {
		name    string
		invoice float64
		tol     float64
		want    float64
	}{
		{"exact", 100, 0.05, 100},
		{"at band edge", 105, 0.05, 100},
		{"under band edge", 95, 0.05, 100},
		{"over band", 105.01, 0.05, 0},
		{"zero tolerance", 100.5, 0, 0},
		{"wide tolerance", 120, 0.25, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wb := model.Workbook{Invoices: []model.Invoice{{Vendor: "V", InvoiceAmount: tt.invoice, POAmount: 100}}}
			rows := Aggregate(wb, Options{InvoiceTolerance: tt.tol})
			require.Len(t, rows, 1)
			assert.Equal(t, tt.want, *rows[0].InvoiceAccuracyPct)
		})
	}
}

func TestAggregate_BlankAmountsAndItems(t *testing.T) {
	wb := model.Workbook{
		POs: []model.PurchaseOrder{
			{POID: "1", Vendor: "A", Item: "Bolts", Amount: 10},
			{POID: "2", Vendor: "A", Item: "", Amount: math.NaN()},
			{POID: "", Vendor: "A", Item: "Bolts", Amount: 5},
		},
		Returns: []model.Return{{Vendor: "A", Item: "Bolts", ReturnID: "R1"}},
	}
	rows := Aggregate(wb, DefaultOptions())
	require.Len(t, rows, 1)
	assert.Equal(t, 1, *rows[0].ItemsSupplied)
	assert.Equal(t, 15.0, *rows[0].TotalSpend)
	assert.Equal(t, 50.0, *rows[0].ReturnRatePct)
}

func TestAggregate_Idempotent(t *testing.T) {
	first := Aggregate(twoVendors(), DefaultOptions())
	second := Aggregate(twoVendors(), DefaultOptions())
	assert.Equal(t, first, second)
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, Aggregate(model.Workbook{}, DefaultOptions()))
}

func TestJoinPlan_Columns(t *testing.T) {
	plan := joinPlan{
		{column: model.ColTotalSpend, values: map[string]float64{"A": 1}, set: setTotalSpend},
		{column: model.ColItemsSupplied, values: map[string]float64{"B": 2}, set: setItemsSupplied},
	}
	assert.Equal(t, []string{model.ColTotalSpend, model.ColItemsSupplied}, plan.columns())

	rows := plan.join([]string{"A", "B", "C"})
	require.Len(t, rows, 3)
	assert.Equal(t, 1.0, *rows[0].TotalSpend)
	assert.Nil(t, rows[0].ItemsSupplied)
	assert.Equal(t, 2, *rows[1].ItemsSupplied)
	assert.Nil(t, rows[2].TotalSpend)
	assert.Nil(t, rows[2].ItemsSupplied)
}
