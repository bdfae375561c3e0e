package workflow

import (
	"testing"

	"bitbucket.org/mmdatafocus/distribution_backend/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestComputeOrderTotalsAllocatesExtraDiscountProportionally(t *testing.T) {
	// Two lines worth 10,000 total with a 4,000 extra discount. Each line
	// absorbs the discount in proportion to its share of the gross subtotal.
	items := []InvoiceItemInput{
		{ProductId: 1, Quantity: dec("10"), UnitPrice: dec("600"), Total: dec("6000")},
		{ProductId: 2, Quantity: dec("8"), UnitPrice: dec("500"), Total: dec("4000")},
	}
	products := map[int]*models.Product{
		1: {ID: 1},
		2: {ID: 2},
	}

	comp := ComputeOrderTotals(items, dec("4000"), products)

	require.True(t, comp.GrossSubtotal.Equal(dec("10000")))
	require.True(t, comp.Lines[0].DiscountShare.Equal(dec("2400")), "got %s", comp.Lines[0].DiscountShare)
	require.True(t, comp.Lines[1].DiscountShare.Equal(dec("1600")), "got %s", comp.Lines[1].DiscountShare)

	allocated := comp.Lines[0].DiscountShare.Add(comp.Lines[1].DiscountShare)
	require.True(t, allocated.Equal(dec("4000")), "allocation must conserve the extra discount, got %s", allocated)
}

func TestComputeOrderTotalsSpreadsActualUnitPriceOverFreeUnits(t *testing.T) {
	// 10 paid + 2 free units for a discounted line value of 6000 - 2400 = 3600.
	// The real per-unit take is 3600 / 12 = 300, not 3600 / 10.
	items := []InvoiceItemInput{
		{ProductId: 1, Quantity: dec("10"), FreeQuantity: dec("2"), UnitPrice: dec("600"), Total: dec("6000")},
		{ProductId: 2, Quantity: dec("8"), UnitPrice: dec("500"), Total: dec("4000")},
	}
	products := map[int]*models.Product{1: {ID: 1}, 2: {ID: 2}}

	comp := ComputeOrderTotals(items, dec("4000"), products)

	require.True(t, comp.Lines[0].ActualUnitPrice.Equal(dec("300")), "got %s", comp.Lines[0].ActualUnitPrice)
}

func TestComputeOrderTotalsZeroSubtotalAllocatesNothing(t *testing.T) {
	items := []InvoiceItemInput{
		{ProductId: 1, Quantity: dec("1"), Total: dec("0")},
	}
	comp := ComputeOrderTotals(items, dec("500"), map[int]*models.Product{1: {ID: 1}})
	require.True(t, comp.Lines[0].DiscountShare.IsZero())
}

func TestCommissionFixedPerUnitIgnoresFreeQuantity(t *testing.T) {
	product := &models.Product{
		ID:              1,
		CommissionType:  models.CommissionTypeFixed,
		CommissionValue: dec("50"),
	}
	item := InvoiceItemInput{ProductId: 1, Quantity: dec("10"), FreeQuantity: dec("5"), UnitPrice: dec("600"), Total: dec("6000")}

	got := commissionFor(product, item)
	require.True(t, got.Equal(dec("500")), "free units must not earn commission, got %s", got)
}

func TestCommissionPercentageUsesPaidValue(t *testing.T) {
	product := &models.Product{
		ID:              1,
		CommissionType:  models.CommissionTypePercentage,
		CommissionValue: dec("5"),
	}
	item := InvoiceItemInput{ProductId: 1, Quantity: dec("10"), FreeQuantity: dec("2"), UnitPrice: dec("600"), Total: dec("6000")}

	got := commissionFor(product, item)
	require.True(t, got.Equal(dec("300")), "got %s", got)
}

func TestCommissionUnknownTypeEarnsNothing(t *testing.T) {
	product := &models.Product{ID: 1}
	item := InvoiceItemInput{ProductId: 1, Quantity: dec("10"), UnitPrice: dec("600"), Total: dec("6000")}
	require.True(t, commissionFor(product, item).IsZero())
}
