package workflow

import (
	"time"

	"bitbucket.org/mmdatafocus/distribution_backend/models"
	"github.com/shopspring/decimal"
)

// InvoiceItemInput is one order line as supplied by the caller. Total is the
// authoritative line value; the engine does not recompute it from price and
// quantity (manual pricing is allowed upstream).
type InvoiceItemInput struct {
	ProductId       int             `json:"productId" binding:"required"`
	Quantity        decimal.Decimal `json:"quantity" binding:"required"`
	FreeQuantity    decimal.Decimal `json:"freeQuantity"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	DiscountAmount  decimal.Decimal `json:"discountAmount"`
	Total           decimal.Decimal `json:"total" binding:"required"`
	Mrp             decimal.Decimal `json:"mrp"`
}

type CreateInvoiceInput struct {
	CustomerId           int                  `json:"customerId" binding:"required"`
	SalesRepId           int                  `json:"salesRepId"`
	OrderDate            time.Time            `json:"orderDate"`
	Items                []InvoiceItemInput   `json:"items" binding:"required,min=1,dive"`
	GrandTotal           decimal.Decimal      `json:"grandTotal" binding:"required"`
	ExtraDiscountAmount  decimal.Decimal      `json:"extraDiscountAmount"`
	ExtraDiscountPercent decimal.Decimal      `json:"extraDiscountPercent"`
	PaymentType          models.PaymentMethod `json:"paymentType" binding:"required"`
	PaidAmount           decimal.Decimal      `json:"paidAmount"`
	ChequeNumber         string               `json:"chequeNumber"`
	ChequeDate           *time.Time           `json:"chequeDate"`
	DepositAccountId     int                  `json:"depositAccountId"`
}

// LineComputation carries the derived values for one line.
type LineComputation struct {
	Input           InvoiceItemInput
	DiscountShare   decimal.Decimal
	ActualUnitPrice decimal.Decimal
	ActualUnitCost  decimal.Decimal
	Commission      decimal.Decimal
}

type OrderComputation struct {
	Lines           []LineComputation
	GrossSubtotal   decimal.Decimal
	TotalCommission decimal.Decimal
}

var oneHundred = decimal.NewFromInt(100)

// ComputeOrderTotals derives per-line discount allocation, actual unit
// prices, and commission accrual from the caller-supplied lines. Extra
// discount is allocated proportionally to each line's share of the gross
// subtotal, never per unit. ActualUnitPrice spreads the discounted line value
// across paid AND free units so margin reports see the real per-unit take.
func ComputeOrderTotals(items []InvoiceItemInput, extraDiscountAmount decimal.Decimal, products map[int]*models.Product) OrderComputation {
	comp := OrderComputation{
		Lines:           make([]LineComputation, 0, len(items)),
		GrossSubtotal:   decimal.Zero,
		TotalCommission: decimal.Zero,
	}
	for _, item := range items {
		comp.GrossSubtotal = comp.GrossSubtotal.Add(item.Total)
	}

	for _, item := range items {
		line := LineComputation{Input: item}

		if comp.GrossSubtotal.IsPositive() {
			line.DiscountShare = item.Total.Div(comp.GrossSubtotal).Mul(extraDiscountAmount)
		}

		totalUnits := item.Quantity.Add(item.FreeQuantity)
		if totalUnits.IsPositive() {
			line.ActualUnitPrice = item.Total.Sub(line.DiscountShare).Div(totalUnits)
		}

		if product, ok := products[item.ProductId]; ok && product != nil {
			line.ActualUnitCost = product.ActualCostPrice
			line.Commission = commissionFor(product, item)
		}

		comp.TotalCommission = comp.TotalCommission.Add(line.Commission)
		comp.Lines = append(comp.Lines, line)
	}
	return comp
}

// commissionFor applies the product's commission rule to the paid quantity.
// Free quantity never earns commission.
func commissionFor(product *models.Product, item InvoiceItemInput) decimal.Decimal {
	switch product.CommissionType {
	case models.CommissionTypeFixed:
		return product.CommissionValue.Mul(item.Quantity)
	case models.CommissionTypePercentage:
		return item.UnitPrice.Mul(item.Quantity).Mul(product.CommissionValue).Div(oneHundred)
	default:
		return decimal.Zero
	}
}
