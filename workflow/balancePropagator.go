package workflow

import (
	"bitbucket.org/mmdatafocus/distribution_backend/config"
	"bitbucket.org/mmdatafocus/distribution_backend/models"
	"bitbucket.org/mmdatafocus/distribution_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ApplyBalanceDelta shifts a customer's outstanding balance by the exact
// signed change in amount owed. Balances are never recomputed from scratch
// inside a posting; the backstop job reconciles drift offline.
func ApplyBalanceDelta(tx *gorm.DB, logger *logrus.Logger, businessId string, customerId int, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}
	err := tx.Model(&models.Customer{}).
		Where("business_id = ? AND id = ?", businessId, customerId).
		Update("outstanding_balance", gorm.Expr("outstanding_balance + ?", delta)).Error
	if err != nil {
		config.LogError(logger, "balancePropagator.go", "ApplyBalanceDelta", "UpdateCustomer", customerId, err)
		return utils.Upstream(err)
	}
	return nil
}

// ApplyPaymentToInvoice records amount against the invoice and saves the
// recomputed due/status. Caller owes the matching -amount balance delta.
func ApplyPaymentToInvoice(tx *gorm.DB, logger *logrus.Logger, invoice *models.Invoice, amount decimal.Decimal) error {
	invoice.PaidAmount = invoice.PaidAmount.Add(amount)
	invoice.Sync()
	return saveInvoiceTotals(tx, logger, invoice)
}

// ReversePaymentFromInvoice undoes a payment (bounced cheque). PaidAmount
// floors at zero; status falls back to Partial/Unpaid per the rule.
func ReversePaymentFromInvoice(tx *gorm.DB, logger *logrus.Logger, invoice *models.Invoice, amount decimal.Decimal) error {
	invoice.PaidAmount = utils.ClampToZero(invoice.PaidAmount.Sub(amount))
	invoice.Sync()
	return saveInvoiceTotals(tx, logger, invoice)
}

// ReconcileInvoiceTotal replaces the invoice total with a fresh re-sum of its
// order items (used when line totals themselves changed) and returns the
// balance delta the caller must apply: newTotal - oldTotal.
func ReconcileInvoiceTotal(tx *gorm.DB, logger *logrus.Logger, invoice *models.Invoice, newTotal decimal.Decimal) (decimal.Decimal, error) {
	delta := newTotal.Sub(invoice.TotalAmount)
	invoice.TotalAmount = newTotal
	invoice.Sync()
	if err := saveInvoiceTotals(tx, logger, invoice); err != nil {
		return decimal.Zero, err
	}
	return delta, nil
}

func saveInvoiceTotals(tx *gorm.DB, logger *logrus.Logger, invoice *models.Invoice) error {
	err := tx.Model(&models.Invoice{}).Where("id = ?", invoice.ID).Updates(map[string]interface{}{
		"total_amount":   invoice.TotalAmount,
		"paid_amount":    invoice.PaidAmount,
		"due_amount":     invoice.DueAmount,
		"current_status": invoice.CurrentStatus,
	}).Error
	if err != nil {
		config.LogError(logger, "balancePropagator.go", "saveInvoiceTotals", "UpdateInvoice", invoice.ID, err)
		return utils.Upstream(err)
	}
	return nil
}

// BalanceDeltas describes the effect of one invoice state on the books.
// Reversal and application are pure so an edit is exactly
// apply(computeReversal(old)) then apply(computeApplication(new)) inside one
// transaction.
type BalanceDeltas struct {
	CustomerId   int
	BalanceDelta decimal.Decimal
	StockDeltas  map[int]decimal.Decimal // productId -> signed good-stock change
}

// ComputeReversal produces the deltas that undo an order+invoice entirely:
// stock comes back, the unpaid remainder leaves the customer's balance.
func ComputeReversal(order *models.Order, invoice *models.Invoice) BalanceDeltas {
	deltas := BalanceDeltas{
		CustomerId:   invoice.CustomerId,
		BalanceDelta: invoice.PaidAmount.Sub(invoice.TotalAmount),
		StockDeltas:  make(map[int]decimal.Decimal, len(order.Items)),
	}
	for _, item := range order.Items {
		qty := item.Quantity.Add(item.FreeQuantity)
		deltas.StockDeltas[item.ProductId] = deltas.StockDeltas[item.ProductId].Add(qty)
	}
	return deltas
}

// ComputeApplication produces the deltas that apply a fresh order+invoice:
// stock is consumed, the unpaid remainder joins the customer's balance.
func ComputeApplication(customerId int, items []InvoiceItemInput, grandTotal, paidAmount decimal.Decimal) BalanceDeltas {
	deltas := BalanceDeltas{
		CustomerId:   customerId,
		BalanceDelta: grandTotal.Sub(paidAmount),
		StockDeltas:  make(map[int]decimal.Decimal, len(items)),
	}
	for _, item := range items {
		qty := item.Quantity.Add(item.FreeQuantity)
		deltas.StockDeltas[item.ProductId] = deltas.StockDeltas[item.ProductId].Sub(qty)
	}
	return deltas
}
