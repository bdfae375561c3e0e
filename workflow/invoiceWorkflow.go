package workflow

import (
	"context"
	"encoding/json"
	"time"

	"bitbucket.org/mmdatafocus/distribution_backend/config"
	"bitbucket.org/mmdatafocus/distribution_backend/models"
	"bitbucket.org/mmdatafocus/distribution_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type CreateInvoiceResult struct {
	InvoiceNo string `json:"invoiceNo"`
	OrderId   int    `json:"orderId"`
}

// ProcessCreateInvoice posts a new order with its invoice, optional payment,
// stock deduction, commission accrual, and balance propagation, all in one
// transaction.
func ProcessCreateInvoice(ctx context.Context, db *gorm.DB, logger *logrus.Logger, businessId string, input CreateInvoiceInput) (*CreateInvoiceResult, error) {
	if err := validateCreateInvoice(input); err != nil {
		return nil, err
	}

	var result CreateInvoiceResult
	err := RunPosting(ctx, db, businessId, func(tx *gorm.DB) error {
		customer, err := lockCustomer(tx, businessId, input.CustomerId)
		if err != nil {
			config.LogError(logger, "invoiceWorkflow.go", "ProcessCreateInvoice", "LockCustomer", input.CustomerId, err)
			return err
		}

		productIds := make([]int, 0, len(input.Items))
		for _, item := range input.Items {
			productIds = append(productIds, item.ProductId)
		}
		products, err := lockProducts(tx, businessId, productIds)
		if err != nil {
			config.LogError(logger, "invoiceWorkflow.go", "ProcessCreateInvoice", "LockProducts", productIds, err)
			return err
		}

		comp := ComputeOrderTotals(input.Items, input.ExtraDiscountAmount, products)

		orderDate := input.OrderDate
		if orderDate.IsZero() {
			orderDate = time.Now()
		}
		order := models.Order{
			BusinessId:  businessId,
			CustomerId:  customer.ID,
			SalesRepId:  input.SalesRepId,
			OrderDate:   orderDate,
			Status:      models.OrderStatusConfirmed,
			TotalAmount: comp.GrossSubtotal,
		}
		if err := tx.Create(&order).Error; err != nil {
			config.LogError(logger, "invoiceWorkflow.go", "ProcessCreateInvoice", "CreateOrder", order, err)
			return utils.Upstream(err)
		}

		for _, line := range comp.Lines {
			item := models.OrderItem{
				OrderId:          order.ID,
				ProductId:        line.Input.ProductId,
				Quantity:         line.Input.Quantity,
				FreeQuantity:     line.Input.FreeQuantity,
				UnitPrice:        line.Input.UnitPrice,
				ActualUnitPrice:  line.ActualUnitPrice,
				ActualUnitCost:   line.ActualUnitCost,
				DiscountPercent:  line.Input.DiscountPercent,
				DiscountAmount:   line.Input.DiscountAmount,
				TotalPrice:       line.Input.Total,
				CommissionEarned: line.Commission,
			}
			if err := tx.Create(&item).Error; err != nil {
				config.LogError(logger, "invoiceWorkflow.go", "ProcessCreateInvoice", "CreateOrderItem", item, err)
				return utils.Upstream(err)
			}

			saleQty := line.Input.Quantity.Add(line.Input.FreeQuantity)
			err = ApplySaleDeduction(tx, logger, businessId, input.SalesRepId, products[line.Input.ProductId], saleQty, LargestAvailableFirst)
			if err != nil {
				return err
			}
		}

		if input.SalesRepId > 0 && comp.TotalCommission.IsPositive() {
			commission := models.RepCommission{
				BusinessId: businessId,
				OrderId:    order.ID,
				SalesRepId: input.SalesRepId,
				Amount:     comp.TotalCommission,
				Status:     models.RepCommissionStatusPending,
			}
			if err := tx.Create(&commission).Error; err != nil {
				config.LogError(logger, "invoiceWorkflow.go", "ProcessCreateInvoice", "CreateRepCommission", commission, err)
				return utils.Upstream(err)
			}
		}

		invoiceNo, err := models.NextDocumentNumber(tx, businessId, models.NumberModuleInvoice)
		if err != nil {
			return err
		}
		invoice := models.Invoice{
			BusinessId:  businessId,
			InvoiceNo:   invoiceNo,
			OrderId:     order.ID,
			CustomerId:  customer.ID,
			InvoiceDate: orderDate,
			// The caller-supplied grand total is ground truth here, not a
			// server-side recomputation.
			TotalAmount: input.GrandTotal,
			PaidAmount:  input.PaidAmount,
		}
		invoice.Sync()
		if err := tx.Create(&invoice).Error; err != nil {
			config.LogError(logger, "invoiceWorkflow.go", "ProcessCreateInvoice", "CreateInvoice", invoice, err)
			return utils.Upstream(err)
		}

		if input.PaidAmount.IsPositive() {
			if err := createInitialPayment(tx, logger, businessId, &invoice, input); err != nil {
				return err
			}
		}

		err = ApplyBalanceDelta(tx, logger, businessId, customer.ID, input.GrandTotal.Sub(input.PaidAmount))
		if err != nil {
			return err
		}

		result = CreateInvoiceResult{InvoiceNo: invoiceNo, OrderId: order.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func validateCreateInvoice(input CreateInvoiceInput) error {
	if len(input.Items) == 0 {
		return utils.Validationf("items are required")
	}
	if input.GrandTotal.IsNegative() {
		return utils.Validationf("grandTotal must not be negative")
	}
	if input.PaidAmount.IsNegative() {
		return utils.Validationf("paidAmount must not be negative")
	}
	switch input.PaymentType {
	case models.PaymentMethodCash, models.PaymentMethodBank, models.PaymentMethodCheque, models.PaymentMethodCredit:
	default:
		return utils.Validationf("paymentType must be one of cash, bank, cheque, credit")
	}
	for _, item := range input.Items {
		if !item.Quantity.IsPositive() {
			return utils.Validationf("item quantity must be positive")
		}
		if item.Total.IsNegative() {
			return utils.Validationf("item total must not be negative")
		}
	}
	return nil
}

func createInitialPayment(tx *gorm.DB, logger *logrus.Logger, businessId string, invoice *models.Invoice, input CreateInvoiceInput) error {
	payment := models.Payment{
		BusinessId:  businessId,
		InvoiceId:   invoice.ID,
		CustomerId:  invoice.CustomerId,
		Amount:      input.PaidAmount,
		Method:      input.PaymentType,
		PaymentDate: invoice.InvoiceDate,
	}
	if input.PaymentType == models.PaymentMethodCheque {
		pending := models.ChequeStatusPending
		payment.ChequeStatus = &pending
		payment.ChequeNumber = input.ChequeNumber
		payment.ChequeDate = input.ChequeDate
		// No ledger entry until the cheque is deposited.
	}
	if err := tx.Create(&payment).Error; err != nil {
		config.LogError(logger, "invoiceWorkflow.go", "createInitialPayment", "CreatePayment", payment, err)
		return utils.Upstream(err)
	}
	if input.PaymentType != models.PaymentMethodCheque && input.DepositAccountId > 0 {
		return recordPaymentDeposit(tx, logger, businessId, invoice.InvoiceNo, input.DepositAccountId, input.PaidAmount)
	}
	return nil
}

func recordPaymentDeposit(tx *gorm.DB, logger *logrus.Logger, businessId string, referenceNo string, accountId int, amount decimal.Decimal) error {
	_, err := AppendAccountTransaction(tx, logger, models.AccountTransaction{
		BusinessId:  businessId,
		Type:        models.AccountTransactionTypePayment,
		ToAccountId: accountId,
		Amount:      amount,
		Description: "Payment received",
		ReferenceNo: referenceNo,
	})
	if err != nil {
		return err
	}
	err = tx.Model(&models.Account{}).Where("business_id = ? AND id = ?", businessId, accountId).
		Update("balance", gorm.Expr("balance + ?", amount)).Error
	if err != nil {
		config.LogError(logger, "invoiceWorkflow.go", "recordPaymentDeposit", "UpdateAccount", accountId, err)
		return utils.Upstream(err)
	}
	return nil
}

type EditInvoiceInput struct {
	UserId              int                `json:"userId" binding:"required"`
	Items               []InvoiceItemInput `json:"items" binding:"required,min=1,dive"`
	GrandTotal          decimal.Decimal    `json:"grandTotal" binding:"required"`
	ExtraDiscountAmount decimal.Decimal    `json:"extraDiscountAmount"`
	SalesRepId          int                `json:"salesRepId"`
}

// ProcessEditInvoice is the full revert-then-reapply: snapshot history, undo
// the old invoice's effect on stock and balance, delete the old items, then
// apply the new data as if fresh. Both phases run in one transaction, so a
// failure leaves nothing half-applied.
func ProcessEditInvoice(ctx context.Context, db *gorm.DB, logger *logrus.Logger, businessId string, invoiceId int, input EditInvoiceInput) error {
	if len(input.Items) == 0 {
		return utils.Validationf("items are required")
	}
	if input.GrandTotal.IsNegative() {
		return utils.Validationf("grandTotal must not be negative")
	}

	return RunPosting(ctx, db, businessId, func(tx *gorm.DB) error {
		invoice, err := models.GetInvoiceById(tx, businessId, invoiceId)
		if err != nil {
			return err
		}
		order, err := models.GetOrderById(tx, businessId, invoice.OrderId)
		if err != nil {
			return err
		}
		if order.Status == models.OrderStatusCancelled {
			return utils.Conflictf("order %d is cancelled", order.ID)
		}

		if _, err := lockCustomer(tx, businessId, invoice.CustomerId); err != nil {
			return err
		}
		if _, err := lockInvoice(tx, businessId, invoice.ID); err != nil {
			return err
		}

		if err := snapshotInvoiceHistory(tx, logger, businessId, input.UserId, invoice, order, "invoice edit"); err != nil {
			return err
		}

		// Phase 1: revert the old state.
		reversal := ComputeReversal(order, invoice)
		for productId, qtyDelta := range reversal.StockDeltas {
			// Reversal deltas are positive: stock comes back.
			if err := ApplyQuantityDiff(tx, logger, businessId, productId, qtyDelta.Neg()); err != nil {
				return err
			}
		}
		if err := ApplyBalanceDelta(tx, logger, businessId, invoice.CustomerId, reversal.BalanceDelta); err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
			config.LogError(logger, "invoiceWorkflow.go", "ProcessEditInvoice", "DeleteOldItems", order.ID, err)
			return utils.Upstream(err)
		}

		// Phase 2: apply the new data as if fresh.
		productIds := make([]int, 0, len(input.Items))
		for _, item := range input.Items {
			productIds = append(productIds, item.ProductId)
		}
		products, err := lockProducts(tx, businessId, productIds)
		if err != nil {
			return err
		}
		comp := ComputeOrderTotals(input.Items, input.ExtraDiscountAmount, products)

		salesRepId := input.SalesRepId
		if salesRepId == 0 {
			salesRepId = order.SalesRepId
		}
		for _, line := range comp.Lines {
			item := models.OrderItem{
				OrderId:          order.ID,
				ProductId:        line.Input.ProductId,
				Quantity:         line.Input.Quantity,
				FreeQuantity:     line.Input.FreeQuantity,
				UnitPrice:        line.Input.UnitPrice,
				ActualUnitPrice:  line.ActualUnitPrice,
				ActualUnitCost:   line.ActualUnitCost,
				DiscountPercent:  line.Input.DiscountPercent,
				DiscountAmount:   line.Input.DiscountAmount,
				TotalPrice:       line.Input.Total,
				CommissionEarned: line.Commission,
			}
			if err := tx.Create(&item).Error; err != nil {
				config.LogError(logger, "invoiceWorkflow.go", "ProcessEditInvoice", "CreateNewItem", item, err)
				return utils.Upstream(err)
			}
			// Symmetric with the reversal above: edits move global stock
			// only. Location stock was allocated once at creation and is
			// never re-allocated by an edit.
			saleQty := line.Input.Quantity.Add(line.Input.FreeQuantity)
			if err := ApplyQuantityDiff(tx, logger, businessId, line.Input.ProductId, saleQty); err != nil {
				return err
			}
		}

		err = tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
			"total_amount": comp.GrossSubtotal,
			"sales_rep_id": salesRepId,
		}).Error
		if err != nil {
			config.LogError(logger, "invoiceWorkflow.go", "ProcessEditInvoice", "UpdateOrder", order.ID, err)
			return utils.Upstream(err)
		}

		// Existing payments stay attached; only the total changes.
		invoice.TotalAmount = input.GrandTotal
		invoice.Sync()
		if err := saveInvoiceTotals(tx, logger, invoice); err != nil {
			return err
		}

		application := ComputeApplication(invoice.CustomerId, input.Items, input.GrandTotal, invoice.PaidAmount)
		if err := ApplyBalanceDelta(tx, logger, businessId, invoice.CustomerId, application.BalanceDelta); err != nil {
			return err
		}

		return syncRepCommission(tx, logger, businessId, order.ID, salesRepId, comp.TotalCommission)
	})
}

// ProcessCancelOrder restores stock for every item and marks the order
// cancelled. The status guard prevents double restoration.
func ProcessCancelOrder(ctx context.Context, db *gorm.DB, logger *logrus.Logger, businessId string, orderId int) error {
	return RunPosting(ctx, db, businessId, func(tx *gorm.DB) error {
		order, err := models.GetOrderById(tx, businessId, orderId)
		if err != nil {
			return err
		}
		if err := RestoreCancelledOrderStock(tx, logger, order); err != nil {
			return err
		}
		err = tx.Model(&models.Order{}).Where("id = ?", order.ID).
			Update("status", models.OrderStatusCancelled).Error
		if err != nil {
			config.LogError(logger, "invoiceWorkflow.go", "ProcessCancelOrder", "UpdateOrder", order.ID, err)
			return utils.Upstream(err)
		}
		return nil
	})
}

func snapshotInvoiceHistory(tx *gorm.DB, logger *logrus.Logger, businessId string, userId int, invoice *models.Invoice, order *models.Order, reason string) error {
	snapshot, err := json.Marshal(map[string]interface{}{
		"invoice": invoice,
		"order":   order,
	})
	if err != nil {
		return utils.Upstream(err)
	}
	history := models.InvoiceHistory{
		BusinessId: businessId,
		InvoiceId:  invoice.ID,
		UserId:     userId,
		Reason:     reason,
		Snapshot:   snapshot,
	}
	if err := tx.Create(&history).Error; err != nil {
		config.LogError(logger, "invoiceWorkflow.go", "snapshotInvoiceHistory", "CreateInvoiceHistory", invoice.ID, err)
		return utils.Upstream(err)
	}
	return nil
}

// syncRepCommission upserts the single commission record an order accrues.
func syncRepCommission(tx *gorm.DB, logger *logrus.Logger, businessId string, orderId int, salesRepId int, amount decimal.Decimal) error {
	if salesRepId <= 0 {
		return nil
	}
	var commission models.RepCommission
	err := tx.Where("business_id = ? AND order_id = ?", businessId, orderId).First(&commission).Error
	if err == gorm.ErrRecordNotFound {
		if !amount.IsPositive() {
			return nil
		}
		commission = models.RepCommission{
			BusinessId: businessId,
			OrderId:    orderId,
			SalesRepId: salesRepId,
			Amount:     amount,
			Status:     models.RepCommissionStatusPending,
		}
		if err := tx.Create(&commission).Error; err != nil {
			config.LogError(logger, "invoiceWorkflow.go", "syncRepCommission", "CreateRepCommission", orderId, err)
			return utils.Upstream(err)
		}
		return nil
	}
	if err != nil {
		return utils.Upstream(err)
	}
	err = tx.Model(&models.RepCommission{}).Where("id = ?", commission.ID).Updates(map[string]interface{}{
		"amount":       amount,
		"sales_rep_id": salesRepId,
	}).Error
	if err != nil {
		config.LogError(logger, "invoiceWorkflow.go", "syncRepCommission", "UpdateRepCommission", commission.ID, err)
		return utils.Upstream(err)
	}
	return nil
}
