package workflow

import (
	"context"
	"errors"

	"bitbucket.org/mmdatafocus/distribution_backend/config"
	"bitbucket.org/mmdatafocus/distribution_backend/models"
	"bitbucket.org/mmdatafocus/distribution_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type InventoryReturnInput struct {
	ProductId  int               `json:"productId" binding:"required"`
	LocationId int               `json:"locationId" binding:"required"`
	CustomerId *int              `json:"customerId"`
	InvoiceId  *int              `json:"invoiceId"`
	Quantity   decimal.Decimal   `json:"quantity" binding:"required"`
	ReturnType models.ReturnType `json:"returnType" binding:"required"`
	Reason     string            `json:"reason"`
}

// ProcessInventoryReturn posts one return. Good stock goes back onto the
// shelf, damaged stock moves into the damaged bucket. A return linked to an
// invoice also shrinks the sold line and reconciles the invoice total, the
// commission, and the customer balance.
func ProcessInventoryReturn(ctx context.Context, db *gorm.DB, logger *logrus.Logger, businessId string, input InventoryReturnInput) (*models.InventoryReturn, error) {
	if !input.Quantity.IsPositive() {
		return nil, utils.Validationf("quantity must be positive")
	}
	if input.ReturnType != models.ReturnTypeGood && input.ReturnType != models.ReturnTypeDamage {
		return nil, utils.Validationf("returnType must be Good or Damage")
	}

	var record models.InventoryReturn
	err := RunPosting(ctx, db, businessId, func(tx *gorm.DB) error {
		returnNumber, err := models.NextDocumentNumber(tx, businessId, models.NumberModuleReturn)
		if err != nil {
			return err
		}
		record = models.InventoryReturn{
			BusinessId:   businessId,
			ReturnNumber: returnNumber,
			ProductId:    input.ProductId,
			LocationId:   input.LocationId,
			CustomerId:   input.CustomerId,
			InvoiceId:    input.InvoiceId,
			Quantity:     input.Quantity,
			ReturnType:   input.ReturnType,
			Reason:       input.Reason,
			Status:       models.ReturnStatusProcessed,
		}
		if err := tx.Create(&record).Error; err != nil {
			config.LogError(logger, "returnWorkflow.go", "ProcessInventoryReturn", "CreateReturn", record, err)
			return utils.Upstream(err)
		}

		switch input.ReturnType {
		case models.ReturnTypeGood:
			err = ApplyGoodReturn(tx, logger, businessId, input.ProductId, input.LocationId, input.Quantity)
		case models.ReturnTypeDamage:
			err = ApplyDamageMove(tx, logger, businessId, input.ProductId, input.LocationId, input.Quantity)
		}
		if err != nil {
			return err
		}

		if input.InvoiceId != nil && *input.InvoiceId > 0 {
			return reconcileReturnedInvoice(tx, logger, businessId, *input.InvoiceId, input.ProductId, input.Quantity)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// reconcileReturnedInvoice shrinks the matching order line proportionally and
// propagates the fresh totals. TotalPrice and CommissionEarned scale by the
// remaining quantity; the invoice total becomes a fresh sum of the remaining
// lines, so any historical drift gets washed out here.
func reconcileReturnedInvoice(tx *gorm.DB, logger *logrus.Logger, businessId string, invoiceId int, productId int, returnQty decimal.Decimal) error {
	invoice, err := models.GetInvoiceById(tx, businessId, invoiceId)
	if err != nil {
		return err
	}
	if _, err := lockCustomer(tx, businessId, invoice.CustomerId); err != nil {
		return err
	}
	invoice, err = lockInvoice(tx, businessId, invoice.ID)
	if err != nil {
		return err
	}
	order, err := models.GetOrderById(tx, businessId, invoice.OrderId)
	if err != nil {
		return err
	}

	var target *models.OrderItem
	for i := range order.Items {
		if order.Items[i].ProductId == productId {
			target = &order.Items[i]
			break
		}
	}
	if target == nil {
		return utils.Validationf("invoice %s has no line for product %d", invoice.InvoiceNo, productId)
	}
	if !target.Quantity.IsPositive() {
		return utils.Conflictf("invoice %s line for product %d has no quantity left", invoice.InvoiceNo, productId)
	}

	effective := decimal.Min(returnQty, target.Quantity)
	newQty := target.Quantity.Sub(effective)
	ratio := newQty.Div(target.Quantity)
	err = tx.Model(&models.OrderItem{}).Where("id = ?", target.ID).Updates(map[string]interface{}{
		"quantity":          newQty,
		"total_price":       target.TotalPrice.Mul(ratio),
		"commission_earned": target.CommissionEarned.Mul(ratio),
	}).Error
	if err != nil {
		config.LogError(logger, "returnWorkflow.go", "reconcileReturnedInvoice", "UpdateOrderItem", target.ID, err)
		return utils.Upstream(err)
	}

	newOrderTotal, err := models.SumOrderItemTotals(tx, order.ID)
	if err != nil {
		return err
	}
	err = tx.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("total_amount", newOrderTotal).Error
	if err != nil {
		config.LogError(logger, "returnWorkflow.go", "reconcileReturnedInvoice", "UpdateOrder", order.ID, err)
		return utils.Upstream(err)
	}

	delta, err := ReconcileInvoiceTotal(tx, logger, invoice, newOrderTotal)
	if err != nil {
		return err
	}
	if err := ApplyBalanceDelta(tx, logger, businessId, invoice.CustomerId, delta); err != nil {
		return err
	}

	newCommission := decimal.Zero
	for i := range order.Items {
		if order.Items[i].ID == target.ID {
			newCommission = newCommission.Add(target.CommissionEarned.Mul(ratio))
			continue
		}
		newCommission = newCommission.Add(order.Items[i].CommissionEarned)
	}
	return syncRepCommission(tx, logger, businessId, order.ID, order.SalesRepId, newCommission)
}

type DamageBatchItem struct {
	ProductId  int             `json:"productId" binding:"required"`
	LocationId int             `json:"locationId" binding:"required"`
	Quantity   decimal.Decimal `json:"quantity" binding:"required"`
	Reason     string          `json:"reason"`
}

type DamageBatchInput struct {
	// BatchId makes client retries safe. A batch that already succeeded is
	// skipped wholesale.
	BatchId string            `json:"batchId"`
	Items   []DamageBatchItem `json:"items" binding:"required,min=1,dive"`
}

type DamageBatchError struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

type DamageBatchResult struct {
	Processed int                `json:"processed"`
	Errors    []DamageBatchError `json:"errors"`
}

// ProcessDamageBatch moves stock into the damaged bucket, one transaction per
// item, so a bad line never rolls back its siblings. Each successful move gets
// a zero-amount ledger row for the audit trail.
func ProcessDamageBatch(ctx context.Context, db *gorm.DB, logger *logrus.Logger, businessId string, input DamageBatchInput) (*DamageBatchResult, error) {
	if len(input.Items) == 0 {
		return nil, utils.Validationf("items are required")
	}

	result := DamageBatchResult{Errors: []DamageBatchError{}}
	if input.BatchId != "" {
		skip := false
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			skip, err = BeginIdempotency(tx, businessId, "damage_batch", input.BatchId)
			return err
		})
		if err != nil {
			return nil, utils.Upstream(err)
		}
		if skip {
			return &result, nil
		}
	}
	for i, item := range input.Items {
		err := processDamageItem(ctx, db, logger, businessId, item)
		if err != nil {
			result.Errors = append(result.Errors, DamageBatchError{Index: i, Message: utils.ClientMessage(err)})
			continue
		}
		result.Processed++
	}
	if input.BatchId != "" {
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if result.Processed == 0 {
				return MarkIdempotencyFailed(tx, businessId, "damage_batch", input.BatchId, errors.New("no items processed"))
			}
			return MarkIdempotencySucceeded(tx, businessId, "damage_batch", input.BatchId)
		})
		if err != nil {
			return nil, utils.Upstream(err)
		}
	}
	return &result, nil
}

func processDamageItem(ctx context.Context, db *gorm.DB, logger *logrus.Logger, businessId string, item DamageBatchItem) error {
	if !item.Quantity.IsPositive() {
		return utils.Validationf("quantity must be positive")
	}
	return RunPosting(ctx, db, businessId, func(tx *gorm.DB) error {
		returnNumber, err := models.NextDocumentNumber(tx, businessId, models.NumberModuleReturn)
		if err != nil {
			return err
		}
		record := models.InventoryReturn{
			BusinessId:   businessId,
			ReturnNumber: returnNumber,
			ProductId:    item.ProductId,
			LocationId:   item.LocationId,
			Quantity:     item.Quantity,
			ReturnType:   models.ReturnTypeDamage,
			Reason:       item.Reason,
			Status:       models.ReturnStatusProcessed,
		}
		if err := tx.Create(&record).Error; err != nil {
			config.LogError(logger, "returnWorkflow.go", "processDamageItem", "CreateReturn", record, err)
			return utils.Upstream(err)
		}
		if err := ApplyDamageMove(tx, logger, businessId, item.ProductId, item.LocationId, item.Quantity); err != nil {
			return err
		}
		// Damage moves no money; the ledger row exists for the audit trail.
		_, err = AppendAccountTransaction(tx, logger, models.AccountTransaction{
			BusinessId:  businessId,
			Type:        models.AccountTransactionTypeInventoryDamage,
			Amount:      decimal.Zero,
			Description: item.Reason,
			ReferenceNo: returnNumber,
		})
		return err
	})
}

type SupplierClaimInput struct {
	SupplierId int             `json:"supplierId" binding:"required"`
	ProductId  int             `json:"productId" binding:"required"`
	LocationId int             `json:"locationId" binding:"required"`
	Quantity   decimal.Decimal `json:"quantity" binding:"required"`
	Amount     decimal.Decimal `json:"amount"`
}

// ProcessSupplierClaim sends damaged units back to the supplier: the damaged
// bucket shrinks and the supplier owes us the claim amount as a credit.
func ProcessSupplierClaim(ctx context.Context, db *gorm.DB, logger *logrus.Logger, businessId string, input SupplierClaimInput) (*models.SupplierDamageClaim, error) {
	if !input.Quantity.IsPositive() {
		return nil, utils.Validationf("quantity must be positive")
	}
	if input.Amount.IsNegative() {
		return nil, utils.Validationf("amount must not be negative")
	}

	var claim models.SupplierDamageClaim
	err := RunPosting(ctx, db, businessId, func(tx *gorm.DB) error {
		if _, err := models.GetSupplierById(tx, businessId, input.SupplierId); err != nil {
			return err
		}
		claim = models.SupplierDamageClaim{
			BusinessId: businessId,
			SupplierId: input.SupplierId,
			ProductId:  input.ProductId,
			LocationId: input.LocationId,
			Quantity:   input.Quantity,
			Amount:     input.Amount,
		}
		if err := tx.Create(&claim).Error; err != nil {
			config.LogError(logger, "returnWorkflow.go", "ProcessSupplierClaim", "CreateClaim", claim, err)
			return utils.Upstream(err)
		}
		return ApplySupplierDamageClaim(tx, logger, businessId, &claim)
	})
	if err != nil {
		return nil, err
	}
	return &claim, nil
}
