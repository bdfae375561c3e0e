package workflow

import (
	"context"

	"bitbucket.org/mmdatafocus/distribution_backend/config"
	"bitbucket.org/mmdatafocus/distribution_backend/models"
	"bitbucket.org/mmdatafocus/distribution_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type CreateLoadingSheetInput struct {
	LorryNumber string `json:"lorryNumber" binding:"required"`
	DriverId    int    `json:"driverId" binding:"required"`
	OrderIds    []int  `json:"orderIds" binding:"required,min=1"`
}

// ProcessCreateLoadingSheet groups confirmed orders onto one dispatch sheet.
func ProcessCreateLoadingSheet(ctx context.Context, db *gorm.DB, logger *logrus.Logger, businessId string, input CreateLoadingSheetInput) (*models.LoadingSheet, error) {
	if len(input.OrderIds) == 0 {
		return nil, utils.Validationf("orderIds are required")
	}

	var sheet models.LoadingSheet
	err := RunPosting(ctx, db, businessId, func(tx *gorm.DB) error {
		for _, orderId := range input.OrderIds {
			order, err := models.GetOrderById(tx, businessId, orderId)
			if err != nil {
				return err
			}
			if order.Status == models.OrderStatusCancelled {
				return utils.Conflictf("order %d is cancelled and cannot be loaded", orderId)
			}
		}
		sheet = models.LoadingSheet{
			BusinessId:  businessId,
			LorryNumber: input.LorryNumber,
			DriverId:    input.DriverId,
			Status:      models.LoadingSheetStatusLoading,
		}
		if err := tx.Create(&sheet).Error; err != nil {
			config.LogError(logger, "loadingSheetWorkflow.go", "ProcessCreateLoadingSheet", "CreateSheet", sheet, err)
			return utils.Upstream(err)
		}
		for _, orderId := range input.OrderIds {
			link := models.LoadingSheetOrder{LoadingSheetId: sheet.ID, OrderId: orderId}
			if err := tx.Create(&link).Error; err != nil {
				config.LogError(logger, "loadingSheetWorkflow.go", "ProcessCreateLoadingSheet", "LinkOrder", orderId, err)
				return utils.Upstream(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sheet, nil
}

// ProcessLoadingSheetStatus advances the sheet one step along
// Loading -> In Transit -> Completed.
func ProcessLoadingSheetStatus(ctx context.Context, db *gorm.DB, logger *logrus.Logger, businessId string, sheetId int, target models.LoadingSheetStatus) error {
	return RunPosting(ctx, db, businessId, func(tx *gorm.DB) error {
		sheet, err := models.GetLoadingSheetById(tx, businessId, sheetId)
		if err != nil {
			return err
		}
		if err := sheet.NextStatus(target); err != nil {
			return err
		}
		err = tx.Model(&models.LoadingSheet{}).Where("id = ?", sheet.ID).
			Update("status", sheet.Status).Error
		if err != nil {
			config.LogError(logger, "loadingSheetWorkflow.go", "ProcessLoadingSheetStatus", "UpdateSheet", sheet.ID, err)
			return utils.Upstream(err)
		}
		return nil
	})
}

type DeliveryAdjustment struct {
	OrderItemId       int             `json:"orderItemId" binding:"required"`
	DeliveredQuantity decimal.Decimal `json:"deliveredQuantity"`
}

type ReconcileDeliveryInput struct {
	UserId      int                  `json:"userId" binding:"required"`
	OrderId     int                  `json:"orderId" binding:"required"`
	Adjustments []DeliveryAdjustment `json:"adjustments" binding:"required,min=1,dive"`
}

// ProcessDeliveryReconciliation settles short deliveries after transit.
// Undelivered units go back to stock, the affected lines scale down to what
// was actually delivered, and the invoice total and customer balance follow.
// The pre-change invoice state is snapshotted first.
func ProcessDeliveryReconciliation(ctx context.Context, db *gorm.DB, logger *logrus.Logger, businessId string, sheetId int, input ReconcileDeliveryInput) error {
	return RunPosting(ctx, db, businessId, func(tx *gorm.DB) error {
		sheet, err := models.GetLoadingSheetById(tx, businessId, sheetId)
		if err != nil {
			return err
		}
		if sheet.Status != models.LoadingSheetStatusCompleted {
			return utils.Conflictf("loading sheet %d is %s, reconciliation needs Completed", sheet.ID, sheet.Status)
		}
		onSheet := false
		for _, link := range sheet.Orders {
			if link.OrderId == input.OrderId {
				onSheet = true
				break
			}
		}
		if !onSheet {
			return utils.Validationf("order %d is not on loading sheet %d", input.OrderId, sheet.ID)
		}

		invoice, err := models.GetInvoiceByOrderId(tx, businessId, input.OrderId)
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
		order, err := models.GetOrderById(tx, businessId, input.OrderId)
		if err != nil {
			return err
		}
		if err := snapshotInvoiceHistory(tx, logger, businessId, input.UserId, invoice, order, "delivery reconciliation"); err != nil {
			return err
		}

		itemsById := make(map[int]*models.OrderItem, len(order.Items))
		for i := range order.Items {
			itemsById[order.Items[i].ID] = &order.Items[i]
		}

		for _, adj := range input.Adjustments {
			item, ok := itemsById[adj.OrderItemId]
			if !ok {
				return utils.Validationf("order item %d does not belong to order %d", adj.OrderItemId, order.ID)
			}
			if adj.DeliveredQuantity.IsNegative() || adj.DeliveredQuantity.GreaterThan(item.Quantity) {
				return utils.Validationf("delivered quantity for item %d must be between 0 and %s", item.ID, item.Quantity)
			}
			if adj.DeliveredQuantity.Equal(item.Quantity) {
				continue
			}

			undelivered := item.Quantity.Sub(adj.DeliveredQuantity)
			if err := ApplyQuantityDiff(tx, logger, businessId, item.ProductId, undelivered.Neg()); err != nil {
				return err
			}

			ratio := decimal.Zero
			if item.Quantity.IsPositive() {
				ratio = adj.DeliveredQuantity.Div(item.Quantity)
			}
			err = tx.Model(&models.OrderItem{}).Where("id = ?", item.ID).Updates(map[string]interface{}{
				"quantity":          adj.DeliveredQuantity,
				"total_price":       item.TotalPrice.Mul(ratio),
				"commission_earned": item.CommissionEarned.Mul(ratio),
			}).Error
			if err != nil {
				config.LogError(logger, "loadingSheetWorkflow.go", "ProcessDeliveryReconciliation", "UpdateOrderItem", item.ID, err)
				return utils.Upstream(err)
			}
			item.Quantity = adj.DeliveredQuantity
			item.TotalPrice = item.TotalPrice.Mul(ratio)
			item.CommissionEarned = item.CommissionEarned.Mul(ratio)
		}

		newTotal, err := models.SumOrderItemTotals(tx, order.ID)
		if err != nil {
			return err
		}
		err = tx.Model(&models.Order{}).Where("id = ?", order.ID).
			Update("total_amount", newTotal).Error
		if err != nil {
			config.LogError(logger, "loadingSheetWorkflow.go", "ProcessDeliveryReconciliation", "UpdateOrder", order.ID, err)
			return utils.Upstream(err)
		}

		delta, err := ReconcileInvoiceTotal(tx, logger, invoice, newTotal)
		if err != nil {
			return err
		}
		if err := ApplyBalanceDelta(tx, logger, businessId, invoice.CustomerId, delta); err != nil {
			return err
		}

		newCommission := decimal.Zero
		for i := range order.Items {
			newCommission = newCommission.Add(order.Items[i].CommissionEarned)
		}
		return syncRepCommission(tx, logger, businessId, order.ID, order.SalesRepId, newCommission)
	})
}
