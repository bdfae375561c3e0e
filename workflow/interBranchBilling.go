package workflow

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/distribution_backend/config"
	"bitbucket.org/mmdatafocus/distribution_backend/models"
	"bitbucket.org/mmdatafocus/distribution_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type InterBranchBillInput struct {
	Year  int `json:"year" binding:"required"`
	Month int `json:"month" binding:"required"`
}

type InterBranchBillResult struct {
	InvoiceNo   string          `json:"invoiceNo"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	LineCount   int             `json:"lineCount"`
	Replaced    bool            `json:"replaced"`
}

type billedLine struct {
	ProductId int             `gorm:"column:product_id"`
	Quantity  decimal.Decimal `gorm:"column:quantity"`
	CostPrice decimal.Decimal `gorm:"column:cost_price"`
}

// ProcessInterBranchBill aggregates one month of agency product movement into
// a single invoice billed to the agency's internal customer. The run is
// idempotent per month: re-running replaces the existing invoice's lines and
// applies only the difference to the customer balance. A distributed lock
// keeps two runs for the same agency and month from racing.
func ProcessInterBranchBill(ctx context.Context, db *gorm.DB, logger *logrus.Logger, businessId string, agency *models.Agency, input InterBranchBillInput) (*InterBranchBillResult, error) {
	if input.Month < 1 || input.Month > 12 {
		return nil, utils.Validationf("month must be between 1 and 12")
	}
	if input.Year < 2000 {
		return nil, utils.Validationf("year is out of range")
	}

	lockKey := fmt.Sprintf("interbranch:%s:%s:%04d-%02d", businessId, agency.Code, input.Year, input.Month)
	release, err := AcquireBillingRunLock(ctx, businessId, lockKey)
	if err != nil {
		return nil, err
	}
	defer release()

	var result InterBranchBillResult
	err = RunPosting(ctx, db, businessId, func(tx *gorm.DB) error {
		monthStart := time.Date(input.Year, time.Month(input.Month), 1, 0, 0, 0, 0, time.UTC)
		monthEnd := monthStart.AddDate(0, 1, 0)

		lines, err := aggregateAgencyMovement(tx, logger, businessId, agency.SupplierNameFilter, monthStart, monthEnd)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return utils.NotFoundf("no %s movement found for %04d-%02d", agency.Code, input.Year, input.Month)
		}

		total := decimal.Zero
		for _, line := range lines {
			total = total.Add(line.Quantity.Mul(line.CostPrice))
		}

		if _, err := lockCustomer(tx, businessId, agency.CustomerId); err != nil {
			return err
		}

		invoiceNo := fmt.Sprintf("%s-%04d-%02d", agency.InvoicePrefix, input.Year, input.Month)
		invoice, err := models.GetInvoiceByNumber(tx, businessId, invoiceNo)
		if err != nil {
			if kind, ok := utils.KindOf(err); !ok || kind != utils.ErrorKindNotFound {
				return err
			}
		}

		if invoice == nil {
			invoice, err = createInterBranchInvoice(tx, logger, businessId, agency, invoiceNo, monthStart, total, lines)
			if err != nil {
				return err
			}
			if err := ApplyBalanceDelta(tx, logger, businessId, agency.CustomerId, total); err != nil {
				return err
			}
			result = InterBranchBillResult{InvoiceNo: invoiceNo, TotalAmount: total, LineCount: len(lines)}
			return nil
		}

		// Re-run: replace the lines, bill only the movement delta.
		if _, err := lockInvoice(tx, businessId, invoice.ID); err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", invoice.OrderId).Delete(&models.OrderItem{}).Error; err != nil {
			config.LogError(logger, "interBranchBilling.go", "ProcessInterBranchBill", "DeleteOldLines", invoice.OrderId, err)
			return utils.Upstream(err)
		}
		if err := insertInterBranchLines(tx, logger, invoice.OrderId, lines); err != nil {
			return err
		}
		err = tx.Model(&models.Order{}).Where("id = ?", invoice.OrderId).
			Update("total_amount", total).Error
		if err != nil {
			config.LogError(logger, "interBranchBilling.go", "ProcessInterBranchBill", "UpdateOrder", invoice.OrderId, err)
			return utils.Upstream(err)
		}
		delta, err := ReconcileInvoiceTotal(tx, logger, invoice, total)
		if err != nil {
			return err
		}
		if err := ApplyBalanceDelta(tx, logger, businessId, agency.CustomerId, delta); err != nil {
			return err
		}
		result = InterBranchBillResult{InvoiceNo: invoiceNo, TotalAmount: total, LineCount: len(lines), Replaced: true}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// aggregateAgencyMovement sums billed quantity per product over confirmed
// orders in the window, valued at the product's cost price. Products whose
// supplier name contains the agency's filter participate; free units move
// stock but are never billed inter-branch.
func aggregateAgencyMovement(tx *gorm.DB, logger *logrus.Logger, businessId string, supplierName string, from, to time.Time) ([]billedLine, error) {
	var lines []billedLine
	err := tx.Table("order_items").
		Select("order_items.product_id AS product_id, SUM(order_items.quantity) AS quantity, products.cost_price AS cost_price").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("orders.business_id = ?", businessId).
		Where("orders.status = ?", models.OrderStatusConfirmed).
		Where("orders.order_date >= ? AND orders.order_date < ?", from, to).
		Where("products.supplier_name LIKE ?", "%"+supplierName+"%").
		Group("order_items.product_id, products.cost_price").
		Order("order_items.product_id").
		Scan(&lines).Error
	if err != nil {
		config.LogError(logger, "interBranchBilling.go", "aggregateAgencyMovement", "Aggregate", supplierName, err)
		return nil, utils.Upstream(err)
	}
	return lines, nil
}

func createInterBranchInvoice(tx *gorm.DB, logger *logrus.Logger, businessId string, agency *models.Agency, invoiceNo string, billDate time.Time, total decimal.Decimal, lines []billedLine) (*models.Invoice, error) {
	order := models.Order{
		BusinessId:  businessId,
		CustomerId:  agency.CustomerId,
		OrderDate:   billDate,
		Status:      models.OrderStatusConfirmed,
		TotalAmount: total,
	}
	if err := tx.Create(&order).Error; err != nil {
		config.LogError(logger, "interBranchBilling.go", "createInterBranchInvoice", "CreateOrder", order, err)
		return nil, utils.Upstream(err)
	}
	if err := insertInterBranchLines(tx, logger, order.ID, lines); err != nil {
		return nil, err
	}

	invoice := models.Invoice{
		BusinessId:  businessId,
		InvoiceNo:   invoiceNo,
		OrderId:     order.ID,
		CustomerId:  agency.CustomerId,
		InvoiceDate: billDate,
		TotalAmount: total,
	}
	invoice.Sync()
	if err := tx.Create(&invoice).Error; err != nil {
		config.LogError(logger, "interBranchBilling.go", "createInterBranchInvoice", "CreateInvoice", invoice, err)
		return nil, utils.Upstream(err)
	}
	return &invoice, nil
}

func insertInterBranchLines(tx *gorm.DB, logger *logrus.Logger, orderId int, lines []billedLine) error {
	for _, line := range lines {
		item := models.OrderItem{
			OrderId:         orderId,
			ProductId:       line.ProductId,
			Quantity:        line.Quantity,
			UnitPrice:       line.CostPrice,
			ActualUnitPrice: line.CostPrice,
			ActualUnitCost:  line.CostPrice,
			TotalPrice:      line.Quantity.Mul(line.CostPrice),
		}
		if err := tx.Create(&item).Error; err != nil {
			config.LogError(logger, "interBranchBilling.go", "insertInterBranchLines", "CreateLine", item, err)
			return utils.Upstream(err)
		}
	}
	return nil
}
