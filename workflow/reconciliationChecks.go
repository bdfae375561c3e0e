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

type BalanceDrift struct {
	CustomerId int             `json:"customer_id"`
	Stored     decimal.Decimal `json:"stored"`
	Expected   decimal.Decimal `json:"expected"`
	Drift      decimal.Decimal `json:"drift"`
}

type StockDrift struct {
	ProductId int             `json:"product_id"`
	Global    decimal.Decimal `json:"global"`
	Locations decimal.Decimal `json:"locations"`
	Drift     decimal.Decimal `json:"drift"`
}

// FindBalanceDrift compares each customer's stored outstanding balance against
// the sum of total minus paid over their non-cancelled invoices. Drift means
// some historical posting went around the propagator.
func FindBalanceDrift(ctx context.Context, db *gorm.DB, logger *logrus.Logger, businessId string) ([]BalanceDrift, error) {
	var customers []models.Customer
	err := db.WithContext(ctx).Where("business_id = ?", businessId).Order("id").Find(&customers).Error
	if err != nil {
		config.LogError(logger, "reconciliationChecks.go", "FindBalanceDrift", "FindCustomers", businessId, err)
		return nil, utils.Upstream(err)
	}

	drifts := []BalanceDrift{}
	for _, customer := range customers {
		type row struct {
			Expected decimal.Decimal `gorm:"column:expected"`
		}
		var r row
		err := db.WithContext(ctx).Table("invoices").
			Select("COALESCE(SUM(invoices.total_amount - invoices.paid_amount), 0) AS expected").
			Joins("JOIN orders ON orders.id = invoices.order_id").
			Where("invoices.business_id = ? AND invoices.customer_id = ?", businessId, customer.ID).
			Where("orders.status <> ?", models.OrderStatusCancelled).
			Scan(&r).Error
		if err != nil {
			config.LogError(logger, "reconciliationChecks.go", "FindBalanceDrift", "SumInvoices", customer.ID, err)
			return nil, utils.Upstream(err)
		}
		if !customer.OutstandingBalance.Equal(r.Expected) {
			drifts = append(drifts, BalanceDrift{
				CustomerId: customer.ID,
				Stored:     customer.OutstandingBalance,
				Expected:   r.Expected,
				Drift:      customer.OutstandingBalance.Sub(r.Expected),
			})
		}
	}
	return drifts, nil
}

// RepairBalanceDrift overwrites the stored balance with the recomputed value.
func RepairBalanceDrift(ctx context.Context, db *gorm.DB, logger *logrus.Logger, businessId string, drifts []BalanceDrift) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, drift := range drifts {
			err := tx.Model(&models.Customer{}).
				Where("business_id = ? AND id = ?", businessId, drift.CustomerId).
				Update("outstanding_balance", drift.Expected).Error
			if err != nil {
				config.LogError(logger, "reconciliationChecks.go", "RepairBalanceDrift", "UpdateCustomer", drift.CustomerId, err)
				return utils.Upstream(err)
			}
		}
		return nil
	})
}

// FindStockDrift compares each product's global good stock against the sum of
// its per-location quantities. The two levels move together in every posting,
// except where a sale clamped global at zero while a location went negative,
// so small persistent drift here is a signal, not always a defect.
func FindStockDrift(ctx context.Context, db *gorm.DB, logger *logrus.Logger, businessId string) ([]StockDrift, error) {
	var products []models.Product
	err := db.WithContext(ctx).Where("business_id = ?", businessId).Order("id").Find(&products).Error
	if err != nil {
		config.LogError(logger, "reconciliationChecks.go", "FindStockDrift", "FindProducts", businessId, err)
		return nil, utils.Upstream(err)
	}

	drifts := []StockDrift{}
	for _, product := range products {
		type row struct {
			Total decimal.Decimal `gorm:"column:total"`
		}
		var r row
		err := db.WithContext(ctx).Table("product_stocks").
			Select("COALESCE(SUM(quantity), 0) AS total").
			Where("business_id = ? AND product_id = ?", businessId, product.ID).
			Scan(&r).Error
		if err != nil {
			config.LogError(logger, "reconciliationChecks.go", "FindStockDrift", "SumStocks", product.ID, err)
			return nil, utils.Upstream(err)
		}
		if !product.StockQuantity.Equal(r.Total) {
			drifts = append(drifts, StockDrift{
				ProductId: product.ID,
				Global:    product.StockQuantity,
				Locations: r.Total,
				Drift:     product.StockQuantity.Sub(r.Total),
			})
		}
	}
	return drifts, nil
}
