package workflow

import (
	"sort"

	"bitbucket.org/mmdatafocus/distribution_backend/config"
	"bitbucket.org/mmdatafocus/distribution_backend/models"
	"bitbucket.org/mmdatafocus/distribution_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DeductionOrder decides which of a rep's locations give up stock first
// during a sale. It is a named strategy so the policy can change without
// touching the ledger logic.
type DeductionOrder func(stocks []*models.ProductStock) []*models.ProductStock

// LargestAvailableFirst consumes from the location holding the most stock
// first. This is the production policy.
func LargestAvailableFirst(stocks []*models.ProductStock) []*models.ProductStock {
	ordered := append([]*models.ProductStock(nil), stocks...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Quantity.GreaterThan(ordered[j].Quantity)
	})
	return ordered
}

// ApplySaleDeduction removes qty (paid + free units) from good stock. The
// global counter is clamped at zero; location rows are NOT clamped and may go
// negative when the rep's locations are exhausted (no backorder handling).
func ApplySaleDeduction(tx *gorm.DB, logger *logrus.Logger, businessId string, salesRepId int, product *models.Product, qty decimal.Decimal, pick DeductionOrder) error {
	if qty.IsZero() {
		return nil
	}
	product.StockQuantity = utils.ClampToZero(product.StockQuantity.Sub(qty))
	if err := tx.Model(&models.Product{}).Where("id = ?", product.ID).
		Update("stock_quantity", product.StockQuantity).Error; err != nil {
		config.LogError(logger, "stockAdjustment.go", "ApplySaleDeduction", "UpdateProduct", product.ID, err)
		return utils.Upstream(err)
	}

	if salesRepId <= 0 {
		return nil
	}
	stocks, err := models.GetSalesRepStocks(tx, businessId, salesRepId, product.ID)
	if err != nil {
		config.LogError(logger, "stockAdjustment.go", "ApplySaleDeduction", "GetSalesRepStocks", salesRepId, err)
		return err
	}
	if len(stocks) == 0 {
		return nil
	}

	ordered := pick(stocks)
	remaining := qty
	for i, stock := range ordered {
		if !remaining.IsPositive() {
			break
		}
		available := utils.ClampToZero(stock.Quantity)
		take := remaining
		if available.LessThan(take) {
			take = available
		}
		// The last location absorbs whatever is left, even below zero.
		if i == len(ordered)-1 {
			take = remaining
		}
		stock.Quantity = stock.Quantity.Sub(take)
		remaining = remaining.Sub(take)
		if err := tx.Model(&models.ProductStock{}).Where("id = ?", stock.ID).
			Update("quantity", stock.Quantity).Error; err != nil {
			config.LogError(logger, "stockAdjustment.go", "ApplySaleDeduction", "UpdateProductStock", stock.ID, err)
			return utils.Upstream(err)
		}
	}
	return nil
}

// ApplyGoodReturn puts qty back into good stock at both the global and the
// location level, inserting the location row if it does not exist.
func ApplyGoodReturn(tx *gorm.DB, logger *logrus.Logger, businessId string, productId int, locationId int, qty decimal.Decimal) error {
	err := tx.Model(&models.Product{}).Where("business_id = ? AND id = ?", businessId, productId).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", qty)).Error
	if err != nil {
		config.LogError(logger, "stockAdjustment.go", "ApplyGoodReturn", "UpdateProduct", productId, err)
		return utils.Upstream(err)
	}
	stock, err := models.GetOrCreateProductStock(tx, businessId, productId, locationId)
	if err != nil {
		config.LogError(logger, "stockAdjustment.go", "ApplyGoodReturn", "GetOrCreateProductStock", productId, err)
		return err
	}
	err = tx.Model(&models.ProductStock{}).Where("id = ?", stock.ID).
		Update("quantity", stock.Quantity.Add(qty)).Error
	if err != nil {
		config.LogError(logger, "stockAdjustment.go", "ApplyGoodReturn", "UpdateProductStock", stock.ID, err)
		return utils.Upstream(err)
	}
	return nil
}

// ApplyDamageMove transfers qty from good to damaged stock at both levels.
// Good stock floors at zero; the damaged counter takes the full quantity.
func ApplyDamageMove(tx *gorm.DB, logger *logrus.Logger, businessId string, productId int, locationId int, qty decimal.Decimal) error {
	product, err := models.GetProductById(tx, businessId, productId)
	if err != nil {
		return err
	}
	err = tx.Model(&models.Product{}).Where("id = ?", product.ID).Updates(map[string]interface{}{
		"stock_quantity":   utils.ClampToZero(product.StockQuantity.Sub(qty)),
		"damaged_quantity": product.DamagedQuantity.Add(qty),
	}).Error
	if err != nil {
		config.LogError(logger, "stockAdjustment.go", "ApplyDamageMove", "UpdateProduct", productId, err)
		return utils.Upstream(err)
	}

	stock, err := models.GetOrCreateProductStock(tx, businessId, productId, locationId)
	if err != nil {
		return err
	}
	err = tx.Model(&models.ProductStock{}).Where("id = ?", stock.ID).Updates(map[string]interface{}{
		"quantity":         utils.ClampToZero(stock.Quantity.Sub(qty)),
		"damaged_quantity": stock.DamagedQuantity.Add(qty),
	}).Error
	if err != nil {
		config.LogError(logger, "stockAdjustment.go", "ApplyDamageMove", "UpdateProductStock", stock.ID, err)
		return utils.Upstream(err)
	}
	return nil
}

// ApplyQuantityDiff adjusts global good stock for an order line edit:
// positive diff consumes more stock, negative restores it.
func ApplyQuantityDiff(tx *gorm.DB, logger *logrus.Logger, businessId string, productId int, diff decimal.Decimal) error {
	if diff.IsZero() {
		return nil
	}
	product, err := models.GetProductById(tx, businessId, productId)
	if err != nil {
		return err
	}
	err = tx.Model(&models.Product{}).Where("id = ?", product.ID).
		Update("stock_quantity", utils.ClampToZero(product.StockQuantity.Sub(diff))).Error
	if err != nil {
		config.LogError(logger, "stockAdjustment.go", "ApplyQuantityDiff", "UpdateProduct", productId, err)
		return utils.Upstream(err)
	}
	return nil
}

// RestoreCancelledOrderStock puts back quantity+free for every item of an
// order being cancelled. The status guard makes cancellation idempotent:
// an already-Cancelled order is never restored twice.
func RestoreCancelledOrderStock(tx *gorm.DB, logger *logrus.Logger, order *models.Order) error {
	if order.Status == models.OrderStatusCancelled {
		return utils.Conflictf("order %d is already cancelled", order.ID)
	}
	for _, item := range order.Items {
		restore := item.Quantity.Add(item.FreeQuantity)
		err := tx.Model(&models.Product{}).Where("business_id = ? AND id = ?", order.BusinessId, item.ProductId).
			Update("stock_quantity", gorm.Expr("stock_quantity + ?", restore)).Error
		if err != nil {
			config.LogError(logger, "stockAdjustment.go", "RestoreCancelledOrderStock", "UpdateProduct", item.ProductId, err)
			return utils.Upstream(err)
		}
	}
	return nil
}

// ApplySupplierDamageClaim reduces damaged stock by the claimed quantity at
// both levels and credits the supplier. Two unrelated effects, one action.
func ApplySupplierDamageClaim(tx *gorm.DB, logger *logrus.Logger, businessId string, claim *models.SupplierDamageClaim) error {
	product, err := models.GetProductById(tx, businessId, claim.ProductId)
	if err != nil {
		return err
	}
	err = tx.Model(&models.Product{}).Where("id = ?", product.ID).
		Update("damaged_quantity", utils.ClampToZero(product.DamagedQuantity.Sub(claim.Quantity))).Error
	if err != nil {
		config.LogError(logger, "stockAdjustment.go", "ApplySupplierDamageClaim", "UpdateProduct", claim.ProductId, err)
		return utils.Upstream(err)
	}
	stock, err := models.GetOrCreateProductStock(tx, businessId, claim.ProductId, claim.LocationId)
	if err != nil {
		return err
	}
	err = tx.Model(&models.ProductStock{}).Where("id = ?", stock.ID).
		Update("damaged_quantity", utils.ClampToZero(stock.DamagedQuantity.Sub(claim.Quantity))).Error
	if err != nil {
		config.LogError(logger, "stockAdjustment.go", "ApplySupplierDamageClaim", "UpdateProductStock", stock.ID, err)
		return utils.Upstream(err)
	}

	supplierPayment := models.SupplierPayment{
		BusinessId:  businessId,
		SupplierId:  claim.SupplierId,
		Amount:      claim.Amount,
		Method:      models.PaymentMethodCredit,
		Description: "Damage claim credit",
		PaymentDate: claim.CreatedAt,
	}
	if err := tx.Create(&supplierPayment).Error; err != nil {
		config.LogError(logger, "stockAdjustment.go", "ApplySupplierDamageClaim", "CreateSupplierPayment", claim.SupplierId, err)
		return utils.Upstream(err)
	}
	return nil
}
