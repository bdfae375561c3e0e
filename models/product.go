package models

import (
	"time"

	"bitbucket.org/mmdatafocus/distribution_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CommissionType string

const (
	CommissionTypePercentage CommissionType = "percentage"
	CommissionTypeFixed      CommissionType = "fixed"
)

type Product struct {
	ID              int             `gorm:"primary_key" json:"id"`
	BusinessId      string          `gorm:"index;not null" json:"business_id"`
	Name            string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Sku             string          `gorm:"size:50" json:"sku"`
	SupplierName    string          `gorm:"size:100;index" json:"supplier_name"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	Mrp             decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"mrp"`
	CostPrice       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cost_price"`
	ActualCostPrice decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"actual_cost_price"`
	// Global counters; each mirrors the sum of per-location rows but is
	// maintained independently.
	StockQuantity   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"stock_quantity"`
	DamagedQuantity decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"damaged_quantity"`
	CommissionType  CommissionType  `gorm:"type:enum('percentage','fixed');default:'percentage'" json:"commission_type"`
	CommissionValue decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"commission_value"`
	IsActive        *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type Location struct {
	ID         int       `gorm:"primary_key" json:"id"`
	BusinessId string    `gorm:"index;not null" json:"business_id"`
	Name       string    `gorm:"size:100;not null" json:"name" binding:"required"`
	IsActive   *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// ProductStock is the location-scoped mirror of Product's aggregate counters.
// A row is inserted on demand the first time a location touches a product.
type ProductStock struct {
	ID              int             `gorm:"primary_key" json:"id"`
	BusinessId      string          `gorm:"index;not null" json:"business_id"`
	ProductId       int             `gorm:"index:uniq_product_location,unique;not null" json:"product_id"`
	LocationId      int             `gorm:"index:uniq_product_location,unique;not null" json:"location_id"`
	Quantity        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	DamagedQuantity decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"damaged_quantity"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// SalesRepLocation assigns a sales rep to the locations their sales draw
// stock from.
type SalesRepLocation struct {
	ID         int       `gorm:"primary_key" json:"id"`
	BusinessId string    `gorm:"index;not null" json:"business_id"`
	SalesRepId int       `gorm:"index:uniq_rep_location,unique;not null" json:"sales_rep_id"`
	LocationId int       `gorm:"index:uniq_rep_location,unique;not null" json:"location_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func GetProductById(tx *gorm.DB, businessId string, id int) (*Product, error) {
	var product Product
	err := tx.Where("business_id = ? AND id = ?", businessId, id).First(&product).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NotFoundf("product %d not found", id)
		}
		return nil, utils.Upstream(err)
	}
	return &product, nil
}

// GetOrCreateProductStock returns the per-location stock row, inserting a
// zero row if the location has never held this product.
func GetOrCreateProductStock(tx *gorm.DB, businessId string, productId int, locationId int) (*ProductStock, error) {
	var stock ProductStock
	err := tx.Where("business_id = ? AND product_id = ? AND location_id = ?", businessId, productId, locationId).
		First(&stock).Error
	if err == nil {
		return &stock, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, utils.Upstream(err)
	}
	stock = ProductStock{
		BusinessId: businessId,
		ProductId:  productId,
		LocationId: locationId,
		Quantity:   decimal.Zero,
	}
	if err := tx.Create(&stock).Error; err != nil {
		return nil, utils.Upstream(err)
	}
	return &stock, nil
}

// GetSalesRepStocks loads the rep's assigned locations' stock rows for one
// product. Empty result means the rep has no assigned locations holding it.
func GetSalesRepStocks(tx *gorm.DB, businessId string, salesRepId int, productId int) ([]*ProductStock, error) {
	var locationIds []int
	err := tx.Model(&SalesRepLocation{}).
		Where("business_id = ? AND sales_rep_id = ?", businessId, salesRepId).
		Pluck("location_id", &locationIds).Error
	if err != nil {
		return nil, utils.Upstream(err)
	}
	if len(locationIds) == 0 {
		return nil, nil
	}
	var stocks []*ProductStock
	err = tx.Where("business_id = ? AND product_id = ? AND location_id IN ?", businessId, productId, locationIds).
		Find(&stocks).Error
	if err != nil {
		return nil, utils.Upstream(err)
	}
	return stocks, nil
}
