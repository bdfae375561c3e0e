package models

import (
	"time"

	"bitbucket.org/mmdatafocus/distribution_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusConfirmed OrderStatus = "Confirmed"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

type Order struct {
	ID          int             `gorm:"primary_key" json:"id"`
	BusinessId  string          `gorm:"index;not null" json:"business_id"`
	CustomerId  int             `gorm:"index;not null" json:"customer_id" binding:"required"`
	SalesRepId  int             `gorm:"index;default:0" json:"sales_rep_id"`
	OrderDate   time.Time       `gorm:"not null" json:"order_date"`
	Status      OrderStatus     `gorm:"type:enum('Confirmed','Cancelled');not null;default:'Confirmed'" json:"status"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	Items       []OrderItem     `gorm:"foreignKey:OrderId" json:"items"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type OrderItem struct {
	ID               int             `gorm:"primary_key" json:"id"`
	OrderId          int             `gorm:"index;not null" json:"order_id"`
	ProductId        int             `gorm:"index;not null" json:"product_id"`
	Quantity         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	FreeQuantity     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"free_quantity"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	ActualUnitPrice  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"actual_unit_price"`
	ActualUnitCost   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"actual_unit_cost"`
	DiscountPercent  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount_percent"`
	DiscountAmount   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount_amount"`
	TotalPrice       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_price"`
	CommissionEarned decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"commission_earned"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type RepCommissionStatus string

const (
	RepCommissionStatusPending  RepCommissionStatus = "Pending"
	RepCommissionStatusApproved RepCommissionStatus = "Approved"
	RepCommissionStatusPaid     RepCommissionStatus = "Paid"
)

// RepCommission accrues once per order at sale time, independently of payment
// collection.
type RepCommission struct {
	ID         int                 `gorm:"primary_key" json:"id"`
	BusinessId string              `gorm:"index;not null" json:"business_id"`
	OrderId    int                 `gorm:"index:uniq_commission_order,unique;not null" json:"order_id"`
	SalesRepId int                 `gorm:"index;not null" json:"sales_rep_id"`
	Amount     decimal.Decimal     `gorm:"type:decimal(20,4);default:0" json:"amount"`
	Status     RepCommissionStatus `gorm:"type:enum('Pending','Approved','Paid');not null;default:'Pending'" json:"status"`
	CreatedAt  time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetOrderById(tx *gorm.DB, businessId string, id int) (*Order, error) {
	var order Order
	err := tx.Preload("Items").Where("business_id = ? AND id = ?", businessId, id).First(&order).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NotFoundf("order %d not found", id)
		}
		return nil, utils.Upstream(err)
	}
	return &order, nil
}

// SumOrderItemTotals re-sums the authoritative line totals for one order.
// Used when line totals themselves changed (returns, damages), where a delta
// subtraction would drift.
func SumOrderItemTotals(tx *gorm.DB, orderId int) (decimal.Decimal, error) {
	var items []OrderItem
	if err := tx.Where("order_id = ?", orderId).Find(&items).Error; err != nil {
		return decimal.Zero, utils.Upstream(err)
	}
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.TotalPrice)
	}
	return total, nil
}
