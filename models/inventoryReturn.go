package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReturnType string

const (
	ReturnTypeGood   ReturnType = "Good"
	ReturnTypeDamage ReturnType = "Damage"
)

type ReturnStatus string

const (
	ReturnStatusProcessed ReturnStatus = "Processed"
)

// InventoryReturn records a single stock movement back into (or out of) good
// stock. CustomerId nil means an internal damage report, not a customer
// return.
type InventoryReturn struct {
	ID           int             `gorm:"primary_key" json:"id"`
	BusinessId   string          `gorm:"index;not null" json:"business_id"`
	ReturnNumber string          `gorm:"size:50;not null;index:uniq_return_no,unique" json:"return_number"`
	ProductId    int             `gorm:"index;not null" json:"product_id"`
	LocationId   int             `gorm:"index;not null" json:"location_id"`
	CustomerId   *int            `gorm:"index" json:"customer_id"`
	InvoiceId    *int            `gorm:"index" json:"invoice_id"`
	Quantity     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	ReturnType   ReturnType      `gorm:"type:enum('Good','Damage');not null" json:"return_type"`
	Reason       string          `gorm:"size:255" json:"reason"`
	Status       ReturnStatus    `gorm:"type:enum('Processed');not null;default:'Processed'" json:"status"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// SupplierDamageClaim reduces damaged stock and credits the supplier in one
// action.
type SupplierDamageClaim struct {
	ID         int             `gorm:"primary_key" json:"id"`
	BusinessId string          `gorm:"index;not null" json:"business_id"`
	SupplierId int             `gorm:"index;not null" json:"supplier_id"`
	ProductId  int             `gorm:"index;not null" json:"product_id"`
	LocationId int             `gorm:"index;not null" json:"location_id"`
	Quantity   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	Amount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
}
