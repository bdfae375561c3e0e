package models

import (
	"time"

	"bitbucket.org/mmdatafocus/distribution_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Supplier struct {
	ID         int             `gorm:"primary_key" json:"id"`
	BusinessId string          `gorm:"index;not null" json:"business_id"`
	Name       string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Phone      string          `gorm:"size:20" json:"phone"`
	DuePayment decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"due_payment"`
	IsActive   *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type PurchasePaymentStatus string

const (
	PurchasePaymentStatusUnpaid  PurchasePaymentStatus = "Unpaid"
	PurchasePaymentStatusPartial PurchasePaymentStatus = "Partial"
	PurchasePaymentStatusPaid    PurchasePaymentStatus = "Paid"
)

// Purchase is the supplier-side mirror of Invoice.
type Purchase struct {
	ID            int                   `gorm:"primary_key" json:"id"`
	BusinessId    string                `gorm:"index;not null" json:"business_id"`
	SupplierId    int                   `gorm:"index;not null" json:"supplier_id"`
	PurchaseNo    string                `gorm:"size:50;not null;index:uniq_purchase_no,unique" json:"purchase_no"`
	PurchaseDate  time.Time             `gorm:"not null" json:"purchase_date"`
	TotalAmount   decimal.Decimal       `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	PaidAmount    decimal.Decimal       `gorm:"type:decimal(20,4);default:0" json:"paid_amount"`
	PaymentStatus PurchasePaymentStatus `gorm:"type:enum('Unpaid','Partial','Paid');not null;default:'Unpaid'" json:"payment_status"`
	CreatedAt     time.Time             `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time             `gorm:"autoUpdateTime" json:"updated_at"`
}

// SupplierChequeStatus values are lowercase on the supplier side.
type SupplierChequeStatus string

const (
	SupplierChequeStatusPending  SupplierChequeStatus = "pending"
	SupplierChequeStatusPassed   SupplierChequeStatus = "passed"
	SupplierChequeStatusReturned SupplierChequeStatus = "returned"
)

// SupplierPayment mirrors Payment on the purchase side.
type SupplierPayment struct {
	ID           int                   `gorm:"primary_key" json:"id"`
	BusinessId   string                `gorm:"index;not null" json:"business_id"`
	PurchaseId   int                   `gorm:"index;default:0" json:"purchase_id"`
	SupplierId   int                   `gorm:"index;not null" json:"supplier_id"`
	Amount       decimal.Decimal       `gorm:"type:decimal(20,4);default:0" json:"amount"`
	Method       PaymentMethod         `gorm:"type:enum('cash','bank','cheque','credit');not null" json:"method"`
	ChequeNumber string                `gorm:"size:50" json:"cheque_number"`
	ChequeStatus *SupplierChequeStatus `gorm:"type:enum('pending','passed','returned');default:null" json:"cheque_status"`
	Description  string                `gorm:"size:255" json:"description"`
	PaymentDate  time.Time             `gorm:"not null" json:"payment_date"`
	CreatedAt    time.Time             `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time             `gorm:"autoUpdateTime" json:"updated_at"`
}

// PurchaseStatusFor applies the same threshold rule as invoices.
func PurchaseStatusFor(totalAmount, paidAmount decimal.Decimal) PurchasePaymentStatus {
	if paidAmount.GreaterThanOrEqual(totalAmount) {
		return PurchasePaymentStatusPaid
	}
	if paidAmount.IsPositive() {
		return PurchasePaymentStatusPartial
	}
	return PurchasePaymentStatusUnpaid
}

func GetSupplierById(tx *gorm.DB, businessId string, id int) (*Supplier, error) {
	var supplier Supplier
	err := tx.Where("business_id = ? AND id = ?", businessId, id).First(&supplier).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NotFoundf("supplier %d not found", id)
		}
		return nil, utils.Upstream(err)
	}
	return &supplier, nil
}

func GetPurchaseById(tx *gorm.DB, businessId string, id int) (*Purchase, error) {
	var purchase Purchase
	err := tx.Where("business_id = ? AND id = ?", businessId, id).First(&purchase).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NotFoundf("purchase %d not found", id)
		}
		return nil, utils.Upstream(err)
	}
	return &purchase, nil
}

func GetSupplierPaymentById(tx *gorm.DB, businessId string, id int) (*SupplierPayment, error) {
	var payment SupplierPayment
	err := tx.Where("business_id = ? AND id = ?", businessId, id).First(&payment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NotFoundf("supplier payment %d not found", id)
		}
		return nil, utils.Upstream(err)
	}
	return &payment, nil
}
