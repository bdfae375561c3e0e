package models

import (
	"time"

	"bitbucket.org/mmdatafocus/distribution_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InvoiceStatus string

const (
	InvoiceStatusUnpaid  InvoiceStatus = "Unpaid"
	InvoiceStatusPartial InvoiceStatus = "Partial"
	InvoiceStatusPaid    InvoiceStatus = "Paid"
	InvoiceStatusOverdue InvoiceStatus = "Overdue"
)

type Invoice struct {
	ID            int             `gorm:"primary_key" json:"id"`
	BusinessId    string          `gorm:"index;not null" json:"business_id"`
	InvoiceNo     string          `gorm:"size:50;not null;index:uniq_invoice_no,unique" json:"invoice_no"`
	OrderId       int             `gorm:"not null;index:uniq_invoice_order,unique" json:"order_id"`
	CustomerId    int             `gorm:"index;not null" json:"customer_id"`
	InvoiceDate   time.Time       `gorm:"not null" json:"invoice_date"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	PaidAmount    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"paid_amount"`
	DueAmount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"due_amount"`
	CurrentStatus InvoiceStatus   `gorm:"type:enum('Unpaid','Partial','Paid','Overdue');not null;default:'Unpaid'" json:"current_status"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// StatusFor applies the invoice status rule:
// Paid iff paid >= total, Partial iff 0 < paid < total, else Unpaid.
func StatusFor(totalAmount, paidAmount decimal.Decimal) InvoiceStatus {
	if paidAmount.GreaterThanOrEqual(totalAmount) {
		return InvoiceStatusPaid
	}
	if paidAmount.IsPositive() {
		return InvoiceStatusPartial
	}
	return InvoiceStatusUnpaid
}

// Sync recomputes DueAmount and CurrentStatus from the totals. DueAmount never
// goes negative even on overpayment.
func (inv *Invoice) Sync() {
	inv.DueAmount = utils.ClampToZero(inv.TotalAmount.Sub(inv.PaidAmount))
	inv.CurrentStatus = StatusFor(inv.TotalAmount, inv.PaidAmount)
}

// InvoiceHistory snapshots an invoice and its order items as JSON before any
// edit or post-transit reconciliation mutates them.
type InvoiceHistory struct {
	ID         int       `gorm:"primary_key" json:"id"`
	BusinessId string    `gorm:"index;not null" json:"business_id"`
	InvoiceId  int       `gorm:"index;not null" json:"invoice_id"`
	UserId     int       `gorm:"not null" json:"user_id"`
	Reason     string    `gorm:"size:100" json:"reason"`
	Snapshot   []byte    `gorm:"type:blob" json:"snapshot"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func GetInvoiceById(tx *gorm.DB, businessId string, id int) (*Invoice, error) {
	var invoice Invoice
	err := tx.Where("business_id = ? AND id = ?", businessId, id).First(&invoice).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NotFoundf("invoice %d not found", id)
		}
		return nil, utils.Upstream(err)
	}
	return &invoice, nil
}

func GetInvoiceByOrderId(tx *gorm.DB, businessId string, orderId int) (*Invoice, error) {
	var invoice Invoice
	err := tx.Where("business_id = ? AND order_id = ?", businessId, orderId).First(&invoice).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NotFoundf("invoice for order %d not found", orderId)
		}
		return nil, utils.Upstream(err)
	}
	return &invoice, nil
}

func GetInvoiceByNumber(tx *gorm.DB, businessId string, invoiceNo string) (*Invoice, error) {
	var invoice Invoice
	err := tx.Where("business_id = ? AND invoice_no = ?", businessId, invoiceNo).First(&invoice).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NotFoundf("invoice %s not found", invoiceNo)
		}
		return nil, utils.Upstream(err)
	}
	return &invoice, nil
}
