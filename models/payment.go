package models

import (
	"time"

	"bitbucket.org/mmdatafocus/distribution_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodBank   PaymentMethod = "bank"
	PaymentMethodCheque PaymentMethod = "cheque"
	PaymentMethodCredit PaymentMethod = "credit"
)

type ChequeStatus string

const (
	ChequeStatusPending   ChequeStatus = "Pending"
	ChequeStatusDeposited ChequeStatus = "Deposited"
	ChequeStatusPassed    ChequeStatus = "Passed"
	ChequeStatusReturned  ChequeStatus = "Returned"
)

type Payment struct {
	ID               int             `gorm:"primary_key" json:"id"`
	BusinessId       string          `gorm:"index;not null" json:"business_id"`
	InvoiceId        int             `gorm:"index;not null" json:"invoice_id"`
	CustomerId       int             `gorm:"index;not null" json:"customer_id"`
	Amount           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	Method           PaymentMethod   `gorm:"type:enum('cash','bank','cheque','credit');not null" json:"method"`
	ChequeNumber     string          `gorm:"size:50" json:"cheque_number"`
	ChequeDate       *time.Time      `json:"cheque_date"`
	ChequeStatus     *ChequeStatus   `gorm:"type:enum('Pending','Deposited','Passed','Returned');default:null" json:"cheque_status"`
	DepositAccountId int             `gorm:"default:0" json:"deposit_account_id"`
	PaymentDate      time.Time       `gorm:"not null" json:"payment_date"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// Account is a money account cheques and cash get lodged into.
type Account struct {
	ID         int             `gorm:"primary_key" json:"id"`
	BusinessId string          `gorm:"index;not null" json:"business_id"`
	Name       string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Balance    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"balance"`
	IsActive   *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetPaymentById(tx *gorm.DB, businessId string, id int) (*Payment, error) {
	var payment Payment
	err := tx.Where("business_id = ? AND id = ?", businessId, id).First(&payment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NotFoundf("payment %d not found", id)
		}
		return nil, utils.Upstream(err)
	}
	return &payment, nil
}

func GetAccountById(tx *gorm.DB, businessId string, id int) (*Account, error) {
	var account Account
	err := tx.Where("business_id = ? AND id = ?", businessId, id).First(&account).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NotFoundf("account %d not found", id)
		}
		return nil, utils.Upstream(err)
	}
	return &account, nil
}
