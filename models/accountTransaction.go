package models

import (
	"time"

	"bitbucket.org/mmdatafocus/distribution_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type AccountTransactionType string

const (
	AccountTransactionTypeDeposit         AccountTransactionType = "Deposit"
	AccountTransactionTypeWithdrawal      AccountTransactionType = "Withdrawal"
	AccountTransactionTypePayment         AccountTransactionType = "Payment"
	AccountTransactionTypeSupplierCredit  AccountTransactionType = "SupplierCredit"
	AccountTransactionTypeInventoryDamage AccountTransactionType = "INVENTORY_DAMAGE"
)

// AccountTransaction is the append-only audit ledger. Rows are never updated
// or deleted; a mistake is corrected by inserting an offsetting row.
type AccountTransaction struct {
	ID            int                    `gorm:"primary_key" json:"id"`
	BusinessId    string                 `gorm:"index;not null" json:"business_id"`
	TransactionNo string                 `gorm:"size:50;not null;index:uniq_transaction_no,unique" json:"transaction_no"`
	Type          AccountTransactionType `gorm:"size:30;not null" json:"type"`
	FromAccountId int                    `gorm:"default:0" json:"from_account_id"`
	ToAccountId   int                    `gorm:"default:0" json:"to_account_id"`
	Amount        decimal.Decimal        `gorm:"type:decimal(20,4);default:0" json:"amount"`
	Description   string                 `gorm:"size:255" json:"description"`
	ReferenceNo   string                 `gorm:"size:50;index" json:"reference_no"`
	CreatedAt     time.Time              `gorm:"autoCreateTime" json:"created_at"`
}

// BeforeUpdate blocks in-place mutation of ledger rows.
func (at *AccountTransaction) BeforeUpdate(tx *gorm.DB) error {
	return utils.Conflictf("account transactions are append-only")
}

// BeforeDelete blocks deletion of ledger rows.
func (at *AccountTransaction) BeforeDelete(tx *gorm.DB) error {
	return utils.Conflictf("account transactions are append-only")
}
