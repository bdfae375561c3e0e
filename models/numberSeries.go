package models

import (
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/distribution_backend/utils"
	"gorm.io/gorm"
)

// Modules that draw sequential document numbers.
const (
	NumberModuleInvoice     = "Invoice"
	NumberModuleReturn      = "Return"
	NumberModuleTransaction = "Transaction"
	NumberModulePurchase    = "Purchase"
)

// TransactionNumberSeries holds one counter per (business, module). The row is
// incremented inside the caller's transaction so two concurrent documents can
// never draw the same number.
type TransactionNumberSeries struct {
	ID         int       `gorm:"primary_key" json:"id"`
	BusinessId string    `gorm:"size:64;not null;index:uniq_series,unique" json:"business_id"`
	ModuleName string    `gorm:"size:50;not null;index:uniq_series,unique" json:"module_name"`
	Prefix     string    `gorm:"size:10;not null" json:"prefix"`
	NextNumber int       `gorm:"not null;default:1" json:"next_number"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func defaultPrefix(moduleName string) string {
	switch moduleName {
	case NumberModuleInvoice:
		return "INV"
	case NumberModuleReturn:
		return "RET"
	case NumberModuleTransaction:
		return "TXN"
	case NumberModulePurchase:
		return "PUR"
	default:
		return "DOC"
	}
}

// NextDocumentNumber draws the next sequential number, e.g. "INV-0042",
// creating the counter row on first use.
func NextDocumentNumber(tx *gorm.DB, businessId string, moduleName string) (string, error) {
	var series TransactionNumberSeries
	err := tx.Where("business_id = ? AND module_name = ?", businessId, moduleName).First(&series).Error
	if err == gorm.ErrRecordNotFound {
		series = TransactionNumberSeries{
			BusinessId: businessId,
			ModuleName: moduleName,
			Prefix:     defaultPrefix(moduleName),
			NextNumber: 1,
		}
		if err := tx.Create(&series).Error; err != nil {
			return "", utils.Upstream(err)
		}
	} else if err != nil {
		return "", utils.Upstream(err)
	}

	number := fmt.Sprintf("%s-%04d", series.Prefix, series.NextNumber)
	err = tx.Model(&TransactionNumberSeries{}).
		Where("id = ?", series.ID).
		Update("next_number", gorm.Expr("next_number + 1")).Error
	if err != nil {
		return "", utils.Upstream(err)
	}
	return number, nil
}
