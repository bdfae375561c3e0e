package workflow

import (
	"bitbucket.org/mmdatafocus/distribution_backend/config"
	"bitbucket.org/mmdatafocus/distribution_backend/models"
	"bitbucket.org/mmdatafocus/distribution_backend/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AppendAccountTransaction draws a transaction number and inserts one
// append-only ledger row.
func AppendAccountTransaction(tx *gorm.DB, logger *logrus.Logger, entry models.AccountTransaction) (*models.AccountTransaction, error) {
	number, err := models.NextDocumentNumber(tx, entry.BusinessId, models.NumberModuleTransaction)
	if err != nil {
		config.LogError(logger, "ledgerEntry.go", "AppendAccountTransaction", "NextDocumentNumber", entry.BusinessId, err)
		return nil, err
	}
	entry.TransactionNo = number
	if err := tx.Create(&entry).Error; err != nil {
		config.LogError(logger, "ledgerEntry.go", "AppendAccountTransaction", "CreateAccountTransaction", entry, err)
		return nil, utils.Upstream(err)
	}
	return &entry, nil
}

// ReverseAccountTransaction inserts the offsetting row for an earlier entry:
// same amount, from/to swapped. The original is never touched.
func ReverseAccountTransaction(tx *gorm.DB, logger *logrus.Logger, original *models.AccountTransaction, reversalType models.AccountTransactionType, description string) (*models.AccountTransaction, error) {
	offsetting := models.AccountTransaction{
		BusinessId:    original.BusinessId,
		Type:          reversalType,
		FromAccountId: original.ToAccountId,
		ToAccountId:   original.FromAccountId,
		Amount:        original.Amount,
		Description:   description,
		ReferenceNo:   original.TransactionNo,
	}
	return AppendAccountTransaction(tx, logger, offsetting)
}
