package workflow

import (
	"context"

	"bitbucket.org/mmdatafocus/distribution_backend/config"
	"bitbucket.org/mmdatafocus/distribution_backend/models"
	"bitbucket.org/mmdatafocus/distribution_backend/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type ChequeAction string

const (
	ChequeActionDeposit ChequeAction = "deposit"
	ChequeActionClear   ChequeAction = "clear"
	ChequeActionReturn  ChequeAction = "return"
)

type ChequeActionInput struct {
	PaymentId        int          `json:"paymentId" binding:"required"`
	Action           ChequeAction `json:"action" binding:"required"`
	DepositAccountId int          `json:"depositAccountId"`
}

// ProcessChequeAction drives the customer cheque state machine:
// Pending -> Deposited -> Passed | Returned, with Pending -> Passed/Returned
// allowed for cheques that never went through a deposit account. Passed and
// Returned are terminal.
func ProcessChequeAction(ctx context.Context, db *gorm.DB, logger *logrus.Logger, businessId string, input ChequeActionInput) error {
	return RunPosting(ctx, db, businessId, func(tx *gorm.DB) error {
		payment, err := models.GetPaymentById(tx, businessId, input.PaymentId)
		if err != nil {
			return err
		}
		if payment.Method != models.PaymentMethodCheque || payment.ChequeStatus == nil {
			return utils.Validationf("payment %d is not a cheque payment", payment.ID)
		}
		status := *payment.ChequeStatus
		if status == models.ChequeStatusPassed || status == models.ChequeStatusReturned {
			return utils.Conflictf("cheque on payment %d is already %s", payment.ID, status)
		}

		switch input.Action {
		case ChequeActionDeposit:
			return depositCheque(tx, logger, businessId, payment, status, input.DepositAccountId)
		case ChequeActionClear:
			return clearCheque(tx, logger, payment)
		case ChequeActionReturn:
			return returnCheque(tx, logger, businessId, payment, status)
		default:
			return utils.Validationf("action must be one of deposit, clear, return")
		}
	})
}

// depositCheque lodges the cheque into an account. This is the first moment
// the ledger sees the money.
func depositCheque(tx *gorm.DB, logger *logrus.Logger, businessId string, payment *models.Payment, status models.ChequeStatus, accountId int) error {
	if status != models.ChequeStatusPending {
		return utils.Conflictf("cheque on payment %d is %s, only a Pending cheque can be deposited", payment.ID, status)
	}
	if accountId <= 0 {
		return utils.Validationf("depositAccountId is required for deposit")
	}
	account, err := models.GetAccountById(tx, businessId, accountId)
	if err != nil {
		return err
	}

	invoice, err := models.GetInvoiceById(tx, businessId, payment.InvoiceId)
	if err != nil {
		return err
	}
	_, err = AppendAccountTransaction(tx, logger, models.AccountTransaction{
		BusinessId:  businessId,
		Type:        models.AccountTransactionTypeDeposit,
		ToAccountId: account.ID,
		Amount:      payment.Amount,
		Description: "Cheque " + payment.ChequeNumber + " deposited",
		ReferenceNo: invoice.InvoiceNo,
	})
	if err != nil {
		return err
	}
	err = tx.Model(&models.Account{}).Where("id = ?", account.ID).
		Update("balance", gorm.Expr("balance + ?", payment.Amount)).Error
	if err != nil {
		config.LogError(logger, "chequeWorkflow.go", "depositCheque", "UpdateAccount", account.ID, err)
		return utils.Upstream(err)
	}

	deposited := models.ChequeStatusDeposited
	err = tx.Model(&models.Payment{}).Where("id = ?", payment.ID).Updates(map[string]interface{}{
		"cheque_status":      deposited,
		"deposit_account_id": account.ID,
	}).Error
	if err != nil {
		config.LogError(logger, "chequeWorkflow.go", "depositCheque", "UpdatePayment", payment.ID, err)
		return utils.Upstream(err)
	}
	return nil
}

// clearCheque marks the cheque honoured. No money moves: the invoice already
// counted the payment and the deposit already hit the account.
func clearCheque(tx *gorm.DB, logger *logrus.Logger, payment *models.Payment) error {
	passed := models.ChequeStatusPassed
	err := tx.Model(&models.Payment{}).Where("id = ?", payment.ID).
		Update("cheque_status", passed).Error
	if err != nil {
		config.LogError(logger, "chequeWorkflow.go", "clearCheque", "UpdatePayment", payment.ID, err)
		return utils.Upstream(err)
	}
	return nil
}

// returnCheque bounces the cheque: the invoice loses the paid amount, the
// customer owes it again, and a deposited cheque gets an offsetting withdrawal
// out of the account it was lodged into.
func returnCheque(tx *gorm.DB, logger *logrus.Logger, businessId string, payment *models.Payment, status models.ChequeStatus) error {
	if _, err := lockCustomer(tx, businessId, payment.CustomerId); err != nil {
		return err
	}
	invoice, err := lockInvoice(tx, businessId, payment.InvoiceId)
	if err != nil {
		return err
	}

	if err := ReversePaymentFromInvoice(tx, logger, invoice, payment.Amount); err != nil {
		return err
	}
	if err := ApplyBalanceDelta(tx, logger, businessId, payment.CustomerId, payment.Amount); err != nil {
		return err
	}

	if status == models.ChequeStatusDeposited && payment.DepositAccountId > 0 {
		_, err = AppendAccountTransaction(tx, logger, models.AccountTransaction{
			BusinessId:    businessId,
			Type:          models.AccountTransactionTypeWithdrawal,
			FromAccountId: payment.DepositAccountId,
			Amount:        payment.Amount,
			Description:   "Cheque " + payment.ChequeNumber + " returned",
			ReferenceNo:   invoice.InvoiceNo,
		})
		if err != nil {
			return err
		}
		err = tx.Model(&models.Account{}).Where("id = ?", payment.DepositAccountId).
			Update("balance", gorm.Expr("balance - ?", payment.Amount)).Error
		if err != nil {
			config.LogError(logger, "chequeWorkflow.go", "returnCheque", "UpdateAccount", payment.DepositAccountId, err)
			return utils.Upstream(err)
		}
	}

	returned := models.ChequeStatusReturned
	err = tx.Model(&models.Payment{}).Where("id = ?", payment.ID).
		Update("cheque_status", returned).Error
	if err != nil {
		config.LogError(logger, "chequeWorkflow.go", "returnCheque", "UpdatePayment", payment.ID, err)
		return utils.Upstream(err)
	}
	return nil
}

type SupplierChequeActionInput struct {
	PaymentId int                         `json:"paymentId" binding:"required"`
	Status    models.SupplierChequeStatus `json:"status" binding:"required"`
}

// ProcessSupplierChequeAction is the outgoing mirror. A passed cheque needs no
// further posting, the purchase already counted it. A returned cheque restores
// the purchase's unpaid amount and the supplier's due payment.
func ProcessSupplierChequeAction(ctx context.Context, db *gorm.DB, logger *logrus.Logger, businessId string, input SupplierChequeActionInput) error {
	return RunPosting(ctx, db, businessId, func(tx *gorm.DB) error {
		payment, err := models.GetSupplierPaymentById(tx, businessId, input.PaymentId)
		if err != nil {
			return err
		}
		if payment.Method != models.PaymentMethodCheque || payment.ChequeStatus == nil {
			return utils.Validationf("supplier payment %d is not a cheque payment", payment.ID)
		}
		if *payment.ChequeStatus != models.SupplierChequeStatusPending {
			return utils.Conflictf("supplier cheque on payment %d is already %s", payment.ID, *payment.ChequeStatus)
		}

		switch input.Status {
		case models.SupplierChequeStatusPassed:
			err = tx.Model(&models.SupplierPayment{}).Where("id = ?", payment.ID).
				Update("cheque_status", models.SupplierChequeStatusPassed).Error
			if err != nil {
				config.LogError(logger, "chequeWorkflow.go", "ProcessSupplierChequeAction", "UpdateSupplierPayment", payment.ID, err)
				return utils.Upstream(err)
			}
			return nil
		case models.SupplierChequeStatusReturned:
			return returnSupplierCheque(tx, logger, businessId, payment)
		default:
			return utils.Validationf("status must be passed or returned")
		}
	})
}

func returnSupplierCheque(tx *gorm.DB, logger *logrus.Logger, businessId string, payment *models.SupplierPayment) error {
	if payment.PurchaseId > 0 {
		purchase, err := models.GetPurchaseById(tx, businessId, payment.PurchaseId)
		if err != nil {
			return err
		}
		newPaid := utils.ClampToZero(purchase.PaidAmount.Sub(payment.Amount))
		err = tx.Model(&models.Purchase{}).Where("id = ?", purchase.ID).Updates(map[string]interface{}{
			"paid_amount":    newPaid,
			"payment_status": models.PurchaseStatusFor(purchase.TotalAmount, newPaid),
		}).Error
		if err != nil {
			config.LogError(logger, "chequeWorkflow.go", "returnSupplierCheque", "UpdatePurchase", purchase.ID, err)
			return utils.Upstream(err)
		}
	}

	err := tx.Model(&models.Supplier{}).Where("business_id = ? AND id = ?", businessId, payment.SupplierId).
		Update("due_payment", gorm.Expr("due_payment + ?", payment.Amount)).Error
	if err != nil {
		config.LogError(logger, "chequeWorkflow.go", "returnSupplierCheque", "UpdateSupplier", payment.SupplierId, err)
		return utils.Upstream(err)
	}

	err = tx.Model(&models.SupplierPayment{}).Where("id = ?", payment.ID).
		Update("cheque_status", models.SupplierChequeStatusReturned).Error
	if err != nil {
		config.LogError(logger, "chequeWorkflow.go", "returnSupplierCheque", "UpdateSupplierPayment", payment.ID, err)
		return utils.Upstream(err)
	}
	return nil
}
