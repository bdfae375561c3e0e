package workflow

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/distribution_backend/config"
	"bitbucket.org/mmdatafocus/distribution_backend/models"
	"bitbucket.org/mmdatafocus/distribution_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type RecordPaymentInput struct {
	OrderId          int                  `json:"orderId" binding:"required"`
	Amount           decimal.Decimal      `json:"amount" binding:"required"`
	Method           models.PaymentMethod `json:"method" binding:"required"`
	PaymentDate      time.Time            `json:"paymentDate"`
	ChequeNumber     string               `json:"chequeNumber"`
	ChequeDate       *time.Time           `json:"chequeDate"`
	DepositAccountId int                  `json:"depositAccountId"`
}

// ProcessRecordPayment applies a payment against the invoice of an order.
// paid_amount goes up, due_amount and the customer balance come down, in the
// same transaction. A cheque payment stays out of the account ledger until it
// is deposited.
func ProcessRecordPayment(ctx context.Context, db *gorm.DB, logger *logrus.Logger, businessId string, input RecordPaymentInput) (*models.Payment, error) {
	if !input.Amount.IsPositive() {
		return nil, utils.Validationf("amount must be positive")
	}
	switch input.Method {
	case models.PaymentMethodCash, models.PaymentMethodBank, models.PaymentMethodCheque:
	default:
		return nil, utils.Validationf("method must be one of cash, bank, cheque")
	}

	var payment models.Payment
	err := RunPosting(ctx, db, businessId, func(tx *gorm.DB) error {
		invoice, err := models.GetInvoiceByOrderId(tx, businessId, input.OrderId)
		if err != nil {
			return err
		}
		if _, err := lockCustomer(tx, businessId, invoice.CustomerId); err != nil {
			return err
		}
		invoice, err = lockInvoice(tx, businessId, invoice.ID)
		if err != nil {
			return err
		}

		paymentDate := input.PaymentDate
		if paymentDate.IsZero() {
			paymentDate = time.Now()
		}
		payment = models.Payment{
			BusinessId:  businessId,
			InvoiceId:   invoice.ID,
			CustomerId:  invoice.CustomerId,
			Amount:      input.Amount,
			Method:      input.Method,
			PaymentDate: paymentDate,
		}
		if input.Method == models.PaymentMethodCheque {
			pending := models.ChequeStatusPending
			payment.ChequeStatus = &pending
			payment.ChequeNumber = input.ChequeNumber
			payment.ChequeDate = input.ChequeDate
		}
		if err := tx.Create(&payment).Error; err != nil {
			config.LogError(logger, "paymentWorkflow.go", "ProcessRecordPayment", "CreatePayment", payment, err)
			return utils.Upstream(err)
		}

		if err := ApplyPaymentToInvoice(tx, logger, invoice, input.Amount); err != nil {
			return err
		}
		if err := ApplyBalanceDelta(tx, logger, businessId, invoice.CustomerId, input.Amount.Neg()); err != nil {
			return err
		}

		if input.Method != models.PaymentMethodCheque && input.DepositAccountId > 0 {
			return recordPaymentDeposit(tx, logger, businessId, invoice.InvoiceNo, input.DepositAccountId, input.Amount)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}
