package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/distribution_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Customer struct {
	ID                 int             `gorm:"primary_key" json:"id"`
	BusinessId         string          `gorm:"index;not null" json:"business_id"`
	Name               string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Email              string          `gorm:"size:100" json:"email"`
	Phone              string          `gorm:"size:20" json:"phone"`
	Address            string          `gorm:"type:text" json:"address"`
	CreditLimit        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"credit_limit"`
	OutstandingBalance decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"outstanding_balance"`
	IsActive           *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCustomer struct {
	Name        string          `json:"name" binding:"required"`
	Email       string          `json:"email"`
	Phone       string          `json:"phone"`
	Address     string          `json:"address"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
}

func (input *NewCustomer) Validate() error {
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return utils.Validationf("email is not valid")
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return utils.Validationf("phone number is not valid")
		}
	}
	return nil
}

func CreateCustomer(ctx context.Context, tx *gorm.DB, businessId string, input NewCustomer) (*Customer, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	customer := Customer{
		BusinessId:  businessId,
		Name:        input.Name,
		Email:       input.Email,
		Phone:       input.Phone,
		Address:     input.Address,
		CreditLimit: input.CreditLimit,
	}
	if err := tx.WithContext(ctx).Create(&customer).Error; err != nil {
		return nil, utils.Upstream(err)
	}
	return &customer, nil
}

func GetCustomerById(tx *gorm.DB, businessId string, id int) (*Customer, error) {
	var customer Customer
	err := tx.Where("business_id = ? AND id = ?", businessId, id).First(&customer).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NotFoundf("customer %d not found", id)
		}
		return nil, utils.Upstream(err)
	}
	return &customer, nil
}
