package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/distribution_backend/utils"
	"gorm.io/gorm"
)

type Business struct {
	ID        string    `gorm:"primary_key;size:64" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Timezone  string    `gorm:"size:64;default:'Asia/Yangon'" json:"timezone"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Agency is an internal business unit whose goods are sold on behalf of the
// main distributor and billed back monthly. The supplier-name filter lives
// here as data so nothing deeper than the HTTP boundary ever pattern-matches
// on names.
type Agency struct {
	ID                 int       `gorm:"primary_key" json:"id"`
	BusinessId         string    `gorm:"index;not null" json:"business_id"`
	Code               string    `gorm:"size:30;not null;index:uniq_agency_code,unique" json:"code" binding:"required"`
	Name               string    `gorm:"size:100;not null" json:"name" binding:"required"`
	SupplierNameFilter string    `gorm:"size:100;not null" json:"supplier_name_filter" binding:"required"`
	CustomerId         int       `gorm:"not null" json:"customer_id" binding:"required"`
	InvoicePrefix      string    `gorm:"size:20;not null" json:"invoice_prefix" binding:"required"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// GetAgencyByCode resolves an agency code from the URL once, at the boundary.
func GetAgencyByCode(ctx context.Context, tx *gorm.DB, businessId string, code string) (*Agency, error) {
	var agency Agency
	err := tx.WithContext(ctx).Where("business_id = ? AND code = ?", businessId, code).First(&agency).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NotFoundf("agency %s not found", code)
		}
		return nil, utils.Upstream(err)
	}
	return &agency, nil
}
