package models

import (
	"time"

	"bitbucket.org/mmdatafocus/distribution_backend/utils"
	"gorm.io/gorm"
)

type LoadingSheetStatus string

const (
	LoadingSheetStatusLoading   LoadingSheetStatus = "Loading"
	LoadingSheetStatusInTransit LoadingSheetStatus = "In Transit"
	LoadingSheetStatusCompleted LoadingSheetStatus = "Completed"
)

// LoadingSheet groups orders dispatched together on one lorry. Reconciliation
// after transit can change an order's total; InvoiceHistory keeps the
// pre-change snapshot.
type LoadingSheet struct {
	ID          int                 `gorm:"primary_key" json:"id"`
	BusinessId  string              `gorm:"index;not null" json:"business_id"`
	LorryNumber string              `gorm:"size:30;not null" json:"lorry_number" binding:"required"`
	DriverId    int                 `gorm:"not null" json:"driver_id" binding:"required"`
	Status      LoadingSheetStatus  `gorm:"type:enum('Loading','In Transit','Completed');not null;default:'Loading'" json:"status"`
	Orders      []LoadingSheetOrder `gorm:"foreignKey:LoadingSheetId" json:"orders"`
	CreatedAt   time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

type LoadingSheetOrder struct {
	ID             int       `gorm:"primary_key" json:"id"`
	LoadingSheetId int       `gorm:"index:uniq_sheet_order,unique;not null" json:"loading_sheet_id"`
	OrderId        int       `gorm:"index:uniq_sheet_order,unique;not null" json:"order_id"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func GetLoadingSheetById(tx *gorm.DB, businessId string, id int) (*LoadingSheet, error) {
	var sheet LoadingSheet
	err := tx.Preload("Orders").Where("business_id = ? AND id = ?", businessId, id).First(&sheet).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NotFoundf("loading sheet %d not found", id)
		}
		return nil, utils.Upstream(err)
	}
	return &sheet, nil
}

// NextStatus enforces the Loading -> In Transit -> Completed progression.
func (ls *LoadingSheet) NextStatus(target LoadingSheetStatus) error {
	valid := map[LoadingSheetStatus]LoadingSheetStatus{
		LoadingSheetStatusLoading:   LoadingSheetStatusInTransit,
		LoadingSheetStatusInTransit: LoadingSheetStatusCompleted,
	}
	if next, ok := valid[ls.Status]; !ok || next != target {
		return utils.Conflictf("loading sheet cannot move from %s to %s", ls.Status, target)
	}
	ls.Status = target
	return nil
}
