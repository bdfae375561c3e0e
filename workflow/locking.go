package workflow

import (
	"context"
	"sort"

	"bitbucket.org/mmdatafocus/distribution_backend/models"
	"bitbucket.org/mmdatafocus/distribution_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RunPosting wraps a multi-row mutation family in a single transaction,
// serialized per business by the advisory lock. Every handler mutation path
// goes through here; nothing writes outside a transaction.
func RunPosting(ctx context.Context, db *gorm.DB, businessId string, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireBusinessPostingLock(tx, businessId); err != nil {
			return utils.Upstream(err)
		}
		defer ReleaseBusinessPostingLock(tx, businessId)
		return fn(tx)
	})
}

// lockForUpdate adds SELECT ... FOR UPDATE on dialects that support it.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "mysql" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// Row locks are always taken in the fixed global order
// Customer -> Invoice -> Product/ProductStock, ascending by id, so two
// concurrent postings can never deadlock on each other.

func lockCustomer(tx *gorm.DB, businessId string, customerId int) (*models.Customer, error) {
	var customer models.Customer
	err := lockForUpdate(tx).Where("business_id = ? AND id = ?", businessId, customerId).First(&customer).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NotFoundf("customer %d not found", customerId)
		}
		return nil, utils.Upstream(err)
	}
	return &customer, nil
}

func lockInvoice(tx *gorm.DB, businessId string, invoiceId int) (*models.Invoice, error) {
	var invoice models.Invoice
	err := lockForUpdate(tx).Where("business_id = ? AND id = ?", businessId, invoiceId).First(&invoice).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NotFoundf("invoice %d not found", invoiceId)
		}
		return nil, utils.Upstream(err)
	}
	return &invoice, nil
}

func lockProducts(tx *gorm.DB, businessId string, productIds []int) (map[int]*models.Product, error) {
	ids := append([]int(nil), productIds...)
	sort.Ints(ids)
	products := make(map[int]*models.Product, len(ids))
	for _, id := range ids {
		if _, done := products[id]; done {
			continue
		}
		var product models.Product
		err := lockForUpdate(tx).Where("business_id = ? AND id = ?", businessId, id).First(&product).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, utils.NotFoundf("product %d not found", id)
			}
			return nil, utils.Upstream(err)
		}
		products[id] = &product
	}
	return products, nil
}
