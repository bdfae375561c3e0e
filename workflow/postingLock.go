package workflow

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/distribution_backend/config"
	"github.com/bsm/redislock"
	"gorm.io/gorm"
)

// AcquireBusinessPostingLock serializes posting per business across instances
// using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same
// *gorm.DB that will do the posting transaction. On non-MySQL dialects the
// call is a no-op.
func AcquireBusinessPostingLock(tx *gorm.DB, businessId string) error {
	if tx.Dialector.Name() != "mysql" {
		return nil
	}
	lockName := fmt.Sprintf("posting:%s", businessId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire posting lock for business_id=%s", businessId)
	}
	return nil
}

func ReleaseBusinessPostingLock(tx *gorm.DB, businessId string) {
	if tx.Dialector.Name() != "mysql" {
		return
	}
	lockName := fmt.Sprintf("posting:%s", businessId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}

// AcquireBillingRunLock excludes concurrent inter-branch billing runs for the
// same agency+month across instances. Returns a release func. When redis is
// not configured the database posting lock alone guards the run.
func AcquireBillingRunLock(ctx context.Context, businessId string, key string) (func(), error) {
	locker := config.GetRedisLock()
	if locker == nil {
		return func() {}, nil
	}
	lock, err := locker.Obtain(ctx, fmt.Sprintf("billing:%s:%s", businessId, key), 2*time.Minute, nil)
	if err == redislock.ErrNotObtained {
		return nil, fmt.Errorf("billing run already in progress for %s", key)
	}
	if err != nil {
		return nil, err
	}
	return func() { _ = lock.Release(ctx) }, nil
}
