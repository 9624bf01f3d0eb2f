package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/ttacon/libphonenumber"

	"github.com/saralerp/books_backend/config"
)

func toString(value interface{}) string {
	return fmt.Sprint(value)
}

// CompanyLock serializes a critical section per company (e.g. document number
// issuance). The returned release func must be called when the section ends.
//
// When redis is not configured the lock degrades to a no-op: callers are
// expected to also carry a store-level uniqueness constraint as backstop.
func CompanyLock(ctx context.Context, companyId string, lockType string) (func(), error) {
	locker := config.GetRedisLock()
	if locker == nil {
		return func() {}, nil
	}

	lockKey := fmt.Sprintf("%s:%s", lockType, companyId)
	lock, err := locker.Obtain(ctx, lockKey, 30*time.Second, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 20),
	})
	if err == redislock.ErrNotObtained {
		return nil, errors.New("could not obtain lock for company " + companyId)
	} else if err != nil {
		return nil, err
	}
	return func() {
		_ = lock.Release(ctx)
	}, nil
}

// ValidatePhoneNumber parses and validates a phone number for the given
// country code (e.g. "IN").
func ValidatePhoneNumber(phoneNumber, countryCode string) error {
	p, err := libphonenumber.Parse(phoneNumber, countryCode)
	if err != nil {
		return err
	}
	if !libphonenumber.IsValidNumber(p) {
		return fmt.Errorf("phone number is not valid")
	}
	return nil
}
