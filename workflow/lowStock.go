package workflow

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/saralerp/books_backend/config"
)

// LowStockNotifier is the delivery boundary for low-stock alerts. The engine
// fires and forgets: delivery failures are logged, never retried inline, and
// never fail the surrounding transaction.
type LowStockNotifier interface {
	NotifyLowStock(ctx context.Context, companyId string, productId int, currentStock decimal.Decimal) error
}

var lowStockNotifier LowStockNotifier = &logNotifier{}

// SetLowStockNotifier swaps the delivery implementation (push, email, ...).
func SetLowStockNotifier(n LowStockNotifier) {
	if n != nil {
		lowStockNotifier = n
	}
}

// logNotifier is the default sink: a structured warning line.
type logNotifier struct{}

func (l *logNotifier) NotifyLowStock(ctx context.Context, companyId string, productId int, currentStock decimal.Decimal) error {
	config.GetLogger().WithFields(logrus.Fields{
		"module":       "lowStock.go",
		"companyId":    companyId,
		"productId":    productId,
		"currentStock": currentStock.String(),
	}).Warn("product stock at or below threshold")
	return nil
}
