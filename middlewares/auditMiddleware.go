package middlewares

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/saralerp/books_backend/config"
	"github.com/saralerp/books_backend/utils"
)

// AuditMiddleware records every mutating request after it completes: who
// issued it, against which company, and what the outcome was. Reads are not
// audited.
func AuditMiddleware() gin.HandlerFunc {
	logger := config.GetLogger()
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		ctx := c.Request.Context()
		companyId, _ := utils.GetCompanyIdFromContext(ctx)
		userId, _ := utils.GetUserIdFromContext(ctx)
		userName, _ := utils.GetUserNameFromContext(ctx)
		correlationId, _ := utils.GetCorrelationIdFromContext(ctx)

		logger.WithFields(logrus.Fields{
			"method":         c.Request.Method,
			"path":           c.FullPath(),
			"status":         c.Writer.Status(),
			"duration_ms":    time.Since(start).Milliseconds(),
			"company_id":     companyId,
			"user_id":        userId,
			"user_name":      userName,
			"correlation_id": correlationId,
		}).Info("audit")
	}
}
