package middlewares

import (
	"net/http"
	"strconv"

	"bitbucket.org/thukhadata/creditbook_backend/models"
	"bitbucket.org/thukhadata/creditbook_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuthMiddleware resolves the calling identity from the gateway headers and
// puts it on the request context. Every route behind it is company scoped;
// the user must belong to the company it names.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		companyId, err := strconv.Atoi(c.Request.Header.Get("X-Company-Id"))
		if err != nil || companyId <= 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		userId, err := strconv.Atoi(c.Request.Header.Get("X-User-Id"))
		if err != nil || userId <= 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		user, err := utils.FetchModel[models.User](c.Request.Context(), companyId, userId)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		ctx = utils.SetCompanyIdInContext(ctx, companyId)
		ctx = utils.SetUserIdInContext(ctx, userId)
		ctx = utils.SetUserNameInContext(ctx, user.Name)
		ctx = utils.SetIsAdminInContext(ctx, user.AccessLevel == models.AccessLevelAdmin)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// CorrelationMiddleware tags every request with a correlation id, taking the
// caller's X-Correlation-Id when present.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationId := c.Request.Header.Get("X-Correlation-Id")
		if correlationId == "" {
			correlationId = uuid.NewString()
		}

		ctx := utils.SetCorrelationIdInContext(c.Request.Context(), correlationId)
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set("X-Correlation-Id", correlationId)
		c.Next()
	}
}
