package middlewares

import (
	"net/http"
	"strings"

	"bitbucket.org/mmdatafocus/distribution_backend/appctx"
	"bitbucket.org/mmdatafocus/distribution_backend/utils"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates the bearer token and stashes the claims in the
// request context. A request without an Authorization header passes through;
// protected routes check for the business id downstream.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.Request.Header.Get("Authorization")
		if auth == "" {
			c.Next()
			return
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		validate, err := utils.JwtValidate(token)
		if err != nil || !validate.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		claims, ok := validate.Claims.(*utils.JwtCustomClaim)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		ctx = appctx.Set(ctx, appctx.ContextKeyToken, token)
		ctx = appctx.Set(ctx, appctx.ContextKeyUserId, claims.ID)
		ctx = appctx.Set(ctx, appctx.ContextKeyUserRole, claims.Role)
		ctx = appctx.Set(ctx, appctx.ContextKeyBusinessId, claims.BusinessId)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireBusiness aborts any request whose token did not carry a business id.
func RequireBusiness() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, ok := appctx.GetString(c.Request.Context(), appctx.ContextKeyBusinessId)
		if !ok || businessId == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}
