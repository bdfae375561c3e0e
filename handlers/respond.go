package handlers

import (
	"net/http"

	"bitbucket.org/mmdatafocus/distribution_backend/appctx"
	"bitbucket.org/mmdatafocus/distribution_backend/utils"
	"github.com/gin-gonic/gin"
)

// respondError maps the engine's error taxonomy onto HTTP codes. Raw driver
// errors never reach the client.
func respondError(c *gin.Context, err error) {
	c.JSON(utils.HTTPStatus(err), gin.H{"error": utils.ClientMessage(err)})
}

func businessIdFrom(c *gin.Context) (string, bool) {
	businessId, ok := appctx.GetString(c.Request.Context(), appctx.ContextKeyBusinessId)
	if !ok || businessId == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}
	return businessId, true
}

func userIdFrom(c *gin.Context) int {
	userId, _ := appctx.GetInt(c.Request.Context(), appctx.ContextKeyUserId)
	return userId
}
