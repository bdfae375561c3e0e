package handlers

import (
	"net/http"

	"bitbucket.org/mmdatafocus/distribution_backend/config"
	"bitbucket.org/mmdatafocus/distribution_backend/utils"
	"bitbucket.org/mmdatafocus/distribution_backend/workflow"
	"github.com/gin-gonic/gin"
)

func InventoryReturnHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, ok := businessIdFrom(c)
		if !ok {
			return
		}

		var input workflow.InventoryReturnInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.FirstValidationMessage(err)})
			return
		}

		record, err := workflow.ProcessInventoryReturn(c.Request.Context(), config.GetDB(), config.GetLogger(), businessId, input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, record)
	}
}

// DamageBatchHandler answers 200 as long as at least one item made it
// through; the per-item failures ride along in the body.
func DamageBatchHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, ok := businessIdFrom(c)
		if !ok {
			return
		}

		var input workflow.DamageBatchInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.FirstValidationMessage(err)})
			return
		}

		result, err := workflow.ProcessDamageBatch(c.Request.Context(), config.GetDB(), config.GetLogger(), businessId, input)
		if err != nil {
			respondError(c, err)
			return
		}
		if result.Processed == 0 && len(result.Errors) > 0 {
			c.JSON(http.StatusBadRequest, result)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func SupplierClaimHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, ok := businessIdFrom(c)
		if !ok {
			return
		}

		var input workflow.SupplierClaimInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.FirstValidationMessage(err)})
			return
		}

		claim, err := workflow.ProcessSupplierClaim(c.Request.Context(), config.GetDB(), config.GetLogger(), businessId, input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, claim)
	}
}
