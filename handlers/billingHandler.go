package handlers

import (
	"net/http"

	"bitbucket.org/mmdatafocus/distribution_backend/config"
	"bitbucket.org/mmdatafocus/distribution_backend/models"
	"bitbucket.org/mmdatafocus/distribution_backend/utils"
	"bitbucket.org/mmdatafocus/distribution_backend/workflow"
	"github.com/gin-gonic/gin"
)

// InterBranchBillHandler resolves the agency code from the URL once, here at
// the boundary; everything past this point works with the Agency record.
func InterBranchBillHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, ok := businessIdFrom(c)
		if !ok {
			return
		}

		agency, err := models.GetAgencyByCode(c.Request.Context(), config.GetDB(), businessId, c.Param("agency"))
		if err != nil {
			respondError(c, err)
			return
		}

		var input workflow.InterBranchBillInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.FirstValidationMessage(err)})
			return
		}

		result, err := workflow.ProcessInterBranchBill(c.Request.Context(), config.GetDB(), config.GetLogger(), businessId, agency, input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
