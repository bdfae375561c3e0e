package handlers

import (
	"net/http"

	"bitbucket.org/mmdatafocus/distribution_backend/config"
	"bitbucket.org/mmdatafocus/distribution_backend/utils"
	"bitbucket.org/mmdatafocus/distribution_backend/workflow"
	"github.com/gin-gonic/gin"
)

func RecordPaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, ok := businessIdFrom(c)
		if !ok {
			return
		}

		var input workflow.RecordPaymentInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.FirstValidationMessage(err)})
			return
		}

		payment, err := workflow.ProcessRecordPayment(c.Request.Context(), config.GetDB(), config.GetLogger(), businessId, input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, payment)
	}
}

func ChequeActionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, ok := businessIdFrom(c)
		if !ok {
			return
		}

		var input workflow.ChequeActionInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.FirstValidationMessage(err)})
			return
		}

		err := workflow.ProcessChequeAction(c.Request.Context(), config.GetDB(), config.GetLogger(), businessId, input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func SupplierChequeActionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, ok := businessIdFrom(c)
		if !ok {
			return
		}

		var input workflow.SupplierChequeActionInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.FirstValidationMessage(err)})
			return
		}

		err := workflow.ProcessSupplierChequeAction(c.Request.Context(), config.GetDB(), config.GetLogger(), businessId, input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
