package handlers

import (
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/distribution_backend/config"
	"bitbucket.org/mmdatafocus/distribution_backend/utils"
	"bitbucket.org/mmdatafocus/distribution_backend/workflow"
	"github.com/gin-gonic/gin"
)

func CreateInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, ok := businessIdFrom(c)
		if !ok {
			return
		}

		var input workflow.CreateInvoiceInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.FirstValidationMessage(err)})
			return
		}

		result, err := workflow.ProcessCreateInvoice(c.Request.Context(), config.GetDB(), config.GetLogger(), businessId, input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, result)
	}
}

func EditInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, ok := businessIdFrom(c)
		if !ok {
			return
		}
		invoiceId, err := strconv.Atoi(c.Param("id"))
		if err != nil || invoiceId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice id"})
			return
		}

		var input workflow.EditInvoiceInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.FirstValidationMessage(err)})
			return
		}
		if input.UserId == 0 {
			input.UserId = userIdFrom(c)
		}

		err = workflow.ProcessEditInvoice(c.Request.Context(), config.GetDB(), config.GetLogger(), businessId, invoiceId, input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "updated"})
	}
}

func CancelOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, ok := businessIdFrom(c)
		if !ok {
			return
		}
		orderId, err := strconv.Atoi(c.Param("id"))
		if err != nil || orderId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
			return
		}

		err = workflow.ProcessCancelOrder(c.Request.Context(), config.GetDB(), config.GetLogger(), businessId, orderId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
	}
}
