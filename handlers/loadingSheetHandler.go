package handlers

import (
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/distribution_backend/config"
	"bitbucket.org/mmdatafocus/distribution_backend/models"
	"bitbucket.org/mmdatafocus/distribution_backend/utils"
	"bitbucket.org/mmdatafocus/distribution_backend/workflow"
	"github.com/gin-gonic/gin"
)

func CreateLoadingSheetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, ok := businessIdFrom(c)
		if !ok {
			return
		}

		var input workflow.CreateLoadingSheetInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.FirstValidationMessage(err)})
			return
		}

		sheet, err := workflow.ProcessCreateLoadingSheet(c.Request.Context(), config.GetDB(), config.GetLogger(), businessId, input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, sheet)
	}
}

func LoadingSheetStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, ok := businessIdFrom(c)
		if !ok {
			return
		}
		sheetId, err := strconv.Atoi(c.Param("id"))
		if err != nil || sheetId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid loading sheet id"})
			return
		}

		var input struct {
			Status models.LoadingSheetStatus `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.FirstValidationMessage(err)})
			return
		}

		err = workflow.ProcessLoadingSheetStatus(c.Request.Context(), config.GetDB(), config.GetLogger(), businessId, sheetId, input.Status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": input.Status})
	}
}

func DeliveryReconciliationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, ok := businessIdFrom(c)
		if !ok {
			return
		}
		sheetId, err := strconv.Atoi(c.Param("id"))
		if err != nil || sheetId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid loading sheet id"})
			return
		}

		var input workflow.ReconcileDeliveryInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.FirstValidationMessage(err)})
			return
		}
		if input.UserId == 0 {
			input.UserId = userIdFrom(c)
		}

		err = workflow.ProcessDeliveryReconciliation(c.Request.Context(), config.GetDB(), config.GetLogger(), businessId, sheetId, input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "reconciled"})
	}
}
