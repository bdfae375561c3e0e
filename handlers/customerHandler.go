package handlers

import (
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/distribution_backend/config"
	"bitbucket.org/mmdatafocus/distribution_backend/models"
	"bitbucket.org/mmdatafocus/distribution_backend/utils"
	"github.com/gin-gonic/gin"
)

func CreateCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, ok := businessIdFrom(c)
		if !ok {
			return
		}

		var input models.NewCustomer
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.FirstValidationMessage(err)})
			return
		}

		customer, err := models.CreateCustomer(c.Request.Context(), config.GetDB(), businessId, input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, customer)
	}
}

func GetCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, ok := businessIdFrom(c)
		if !ok {
			return
		}
		customerId, err := strconv.Atoi(c.Param("id"))
		if err != nil || customerId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer id"})
			return
		}

		customer, err := models.GetCustomerById(config.GetDB().WithContext(c.Request.Context()), businessId, customerId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, customer)
	}
}
