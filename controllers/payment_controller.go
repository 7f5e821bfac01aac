package controllers

import (
	"crypto/subtle"
	"net/http"
	"os"

	"github.com/Harrypapa1/patchwork-trades-backend/dto"
	"github.com/Harrypapa1/patchwork-trades-backend/services"
	"github.com/gin-gonic/gin"
)

// PaymentWebhook receives confirmed-payment events from the payment provider.
// The endpoint is unauthenticated but requires the shared webhook secret in
// the X-Webhook-Secret header.
func PaymentWebhook(ps *services.PaymentService) gin.HandlerFunc {
	secret := os.Getenv("PAYMENT_WEBHOOK_SECRET")

	return func(c *gin.Context) {
		if secret == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "webhook not configured"})
			return
		}
		given := c.GetHeader("X-Webhook-Secret")
		if subtle.ConstantTimeCompare([]byte(given), []byte(secret)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook secret"})
			return
		}

		var body dto.PaymentWebhookDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		evt := services.PaymentEvent{
			BookingID:      body.Metadata.BookingID,
			Amount:         body.Amount,
			Currency:       body.Currency,
			CustomerID:     body.Metadata.CustomerID,
			CustomerEmail:  body.Metadata.CustomerEmail,
			TradesmanID:    body.Metadata.TradesmanID,
			TradesmanEmail: body.Metadata.TradesmanEmail,
		}

		job, err := ps.HandlePaymentConfirmed(c.Request.Context(), evt)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "payment processed", "job": job})
	}
}
