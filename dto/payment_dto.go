package dto

// PaymentWebhookDTO mirrors the payment gateway's checkout-completed payload.
type PaymentWebhookDTO struct {
	Amount   float64                `json:"amount" binding:"required,gt=0"`
	Currency string                 `json:"currency" binding:"required"`
	Metadata PaymentWebhookMetadata `json:"metadata" binding:"required"`
}

type PaymentWebhookMetadata struct {
	BookingID      string `json:"bookingId" binding:"required"`
	CustomerID     string `json:"customerId" binding:"required"`
	CustomerEmail  string `json:"customerEmail"`
	TradesmanID    string `json:"tradesmanId" binding:"required"`
	TradesmanEmail string `json:"tradesmanEmail"`
}
