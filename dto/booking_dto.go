package dto

type CreateBookingDTO struct {
	TradesmanID    string   `json:"tradesmanId" binding:"required"`
	JobTitle       string   `json:"jobTitle" binding:"required"`
	JobDescription string   `json:"jobDescription" binding:"required"`
	Urgency        string   `json:"urgency" binding:"omitempty,oneof=standard urgent emergency"`
	RequestedDates []string `json:"requestedDates" binding:"omitempty,dive,datetime=2006-01-02"`
}

type OfferQuoteDTO struct {
	Quote string `json:"quote" binding:"required,max=100"`
}

type CounterOfferDTO struct {
	Amount    string `json:"amount" binding:"required,max=100"`
	Reasoning string `json:"reasoning" binding:"max=1000"`
}

type CreateCommentDTO struct {
	Comment string `json:"comment" binding:"required,min=1,max=5000"`
}
