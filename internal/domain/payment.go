package domain

// PaymentDetails is transient form state for a single checkout attempt.
// It is never persisted or logged, and discarded after submit regardless
// of outcome.
type PaymentDetails struct {
	CardNumber string `json:"card_number"`
	CardHolder string `json:"card_holder"`
	ExpiryDate string `json:"expiry_date"`
	CVV        string `json:"cvv"`
}
