package response

import (
	"fleetbook/internal/usecase/commands"
)

type InitiatePaymentResponse struct {
	PaymentRef  string `json:"paymentRef"`
	AmountCents int64  `json:"amountCents"`
	Currency    string `json:"currency"`
}

type ConfirmPaymentResponse struct {
	PaymentStatus string `json:"paymentStatus"`
	BookingStatus string `json:"bookingStatus"`
}

func FromInitiateResult(result *commands.InitiatePaymentResult) *InitiatePaymentResponse {
	return &InitiatePaymentResponse{
		PaymentRef:  result.PaymentRef,
		AmountCents: result.AmountCents,
		Currency:    result.Currency,
	}
}

func FromConfirmResult(result *commands.ConfirmPaymentResult) *ConfirmPaymentResponse {
	return &ConfirmPaymentResponse{
		PaymentStatus: result.PaymentStatus.String(),
		BookingStatus: result.BookingStatus.String(),
	}
}
