package request

type RefundRequest struct {
	Reason string `json:"reason,omitempty"`
}

// PaymentNotificationRequest is the processor webhook payload. The signature
// travels in a header and is checked before this body is trusted.
type PaymentNotificationRequest struct {
	PaymentRef string `json:"payment_ref" binding:"required"`
	Status     string `json:"status" binding:"required"`
}
