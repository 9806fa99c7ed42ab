package models

const (
	IntentStatusPending = "pending"
	IntentStatusFailed  = "failed"

	PaymentStatusSuccess = "Success"

	PlanMonthly = "monthly"

	// SubscriptionAmount is the flat monthly charge in KES.
	SubscriptionAmount = 250
)

// PaymentIntent is written when a charge is initiated and keyed by the
// gateway order reference. The webhook resolves it: deleted on success,
// marked failed otherwise.
type PaymentIntent struct {
	OrderReference string `redis:"order_reference" json:"orderReference"`
	UserID         string `redis:"user_id" json:"userId"`
	Status         string `redis:"status" json:"status"`
	Amount         int64  `redis:"amount" json:"amount"`
	Phone          string `redis:"phone" json:"phone"`
	CreatedAt      int64  `redis:"created_at" json:"createdAt"`
}

// Payment is the permanent record of a settled charge.
type Payment struct {
	OrderReference   string `redis:"order_reference" json:"orderReference"`
	UserID           string `redis:"user_id" json:"userId"`
	GatewayReference string `redis:"gateway_reference" json:"gatewayReference"`
	Status           string `redis:"status" json:"status"`
	Amount           int64  `redis:"amount" json:"amount"`
	Timestamp        int64  `redis:"timestamp" json:"timestamp"`
	CreatedAt        int64  `redis:"created_at" json:"createdAt"`
}

// WebhookPayload is the gateway's callback body.
type WebhookPayload struct {
	OrderReference string `json:"orderReference"`
	Status         string `json:"status"`
	Reference      string `json:"reference"`
	Amount         int64  `json:"amount"`
	Timestamp      int64  `json:"timestamp"`
}

type InitiateRequest struct {
	Phone string `json:"phone" binding:"required"`
}

type InitiateResponse struct {
	OrderReference string `json:"orderReference"`
	Status         string `json:"status"`
}
