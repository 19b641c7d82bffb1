package payment

import (
	"context"
	"errors"
	"time"

	"payflow/internal/domain"
)

// Status is the gateway-side payment status vocabulary. Only approved,
// rejected and cancelled ever cause a local transition.
type Status string

const (
	StatusApproved  Status = "approved"
	StatusPending   Status = "pending"
	StatusInProcess Status = "in_process"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
	StatusRefunded  Status = "refunded"
)

// ErrNotFound means the gateway has no record for the requested id or
// reference.
var ErrNotFound = errors.New("gateway payment not found")

// Preference is the gateway's checkout session for a card payment.
type Preference struct {
	ExternalReference string
	InitPoint         string
}

// GatewayPayment is the canonical gateway-side record; webhook payloads are
// never trusted, this is always re-fetched.
type GatewayPayment struct {
	ID                int64
	Status            Status
	ExternalReference string
	DateApproved      *time.Time
}

type PaymentGateway interface {
	CreatePreference(ctx context.Context, p *domain.Payment) (*Preference, error)
	GetPayment(ctx context.Context, gatewayID int64) (*GatewayPayment, error)
	SearchByReference(ctx context.Context, ref string) (*GatewayPayment, error)
}
