package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
)

type PaymentMethod string

const (
	MethodPix        PaymentMethod = "PIX"
	MethodCreditCard PaymentMethod = "CREDIT_CARD"
)

// ParsePaymentStatus maps an untrusted string onto the closed status set.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch PaymentStatus(s) {
	case PaymentPending, PaymentPaid, PaymentFailed:
		return PaymentStatus(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPaymentStatus, s)
}

// ParsePaymentMethod maps an untrusted string onto the closed method set.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case MethodPix, MethodCreditCard:
		return PaymentMethod(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPaymentMethod, s)
}

// Payment is the aggregate root. Status and the gateway correlation key are
// only mutated through the transition methods below; everything else is set at
// construction and never changes.
type Payment struct {
	ID          uuid.UUID
	CPF         CPF
	Description string
	Amount      Amount
	Method      PaymentMethod
	CreatedAt   time.Time

	externalReference string
	status            PaymentStatus
}

// NewPayment builds a PENDING payment. A zero id is replaced with a fresh one.
func NewPayment(id uuid.UUID, cpf CPF, description string, amount Amount, method PaymentMethod) (*Payment, error) {
	if description == "" {
		return nil, ErrEmptyDescription
	}
	if id == uuid.Nil {
		id = uuid.New()
	}
	return &Payment{
		ID:          id,
		CPF:         cpf,
		Description: description,
		Amount:      amount,
		Method:      method,
		CreatedAt:   time.Now(),
		status:      PaymentPending,
	}, nil
}

// Rehydrate reconstructs a stored payment without re-running creation rules.
// Only the persistence layer should call it.
func Rehydrate(id uuid.UUID, externalReference string, cpf CPF, description string, amount Amount, method PaymentMethod, status PaymentStatus, createdAt time.Time) *Payment {
	return &Payment{
		ID:                id,
		CPF:               cpf,
		Description:       description,
		Amount:            amount,
		Method:            method,
		CreatedAt:         createdAt,
		externalReference: externalReference,
		status:            status,
	}
}

func (p *Payment) Status() PaymentStatus {
	return p.status
}

func (p *Payment) ExternalReference() string {
	return p.externalReference
}

// AssignExternalReference sets the gateway correlation key. It may be called
// once; reassignment would break webhook correlation and is rejected.
func (p *Payment) AssignExternalReference(ref string) error {
	if p.externalReference != "" {
		return ErrReferenceAssigned
	}
	p.externalReference = ref
	return nil
}

// Paid moves the payment to PAID. It reports whether the status actually
// changed; paying an already-paid payment is a harmless no-op.
func (p *Payment) Paid() bool {
	if p.IsFinal() {
		return false
	}
	p.status = PaymentPaid
	return true
}

// Fail moves the payment to FAILED unless it already reached PAID or FAILED.
func (p *Payment) Fail() bool {
	if !p.CanFail() {
		return false
	}
	p.status = PaymentFailed
	return true
}

func (p *Payment) CanFail() bool {
	return p.status != PaymentPaid && p.status != PaymentFailed
}

// IsFinal reports whether the payment reached PAID. FAILED deliberately does
// not count: a payment we marked failed can still be promoted to PAID when the
// gateway later reports it approved.
func (p *Payment) IsFinal() bool {
	return p.status == PaymentPaid
}

// UpdateStatus dispatches to Paid or Fail. Targeting the current status, or
// anything other than PAID/FAILED, changes nothing and returns false.
func (p *Payment) UpdateStatus(target PaymentStatus) bool {
	if p.status == target {
		return false
	}
	switch target {
	case PaymentPaid:
		return p.Paid()
	case PaymentFailed:
		return p.Fail()
	}
	return false
}
