package domain

import "errors"

var (
	ErrInvalidCPF    = errors.New("cpf must contain exactly 11 digits")
	ErrInvalidAmount = errors.New("amount must be greater than 0")

	ErrEmptyDescription = errors.New("description must not be empty")

	ErrUnknownPaymentMethod = errors.New("unknown payment method")
	ErrUnknownPaymentStatus = errors.New("unknown payment status")

	ErrPaymentNotFound    = errors.New("payment not found")
	ErrPaymentAlreadyPaid = errors.New("payment already paid")
	ErrPaymentCannotFail  = errors.New("payment already failed")

	// ErrReferenceAssigned signals an attempt to overwrite the gateway
	// correlation key outside the create flow.
	ErrReferenceAssigned = errors.New("external reference already assigned")

	// ErrStalePayment means a compare-and-set update lost the race: the stored
	// status no longer matches the one the aggregate was loaded with.
	ErrStalePayment = errors.New("payment was modified concurrently")
)
