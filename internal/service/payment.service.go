package service

import (
	"context"
	"fmt"

	"payflow/internal/domain"
	"payflow/internal/infrastructure/payment"
	"payflow/internal/repo"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CreatePaymentInput struct {
	CPF         string
	Description string
	Amount      decimal.Decimal
	Method      string
}

type CreatePaymentOutput struct {
	PaymentID         uuid.UUID
	Status            domain.PaymentStatus
	Method            domain.PaymentMethod
	ExternalReference string
	// InitPoint is the gateway checkout URL; empty for PIX.
	InitPoint string
}

type PaymentService interface {
	Create(ctx context.Context, input CreatePaymentInput) (*CreatePaymentOutput, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, target domain.PaymentStatus) (*domain.Payment, error)
	FindById(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	Filter(ctx context.Context, filter repo.Filter) ([]*domain.Payment, error)
}

type paymentService struct {
	paymentRepo repo.PaymentRepo
	gateway     payment.PaymentGateway
	logger      *zap.Logger
}

func NewPaymentService(paymentRepo repo.PaymentRepo, gateway payment.PaymentGateway, logger *zap.Logger) PaymentService {
	return &paymentService{
		paymentRepo: paymentRepo,
		gateway:     gateway,
		logger:      logger,
	}
}

// Create builds a PENDING payment. PIX settles outside the gateway's card
// flow, so it is persisted directly; card payments first obtain a checkout
// preference and carry its external reference from day one.
func (s *paymentService) Create(ctx context.Context, input CreatePaymentInput) (*CreatePaymentOutput, error) {
	method, err := domain.ParsePaymentMethod(input.Method)
	if err != nil {
		return nil, err
	}
	cpf, err := domain.NewCPF(input.CPF)
	if err != nil {
		return nil, err
	}
	amount, err := domain.NewAmount(input.Amount)
	if err != nil {
		return nil, err
	}

	p, err := domain.NewPayment(uuid.Nil, cpf, input.Description, amount, method)
	if err != nil {
		return nil, err
	}

	if method == domain.MethodPix {
		if err := s.paymentRepo.Create(ctx, p); err != nil {
			return nil, err
		}
		s.logger.Info("payment created", zap.String("payment_id", p.ID.String()), zap.String("method", string(method)))
		return &CreatePaymentOutput{
			PaymentID: p.ID,
			Status:    p.Status(),
			Method:    p.Method,
		}, nil
	}

	pref, err := s.gateway.CreatePreference(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := p.AssignExternalReference(pref.ExternalReference); err != nil {
		return nil, err
	}

	if err := s.paymentRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("payment created",
		zap.String("payment_id", p.ID.String()),
		zap.String("method", string(method)),
		zap.String("external_reference", pref.ExternalReference))

	return &CreatePaymentOutput{
		PaymentID:         p.ID,
		Status:            p.Status(),
		Method:            p.Method,
		ExternalReference: pref.ExternalReference,
		InitPoint:         pref.InitPoint,
	}, nil
}

// UpdateStatus is the caller-driven entry point, distinct from webhook
// reconciliation: repeating a terminal status is an error here, while the
// aggregate itself treats it as a no-op.
func (s *paymentService) UpdateStatus(ctx context.Context, id uuid.UUID, target domain.PaymentStatus) (*domain.Payment, error) {
	p, err := s.paymentRepo.FindById(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Status() == domain.PaymentPaid && target == domain.PaymentPaid {
		return nil, fmt.Errorf("payment %s: %w", id, domain.ErrPaymentAlreadyPaid)
	}
	if p.Status() == domain.PaymentFailed && target == domain.PaymentFailed {
		return nil, fmt.Errorf("payment %s: %w", id, domain.ErrPaymentCannotFail)
	}

	loaded := p.Status()
	if !p.UpdateStatus(target) {
		return p, nil
	}

	if err := s.paymentRepo.Update(ctx, p, loaded); err != nil {
		return nil, err
	}
	s.logger.Info("payment status updated",
		zap.String("payment_id", id.String()),
		zap.String("status", string(p.Status())))
	return p, nil
}

func (s *paymentService) FindById(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	return s.paymentRepo.FindById(ctx, id)
}

func (s *paymentService) Filter(ctx context.Context, filter repo.Filter) ([]*domain.Payment, error) {
	return s.paymentRepo.Filter(ctx, filter)
}
