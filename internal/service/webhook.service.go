package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"payflow/internal/domain"
	"payflow/internal/infrastructure/payment"
	"payflow/internal/repo"

	"go.uber.org/zap"
)

// Notification is the raw webhook payload. It is untrusted: only its type
// marker and numeric payment id are read, never its status.
type Notification struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
	Resource string `json:"resource"`
}

// GatewayPaymentID extracts the gateway payment id from data.id, falling back
// to the last path segment of resource.
func (n Notification) GatewayPaymentID() (int64, bool) {
	if id, err := strconv.ParseInt(n.Data.ID, 10, 64); err == nil {
		return id, true
	}
	if n.Resource != "" {
		parts := strings.Split(strings.TrimRight(n.Resource, "/"), "/")
		if id, err := strconv.ParseInt(parts[len(parts)-1], 10, 64); err == nil {
			return id, true
		}
	}
	return 0, false
}

// IsPayment reports whether the notification declares itself a payment event.
// Only type-keyed notifications are accepted; topic-keyed ones are ignored.
func (n Notification) IsPayment() bool {
	return n.Type == "payment"
}

type WebhookService interface {
	// Process reconciles a gateway notification against the stored aggregate.
	// Expected non-matches (bad shape, unknown correlation, already final,
	// unmapped status) are logged no-ops; only infrastructure failures return
	// an error.
	Process(ctx context.Context, notification Notification) error
}

type webhookService struct {
	paymentRepo repo.PaymentRepo
	gateway     payment.PaymentGateway
	logger      *zap.Logger
}

func NewWebhookService(paymentRepo repo.PaymentRepo, gateway payment.PaymentGateway, logger *zap.Logger) WebhookService {
	return &webhookService{
		paymentRepo: paymentRepo,
		gateway:     gateway,
		logger:      logger,
	}
}

func (s *webhookService) Process(ctx context.Context, notification Notification) error {
	gatewayID, ok := notification.GatewayPaymentID()
	if !notification.IsPayment() || !ok {
		s.logger.Warn("ignoring webhook with invalid shape",
			zap.String("type", notification.Type),
			zap.String("data_id", notification.Data.ID),
			zap.String("resource", notification.Resource))
		return nil
	}

	// The notification's own fields are never trusted beyond the id; fetch
	// canonical state from the gateway.
	gwPayment, err := s.gateway.GetPayment(ctx, gatewayID)
	if err != nil {
		return err
	}

	if gwPayment.ExternalReference == "" {
		s.logger.Warn("gateway payment missing external reference", zap.Int64("gateway_id", gatewayID))
		return nil
	}

	p, err := s.paymentRepo.FindByExternalReference(ctx, gwPayment.ExternalReference)
	if errors.Is(err, domain.ErrPaymentNotFound) {
		s.logger.Warn("no payment for external reference",
			zap.String("external_reference", gwPayment.ExternalReference))
		return nil
	}
	if err != nil {
		return err
	}

	if p.IsFinal() {
		s.logger.Info("payment already finalized", zap.String("payment_id", p.ID.String()))
		return nil
	}

	loaded := p.Status()
	changed := ApplyGatewayStatus(p, gwPayment.Status)
	if !changed {
		s.logger.Info("no transition for gateway status",
			zap.String("payment_id", p.ID.String()),
			zap.String("current_status", string(p.Status())),
			zap.String("gateway_status", string(gwPayment.Status)))
		return nil
	}

	if err := s.paymentRepo.Update(ctx, p, loaded); err != nil {
		if errors.Is(err, domain.ErrStalePayment) {
			// A concurrent reconciliation won the race; its write stands.
			s.logger.Info("concurrent reconciliation already persisted",
				zap.String("payment_id", p.ID.String()))
			return nil
		}
		return err
	}

	s.logger.Info("payment reconciled",
		zap.String("payment_id", p.ID.String()),
		zap.String("status", string(p.Status())),
		zap.Int64("gateway_id", gatewayID))
	return nil
}

// ApplyGatewayStatus maps the gateway vocabulary onto aggregate transitions.
// Non-terminal gateway statuses (pending, in_process, refunded, anything
// unrecognized) attempt no transition. Shared with the reconciliation worker.
func ApplyGatewayStatus(p *domain.Payment, status payment.Status) bool {
	switch status {
	case payment.StatusApproved:
		return p.Paid()
	case payment.StatusRejected, payment.StatusCancelled:
		return p.Fail()
	}
	return false
}
