package worker

import (
	"context"
	"errors"
	"time"

	"payflow/internal/domain"
	"payflow/internal/infrastructure/payment"
	"payflow/internal/repo"
	"payflow/internal/service"

	"go.uber.org/zap"
)

const sweepBatchSize = 100

// ReconciliationWorker periodically re-checks payments stuck in PENDING
// against the gateway's ground truth, covering webhooks that never arrived.
type ReconciliationWorker struct {
	paymentRepo repo.PaymentRepo
	gateway     payment.PaymentGateway
	interval    time.Duration
	stuckAfter  time.Duration
	logger      *zap.Logger
}

func NewReconciliationWorker(
	paymentRepo repo.PaymentRepo,
	gateway payment.PaymentGateway,
	interval time.Duration,
	stuckAfter time.Duration,
	logger *zap.Logger,
) *ReconciliationWorker {
	return &ReconciliationWorker{
		paymentRepo: paymentRepo,
		gateway:     gateway,
		interval:    interval,
		stuckAfter:  stuckAfter,
		logger:      logger,
	}
}

func (rw *ReconciliationWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(rw.interval)
	defer ticker.Stop()

	rw.logger.Info("reconciliation worker started", zap.Duration("interval", rw.interval))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := rw.sweep(ctx); err != nil {
				rw.logger.Error("reconciliation sweep failed", zap.Error(err))
			}
		}
	}
}

func (rw *ReconciliationWorker) sweep(ctx context.Context) error {
	stuck, err := rw.paymentRepo.FindStalePending(ctx, rw.stuckAfter, sweepBatchSize)
	if err != nil {
		return err
	}
	if len(stuck) == 0 {
		return nil
	}

	rw.logger.Info("found stale pending payments", zap.Int("count", len(stuck)))

	for _, p := range stuck {
		rw.reconcile(ctx, p)
	}
	return nil
}

func (rw *ReconciliationWorker) reconcile(ctx context.Context, p *domain.Payment) {
	gwPayment, err := rw.gateway.SearchByReference(ctx, p.ExternalReference())
	if errors.Is(err, payment.ErrNotFound) {
		// The gateway never saw this reference; leave it for the next sweep.
		rw.logger.Warn("gateway has no record for reference",
			zap.String("payment_id", p.ID.String()),
			zap.String("external_reference", p.ExternalReference()))
		return
	}
	if err != nil {
		rw.logger.Error("gateway lookup failed",
			zap.String("payment_id", p.ID.String()), zap.Error(err))
		return
	}

	loaded := p.Status()
	if !service.ApplyGatewayStatus(p, gwPayment.Status) {
		return
	}

	if err := rw.paymentRepo.Update(ctx, p, loaded); err != nil {
		if errors.Is(err, domain.ErrStalePayment) {
			// A webhook landed between the sweep query and this write.
			return
		}
		rw.logger.Error("failed to persist reconciled payment",
			zap.String("payment_id", p.ID.String()), zap.Error(err))
		return
	}

	rw.logger.Info("stale payment reconciled",
		zap.String("payment_id", p.ID.String()),
		zap.String("status", string(p.Status())))
}
