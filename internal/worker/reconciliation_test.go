package worker

import (
	"context"
	"testing"
	"time"

	"payflow/internal/domain"
	"payflow/internal/infrastructure/payment"
	"payflow/internal/repo"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sweepRepo struct {
	stale       []*domain.Payment
	updated     map[uuid.UUID]domain.PaymentStatus
	updateCalls int
	updateErr   error
}

func (r *sweepRepo) Create(ctx context.Context, p *domain.Payment) error { return nil }

func (r *sweepRepo) Update(ctx context.Context, p *domain.Payment, expected domain.PaymentStatus) error {
	r.updateCalls++
	if r.updateErr != nil {
		return r.updateErr
	}
	if r.updated == nil {
		r.updated = make(map[uuid.UUID]domain.PaymentStatus)
	}
	r.updated[p.ID] = p.Status()
	return nil
}

func (r *sweepRepo) FindById(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	return nil, domain.ErrPaymentNotFound
}

func (r *sweepRepo) FindByExternalReference(ctx context.Context, ref string) (*domain.Payment, error) {
	return nil, domain.ErrPaymentNotFound
}

func (r *sweepRepo) Filter(ctx context.Context, filter repo.Filter) ([]*domain.Payment, error) {
	return nil, nil
}

func (r *sweepRepo) FindStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]*domain.Payment, error) {
	return r.stale, nil
}

type sweepGateway struct {
	byRef map[string]*payment.GatewayPayment
}

func (g *sweepGateway) CreatePreference(ctx context.Context, p *domain.Payment) (*payment.Preference, error) {
	return nil, nil
}

func (g *sweepGateway) GetPayment(ctx context.Context, gatewayID int64) (*payment.GatewayPayment, error) {
	return nil, payment.ErrNotFound
}

func (g *sweepGateway) SearchByReference(ctx context.Context, ref string) (*payment.GatewayPayment, error) {
	p, ok := g.byRef[ref]
	if !ok {
		return nil, payment.ErrNotFound
	}
	return p, nil
}

func stalePayment(t *testing.T, ref string) *domain.Payment {
	t.Helper()
	cpf, err := domain.NewCPF("12345678909")
	require.NoError(t, err)
	amount, err := domain.NewAmount(decimal.NewFromInt(100))
	require.NoError(t, err)
	return domain.Rehydrate(uuid.New(), ref, cpf, "stale payment", amount,
		domain.MethodCreditCard, domain.PaymentPending, time.Now().Add(-time.Hour))
}

func newTestWorker(r repo.PaymentRepo, g payment.PaymentGateway) *ReconciliationWorker {
	return NewReconciliationWorker(r, g, time.Second, time.Minute, zap.NewNop())
}

func TestSweep_PromotesApprovedPayment(t *testing.T) {
	p := stalePayment(t, "ref-1")
	r := &sweepRepo{stale: []*domain.Payment{p}}
	g := &sweepGateway{byRef: map[string]*payment.GatewayPayment{
		"ref-1": {ID: 1, Status: payment.StatusApproved, ExternalReference: "ref-1"},
	}}

	require.NoError(t, newTestWorker(r, g).sweep(context.Background()))

	assert.Equal(t, domain.PaymentPaid, r.updated[p.ID])
}

func TestSweep_FailsCancelledPayment(t *testing.T) {
	p := stalePayment(t, "ref-1")
	r := &sweepRepo{stale: []*domain.Payment{p}}
	g := &sweepGateway{byRef: map[string]*payment.GatewayPayment{
		"ref-1": {ID: 1, Status: payment.StatusCancelled, ExternalReference: "ref-1"},
	}}

	require.NoError(t, newTestWorker(r, g).sweep(context.Background()))

	assert.Equal(t, domain.PaymentFailed, r.updated[p.ID])
}

func TestSweep_SkipsUnknownReferenceAndPendingStatus(t *testing.T) {
	unknown := stalePayment(t, "unknown-ref")
	stillPending := stalePayment(t, "ref-2")
	r := &sweepRepo{stale: []*domain.Payment{unknown, stillPending}}
	g := &sweepGateway{byRef: map[string]*payment.GatewayPayment{
		"ref-2": {ID: 2, Status: payment.StatusInProcess, ExternalReference: "ref-2"},
	}}

	require.NoError(t, newTestWorker(r, g).sweep(context.Background()))

	assert.Zero(t, r.updateCalls)
}

func TestSweep_LostRaceIsTolerated(t *testing.T) {
	p := stalePayment(t, "ref-1")
	r := &sweepRepo{stale: []*domain.Payment{p}, updateErr: domain.ErrStalePayment}
	g := &sweepGateway{byRef: map[string]*payment.GatewayPayment{
		"ref-1": {ID: 1, Status: payment.StatusApproved, ExternalReference: "ref-1"},
	}}

	assert.NoError(t, newTestWorker(r, g).sweep(context.Background()))
}
