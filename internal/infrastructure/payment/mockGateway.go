package payment

import (
	"context"
	"fmt"
	"sync"

	"payflow/internal/domain"

	"github.com/google/uuid"
)

// MockGateway is an in-memory PaymentGateway for tests and local runs. Status
// changes are driven explicitly through Approve/Reject.
type MockGateway struct {
	mu       sync.RWMutex
	nextID   int64
	payments map[int64]*GatewayPayment
	byRef    map[string]int64
}

func NewMockGateway() *MockGateway {
	return &MockGateway{
		nextID:   1,
		payments: make(map[int64]*GatewayPayment),
		byRef:    make(map[string]int64),
	}
}

func (g *MockGateway) CreatePreference(ctx context.Context, p *domain.Payment) (*Preference, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ref := uuid.NewString()
	id := g.nextID
	g.nextID++

	g.payments[id] = &GatewayPayment{
		ID:                id,
		Status:            StatusPending,
		ExternalReference: ref,
	}
	g.byRef[ref] = id

	return &Preference{
		ExternalReference: ref,
		InitPoint:         fmt.Sprintf("https://sandbox.mercadopago.local/checkout/%s", ref),
	}, nil
}

func (g *MockGateway) GetPayment(ctx context.Context, gatewayID int64) (*GatewayPayment, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	p, ok := g.payments[gatewayID]
	if !ok {
		return nil, fmt.Errorf("payment %d: %w", gatewayID, ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (g *MockGateway) SearchByReference(ctx context.Context, ref string) (*GatewayPayment, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	id, ok := g.byRef[ref]
	if !ok {
		return nil, fmt.Errorf("reference %s: %w", ref, ErrNotFound)
	}
	cp := *g.payments[id]
	return &cp, nil
}

// SetStatus flips a gateway payment's status, simulating the processor
// settling or declining the charge.
func (g *MockGateway) SetStatus(gatewayID int64, status Status) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.payments[gatewayID]
	if !ok {
		return false
	}
	p.Status = status
	return true
}
