package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPayment(t *testing.T, method PaymentMethod) *Payment {
	t.Helper()
	cpf, err := NewCPF("12345678909")
	require.NoError(t, err)
	amount, err := NewAmount(decimal.NewFromInt(100))
	require.NoError(t, err)
	p, err := NewPayment(uuid.Nil, cpf, "test payment", amount, method)
	require.NoError(t, err)
	return p
}

func TestNewPayment(t *testing.T) {
	p := newTestPayment(t, MethodPix)

	assert.Equal(t, PaymentPending, p.Status())
	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Empty(t, p.ExternalReference())
	assert.False(t, p.CreatedAt.IsZero())
}

func TestNewPayment_EmptyDescription(t *testing.T) {
	cpf, err := NewCPF("12345678909")
	require.NoError(t, err)
	amount, err := NewAmount(decimal.NewFromInt(100))
	require.NoError(t, err)

	_, err = NewPayment(uuid.Nil, cpf, "", amount, MethodPix)
	assert.ErrorIs(t, err, ErrEmptyDescription)
}

func TestPaid(t *testing.T) {
	tests := []struct {
		from    PaymentStatus
		changed bool
		want    PaymentStatus
	}{
		{PaymentPending, true, PaymentPaid},
		{PaymentPaid, false, PaymentPaid},
		// FAILED is not final, so a late approval still promotes to PAID.
		{PaymentFailed, true, PaymentPaid},
	}

	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			p := newTestPayment(t, MethodCreditCard)
			p.status = tt.from

			assert.Equal(t, tt.changed, p.Paid())
			assert.Equal(t, tt.want, p.Status())
		})
	}
}

func TestFail(t *testing.T) {
	tests := []struct {
		from    PaymentStatus
		changed bool
		want    PaymentStatus
	}{
		{PaymentPending, true, PaymentFailed},
		{PaymentPaid, false, PaymentPaid},
		{PaymentFailed, false, PaymentFailed},
	}

	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			p := newTestPayment(t, MethodCreditCard)
			p.status = tt.from

			assert.Equal(t, tt.changed, p.Fail())
			assert.Equal(t, tt.want, p.Status())
		})
	}
}

func TestPaid_Idempotent(t *testing.T) {
	p := newTestPayment(t, MethodCreditCard)

	assert.True(t, p.Paid())
	assert.False(t, p.Paid())
	assert.Equal(t, PaymentPaid, p.Status())
}

func TestFail_Idempotent(t *testing.T) {
	p := newTestPayment(t, MethodCreditCard)

	assert.True(t, p.Fail())
	assert.False(t, p.Fail())
	assert.Equal(t, PaymentFailed, p.Status())
}

func TestIsFinal(t *testing.T) {
	p := newTestPayment(t, MethodPix)
	assert.False(t, p.IsFinal())

	p.Fail()
	assert.False(t, p.IsFinal(), "FAILED does not count as final")

	p.Paid()
	assert.True(t, p.IsFinal())
}

func TestUpdateStatus(t *testing.T) {
	t.Run("same status is a no-op", func(t *testing.T) {
		p := newTestPayment(t, MethodPix)
		assert.False(t, p.UpdateStatus(PaymentPending))
		assert.Equal(t, PaymentPending, p.Status())
	})

	t.Run("dispatches to paid", func(t *testing.T) {
		p := newTestPayment(t, MethodPix)
		assert.True(t, p.UpdateStatus(PaymentPaid))
		assert.Equal(t, PaymentPaid, p.Status())
	})

	t.Run("dispatches to fail", func(t *testing.T) {
		p := newTestPayment(t, MethodPix)
		assert.True(t, p.UpdateStatus(PaymentFailed))
		assert.Equal(t, PaymentFailed, p.Status())
	})

	t.Run("pending target is a no-op", func(t *testing.T) {
		p := newTestPayment(t, MethodPix)
		p.Paid()
		assert.False(t, p.UpdateStatus(PaymentPending))
		assert.Equal(t, PaymentPaid, p.Status())
	})
}

func TestAssignExternalReference(t *testing.T) {
	p := newTestPayment(t, MethodCreditCard)

	require.NoError(t, p.AssignExternalReference("mp-test-ref"))
	assert.Equal(t, "mp-test-ref", p.ExternalReference())

	err := p.AssignExternalReference("another-ref")
	assert.ErrorIs(t, err, ErrReferenceAssigned)
	assert.Equal(t, "mp-test-ref", p.ExternalReference())
}

func TestParsePaymentStatus(t *testing.T) {
	for _, valid := range []string{"PENDING", "PAID", "FAILED"} {
		s, err := ParsePaymentStatus(valid)
		require.NoError(t, err)
		assert.Equal(t, PaymentStatus(valid), s)
	}

	_, err := ParsePaymentStatus("APPROVED")
	assert.ErrorIs(t, err, ErrUnknownPaymentStatus)
	_, err = ParsePaymentStatus("")
	assert.ErrorIs(t, err, ErrUnknownPaymentStatus)
}

func TestParsePaymentMethod(t *testing.T) {
	for _, valid := range []string{"PIX", "CREDIT_CARD"} {
		m, err := ParsePaymentMethod(valid)
		require.NoError(t, err)
		assert.Equal(t, PaymentMethod(valid), m)
	}

	_, err := ParsePaymentMethod("BOLETO")
	assert.ErrorIs(t, err, ErrUnknownPaymentMethod)
}
