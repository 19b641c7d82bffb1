package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"payflow/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Filter holds optional predicates; a nil field means "don't care". An empty
// filter matches every payment.
type Filter struct {
	ID                *uuid.UUID
	ExternalReference *string
	CPF               *string
	// Description is matched as a case-insensitive substring.
	Description *string
	Amount      *decimal.Decimal
	Method      *domain.PaymentMethod
	Status      *domain.PaymentStatus
}

type PaymentRepo interface {
	Create(ctx context.Context, payment *domain.Payment) error
	// Update persists the aggregate only if the stored status still equals
	// expected, so two racing reconciliations cannot both write from stale
	// state. Returns domain.ErrStalePayment on a lost race and
	// domain.ErrPaymentNotFound when the row is gone.
	Update(ctx context.Context, payment *domain.Payment, expected domain.PaymentStatus) error
	FindById(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	FindByExternalReference(ctx context.Context, ref string) (*domain.Payment, error)
	Filter(ctx context.Context, filter Filter) ([]*domain.Payment, error)
	// FindStalePending returns PENDING payments with a gateway reference that
	// were created before the cutoff, for the reconciliation sweep.
	FindStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]*domain.Payment, error)
}

type paymentRepo struct {
	db *sql.DB
}

func NewPaymentRepo(db *sql.DB) PaymentRepo {
	return &paymentRepo{db: db}
}

const paymentColumns = "id, external_reference, cpf, description, amount, method, status, created_at"

func (r *paymentRepo) Create(ctx context.Context, payment *domain.Payment) error {
	query := `INSERT INTO payments (` + paymentColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(
		ctx, query,
		payment.ID,
		nullableRef(payment.ExternalReference()),
		payment.CPF.String(),
		payment.Description,
		payment.Amount.Decimal(),
		payment.Method,
		payment.Status(),
		payment.CreatedAt,
	)
	return err
}

func (r *paymentRepo) Update(ctx context.Context, payment *domain.Payment, expected domain.PaymentStatus) error {
	query := `
		UPDATE payments
		SET status = $2,
		    external_reference = COALESCE($3, external_reference),
		    updated_at = now()
		WHERE id = $1 AND status = $4
	`
	res, err := r.db.ExecContext(ctx, query, payment.ID, payment.Status(), nullableRef(payment.ExternalReference()), expected)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		if _, err := r.FindById(ctx, payment.ID); errors.Is(err, domain.ErrPaymentNotFound) {
			return domain.ErrPaymentNotFound
		}
		return domain.ErrStalePayment
	}
	return nil
}

func (r *paymentRepo) FindById(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return scanPayment(r.db.QueryRowContext(ctx, query, id))
}

func (r *paymentRepo) FindByExternalReference(ctx context.Context, ref string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE external_reference = $1`
	return scanPayment(r.db.QueryRowContext(ctx, query, ref))
}

func (r *paymentRepo) Filter(ctx context.Context, filter Filter) ([]*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments`

	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.ID != nil {
		conds = append(conds, "id = "+arg(*filter.ID))
	}
	if filter.ExternalReference != nil {
		conds = append(conds, "external_reference = "+arg(*filter.ExternalReference))
	}
	if filter.CPF != nil {
		conds = append(conds, "cpf = "+arg(*filter.CPF))
	}
	if filter.Description != nil {
		conds = append(conds, "description ILIKE "+arg("%"+*filter.Description+"%"))
	}
	if filter.Amount != nil {
		conds = append(conds, "amount = "+arg(*filter.Amount))
	}
	if filter.Method != nil {
		conds = append(conds, "method = "+arg(*filter.Method))
	}
	if filter.Status != nil {
		conds = append(conds, "status = "+arg(*filter.Status))
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPayments(rows)
}

func (r *paymentRepo) FindStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + ` FROM payments
		WHERE status = $1
		AND external_reference IS NOT NULL
		AND created_at < $2
		ORDER BY created_at
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, domain.PaymentPending, time.Now().Add(-olderThan), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPayments(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var (
		id        uuid.UUID
		ref       sql.NullString
		rawCPF    string
		desc      string
		amount    decimal.Decimal
		method    string
		status    string
		createdAt time.Time
	)
	err := row.Scan(&id, &ref, &rawCPF, &desc, &amount, &method, &status, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}

	cpf, err := domain.NewCPF(rawCPF)
	if err != nil {
		return nil, fmt.Errorf("payment %s: %w", id, err)
	}
	amt, err := domain.NewAmount(amount)
	if err != nil {
		return nil, fmt.Errorf("payment %s: %w", id, err)
	}
	m, err := domain.ParsePaymentMethod(method)
	if err != nil {
		return nil, fmt.Errorf("payment %s: %w", id, err)
	}
	s, err := domain.ParsePaymentStatus(status)
	if err != nil {
		return nil, fmt.Errorf("payment %s: %w", id, err)
	}

	return domain.Rehydrate(id, ref.String, cpf, desc, amt, m, s, createdAt), nil
}

func scanPayments(rows *sql.Rows) ([]*domain.Payment, error) {
	var payments []*domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func nullableRef(ref string) sql.NullString {
	return sql.NullString{String: ref, Valid: ref != ""}
}
