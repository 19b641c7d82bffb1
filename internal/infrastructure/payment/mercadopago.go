package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"payflow/internal/domain"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultMercadoPagoBaseURL = "https://api.mercadopago.com"

type MercadoPagoConfig struct {
	AccessToken string
	// WebhookURL is registered as the notification_url on every preference.
	WebhookURL string
	// BaseURL overrides the production API host, for tests.
	BaseURL string
}

func (c *MercadoPagoConfig) Validate() error {
	if c.AccessToken == "" {
		return errors.New("mercadopago: access token is not configured")
	}
	if c.WebhookURL == "" {
		return errors.New("mercadopago: webhook URL is not configured")
	}
	if c.BaseURL == "" {
		c.BaseURL = defaultMercadoPagoBaseURL
	}
	return nil
}

// MercadoPagoGateway talks to the Mercado Pago REST API. Idempotent reads are
// retried with bounded exponential backoff; writes are never retried.
type MercadoPagoGateway struct {
	config     *MercadoPagoConfig
	httpClient *http.Client
	logger     *zap.Logger
}

func NewMercadoPagoGateway(config *MercadoPagoConfig, logger *zap.Logger) (*MercadoPagoGateway, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &MercadoPagoGateway{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}, nil
}

type mpPreferenceItem struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type mpPreferenceRequest struct {
	Items             []mpPreferenceItem `json:"items"`
	ExternalReference string             `json:"external_reference"`
	NotificationURL   string             `json:"notification_url"`
}

type mpPreferenceResponse struct {
	ID                string `json:"id"`
	InitPoint         string `json:"init_point"`
	ExternalReference string `json:"external_reference"`
}

type mpPaymentResponse struct {
	ID                int64  `json:"id"`
	Status            string `json:"status"`
	ExternalReference string `json:"external_reference"`
	DateApproved      string `json:"date_approved"`
}

type mpSearchResponse struct {
	Results []mpPaymentResponse `json:"results"`
}

func (g *MercadoPagoGateway) CreatePreference(ctx context.Context, p *domain.Payment) (*Preference, error) {
	reqBody := mpPreferenceRequest{
		Items: []mpPreferenceItem{{
			ID:        p.ID.String(),
			Title:     p.Description,
			Quantity:  1,
			UnitPrice: p.Amount.Decimal().InexactFloat64(),
		}},
		ExternalReference: uuid.NewString(),
		NotificationURL:   g.config.WebhookURL,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	var resp mpPreferenceResponse
	if err := g.do(ctx, http.MethodPost, "/checkout/preferences", bytes.NewReader(body), &resp); err != nil {
		return nil, fmt.Errorf("mercadopago: create preference for payment %s: %w", p.ID, err)
	}

	if resp.ID == "" || resp.InitPoint == "" {
		return nil, errors.New("mercadopago: preference response missing id or init point")
	}

	g.logger.Info("preference created",
		zap.String("payment_id", p.ID.String()),
		zap.String("external_reference", resp.ExternalReference))

	return &Preference{
		ExternalReference: resp.ExternalReference,
		InitPoint:         resp.InitPoint,
	}, nil
}

func (g *MercadoPagoGateway) GetPayment(ctx context.Context, gatewayID int64) (*GatewayPayment, error) {
	var resp mpPaymentResponse
	path := fmt.Sprintf("/v1/payments/%d", gatewayID)

	err := g.retryRead(ctx, func() error {
		return g.do(ctx, http.MethodGet, path, nil, &resp)
	})
	if err != nil {
		return nil, fmt.Errorf("mercadopago: get payment %d: %w", gatewayID, err)
	}

	return toGatewayPayment(resp), nil
}

func (g *MercadoPagoGateway) SearchByReference(ctx context.Context, ref string) (*GatewayPayment, error) {
	var resp mpSearchResponse
	path := "/v1/payments/search?external_reference=" + url.QueryEscape(ref)

	err := g.retryRead(ctx, func() error {
		return g.do(ctx, http.MethodGet, path, nil, &resp)
	})
	if err != nil {
		return nil, fmt.Errorf("mercadopago: search payments by reference %s: %w", ref, err)
	}

	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("reference %s: %w", ref, ErrNotFound)
	}
	return toGatewayPayment(resp.Results[0]), nil
}

// retryRead wraps an idempotent GET in bounded exponential backoff.
func (g *MercadoPagoGateway) retryRead(ctx context.Context, op func() error) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	return backoff.Retry(op, policy)
}

func (g *MercadoPagoGateway) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, g.config.BaseURL+path, body)
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+g.config.AccessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return backoff.Permanent(ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("unexpected status %d: %s", resp.StatusCode, raw)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return err // retryable
		}
		return backoff.Permanent(err)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return backoff.Permanent(err)
	}
	return nil
}

func toGatewayPayment(resp mpPaymentResponse) *GatewayPayment {
	p := &GatewayPayment{
		ID:                resp.ID,
		Status:            Status(resp.Status),
		ExternalReference: resp.ExternalReference,
	}
	if resp.DateApproved != "" {
		if t, err := time.Parse(time.RFC3339, resp.DateApproved); err == nil {
			p.DateApproved = &t
		}
	}
	return p
}
