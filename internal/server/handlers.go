package server

import (
	"errors"
	"net/http"
	"time"

	"payflow/internal/database"
	"payflow/internal/domain"
	"payflow/internal/repo"
	"payflow/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Handler struct {
	payments service.PaymentService
	webhooks service.WebhookService
	health   database.Service
	logger   *zap.Logger
}

func NewHandler(payments service.PaymentService, webhooks service.WebhookService, health database.Service, logger *zap.Logger) *Handler {
	return &Handler{
		payments: payments,
		webhooks: webhooks,
		health:   health,
		logger:   logger,
	}
}

type createPaymentRequest struct {
	CPF           string  `json:"cpf" binding:"required"`
	Description   string  `json:"description" binding:"required"`
	Amount        float64 `json:"amount" binding:"required"`
	PaymentMethod string  `json:"paymentMethod" binding:"required"`
}

type createPaymentResponse struct {
	PaymentID         string `json:"paymentId"`
	Status            string `json:"status"`
	PaymentMethod     string `json:"paymentMethod"`
	ExternalReference string `json:"external_reference,omitempty"`
	InitPoint         string `json:"initPoint,omitempty"`
}

type updatePaymentRequest struct {
	Status string `json:"status" binding:"required"`
}

type paymentResponse struct {
	ID                string    `json:"id"`
	ExternalReference string    `json:"external_reference,omitempty"`
	CPF               string    `json:"cpf"`
	Description       string    `json:"description"`
	Amount            string    `json:"amount"`
	PaymentMethod     string    `json:"paymentMethod"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"createdAt"`
}

func toPaymentResponse(p *domain.Payment) paymentResponse {
	return paymentResponse{
		ID:                p.ID.String(),
		ExternalReference: p.ExternalReference(),
		CPF:               p.CPF.String(),
		Description:       p.Description,
		Amount:            p.Amount.String(),
		PaymentMethod:     string(p.Method),
		Status:            string(p.Status()),
		CreatedAt:         p.CreatedAt,
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	out, err := h.payments.Create(c.Request.Context(), service.CreatePaymentInput{
		CPF:         req.CPF,
		Description: req.Description,
		Amount:      decimal.NewFromFloat(req.Amount),
		Method:      req.PaymentMethod,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, createPaymentResponse{
		PaymentID:         out.PaymentID.String(),
		Status:            string(out.Status),
		PaymentMethod:     string(out.Method),
		ExternalReference: out.ExternalReference,
		InitPoint:         out.InitPoint,
	})
}

func (h *Handler) FindById(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
		return
	}

	p, err := h.payments.FindById(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResponse(p))
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
		return
	}

	var req updatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status, err := domain.ParsePaymentStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.payments.UpdateStatus(c.Request.Context(), id, status)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResponse(p))
}

func (h *Handler) Filter(c *gin.Context) {
	filter, err := filterFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payments, err := h.payments.Filter(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}

	out := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, toPaymentResponse(p))
	}
	c.JSON(http.StatusOK, out)
}

// Webhook always acknowledges with 200 so the gateway does not redeliver;
// reconciliation failures are logged and retried by the sweep worker.
func (h *Handler) Webhook(c *gin.Context) {
	var notification service.Notification
	if err := c.ShouldBindJSON(&notification); err != nil {
		h.logger.Warn("unreadable webhook payload", zap.Error(err))
		c.Status(http.StatusOK)
		return
	}

	if err := h.webhooks.Process(c.Request.Context(), notification); err != nil {
		h.logger.Error("webhook reconciliation failed", zap.Error(err))
	}
	c.Status(http.StatusOK)
}

func (h *Handler) Health(c *gin.Context) {
	stats := h.health.Health()
	code := http.StatusOK
	if stats["status"] != "up" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, stats)
}

func filterFromQuery(c *gin.Context) (repo.Filter, error) {
	var filter repo.Filter

	if v := c.Query("id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return filter, errors.New("invalid payment id")
		}
		filter.ID = &id
	}
	if v := c.Query("external_reference"); v != "" {
		filter.ExternalReference = &v
	}
	if v := c.Query("cpf"); v != "" {
		filter.CPF = &v
	}
	if v := c.Query("description"); v != "" {
		filter.Description = &v
	}
	if v := c.Query("amount"); v != "" {
		amount, err := decimal.NewFromString(v)
		if err != nil {
			return filter, errors.New("invalid amount")
		}
		filter.Amount = &amount
	}
	if v := c.Query("paymentMethod"); v != "" {
		method, err := domain.ParsePaymentMethod(v)
		if err != nil {
			return filter, err
		}
		filter.Method = &method
	}
	if v := c.Query("status"); v != "" {
		status, err := domain.ParsePaymentStatus(v)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}
	return filter, nil
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrPaymentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrPaymentAlreadyPaid),
		errors.Is(err, domain.ErrPaymentCannotFail),
		errors.Is(err, domain.ErrStalePayment):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidCPF),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrEmptyDescription),
		errors.Is(err, domain.ErrUnknownPaymentMethod),
		errors.Is(err, domain.ErrUnknownPaymentStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
