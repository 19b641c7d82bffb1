package server

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func signatureRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/webhook", WebhookSignature(testSecret, zap.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func signManifest(dataID, requestID, ts string) string {
	manifest := "id:" + dataID + ";request-id:" + requestID + ";ts:" + ts + ";"
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(manifest))
	return hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(r *gin.Engine, body, signature, requestID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(body))
	if signature != "" {
		req.Header.Set("x-signature", signature)
	}
	if requestID != "" {
		req.Header.Set("x-request-id", requestID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookSignature_Valid(t *testing.T) {
	r := signatureRouter()
	sig := signManifest("123", "req-1", "1700000000")

	w := postWebhook(r, `{"type":"payment","data":{"id":"123"}}`, "ts=1700000000,v1="+sig, "req-1")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookSignature_Mismatch(t *testing.T) {
	r := signatureRouter()

	w := postWebhook(r, `{"type":"payment","data":{"id":"123"}}`, "ts=1700000000,v1=deadbeef", "req-1")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookSignature_MissingHeaders(t *testing.T) {
	r := signatureRouter()

	w := postWebhook(r, `{"type":"payment","data":{"id":"123"}}`, "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookSignature_MalformedHeader(t *testing.T) {
	r := signatureRouter()

	w := postWebhook(r, `{"type":"payment","data":{"id":"123"}}`, "garbage", "req-1")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookSignature_NoDataIDPassesThrough(t *testing.T) {
	// Notifications without a payment id are let through; reconciliation
	// ignores them anyway.
	r := signatureRouter()

	w := postWebhook(r, `{"type":"test"}`, "ts=1,v1=whatever", "req-1")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookSignature_ResourceID(t *testing.T) {
	r := signatureRouter()
	sig := signManifest("456", "req-2", "1700000001")

	body := `{"topic":"payment","resource":"https://api.mercadopago.com/v1/payments/456"}`
	w := postWebhook(r, body, "ts=1700000001,v1="+sig, "req-2")
	assert.Equal(t, http.StatusOK, w.Code)
}
