package wallet

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/swiftryde/swiftryde-wallet/pkg/config"
)

func webhookSignature(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestPaystackWebhookRejectsBadSignature(t *testing.T) {
	h := &Handler{Config: config.Config{PaystackSecret: "sk_test_secret"}}

	body := []byte(`{"event":"charge.success","data":{"reference":"dep-1","amount":200000}}`)

	req := httptest.NewRequest("POST", "/api/wallet/paystack/webhook", bytes.NewReader(body))
	req.Header.Set("x-paystack-signature", "deadbeef")
	rr := httptest.NewRecorder()

	h.PaystackWebhook(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestPaystackWebhookRejectsMalformedBody(t *testing.T) {
	secret := "sk_test_secret"
	h := &Handler{Config: config.Config{PaystackSecret: secret}}

	body := []byte(`{not json`)

	req := httptest.NewRequest("POST", "/api/wallet/paystack/webhook", bytes.NewReader(body))
	req.Header.Set("x-paystack-signature", webhookSignature(secret, body))
	rr := httptest.NewRecorder()

	h.PaystackWebhook(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestWithdrawErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{ErrInvalidAmount, http.StatusBadRequest},
		{ErrInvalidBankDetails, http.StatusBadRequest},
		{ErrWalletLocked, http.StatusConflict},
		{ErrInsufficientBalance, http.StatusBadRequest},
		{ErrNotEligible, http.StatusForbidden},
		{ErrBalanceInvariant, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		status, _ := withdrawError(tt.err)
		assert.Equal(t, tt.status, status, "error %v", tt.err)
	}
}
