package paystack

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/swiftryde/swiftryde-wallet/pkg/config"
	"github.com/swiftryde/swiftryde-wallet/pkg/logger"
	"github.com/swiftryde/swiftryde-wallet/pkg/money"
)

// Client is the outbound gateway to Paystack. The engine treats it as a
// black box returning structured responses; every failure surfaces as a
// typed *APIError or transport error, never swallowed.
type Client interface {
	ResolveAccount(accountNumber, bankCode string) (*ResolvedAccount, error)
	ListBanks() ([]Bank, error)
	CreateTransferRecipient(name, accountNumber, bankCode string) (*TransferRecipient, error)
	InitiateTransfer(amount money.Kobo, recipientCode, reference, reason string) (*Transfer, error)
	VerifyTransaction(reference string) (*TransactionStatus, error)
	VerifyTransfer(reference string) (*Transfer, error)
	CreateDedicatedVirtualAccount(customerCode string) (*DedicatedAccount, error)
}

// APIError carries the provider's error body and HTTP status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paystack: %s (status %d)", e.Message, e.StatusCode)
}

// Retryable reports whether the provider failure is worth retrying.
func (e *APIError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

type ResolvedAccount struct {
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
}

type Bank struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type TransferRecipient struct {
	RecipientCode string `json:"recipient_code"`
}

type Transfer struct {
	Reference    string     `json:"reference"`
	Status       string     `json:"status"`
	Amount       money.Kobo `json:"amount"`
	TransferCode string     `json:"transfer_code"`
}

type TransactionStatus struct {
	Reference string     `json:"reference"`
	Status    string     `json:"status"`
	Amount    money.Kobo `json:"amount"`
	Channel   string     `json:"channel"`
	PaidAt    *time.Time `json:"paid_at"`
}

type DedicatedAccount struct {
	ID            int64  `json:"id"`
	AccountNumber string `json:"account_number"`
	BankName      string `json:"bank_name"`
	Currency      string `json:"currency"`
}

type client struct {
	baseURL string
	secret  string
	http    *http.Client
}

func NewClient(cfg config.Config) Client {
	return &client{
		baseURL: cfg.PaystackBaseURL,
		secret:  cfg.PaystackSecret,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *client) ResolveAccount(accountNumber, bankCode string) (*ResolvedAccount, error) {
	path := fmt.Sprintf("/bank/resolve?account_number=%s&bank_code=%s",
		url.QueryEscape(accountNumber), url.QueryEscape(bankCode))

	var resolved ResolvedAccount
	if err := c.call("GET", path, nil, &resolved); err != nil {
		return nil, err
	}
	return &resolved, nil
}

func (c *client) ListBanks() ([]Bank, error) {
	var banks []Bank
	if err := c.call("GET", "/bank?currency=NGN", nil, &banks); err != nil {
		return nil, err
	}
	return banks, nil
}

func (c *client) CreateTransferRecipient(name, accountNumber, bankCode string) (*TransferRecipient, error) {
	payload := map[string]interface{}{
		"type":           "nuban",
		"name":           name,
		"account_number": accountNumber,
		"bank_code":      bankCode,
		"currency":       "NGN",
	}

	var recipient TransferRecipient
	if err := c.call("POST", "/transferrecipient", payload, &recipient); err != nil {
		return nil, err
	}
	return &recipient, nil
}

func (c *client) InitiateTransfer(amount money.Kobo, recipientCode, reference, reason string) (*Transfer, error) {
	payload := map[string]interface{}{
		"source":    "balance",
		"amount":    amount.Int64(),
		"recipient": recipientCode,
		"reference": reference,
		"reason":    reason,
	}

	var transfer Transfer
	if err := c.call("POST", "/transfer", payload, &transfer); err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (c *client) VerifyTransaction(reference string) (*TransactionStatus, error) {
	var status TransactionStatus
	if err := c.call("GET", "/transaction/verify/"+url.PathEscape(reference), nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *client) VerifyTransfer(reference string) (*Transfer, error) {
	var transfer Transfer
	if err := c.call("GET", "/transfer/verify/"+url.PathEscape(reference), nil, &transfer); err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (c *client) CreateDedicatedVirtualAccount(customerCode string) (*DedicatedAccount, error) {
	payload := map[string]interface{}{
		"customer":       customerCode,
		"preferred_bank": "wema-bank",
	}

	var account DedicatedAccount
	if err := c.call("POST", "/dedicated_account", payload, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// call performs one provider request and decodes the standard
// {status, message, data} envelope into out.
func (c *client) call(method, path string, payload interface{}, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("paystack: marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("paystack: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("paystack: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var envelope struct {
		Status  bool            `json:"status"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("paystack: read response: %w", err)
	}

	if err := json.Unmarshal(raw, &envelope); err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: "unparseable response body"}
	}

	if resp.StatusCode >= 400 || !envelope.Status {
		logger.Warn("Paystack call failed", logger.Fields{
			"method":      method,
			"path":        path,
			"status_code": resp.StatusCode,
			"message":     envelope.Message,
		})
		return &APIError{StatusCode: resp.StatusCode, Message: envelope.Message}
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("paystack: decode data: %w", err)
		}
	}
	return nil
}
