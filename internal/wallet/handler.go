package wallet

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/swiftryde/swiftryde-wallet/internal/user"
	"github.com/swiftryde/swiftryde-wallet/pkg/config"
	"github.com/swiftryde/swiftryde-wallet/pkg/events"
	"github.com/swiftryde/swiftryde-wallet/pkg/logger"
	"github.com/swiftryde/swiftryde-wallet/pkg/money"
	"github.com/swiftryde/swiftryde-wallet/pkg/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Handler struct {
	Config      config.Config
	Repo        Repository
	Service     *Service
	RedisClient *events.RedisClient
}

func NewHandler(cfg config.Config, repo Repository, svc *Service, redisClient *events.RedisClient) *Handler {
	return &Handler{Config: cfg, Repo: repo, Service: svc, RedisClient: redisClient}
}

type CreateWalletRequest struct {
	Pin string `json:"pin"`
}

func (h *Handler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	usr, ok := r.Context().Value(utils.UserKey).(user.User)
	if !ok {
		utils.BuildErrorResponse(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	var req CreateWalletRequest
	if status, err := utils.DecodeJSONBody(w, r, &req); err != nil {
		utils.BuildErrorResponse(w, status, "Invalid request", map[string]string{"error": err.Error()})
		return
	}

	if len(req.Pin) != 4 {
		utils.BuildErrorResponse(w, http.StatusBadRequest, "PIN must be 4 digits", nil)
		return
	}

	if existing, _ := h.Repo.GetWalletByUserID(usr.ID.String()); existing != nil {
		utils.BuildErrorResponse(w, http.StatusConflict, "User already has a wallet", nil)
		return
	}

	wlt, err := h.Service.ProvisionWallet(r.Context(), usr, req.Pin)
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusInternalServerError, "Failed to create wallet", nil)
		return
	}

	utils.BuildSuccessResponse(w, http.StatusCreated, "Wallet created successfully", wlt)
}

func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	usr, _ := r.Context().Value(utils.UserKey).(user.User)

	wlt, err := h.Repo.GetWalletByUserID(usr.ID.String())
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusNotFound, "Wallet not found", nil)
		return
	}

	utils.BuildSuccessResponse(w, http.StatusOK, "Wallet Details", wlt)
}

func (h *Handler) GetWalletBalance(w http.ResponseWriter, r *http.Request) {
	usr, _ := r.Context().Value(utils.UserKey).(user.User)

	wlt, err := h.Repo.GetWalletByUserID(usr.ID.String())
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusNotFound, "Wallet not found", nil)
		return
	}

	utils.BuildSuccessResponse(w, http.StatusOK, "Wallet Balance", map[string]any{
		"balance":  wlt.Balance,
		"currency": wlt.Currency,
	})
}

type WithdrawRequest struct {
	Amount        int64  `json:"amount"` // Naira
	Pin           string `json:"pin"`
	BankCode      string `json:"bank_code"`
	AccountNumber string `json:"account_number"`
}

func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	usr, _ := r.Context().Value(utils.UserKey).(user.User)

	var req WithdrawRequest
	if status, err := utils.DecodeJSONBody(w, r, &req); err != nil {
		utils.BuildErrorResponse(w, status, "Invalid request", map[string]string{"error": err.Error()})
		return
	}

	wlt, err := h.Repo.GetWalletByUserID(usr.ID.String())
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusNotFound, "Wallet not found", nil)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(wlt.PinHash), []byte(req.Pin)); err != nil {
		utils.BuildErrorResponse(w, http.StatusUnauthorized, "Invalid PIN", nil)
		return
	}

	withdrawal, entry, err := h.Service.Withdraw(r.Context(), usr, WithdrawParams{
		Amount:        req.Amount,
		BankCode:      req.BankCode,
		AccountNumber: req.AccountNumber,
	})
	if err != nil {
		status, msg := withdrawError(err)
		utils.BuildErrorResponse(w, status, msg, nil)
		return
	}

	utils.BuildSuccessResponse(w, http.StatusCreated, "Withdrawal request created", map[string]interface{}{
		"withdrawal":  withdrawal,
		"transaction": entry,
	})
}

func withdrawError(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidAmount):
		return http.StatusBadRequest, "Amount is below the minimum withdrawal"
	case errors.Is(err, ErrInvalidBankDetails):
		return http.StatusBadRequest, "Could not resolve bank account details"
	case errors.Is(err, ErrWalletLocked):
		return http.StatusConflict, "A withdrawal is already being processed for this wallet"
	case errors.Is(err, ErrInsufficientBalance):
		return http.StatusBadRequest, "Insufficient balance"
	case errors.Is(err, ErrNotEligible):
		return http.StatusForbidden, "You are not yet eligible for another withdrawal"
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, "Wallet not found"
	default:
		return http.StatusInternalServerError, "Withdrawal failed"
	}
}

func (h *Handler) ListBanks(w http.ResponseWriter, r *http.Request) {
	banks, err := h.Service.gateway.ListBanks()
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusBadGateway, "Failed to fetch banks", nil)
		return
	}
	utils.BuildSuccessResponse(w, http.StatusOK, "Banks", banks)
}

func (h *Handler) ResolveAccount(w http.ResponseWriter, r *http.Request) {
	accountNumber := r.URL.Query().Get("account_number")
	bankCode := r.URL.Query().Get("bank_code")
	if accountNumber == "" || bankCode == "" {
		utils.BuildErrorResponse(w, http.StatusBadRequest, "account_number and bank_code are required", nil)
		return
	}

	resolved, err := h.Service.gateway.ResolveAccount(accountNumber, bankCode)
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusBadRequest, "Could not resolve account", nil)
		return
	}
	utils.BuildSuccessResponse(w, http.StatusOK, "Account resolved", resolved)
}

func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	usr, _ := r.Context().Value(utils.UserKey).(user.User)

	limit, offset, page := utils.GetPaginationDetails(r)

	txs, err := h.Repo.ListTransactions(usr.ID.String(), limit, offset)
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusInternalServerError, "Failed to fetch transactions", nil)
		return
	}

	count, _ := h.Repo.CountTransactions(usr.ID.String())
	totalPages := int(math.Ceil(float64(count) / float64(limit)))

	utils.BuildSuccessResponse(w, http.StatusOK, "Transaction History", map[string]interface{}{
		"transactions": txs,
		"meta": map[string]interface{}{
			"total_items":  count,
			"total_pages":  totalPages,
			"current_page": page,
			"limit":        limit,
		},
	})
}

func (h *Handler) GetTransactionStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	reference := vars["reference"]

	entry, err := h.Repo.GetTxByReference(reference)
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusNotFound, "Transaction not found", nil)
		return
	}

	response := map[string]interface{}{
		"reference": entry.Reference,
		"type":      entry.Type,
		"status":    entry.Status,
		"amount":    entry.Amount,
	}

	// for a pending entry, ask the provider where things stand
	if entry.Status == StatusPending {
		switch entry.Type {
		case TypeDeposit:
			if verified, err := h.Service.gateway.VerifyTransaction(reference); err == nil {
				response["provider_status"] = verified.Status
			} else {
				response["provider_status"] = "unknown"
			}
		case TypeWithdrawal:
			if verified, err := h.Service.gateway.VerifyTransfer(reference); err == nil {
				response["provider_status"] = verified.Status
			} else {
				response["provider_status"] = "unknown"
			}
		}
	}

	utils.BuildSuccessResponse(w, http.StatusOK, "Transaction status retrieved", response)
}

// paystackPayload is the raw webhook body. Amounts arrive in kobo.
type paystackPayload struct {
	Event string `json:"event"`
	Data  struct {
		Reference string     `json:"reference"`
		Status    string     `json:"status"`
		Amount    money.Kobo `json:"amount"`
		Customer  struct {
			CustomerCode string `json:"customer_code"`
		} `json:"customer"`
		IPAddress     string `json:"ip_address"`
		Authorization struct {
			AuthorizationCode string `json:"authorization_code"`
			Channel           string `json:"channel"`
		} `json:"authorization"`
		PaidAt *time.Time `json:"paid_at"`
	} `json:"data"`
}

// PaystackWebhook authenticates the delivery and enqueues it. Processing
// happens only in the reconcile worker; the endpoint stays fast so the
// provider does not time out and re-deliver more than it already does.
func (h *Handler) PaystackWebhook(w http.ResponseWriter, r *http.Request) {
	signature := r.Header.Get("x-paystack-signature")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Error("Webhook: failed to read body", logger.WithError(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	mac := hmac.New(sha512.New, []byte(h.Config.PaystackSecret))
	mac.Write(body)
	expectedSig := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(signature), []byte(expectedSig)) {
		logger.Error("Webhook: signature mismatch", logger.Fields{"remote_addr": r.RemoteAddr})
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var payload paystackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	event := events.WebhookEvent{
		Event:      payload.Event,
		Reference:  payload.Data.Reference,
		Status:     payload.Data.Status,
		Amount:     payload.Data.Amount,
		IPAddress:  payload.Data.IPAddress,
		PaidAt:     payload.Data.PaidAt,
		ReceivedAt: time.Now(),
	}
	event.Customer.CustomerCode = payload.Data.Customer.CustomerCode
	event.Authorization.AuthorizationCode = payload.Data.Authorization.AuthorizationCode
	event.Authorization.Channel = payload.Data.Authorization.Channel

	if err := h.RedisClient.PublishEvent(r.Context(), event); err != nil {
		logger.Error("Webhook: failed to enqueue event", logger.Fields{
			logger.ReferenceKey: event.Reference,
			"error":             err.Error(),
		})
		// non-2xx makes the provider redeliver later
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	logger.Info("Webhook: event enqueued", logger.Fields{
		logger.EventKey:     event.Event,
		logger.ReferenceKey: event.Reference,
	})
	w.WriteHeader(http.StatusOK)
}
