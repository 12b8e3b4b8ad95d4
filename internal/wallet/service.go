package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/swiftryde/swiftryde-wallet/internal/notify"
	"github.com/swiftryde/swiftryde-wallet/internal/paystack"
	"github.com/swiftryde/swiftryde-wallet/internal/user"
	"github.com/swiftryde/swiftryde-wallet/pkg/config"
	"github.com/swiftryde/swiftryde-wallet/pkg/id"
	"github.com/swiftryde/swiftryde-wallet/pkg/lockmap"
	"github.com/swiftryde/swiftryde-wallet/pkg/logger"
	"github.com/swiftryde/swiftryde-wallet/pkg/money"
	"golang.org/x/crypto/bcrypt"
)

// Service owns every balance-affecting path. All of them serialize on the
// per-user lock registry; holding the lock spans read-compute-write and
// nothing slower (notifications go out after release).
type Service struct {
	cfg      config.Config
	repo     Repository
	users    user.Repository
	gateway  paystack.Client
	locks    *lockmap.Registry
	notifier notify.Emitter
}

func NewService(cfg config.Config, repo Repository, users user.Repository, gateway paystack.Client, locks *lockmap.Registry, notifier notify.Emitter) *Service {
	return &Service{
		cfg:      cfg,
		repo:     repo,
		users:    users,
		gateway:  gateway,
		locks:    locks,
		notifier: notifier,
	}
}

// ProvisionWallet creates the zero-balance wallet at onboarding and asks the
// provider for a dedicated virtual account. DVA assignment is best effort;
// the wallet is usable without it.
func (s *Service) ProvisionWallet(ctx context.Context, usr user.User, pin string) (*Wallet, error) {
	hashedPin, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash pin: %w", err)
	}

	w := &Wallet{
		UserID:   usr.ID,
		Balance:  0,
		PinHash:  string(hashedPin),
		Currency: "NGN",
	}
	if err := s.repo.CreateWallet(w); err != nil {
		return nil, err
	}

	dva, err := s.gateway.CreateDedicatedVirtualAccount(usr.CustomerCode)
	if err != nil {
		logger.Warn("Wallet: DVA assignment failed, wallet created without one", logger.Fields{
			logger.UserIdKey: usr.ID.String(),
			"error":          err.Error(),
		})
		return w, nil
	}

	if err := s.repo.AttachVirtualAccount(w.ID.String(), fmt.Sprintf("%d", dva.ID), dva.AccountNumber, dva.BankName, dva.Currency); err != nil {
		logger.Error("Wallet: failed to attach virtual account", logger.Fields{
			logger.WalletIdKey: w.ID.String(),
			"error":            err.Error(),
		})
		return w, nil
	}

	w.DvaID = fmt.Sprintf("%d", dva.ID)
	w.AccountNumber = dva.AccountNumber
	w.BankName = dva.BankName
	return w, nil
}

type WithdrawParams struct {
	Amount        int64
	BankCode      string
	AccountNumber string
}

// Withdraw validates and debits the wallet, creates the PENDING request and
// ledger entry, and initiates the provider transfer of amount minus fees.
// The per-user lock serializes it against the reconcilers; the wallet-level
// Locked flag is the coarser, restart-surviving guard layered on top.
func (s *Service) Withdraw(ctx context.Context, usr user.User, params WithdrawParams) (*WithdrawalRequest, *TxHistory, error) {
	// destination checks touch no wallet state, keep them outside the lock
	resolved, err := s.gateway.ResolveAccount(params.AccountNumber, params.BankCode)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidBankDetails, err)
	}

	recipient, err := s.gateway.CreateTransferRecipient(resolved.AccountName, params.AccountNumber, params.BankCode)
	if err != nil {
		return nil, nil, err
	}

	guard, err := s.locks.Acquire(ctx, usr.ID.String())
	if err != nil {
		return nil, nil, err
	}
	defer guard.Release()

	if params.Amount < s.cfg.WithdrawalMinAmount {
		return nil, nil, ErrInvalidAmount
	}

	w, err := s.repo.GetWalletByUserID(usr.ID.String())
	if err != nil {
		return nil, nil, err
	}

	if w.Balance < 0 {
		logger.Error("Wallet: negative balance detected", logger.Fields{
			logger.WalletIdKey: w.ID.String(),
			"balance":          w.Balance,
		})
		return nil, nil, ErrBalanceInvariant
	}

	if w.Locked {
		return nil, nil, ErrWalletLocked
	}
	if w.Balance < params.Amount {
		return nil, nil, ErrInsufficientBalance
	}
	if !s.eligible(w) {
		return nil, nil, ErrNotEligible
	}

	if err := s.repo.SetWalletLocked(w.ID.String(), true); err != nil {
		return nil, nil, err
	}

	succeeded := false
	unlocked := false
	clearLock := func() {
		if unlocked {
			return
		}
		unlocked = true
		if uerr := s.repo.SetWalletLocked(w.ID.String(), false); uerr != nil {
			logger.Error("Wallet: failed to clear in-flight flag", logger.Fields{
				logger.WalletIdKey: w.ID.String(),
				"error":            uerr.Error(),
			})
		}
	}
	defer func() {
		if !succeeded && !s.cfg.WithdrawalUnlockOnError {
			// leave the flag for the stale-lock sweep to reconcile
			return
		}
		clearLock()
	}()

	fees := CalculateFees(params.Amount)
	reference := id.NewReference("wd")

	req := &WithdrawalRequest{
		WalletID: w.ID,
		Amount:   params.Amount,
		Status:   WithdrawalPending,
	}
	entry := &TxHistory{
		UserID:    usr.ID,
		Reference: reference,
		Type:      TypeWithdrawal,
		Status:    StatusPending,
		Amount:    params.Amount,
		TotalFee:  fees.Total,
	}

	if err := s.repo.CreateWithdrawal(req, entry); err != nil {
		return nil, nil, err
	}

	payout := money.Naira(params.Amount - fees.Total).Kobo()
	if _, err := s.gateway.InitiateTransfer(payout, recipient.RecipientCode, reference, "SwiftRyde wallet withdrawal"); err != nil {
		// the debit is already committed; reverse it through the same
		// atomic status+credit path the transfer reconciler uses
		if _, rerr := s.repo.SettleTransfer(reference, StatusFailed, params.Amount); rerr != nil {
			logger.Error("Wallet: debit committed but transfer initiation and refund both failed", logger.Fields{
				logger.ReferenceKey: reference,
				"error":             rerr.Error(),
			})
		}
		return nil, nil, err
	}

	succeeded = true
	// clear the flag while still holding the mutex so a queued withdrawal
	// never observes a stale in-flight wallet
	clearLock()
	guard.Release()

	s.notifier.Emit(notify.Notification{
		UserID:    usr.ID,
		Title:     "Withdrawal requested",
		Body:      fmt.Sprintf("Your withdrawal of ₦%d is being processed. Fee: ₦%d.", params.Amount, fees.Total),
		Channels:  []string{notify.ChannelInApp},
		Reference: reference,
	})

	return req, entry, nil
}

func (s *Service) eligible(w *Wallet) bool {
	if w.LastApprovedAt == nil {
		return true
	}
	cooldown := time.Duration(s.cfg.WithdrawalCooldownDays) * 24 * time.Hour
	return time.Since(*w.LastApprovedAt) >= cooldown
}

// StartLockSweep periodically clears in-flight flags orphaned by a crash or
// by the unlock-on-error toggle being off. Runs until ctx is cancelled.
func (s *Service) StartLockSweep(ctx context.Context, interval, maxAge time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				released, err := s.repo.ReleaseStaleLocks(time.Now().Add(-maxAge))
				if err != nil {
					logger.Error("Wallet: stale lock sweep failed", logger.WithError(err))
					continue
				}
				if released > 0 {
					logger.Warn("Wallet: released stale in-flight flags", logger.Fields{"count": released})
				}
			}
		}
	}()
}
