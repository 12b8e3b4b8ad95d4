package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/swiftryde/swiftryde-wallet/internal/notify"
	"github.com/swiftryde/swiftryde-wallet/pkg/events"
	"github.com/swiftryde/swiftryde-wallet/pkg/logger"
	"gorm.io/gorm"
)

// ReconcileDeposit applies one charge.success event: resolve the owner,
// serialize on their lock, and credit exactly once keyed by reference.
// Duplicate deliveries are no-ops; unknown customers are dropped.
func (s *Service) ReconcileDeposit(ctx context.Context, ev events.WebhookEvent) error {
	usr, err := s.users.FindByCustomerCode(ev.Customer.CustomerCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Reconcile: deposit for unknown customer, dropping", logger.Fields{
				logger.ReferenceKey: ev.Reference,
				"customer_code":     ev.Customer.CustomerCode,
			})
			return nil
		}
		return err
	}

	guard, err := s.locks.Acquire(ctx, usr.ID.String())
	if err != nil {
		return err
	}
	defer guard.Release()

	if _, err := s.repo.GetTxByReference(ev.Reference); err == nil {
		logger.Info("Reconcile: deposit already applied", logger.Fields{logger.ReferenceKey: ev.Reference})
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	amount := ev.Amount.Naira().Int64()
	entry := &TxHistory{
		UserID:            usr.ID,
		Reference:         ev.Reference,
		Type:              TypeDeposit,
		Status:            StatusSuccess,
		Amount:            amount,
		Channel:           ev.Authorization.Channel,
		AuthorizationCode: ev.Authorization.AuthorizationCode,
		IP:                ev.IPAddress,
		PaidAt:            ev.PaidAt,
	}

	if err := s.repo.RecordDeposit(entry); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost the race against a concurrent redelivery; already credited
			return nil
		}
		return err
	}

	logger.Info("Reconcile: deposit credited", logger.Fields{
		logger.ReferenceKey: ev.Reference,
		logger.UserIdKey:    usr.ID.String(),
		"amount":            amount,
	})

	guard.Release()

	s.notifier.Emit(notify.Notification{
		UserID:    usr.ID,
		Title:     "Wallet credited",
		Body:      fmt.Sprintf("Your wallet has been credited with ₦%d.", amount),
		Channels:  []string{notify.ChannelInApp, notify.ChannelPush, notify.ChannelEmail},
		Reference: ev.Reference,
	})
	return nil
}

// ReconcileTransfer applies a transfer.success/reversed/failed event to the
// matching withdrawal ledger entry. Success only flips the status (the
// debit happened at request time); reversal and failure also credit the
// gross amount back, atomically with the status transition.
func (s *Service) ReconcileTransfer(ctx context.Context, ev events.WebhookEvent) error {
	entry, err := s.repo.GetTxByReference(ev.Reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Reconcile: transfer event for unknown reference, dropping", logger.Fields{
				logger.ReferenceKey: ev.Reference,
				logger.EventKey:     ev.Event,
			})
			return nil
		}
		return err
	}

	if entry.Type != TypeWithdrawal {
		logger.Warn("Reconcile: transfer event for non-withdrawal entry, dropping", logger.Fields{
			logger.ReferenceKey: ev.Reference,
		})
		return nil
	}

	target, ok := transferOutcome(ev.Event)
	if !ok {
		logger.Warn("Reconcile: unknown transfer event", logger.Fields{logger.EventKey: ev.Event})
		return nil
	}

	if entry.Status == target {
		return nil
	}

	if target == StatusSuccess {
		applied, err := s.repo.SettleTransfer(ev.Reference, StatusSuccess, 0)
		if err != nil {
			return err
		}
		if applied {
			s.notifier.Emit(notify.Notification{
				UserID:    entry.UserID,
				Title:     "Withdrawal paid out",
				Body:      fmt.Sprintf("Your withdrawal of ₦%d has been paid out.", entry.Amount),
				Channels:  []string{notify.ChannelInApp, notify.ChannelPush},
				Reference: ev.Reference,
			})
		}
		return nil
	}

	guard, err := s.locks.Acquire(ctx, entry.UserID.String())
	if err != nil {
		return err
	}
	defer guard.Release()

	// the provider reports the net payout in kobo; the wallet is owed the
	// gross amount it was debited, so add the fee back on
	refund := ev.Amount.Naira().Int64() + entry.TotalFee

	applied, err := s.repo.SettleTransfer(ev.Reference, target, refund)
	if err != nil {
		return err
	}
	if !applied {
		logger.Info("Reconcile: transfer outcome already applied", logger.Fields{logger.ReferenceKey: ev.Reference})
		return nil
	}

	logger.Info("Reconcile: withdrawal refunded", logger.Fields{
		logger.ReferenceKey: ev.Reference,
		logger.UserIdKey:    entry.UserID.String(),
		"refund":            refund,
		"outcome":           string(target),
	})

	guard.Release()

	s.notifier.Emit(notify.Notification{
		UserID:    entry.UserID,
		Title:     "Withdrawal reversed",
		Body:      fmt.Sprintf("Your withdrawal could not be completed. ₦%d has been returned to your wallet.", refund),
		Channels:  []string{notify.ChannelInApp, notify.ChannelPush, notify.ChannelSMS},
		Reference: ev.Reference,
	})
	return nil
}

func transferOutcome(event string) (TxStatus, bool) {
	switch event {
	case events.EventTransferSuccess:
		return StatusSuccess, true
	case events.EventTransferReversed:
		return StatusReversed, true
	case events.EventTransferFailed:
		return StatusFailed, true
	default:
		return "", false
	}
}
