package wallet

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the ledger store. Multi-statement operations (RecordDeposit,
// CreateWithdrawal, SettleTransfer) run as single database transactions so a
// ledger row can never exist without its matching balance change.
type Repository interface {
	CreateWallet(w *Wallet) error
	GetWalletByUserID(userID string) (*Wallet, error)
	SetWalletLocked(walletID string, locked bool) error
	AttachVirtualAccount(walletID, dvaID, accountNumber, bankName, currency string) error
	ReleaseStaleLocks(olderThan time.Time) (int64, error)

	GetTxByReference(ref string) (*TxHistory, error)
	ListTransactions(userID string, limit, offset int) ([]TxHistory, error)
	CountTransactions(userID string) (int64, error)

	RecordDeposit(entry *TxHistory) error
	CreateWithdrawal(req *WithdrawalRequest, entry *TxHistory) error
	SettleTransfer(ref string, status TxStatus, refund int64) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateWallet(w *Wallet) error {
	return r.db.Create(w).Error
}

func (r *repository) GetWalletByUserID(userID string) (*Wallet, error) {
	var w Wallet
	if err := r.db.Where("user_id = ?", userID).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *repository) SetWalletLocked(walletID string, locked bool) error {
	return r.db.Model(&Wallet{}).
		Where("id = ?", walletID).
		UpdateColumn("locked", locked).Error
}

func (r *repository) AttachVirtualAccount(walletID, dvaID, accountNumber, bankName, currency string) error {
	return r.db.Model(&Wallet{}).
		Where("id = ?", walletID).
		Updates(map[string]interface{}{
			"dva_id":         dvaID,
			"account_number": accountNumber,
			"bank_name":      bankName,
			"currency":       currency,
		}).Error
}

// ReleaseStaleLocks clears the in-flight flag on wallets whose last request
// is older than the cutoff. Catches locks orphaned by a crash between the
// flag being raised and the deferred unlock running.
func (r *repository) ReleaseStaleLocks(olderThan time.Time) (int64, error) {
	res := r.db.Model(&Wallet{}).
		Where("locked = ? AND (last_requested_at IS NULL OR last_requested_at < ?)", true, olderThan).
		UpdateColumn("locked", false)
	return res.RowsAffected, res.Error
}

func (r *repository) GetTxByReference(ref string) (*TxHistory, error) {
	var entry TxHistory
	if err := r.db.Where("reference = ?", ref).First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) ListTransactions(userID string, limit, offset int) ([]TxHistory, error) {
	var entries []TxHistory
	err := r.db.Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	return entries, err
}

func (r *repository) CountTransactions(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&TxHistory{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// RecordDeposit inserts a SUCCESS deposit entry and credits the wallet in
// one transaction. The unique index on reference surfaces a duplicate
// delivery as gorm.ErrDuplicatedKey, which callers treat as already applied.
func (r *repository) RecordDeposit(entry *TxHistory) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return err
		}

		res := tx.Model(&Wallet{}).
			Where("user_id = ?", entry.UserID).
			Updates(map[string]interface{}{
				"balance":               gorm.Expr("balance + ?", entry.Amount),
				"last_deposited_at":     time.Now(),
				"last_deposited_amount": entry.Amount,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrWalletNotFound
		}
		return nil
	})
}

// CreateWithdrawal debits the wallet and creates the PENDING request +
// ledger entry atomically. The conditional debit re-checks the balance at
// the store so a committed wallet can never go negative.
func (r *repository) CreateWithdrawal(req *WithdrawalRequest, entry *TxHistory) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Wallet{}).
			Where("id = ? AND balance >= ?", req.WalletID, req.Amount).
			Updates(map[string]interface{}{
				"balance":           gorm.Expr("balance - ?", req.Amount),
				"last_requested_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientBalance
		}

		if err := tx.Create(req).Error; err != nil {
			return err
		}
		return tx.Create(entry).Error
	})
}

// SettleTransfer moves a withdrawal ledger entry to a terminal status and,
// when refund > 0, credits the wallet back in the same transaction. The
// row lock plus status equality check make the transition and the credit
// one logical unit: a redelivered event sees the already-updated status and
// applies nothing. Returns whether this call applied the transition.
func (r *repository) SettleTransfer(ref string, status TxStatus, refund int64) (bool, error) {
	applied := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var entry TxHistory
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("reference = ? AND type = ?", ref, TypeWithdrawal).
			First(&entry).Error; err != nil {
			return err
		}

		if entry.Status == status {
			return nil
		}

		updates := map[string]interface{}{"status": status}
		if status == StatusSuccess {
			updates["paid_at"] = time.Now()
		}
		if err := tx.Model(&TxHistory{}).Where("reference = ?", ref).Updates(updates).Error; err != nil {
			return err
		}

		if refund > 0 {
			res := tx.Model(&Wallet{}).
				Where("user_id = ?", entry.UserID).
				UpdateColumn("balance", gorm.Expr("balance + ?", refund))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrWalletNotFound
			}
		}

		applied = true
		return nil
	})
	return applied, err
}
