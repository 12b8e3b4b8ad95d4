package wallet

import (
	"time"

	"github.com/google/uuid"
)

// Wallet is the mutable balance aggregate, one per user. Balance is in
// Naira and never goes negative after a committed mutation; the Locked flag
// is raised while a withdrawal request is in flight and blocks new ones.
type Wallet struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primary_key" json:"id"`
	UserID  uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Balance int64     `gorm:"not null;default:0" json:"balance"`
	Locked  bool      `gorm:"not null;default:false" json:"locked"`
	PinHash string    `gorm:"not null" json:"-"`

	LastDepositedAt     *time.Time `json:"last_deposited_at"`
	LastDepositedAmount int64      `json:"last_deposited_amount"`
	LastRequestedAt     *time.Time `json:"last_requested_at"`
	LastApprovedAt      *time.Time `json:"last_approved_at"`
	LastApprovedAmount  int64      `json:"last_approved_amount"`

	// provider-assigned dedicated virtual account
	DvaID         string `json:"dva_id,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	BankName      string `json:"bank_name,omitempty"`
	Currency      string `gorm:"not null;default:NGN" json:"currency"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TxType string

const (
	TypeDeposit    TxType = "DEPOSIT"
	TypeWithdrawal TxType = "WITHDRAWAL"
)

type TxStatus string

const (
	StatusPending  TxStatus = "PENDING"
	StatusSuccess  TxStatus = "SUCCESS"
	StatusReversed TxStatus = "REVERSED"
	StatusFailed   TxStatus = "FAILED"
)

// TxHistory is one immutable ledger entry. Reference is the idempotency
// key: at most one entry exists per reference, and only Status/PaidAt may
// change after creation.
type TxHistory struct {
	ID                uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primary_key" json:"id"`
	UserID            uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Reference         string     `gorm:"uniqueIndex;not null" json:"reference"`
	Type              TxType     `gorm:"not null" json:"type"`
	Status            TxStatus   `gorm:"not null" json:"status"`
	Amount            int64      `gorm:"not null" json:"amount"`
	TotalFee          int64      `gorm:"not null;default:0" json:"total_fee"`
	Channel           string     `json:"channel,omitempty"`
	AuthorizationCode string     `json:"authorization_code,omitempty"`
	IP                string     `json:"ip,omitempty"`
	PaidAt            *time.Time `json:"paid_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (TxHistory) TableName() string {
	return "tx_histories"
}

type WithdrawalStatus string

const (
	WithdrawalPending  WithdrawalStatus = "PENDING"
	WithdrawalApproved WithdrawalStatus = "APPROVED"
	WithdrawalRejected WithdrawalStatus = "REJECTED"
)

// WithdrawalRequest records one user withdrawal attempt. The wallet is
// debited and flagged locked at creation; APPROVED/REJECTED transitions
// happen through admin tooling outside this service.
type WithdrawalRequest struct {
	ID        uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primary_key" json:"id"`
	WalletID  uuid.UUID        `gorm:"type:uuid;not null;index" json:"wallet_id"`
	Amount    int64            `gorm:"not null" json:"amount"`
	Status    WithdrawalStatus `gorm:"not null;default:PENDING" json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
