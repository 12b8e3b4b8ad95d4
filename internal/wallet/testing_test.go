package wallet

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/swiftryde/swiftryde-wallet/internal/notify"
	"github.com/swiftryde/swiftryde-wallet/internal/paystack"
	"github.com/swiftryde/swiftryde-wallet/internal/user"
	"github.com/swiftryde/swiftryde-wallet/pkg/config"
	"github.com/swiftryde/swiftryde-wallet/pkg/lockmap"
	"github.com/swiftryde/swiftryde-wallet/pkg/money"
	"gorm.io/gorm"
)

func testConfig() config.Config {
	return config.Config{
		WithdrawalMinAmount:     100,
		WithdrawalCooldownDays:  14,
		WithdrawalUnlockOnError: true,
	}
}

// fakeRepo mirrors the store's transactional semantics in memory: unique
// references, conditional debits and the status-equality settle check.
type fakeRepo struct {
	mu       sync.Mutex
	wallets  []*Wallet
	entries  map[string]*TxHistory
	requests []*WithdrawalRequest

	failSettle error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{entries: make(map[string]*TxHistory)}
}

func (f *fakeRepo) addWallet(w *Wallet) {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	f.wallets = append(f.wallets, w)
}

func (f *fakeRepo) walletByUser(userID string) *Wallet {
	for _, w := range f.wallets {
		if w.UserID.String() == userID {
			return w
		}
	}
	return nil
}

func (f *fakeRepo) walletByID(id string) *Wallet {
	for _, w := range f.wallets {
		if w.ID.String() == id {
			return w
		}
	}
	return nil
}

func (f *fakeRepo) CreateWallet(w *Wallet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addWallet(w)
	return nil
}

func (f *fakeRepo) GetWalletByUserID(userID string) (*Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w := f.walletByUser(userID); w != nil {
		copied := *w
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) SetWalletLocked(walletID string, locked bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w := f.walletByID(walletID); w != nil {
		w.Locked = locked
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeRepo) AttachVirtualAccount(walletID, dvaID, accountNumber, bankName, currency string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w := f.walletByID(walletID); w != nil {
		w.DvaID = dvaID
		w.AccountNumber = accountNumber
		w.BankName = bankName
		w.Currency = currency
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeRepo) ReleaseStaleLocks(olderThan time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var released int64
	for _, w := range f.wallets {
		if w.Locked && (w.LastRequestedAt == nil || w.LastRequestedAt.Before(olderThan)) {
			w.Locked = false
			released++
		}
	}
	return released, nil
}

func (f *fakeRepo) GetTxByReference(ref string) (*TxHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if entry, ok := f.entries[ref]; ok {
		copied := *entry
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) ListTransactions(userID string, limit, offset int) ([]TxHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []TxHistory
	for _, entry := range f.entries {
		if entry.UserID.String() == userID {
			out = append(out, *entry)
		}
	}
	return out, nil
}

func (f *fakeRepo) CountTransactions(userID string) (int64, error) {
	txs, _ := f.ListTransactions(userID, 0, 0)
	return int64(len(txs)), nil
}

func (f *fakeRepo) RecordDeposit(entry *TxHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.entries[entry.Reference]; ok {
		return gorm.ErrDuplicatedKey
	}
	w := f.walletByUser(entry.UserID.String())
	if w == nil {
		return ErrWalletNotFound
	}

	copied := *entry
	f.entries[entry.Reference] = &copied
	w.Balance += entry.Amount
	now := time.Now()
	w.LastDepositedAt = &now
	w.LastDepositedAmount = entry.Amount
	return nil
}

func (f *fakeRepo) CreateWithdrawal(req *WithdrawalRequest, entry *TxHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	w := f.walletByID(req.WalletID.String())
	if w == nil || w.Balance < req.Amount {
		return ErrInsufficientBalance
	}
	if _, ok := f.entries[entry.Reference]; ok {
		return gorm.ErrDuplicatedKey
	}

	w.Balance -= req.Amount
	now := time.Now()
	w.LastRequestedAt = &now

	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	f.requests = append(f.requests, req)
	copied := *entry
	f.entries[entry.Reference] = &copied
	return nil
}

func (f *fakeRepo) SettleTransfer(ref string, status TxStatus, refund int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failSettle != nil {
		return false, f.failSettle
	}

	entry, ok := f.entries[ref]
	if !ok || entry.Type != TypeWithdrawal {
		return false, gorm.ErrRecordNotFound
	}
	if entry.Status == status {
		return false, nil
	}

	entry.Status = status
	if status == StatusSuccess {
		now := time.Now()
		entry.PaidAt = &now
	}

	if refund > 0 {
		w := f.walletByUser(entry.UserID.String())
		if w == nil {
			return false, ErrWalletNotFound
		}
		w.Balance += refund
	}
	return true, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users []*user.User
}

func (f *fakeUserRepo) CreateUser(u *user.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, u)
	return nil
}

func (f *fakeUserRepo) FindByID(id string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID.String() == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindByCustomerCode(code string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.CustomerCode == code {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type initiatedTransfer struct {
	Amount    money.Kobo
	Recipient string
	Reference string
}

type fakeGateway struct {
	mu          sync.Mutex
	resolveErr  error
	initiateErr error
	initiated   []initiatedTransfer
}

func (f *fakeGateway) ResolveAccount(accountNumber, bankCode string) (*paystack.ResolvedAccount, error) {
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	return &paystack.ResolvedAccount{AccountNumber: accountNumber, AccountName: "ADE OKONKWO"}, nil
}

func (f *fakeGateway) ListBanks() ([]paystack.Bank, error) {
	return []paystack.Bank{{Name: "Test Bank", Code: "001"}}, nil
}

func (f *fakeGateway) CreateTransferRecipient(name, accountNumber, bankCode string) (*paystack.TransferRecipient, error) {
	return &paystack.TransferRecipient{RecipientCode: "RCP_test"}, nil
}

func (f *fakeGateway) InitiateTransfer(amount money.Kobo, recipientCode, reference, reason string) (*paystack.Transfer, error) {
	if f.initiateErr != nil {
		return nil, f.initiateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initiated = append(f.initiated, initiatedTransfer{Amount: amount, Recipient: recipientCode, Reference: reference})
	return &paystack.Transfer{Reference: reference, Status: "pending", Amount: amount}, nil
}

func (f *fakeGateway) VerifyTransaction(reference string) (*paystack.TransactionStatus, error) {
	return &paystack.TransactionStatus{Reference: reference, Status: "success"}, nil
}

func (f *fakeGateway) VerifyTransfer(reference string) (*paystack.Transfer, error) {
	return &paystack.Transfer{Reference: reference, Status: "pending"}, nil
}

func (f *fakeGateway) CreateDedicatedVirtualAccount(customerCode string) (*paystack.DedicatedAccount, error) {
	return &paystack.DedicatedAccount{ID: 42, AccountNumber: "9900112233", BankName: "Wema Bank", Currency: "NGN"}, nil
}

// captureEmitter records emitted notifications synchronously.
type captureEmitter struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (c *captureEmitter) Emit(n notify.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, n)
}

func (c *captureEmitter) all() []notify.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]notify.Notification, len(c.sent))
	copy(out, c.sent)
	return out
}

func newTestService(cfg config.Config, repo *fakeRepo, users *fakeUserRepo, gw *fakeGateway, emitter notify.Emitter) *Service {
	if emitter == nil {
		emitter = notify.NopEmitter{}
	}
	return NewService(cfg, repo, users, gw, lockmap.NewRegistry(), emitter)
}
