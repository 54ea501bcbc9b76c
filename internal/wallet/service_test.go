package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// noopTx satisfies pgx.Tx for service tests; the mock store tracks state
// itself and every test path either commits or fails before mutating.
type noopTx struct{}

func (noopTx) Commit(context.Context) error   { return nil }
func (noopTx) Rollback(context.Context) error { return nil }
func (noopTx) Begin(context.Context) (pgx.Tx, error) {
	return noopTx{}, nil
}
func (noopTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (noopTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (noopTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (noopTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (noopTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (noopTx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (noopTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (noopTx) Conn() *pgx.Conn { return nil }

type refKey struct {
	walletID uuid.UUID
	ref      string
}

type mockStore struct {
	wallets map[uuid.UUID]*Wallet // keyed by provider ID
	txns    []*Transaction
	refs    map[refKey]bool
	calls   []string // call order, for asserting reads share a transaction
}

func newMockStore() *mockStore {
	return &mockStore{wallets: make(map[uuid.UUID]*Wallet), refs: make(map[refKey]bool)}
}

func (m *mockStore) addWallet(providerID uuid.UUID, balancePaise int64) *Wallet {
	w := &Wallet{ID: uuid.New(), ProviderID: providerID, BalancePaise: balancePaise}
	m.wallets[providerID] = w
	return w
}

func (m *mockStore) Begin(context.Context) (pgx.Tx, error) {
	m.calls = append(m.calls, "begin")
	return noopTx{}, nil
}

func (m *mockStore) GetByProviderIDForUpdateTx(_ context.Context, _ pgx.Tx, providerID uuid.UUID) (*Wallet, error) {
	m.calls = append(m.calls, "lock wallet")
	w, ok := m.wallets[providerID]
	if !ok {
		return nil, ErrWalletNotFound
	}
	cp := *w
	return &cp, nil
}

func (m *mockStore) byWalletID(walletID uuid.UUID) *Wallet {
	for _, w := range m.wallets {
		if w.ID == walletID {
			return w
		}
	}
	return nil
}

func (m *mockStore) CreditTx(_ context.Context, _ pgx.Tx, walletID uuid.UUID, amountPaise int64) (int64, error) {
	w := m.byWalletID(walletID)
	if w == nil {
		return 0, ErrWalletNotFound
	}
	w.BalancePaise += amountPaise
	return w.BalancePaise, nil
}

func (m *mockStore) DebitTx(_ context.Context, _ pgx.Tx, walletID uuid.UUID, amountPaise int64) (int64, error) {
	w := m.byWalletID(walletID)
	if w == nil {
		return 0, ErrWalletNotFound
	}
	if w.BalancePaise < amountPaise {
		return 0, ErrInsufficientBalance
	}
	w.BalancePaise -= amountPaise
	return w.BalancePaise, nil
}

func (m *mockStore) InsertTransactionTx(_ context.Context, _ pgx.Tx, t *Transaction) error {
	if t.ExternalRef != nil {
		k := refKey{t.WalletID, *t.ExternalRef}
		if m.refs[k] {
			return ErrDuplicateExternalRef
		}
		m.refs[k] = true
	}
	t.ID = uuid.New()
	cp := *t
	m.txns = append(m.txns, &cp)
	return nil
}

func (m *mockStore) ListTransactionsTx(_ context.Context, _ pgx.Tx, walletID uuid.UUID) ([]*Transaction, error) {
	m.calls = append(m.calls, "list ledger")
	var list []*Transaction
	for _, t := range m.txns {
		if t.WalletID == walletID {
			list = append(list, t)
		}
	}
	return list, nil
}

// signedSum folds the ledger into the balance it implies.
func (m *mockStore) signedSum(walletID uuid.UUID) int64 {
	var sum int64
	for _, t := range m.txns {
		if t.WalletID != walletID {
			continue
		}
		switch t.Type {
		case TxTypeRecharge, TxTypeRefund:
			sum += t.AmountPaise
		case TxTypeUnlock:
			sum -= t.AmountPaise
		}
	}
	return sum
}

// ---------------------------------------------------------------------------

// A ₹500 recharge on a fresh wallet lands the balance at ₹500 with exactly one
// ledger entry.
func TestRecharge(t *testing.T) {
	store := newMockStore()
	providerID := uuid.New()
	store.addWallet(providerID, 0)
	svc := NewService(store, nil)

	balance, err := svc.Recharge(context.Background(), providerID, 50_000, "pay_abc123", "wallet recharge")
	if err != nil {
		t.Fatalf("Recharge: %v", err)
	}
	if balance != 50_000 {
		t.Errorf("balance: got %d, want 50000", balance)
	}
	if len(store.txns) != 1 {
		t.Fatalf("ledger entries: got %d, want 1", len(store.txns))
	}
	entry := store.txns[0]
	if entry.Type != TxTypeRecharge || entry.AmountPaise != 50_000 {
		t.Errorf("entry: got type=%s amount=%d, want recharge/50000", entry.Type, entry.AmountPaise)
	}
	if entry.ExternalRef == nil || *entry.ExternalRef != "pay_abc123" {
		t.Errorf("entry external ref: got %v, want pay_abc123", entry.ExternalRef)
	}
}

func TestRecharge_Bounds(t *testing.T) {
	store := newMockStore()
	providerID := uuid.New()
	store.addWallet(providerID, 0)
	svc := NewService(store, nil)

	for _, amount := range []int64{0, -100, MinRechargePaise - 1, MaxRechargePaise + 1} {
		if _, err := svc.Recharge(context.Background(), providerID, amount, "", ""); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("amount %d: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
	if len(store.txns) != 0 {
		t.Errorf("ledger entries after rejected recharges: got %d, want 0", len(store.txns))
	}
}

// Replaying the same gateway reference credits once; the second call returns
// the balance it finds without writing anything.
func TestRecharge_ReplayedExternalRef(t *testing.T) {
	store := newMockStore()
	providerID := uuid.New()
	store.addWallet(providerID, 0)
	svc := NewService(store, nil)
	ctx := context.Background()

	if _, err := svc.Recharge(ctx, providerID, 50_000, "pay_abc123", ""); err != nil {
		t.Fatalf("first recharge: %v", err)
	}
	balance, err := svc.Recharge(ctx, providerID, 50_000, "pay_abc123", "")
	if err != nil {
		t.Fatalf("replayed recharge: %v", err)
	}
	if balance != 50_000 {
		t.Errorf("balance after replay: got %d, want 50000", balance)
	}
	if len(store.txns) != 1 {
		t.Errorf("ledger entries after replay: got %d, want 1", len(store.txns))
	}
}

func TestDebitForUnlockTx(t *testing.T) {
	store := newMockStore()
	providerID := uuid.New()
	w := store.addWallet(providerID, 25_000)
	svc := NewService(store, nil)
	jobID := uuid.New()

	balance, err := svc.DebitForUnlockTx(context.Background(), noopTx{}, providerID, 10_000, jobID)
	if err != nil {
		t.Fatalf("DebitForUnlockTx: %v", err)
	}
	if balance != 15_000 {
		t.Errorf("balance: got %d, want 15000", balance)
	}
	if len(store.txns) != 1 {
		t.Fatalf("ledger entries: got %d, want 1", len(store.txns))
	}
	entry := store.txns[0]
	if entry.Type != TxTypeUnlock || entry.JobID == nil || *entry.JobID != jobID {
		t.Errorf("entry: got type=%s job=%v, want unlock/%s", entry.Type, entry.JobID, jobID)
	}
	if w.BalancePaise != 15_000 {
		t.Errorf("stored balance: got %d, want 15000", w.BalancePaise)
	}
}

func TestDebitForUnlockTx_InsufficientBalance(t *testing.T) {
	store := newMockStore()
	providerID := uuid.New()
	store.addWallet(providerID, 5_000)
	svc := NewService(store, nil)

	_, err := svc.DebitForUnlockTx(context.Background(), noopTx{}, providerID, 10_000, uuid.New())
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got: %v", err)
	}
	if got := store.wallets[providerID].BalancePaise; got != 5_000 {
		t.Errorf("balance after failed debit: got %d, want 5000", got)
	}
	if len(store.txns) != 0 {
		t.Errorf("ledger entries after failed debit: got %d, want 0", len(store.txns))
	}
}

func TestRefund(t *testing.T) {
	store := newMockStore()
	providerID := uuid.New()
	store.addWallet(providerID, 15_000)
	svc := NewService(store, nil)
	jobID := uuid.New()

	balance, err := svc.Refund(context.Background(), providerID, 10_000, jobID, "dispute resolved")
	if err != nil {
		t.Fatalf("Refund: %v", err)
	}
	if balance != 25_000 {
		t.Errorf("balance: got %d, want 25000", balance)
	}
	if len(store.txns) != 1 || store.txns[0].Type != TxTypeRefund {
		t.Fatalf("expected one refund entry, got %+v", store.txns)
	}

	if _, err := svc.Refund(context.Background(), providerID, 0, jobID, ""); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero refund: expected ErrInvalidAmount, got %v", err)
	}
}

// The balance always equals the signed sum of the ledger, whatever mix of
// operations ran.
func TestLedgerConservation(t *testing.T) {
	store := newMockStore()
	providerID := uuid.New()
	w := store.addWallet(providerID, 0)
	svc := NewService(store, nil)
	ctx := context.Background()
	jobID := uuid.New()

	if _, err := svc.Recharge(ctx, providerID, 50_000, "pay_1", ""); err != nil {
		t.Fatalf("recharge: %v", err)
	}
	if _, err := svc.DebitForUnlockTx(ctx, noopTx{}, providerID, 10_000, jobID); err != nil {
		t.Fatalf("debit: %v", err)
	}
	if _, err := svc.DebitForUnlockTx(ctx, noopTx{}, providerID, 10_000, uuid.New()); err != nil {
		t.Fatalf("debit: %v", err)
	}
	if _, err := svc.Refund(ctx, providerID, 10_000, jobID, ""); err != nil {
		t.Fatalf("refund: %v", err)
	}
	if _, err := svc.Recharge(ctx, providerID, 20_000, "pay_2", ""); err != nil {
		t.Fatalf("recharge: %v", err)
	}

	if got, want := w.BalancePaise, store.signedSum(w.ID); got != want {
		t.Errorf("balance %d does not equal signed ledger sum %d", got, want)
	}
	if w.BalancePaise != 60_000 {
		t.Errorf("balance: got %d, want 60000", w.BalancePaise)
	}
}

// A replay that arrives after later debits returns the wallet as it stands
// now, still without crediting a second time.
func TestRecharge_ReplayAfterDebit(t *testing.T) {
	store := newMockStore()
	providerID := uuid.New()
	store.addWallet(providerID, 0)
	svc := NewService(store, nil)
	ctx := context.Background()

	if _, err := svc.Recharge(ctx, providerID, 50_000, "pay_abc123", ""); err != nil {
		t.Fatalf("recharge: %v", err)
	}
	if _, err := svc.DebitForUnlockTx(ctx, noopTx{}, providerID, 10_000, uuid.New()); err != nil {
		t.Fatalf("debit: %v", err)
	}

	balance, err := svc.Recharge(ctx, providerID, 50_000, "pay_abc123", "")
	if err != nil {
		t.Fatalf("replayed recharge: %v", err)
	}
	if balance != 40_000 {
		t.Errorf("balance after replay: got %d, want 40000 (current balance, not the original)", balance)
	}
	var recharges int
	for _, tx := range store.txns {
		if tx.Type == TxTypeRecharge {
			recharges++
		}
	}
	if recharges != 1 {
		t.Errorf("recharge entries: got %d, want 1", recharges)
	}
}

// GetWallet reads the ledger while holding the wallet row lock that every
// writer takes first, so the returned balance always equals the signed sum of
// the returned transactions.
func TestGetWallet_ConsistentWithLedger(t *testing.T) {
	store := newMockStore()
	providerID := uuid.New()
	w := store.addWallet(providerID, 0)
	svc := NewService(store, nil)
	ctx := context.Background()

	if _, err := svc.Recharge(ctx, providerID, 50_000, "pay_1", ""); err != nil {
		t.Fatalf("recharge: %v", err)
	}
	if _, err := svc.DebitForUnlockTx(ctx, noopTx{}, providerID, 10_000, uuid.New()); err != nil {
		t.Fatalf("debit: %v", err)
	}

	store.calls = nil
	got, txns, err := svc.GetWallet(ctx, providerID)
	if err != nil {
		t.Fatalf("GetWallet: %v", err)
	}
	if len(store.calls) != 3 || store.calls[0] != "begin" || store.calls[1] != "lock wallet" || store.calls[2] != "list ledger" {
		t.Errorf("read sequence: got %v, want the ledger listed under the wallet row lock", store.calls)
	}
	if got.BalancePaise != w.BalancePaise {
		t.Errorf("balance: got %d, want %d", got.BalancePaise, w.BalancePaise)
	}
	var sum int64
	for _, tx := range txns {
		switch tx.Type {
		case TxTypeRecharge, TxTypeRefund:
			sum += tx.AmountPaise
		case TxTypeUnlock:
			sum -= tx.AmountPaise
		}
	}
	if got.BalancePaise != sum {
		t.Errorf("balance %d does not equal signed sum %d of the returned ledger", got.BalancePaise, sum)
	}
}

func TestGetWallet_NotFound(t *testing.T) {
	svc := NewService(newMockStore(), nil)

	_, _, err := svc.GetWallet(context.Background(), uuid.New())
	if !errors.Is(err, ErrWalletNotFound) {
		t.Fatalf("expected ErrWalletNotFound, got: %v", err)
	}
}
