package ledger

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sheikh-saqib/vault-ledger-system/internal/models"
	"github.com/sheikh-saqib/vault-ledger-system/internal/storage/memory"
	"github.com/shopspring/decimal"
)

func newTestLedger() *Ledger {
	return NewLedger(memory.NewMemoryLedgerStore(), nil)
}

func dec(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", value, err)
	}
	return d
}

func mustCreate(t *testing.T, l *Ledger, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := l.CreateAccount(context.Background(), name); err != nil {
			t.Fatalf("create account %q: %v", name, err)
		}
	}
}

func mustBalance(t *testing.T, l *Ledger, name string) decimal.Decimal {
	t.Helper()
	balance, err := l.GetBalance(context.Background(), name)
	if err != nil {
		t.Fatalf("get balance %q: %v", name, err)
	}
	return balance
}

func TestCreateAccountIdempotent(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger()
	mustCreate(t, l, "alice")

	openedAt, err := l.GetOpenTime(ctx, "alice")
	if err != nil {
		t.Fatalf("get open time: %v", err)
	}
	if openedAt <= 0 {
		t.Fatalf("open time = %d, want > 0", openedAt)
	}

	if err := l.Give(ctx, "alice", dec(t, "5"), ""); err != nil {
		t.Fatalf("give: %v", err)
	}

	// Re-creating must not reset balance or open time.
	mustCreate(t, l, "alice")

	if got := mustBalance(t, l, "alice"); !got.Equal(dec(t, "5")) {
		t.Errorf("balance after re-create = %s, want 5", got)
	}
	got, err := l.GetOpenTime(ctx, "alice")
	if err != nil {
		t.Fatalf("get open time: %v", err)
	}
	if got != openedAt {
		t.Errorf("open time after re-create = %d, want %d", got, openedAt)
	}
}

func TestGiveTakeInverse(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger()
	mustCreate(t, l, "alice")

	amount := dec(t, "75.50")
	if err := l.Give(ctx, "alice", amount, ""); err != nil {
		t.Fatalf("give: %v", err)
	}
	if err := l.Take(ctx, "alice", amount, ""); err != nil {
		t.Fatalf("take: %v", err)
	}

	if got := mustBalance(t, l, "alice"); !got.Equal(decimal.Zero) {
		t.Errorf("balance = %s, want 0", got)
	}

	logs, err := l.GetLogs(ctx)
	if err != nil {
		t.Fatalf("get logs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("log length = %d, want 2", len(logs))
	}
	if !logs[0].Amount.Equal(amount) {
		t.Errorf("first log amount = %s, want %s", logs[0].Amount, amount)
	}
	if !logs[1].Amount.Equal(amount.Neg()) {
		t.Errorf("second log amount = %s, want %s", logs[1].Amount, amount.Neg())
	}
	if logs[0].ID == logs[1].ID {
		t.Errorf("log ids not unique: %s", logs[0].ID)
	}
	for _, entry := range logs {
		if entry.Time <= 0 {
			t.Errorf("log entry %s time = %d, want > 0", entry.ID, entry.Time)
		}
	}
}

func TestGiveRecordsOperator(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger()
	mustCreate(t, l, "alice")

	if err := l.Give(ctx, "alice", dec(t, "1"), ""); err != nil {
		t.Fatalf("give: %v", err)
	}
	if err := l.Give(ctx, "alice", dec(t, "1"), "console"); err != nil {
		t.Fatalf("give: %v", err)
	}

	logs, _ := l.GetLogs(ctx)
	if logs[0].Debit != DefaultOperator {
		t.Errorf("default operator = %q, want %q", logs[0].Debit, DefaultOperator)
	}
	if logs[1].Debit != "console" {
		t.Errorf("operator = %q, want %q", logs[1].Debit, "console")
	}
	if logs[0].Credit != "alice" {
		t.Errorf("credit = %q, want %q", logs[0].Credit, "alice")
	}
}

func TestValidationOrder(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger()

	// Missing account plus illegal amount must report the missing account.
	err := l.Give(ctx, "ghost", dec(t, "-1"), "")
	if !errors.Is(err, models.ErrAccountNotFound) {
		t.Errorf("give on missing account = %v, want ErrAccountNotFound", err)
	}

	mustCreate(t, l, "alice")

	// Existing account with illegal amount and insufficient funds must
	// report the amount first.
	err = l.Take(ctx, "alice", dec(t, "-5"), "")
	if !errors.Is(err, models.ErrInvalidAmount) {
		t.Errorf("take with negative amount = %v, want ErrInvalidAmount", err)
	}

	err = l.Give(ctx, "alice", decimal.Zero, "")
	if !errors.Is(err, models.ErrInvalidAmount) {
		t.Errorf("give zero = %v, want ErrInvalidAmount", err)
	}
}

func TestRejectionLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger()
	mustCreate(t, l, "p1", "p2")

	if err := l.Give(ctx, "p1", dec(t, "60"), ""); err != nil {
		t.Fatalf("give: %v", err)
	}
	logsBefore, _ := l.GetLogs(ctx)

	rejections := []error{
		l.Give(ctx, "ghost", dec(t, "10"), ""),
		l.Give(ctx, "p1", dec(t, "-10"), ""),
		l.Take(ctx, "p1", dec(t, "1000"), ""),
		l.Set(ctx, "p1", dec(t, "-1"), ""),
		l.Transfer(ctx, "p1", "ghost", dec(t, "10")),
		l.Transfer(ctx, "p1", "p2", dec(t, "1000")),
		l.Transfer(ctx, "p1", "p2", decimal.Zero),
	}
	for i, err := range rejections {
		if err == nil {
			t.Errorf("rejection %d: expected an error", i)
		}
	}

	if got := mustBalance(t, l, "p1"); !got.Equal(dec(t, "60")) {
		t.Errorf("p1 balance = %s, want 60", got)
	}
	if got := mustBalance(t, l, "p2"); !got.Equal(decimal.Zero) {
		t.Errorf("p2 balance = %s, want 0", got)
	}
	logsAfter, _ := l.GetLogs(ctx)
	if len(logsAfter) != len(logsBefore) {
		t.Errorf("log length = %d, want %d (rejections must not log)",
			len(logsAfter), len(logsBefore))
	}
}

func TestTakeInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger()
	mustCreate(t, l, "p1")

	if err := l.Give(ctx, "p1", dec(t, "60"), ""); err != nil {
		t.Fatalf("give: %v", err)
	}

	err := l.Take(ctx, "p1", dec(t, "1000"), "")
	if !errors.Is(err, models.ErrInsufficientBalance) {
		t.Fatalf("take = %v, want ErrInsufficientBalance", err)
	}
	if got := mustBalance(t, l, "p1"); !got.Equal(dec(t, "60")) {
		t.Errorf("balance = %s, want 60", got)
	}
}

func TestSetLogsDelta(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger()
	mustCreate(t, l, "alice")

	if err := l.Give(ctx, "alice", dec(t, "30"), ""); err != nil {
		t.Fatalf("give: %v", err)
	}
	if err := l.Set(ctx, "alice", dec(t, "50"), ""); err != nil {
		t.Fatalf("set: %v", err)
	}

	logs, _ := l.GetLogs(ctx)
	last := logs[len(logs)-1]
	if !last.Amount.Equal(dec(t, "20")) {
		t.Errorf("set delta = %s, want 20", last.Amount)
	}

	// Setting lower logs a negative delta; setting to zero is allowed.
	if err := l.Set(ctx, "alice", decimal.Zero, ""); err != nil {
		t.Fatalf("set zero: %v", err)
	}
	logs, _ = l.GetLogs(ctx)
	last = logs[len(logs)-1]
	if !last.Amount.Equal(dec(t, "-50")) {
		t.Errorf("set delta = %s, want -50", last.Amount)
	}

	err := l.Set(ctx, "alice", dec(t, "-1"), "")
	if !errors.Is(err, models.ErrInvalidAmount) {
		t.Errorf("set negative = %v, want ErrInvalidAmount", err)
	}
}

func TestTransferEndToEnd(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger()
	mustCreate(t, l, "p1", "p2")

	if err := l.Give(ctx, "p1", dec(t, "100"), ""); err != nil {
		t.Fatalf("give: %v", err)
	}
	if err := l.Transfer(ctx, "p1", "p2", dec(t, "40")); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	p1 := mustBalance(t, l, "p1")
	p2 := mustBalance(t, l, "p2")
	if !p1.Equal(dec(t, "60")) {
		t.Errorf("p1 balance = %s, want 60", p1)
	}
	if !p2.Equal(dec(t, "40")) {
		t.Errorf("p2 balance = %s, want 40", p2)
	}
	// Conservation: total funds unchanged by the transfer.
	if total := p1.Add(p2); !total.Equal(dec(t, "100")) {
		t.Errorf("total = %s, want 100", total)
	}

	logs, err := l.GetLogs(ctx)
	if err != nil {
		t.Fatalf("get logs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("log length = %d, want 2", len(logs))
	}
	second := logs[1]
	if second.Debit != "p1" || second.Credit != "p2" || !second.Amount.Equal(dec(t, "40")) {
		t.Errorf("second log = (%s, %s, %s), want (p1, p2, 40)",
			second.Debit, second.Credit, second.Amount)
	}
}

func TestTransferMissingAccountsNamed(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger()
	mustCreate(t, l, "p1")

	err := l.Transfer(ctx, "ghost1", "ghost2", dec(t, "10"))
	if !errors.Is(err, models.ErrAccountNotFound) {
		t.Fatalf("transfer = %v, want ErrAccountNotFound", err)
	}
	for _, name := range []string{"ghost1", "ghost2"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not name %q", err, name)
		}
	}

	err = l.Transfer(ctx, "p1", "ghost2", dec(t, "10"))
	if !errors.Is(err, models.ErrAccountNotFound) {
		t.Fatalf("transfer = %v, want ErrAccountNotFound", err)
	}
	if strings.Contains(strings.TrimPrefix(err.Error(), "account "), "p1") {
		t.Errorf("error %q names the existing account", err)
	}
}

func TestTransferToSelf(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger()
	mustCreate(t, l, "alice")

	if err := l.Give(ctx, "alice", dec(t, "100"), ""); err != nil {
		t.Fatalf("give: %v", err)
	}
	if err := l.Transfer(ctx, "alice", "alice", dec(t, "30")); err != nil {
		t.Fatalf("self transfer: %v", err)
	}

	// Net effect is zero, but the movement is still on record.
	if got := mustBalance(t, l, "alice"); !got.Equal(dec(t, "100")) {
		t.Errorf("balance after self transfer = %s, want 100", got)
	}
	logs, _ := l.GetLogs(ctx)
	if len(logs) != 2 {
		t.Fatalf("log length = %d, want 2", len(logs))
	}
	last := logs[1]
	if last.Debit != "alice" || last.Credit != "alice" || !last.Amount.Equal(dec(t, "30")) {
		t.Errorf("self transfer log = (%s, %s, %s), want (alice, alice, 30)",
			last.Debit, last.Credit, last.Amount)
	}
}

func TestRankingDeterminism(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger()
	mustCreate(t, l, "a", "b", "c")

	if err := l.Give(ctx, "a", dec(t, "10"), ""); err != nil {
		t.Fatalf("give: %v", err)
	}
	if err := l.Give(ctx, "b", dec(t, "10"), ""); err != nil {
		t.Fatalf("give: %v", err)
	}
	if err := l.Give(ctx, "c", dec(t, "5"), ""); err != nil {
		t.Fatalf("give: %v", err)
	}

	ranking, err := l.GetRanking(ctx)
	if err != nil {
		t.Fatalf("get ranking: %v", err)
	}

	want := []struct {
		name    string
		balance string
	}{
		{"a", "10"},
		{"b", "10"},
		{"c", "5"},
	}
	if len(ranking) != len(want) {
		t.Fatalf("ranking length = %d, want %d", len(ranking), len(want))
	}
	for i, row := range want {
		if ranking[i].Name != row.name || !ranking[i].Balance.Equal(dec(t, row.balance)) {
			t.Errorf("ranking[%d] = (%s, %s), want (%s, %s)",
				i, ranking[i].Name, ranking[i].Balance, row.name, row.balance)
		}
	}
}

func TestBalanceNeverNegative(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger()
	mustCreate(t, l, "a", "b")

	if err := l.Give(ctx, "a", dec(t, "10"), ""); err != nil {
		t.Fatalf("give: %v", err)
	}

	// A mix of valid and rejected operations.
	_ = l.Take(ctx, "a", dec(t, "4"), "")
	_ = l.Take(ctx, "a", dec(t, "100"), "")
	_ = l.Transfer(ctx, "a", "b", dec(t, "6"))
	_ = l.Transfer(ctx, "a", "b", dec(t, "1"))
	_ = l.Set(ctx, "b", decimal.Zero, "")

	for _, name := range []string{"a", "b"} {
		if got := mustBalance(t, l, name); got.IsNegative() {
			t.Errorf("balance of %q = %s, want >= 0", name, got)
		}
	}
}

func TestReadsOnMissingAccount(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger()

	if _, err := l.GetBalance(ctx, "ghost"); !errors.Is(err, models.ErrAccountNotFound) {
		t.Errorf("get balance = %v, want ErrAccountNotFound", err)
	}
	if _, err := l.GetOpenTime(ctx, "ghost"); !errors.Is(err, models.ErrAccountNotFound) {
		t.Errorf("get open time = %v, want ErrAccountNotFound", err)
	}
	exists, err := l.IsAccount(ctx, "ghost")
	if err != nil || exists {
		t.Errorf("is account = (%v, %v), want (false, nil)", exists, err)
	}
}
