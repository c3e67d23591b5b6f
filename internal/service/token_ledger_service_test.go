package service

import (
	"errors"
	"testing"

	"github.com/milkdesk/internal/constants"
	"github.com/milkdesk/internal/models"
)

func TestTokenLedgerCreditDebit(t *testing.T) {
	f := setupDomainFixture(t)
	ctx := t.Context()

	credit, err := f.ledger.Credit(ctx, CreditInput{
		CustomerID:  f.customer.ID,
		TokenTypeID: f.tokenType.ID,
		Quantity:    10,
		Reason:      constants.TokenReasonIssuePayment,
		Reference:   "issue:1:credit",
	})
	if err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if credit.Balance.Quantity != 10 || credit.Transaction.BalanceBefore != 0 || credit.Transaction.BalanceAfter != 10 {
		t.Fatalf("unexpected credit result: %+v %+v", credit.Balance, credit.Transaction)
	}

	debit, err := f.ledger.Debit(ctx, DebitInput{
		CustomerID:  f.customer.ID,
		TokenTypeID: f.tokenType.ID,
		Quantity:    4,
		Reason:      constants.TokenReasonManualOrder,
		Reference:   "order:1:debit",
	})
	if err != nil {
		t.Fatalf("debit failed: %v", err)
	}
	if debit.Transaction.BalanceAfter != 6 {
		t.Fatalf("expected balance 6, got %d", debit.Transaction.BalanceAfter)
	}
	if got := f.balance(t); got != 6 {
		t.Fatalf("expected stored balance 6, got %d", got)
	}
	if !f.notifier.has(constants.RefreshTopicTokenBalance) {
		t.Fatalf("expected token_balance refresh topic to be published")
	}
}

func TestTokenLedgerDebitInsufficient(t *testing.T) {
	f := setupDomainFixture(t)
	f.seedBalance(t, 3)

	_, err := f.ledger.Debit(t.Context(), DebitInput{
		CustomerID:  f.customer.ID,
		TokenTypeID: f.tokenType.ID,
		Quantity:    4,
		Reference:   "order:9:debit",
	})
	if !errors.Is(err, ErrTokenBalanceInsufficient) {
		t.Fatalf("expected ErrTokenBalanceInsufficient, got %v", err)
	}
	if got := f.balance(t); got != 3 {
		t.Fatalf("balance must stay 3, got %d", got)
	}
	var count int64
	f.db.Model(&models.TokenTransaction{}).Where("reference = ?", "order:9:debit").Count(&count)
	if count != 0 {
		t.Fatalf("rejected debit must not write a transaction")
	}
}

func TestTokenLedgerReferenceReplay(t *testing.T) {
	f := setupDomainFixture(t)
	ctx := t.Context()
	input := CreditInput{
		CustomerID:  f.customer.ID,
		TokenTypeID: f.tokenType.ID,
		Quantity:    5,
		Reference:   "order:7:cancel",
		Reason:      constants.TokenReasonOrderCancel,
	}
	if _, err := f.ledger.Credit(ctx, input); err != nil {
		t.Fatalf("first credit failed: %v", err)
	}
	replay, err := f.ledger.Credit(ctx, input)
	if err != nil {
		t.Fatalf("replay credit failed: %v", err)
	}
	if !replay.Replayed {
		t.Fatalf("expected replayed result")
	}
	if got := f.balance(t); got != 5 {
		t.Fatalf("replay must not change balance, got %d", got)
	}

	_, err = f.ledger.Debit(ctx, DebitInput{
		CustomerID:  f.customer.ID,
		TokenTypeID: f.tokenType.ID,
		Quantity:    1,
		Reference:   "order:7:cancel",
	})
	if !errors.Is(err, ErrTokenReferenceConflict) {
		t.Fatalf("expected ErrTokenReferenceConflict, got %v", err)
	}
}

func TestTokenLedgerValidation(t *testing.T) {
	f := setupDomainFixture(t)
	cases := []struct {
		name  string
		input CreditInput
		want  error
	}{
		{"zero quantity", CreditInput{CustomerID: f.customer.ID, TokenTypeID: f.tokenType.ID, Quantity: 0, Reference: "r1"}, ErrTokenQuantityInvalid},
		{"missing reference", CreditInput{CustomerID: f.customer.ID, TokenTypeID: f.tokenType.ID, Quantity: 1}, ErrTokenReferenceRequired},
		{"missing customer", CreditInput{TokenTypeID: f.tokenType.ID, Quantity: 1, Reference: "r2"}, ErrCustomerNotFound},
		{"missing token type", CreditInput{CustomerID: f.customer.ID, Quantity: 1, Reference: "r3"}, ErrTokenTypeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.ledger.Credit(t.Context(), tc.input); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestTokenLedgerAdminAdjust(t *testing.T) {
	f := setupDomainFixture(t)
	ctx := t.Context()
	if _, err := f.ledger.AdminAdjust(ctx, AdminAdjustInput{CustomerID: f.customer.ID, TokenTypeID: f.tokenType.ID, Delta: 0}); !errors.Is(err, ErrTokenAdjustZero) {
		t.Fatalf("expected ErrTokenAdjustZero, got %v", err)
	}
	if _, err := f.ledger.AdminAdjust(ctx, AdminAdjustInput{CustomerID: f.customer.ID, TokenTypeID: f.tokenType.ID, Delta: 8}); err != nil {
		t.Fatalf("positive adjust failed: %v", err)
	}
	if _, err := f.ledger.AdminAdjust(ctx, AdminAdjustInput{CustomerID: f.customer.ID, TokenTypeID: f.tokenType.ID, Delta: -3}); err != nil {
		t.Fatalf("negative adjust failed: %v", err)
	}
	if got := f.balance(t); got != 5 {
		t.Fatalf("expected balance 5, got %d", got)
	}
	if _, err := f.ledger.AdminAdjust(ctx, AdminAdjustInput{CustomerID: f.customer.ID, TokenTypeID: f.tokenType.ID, Delta: -6}); !errors.Is(err, ErrTokenBalanceInsufficient) {
		t.Fatalf("expected ErrTokenBalanceInsufficient, got %v", err)
	}
}

func TestTokenLedgerAuditAndRepair(t *testing.T) {
	f := setupDomainFixture(t)
	ctx := t.Context()
	f.seedBalance(t, 10)

	report, err := f.ledger.Audit(ctx)
	if err != nil {
		t.Fatalf("audit failed: %v", err)
	}
	if len(report.Drifts) != 0 {
		t.Fatalf("expected no drift, got %+v", report.Drifts)
	}

	if err := f.db.Model(&models.TokenBalance{}).
		Where("customer_id = ? AND token_type_id = ?", f.customer.ID, f.tokenType.ID).
		Update("quantity", 13).Error; err != nil {
		t.Fatalf("tamper balance failed: %v", err)
	}
	report, err = f.ledger.Audit(ctx)
	if err != nil {
		t.Fatalf("audit failed: %v", err)
	}
	if len(report.Drifts) != 1 || report.Drifts[0].Balance != 13 || report.Drifts[0].Journal != 10 {
		t.Fatalf("unexpected drift report: %+v", report.Drifts)
	}

	repaired, err := f.ledger.Repair(ctx, 1)
	if err != nil {
		t.Fatalf("repair failed: %v", err)
	}
	if repaired.Repaired != 1 {
		t.Fatalf("expected 1 repaired row, got %d", repaired.Repaired)
	}
	if got := f.balance(t); got != 10 {
		t.Fatalf("expected balance restored to 10, got %d", got)
	}
	report, err = f.ledger.Audit(ctx)
	if err != nil {
		t.Fatalf("audit after repair failed: %v", err)
	}
	if len(report.Drifts) != 0 {
		t.Fatalf("expected clean audit after repair, got %+v", report.Drifts)
	}
}

func TestGroupBalancesByCustomer(t *testing.T) {
	rows := []models.TokenBalance{
		{CustomerID: 2, TokenTypeID: 1, Quantity: 3, Customer: &models.Customer{Name: "Bala"}},
		{CustomerID: 1, TokenTypeID: 1, Quantity: 4, Customer: &models.Customer{Name: "Anil"}},
		{CustomerID: 2, TokenTypeID: 2, Quantity: 5, Customer: &models.Customer{Name: "Bala"}},
	}
	groups := GroupBalancesByCustomer(rows)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	totals := map[uint]int{}
	for _, group := range groups {
		totals[group.CustomerID] = group.Total
	}
	if totals[1] != 4 || totals[2] != 8 {
		t.Fatalf("unexpected totals: %+v", totals)
	}
}
