package services

import (
	"context"
	"errors"
	"testing"

	"github.com/clickbazaar/api/internal/domain"
)

func newRewardFixture(t *testing.T, rules map[string]domain.RewardRule) (RewardService, *fakeRewardLedger) {
	t.Helper()
	ledger := &fakeRewardLedger{}
	svc, err := NewRewardService(RewardServiceDeps{
		Ledger:      ledger,
		Rules:       newFakeRewardRules(rules),
		UnitOfWork:  &fakeUnitOfWork{},
		Clock:       fixedClock,
		IDGenerator: sequentialIDs(),
	})
	if err != nil {
		t.Fatalf("NewRewardService: %v", err)
	}
	return svc, ledger
}

func TestAccrueFloorsOrderTotal(t *testing.T) {
	svc, ledger := newRewardFixture(t, nil)

	points, err := svc.AccrueForOrder(context.Background(), AccrualCommand{
		OrderID:     "ord-1",
		UserID:      "usr-1",
		TotalAmount: 2599,
	})
	if err != nil {
		t.Fatalf("AccrueForOrder: %v", err)
	}
	if points != 25 {
		t.Errorf("points = %d, want 25", points)
	}
	if len(ledger.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(ledger.entries))
	}
	entry := ledger.entries[0]
	if entry.Points != 25 || entry.UserID != "usr-1" {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if got := entry.ExpiryDate; !got.Equal(fixedNow.AddDate(0, 0, 365)) {
		t.Errorf("expiry = %s, want one year out", got)
	}
}

func TestAccrueAddsProductRuleBonus(t *testing.T) {
	svc, ledger := newRewardFixture(t, map[string]domain.RewardRule{
		"prd-1": {ID: "rul-1", ProductID: "prd-1", PointsPerUnit: 5},
	})

	points, err := svc.AccrueForOrder(context.Background(), AccrualCommand{
		OrderID:     "ord-1",
		UserID:      "usr-1",
		TotalAmount: 1000,
		Items: []domain.OrderItem{
			{ProductID: "prd-1", Quantity: 3},
			{ProductID: "prd-2", Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("AccrueForOrder: %v", err)
	}
	// floor(1000/100) + 3*5 from the rule; prd-2 has no rule.
	if points != 25 {
		t.Errorf("points = %d, want 25", points)
	}
	if len(ledger.entries) != 1 {
		t.Errorf("accrual must write exactly one ledger entry")
	}
}

func TestAccrueZeroPointsInsertsNothing(t *testing.T) {
	svc, ledger := newRewardFixture(t, nil)

	points, err := svc.AccrueForOrder(context.Background(), AccrualCommand{
		OrderID:     "ord-1",
		UserID:      "usr-1",
		TotalAmount: 99,
	})
	if err != nil {
		t.Fatalf("AccrueForOrder: %v", err)
	}
	if points != 0 {
		t.Errorf("points = %d, want 0", points)
	}
	if len(ledger.entries) != 0 {
		t.Errorf("zero accrual must not insert an entry")
	}
}

func TestAccrueIsDeterministic(t *testing.T) {
	cmd := AccrualCommand{
		OrderID:     "ord-1",
		UserID:      "usr-1",
		TotalAmount: 1234,
		Items:       []domain.OrderItem{{ProductID: "prd-1", Quantity: 2}},
	}
	rules := map[string]domain.RewardRule{"prd-1": {ID: "rul-1", ProductID: "prd-1", PointsPerUnit: 7}}

	first, _ := newRewardFixture(t, rules)
	second, _ := newRewardFixture(t, rules)
	a, err := first.AccrueForOrder(context.Background(), cmd)
	if err != nil {
		t.Fatalf("first accrual: %v", err)
	}
	b, err := second.AccrueForOrder(context.Background(), cmd)
	if err != nil {
		t.Fatalf("second accrual: %v", err)
	}
	if a != b {
		t.Errorf("accrual differs for identical input: %d vs %d", a, b)
	}
}

func TestRedemptionConsumesOldestExpiryFirst(t *testing.T) {
	svc, ledger := newRewardFixture(t, nil)
	ledger.entries = []domain.RewardPointEntry{
		{ID: "rwd-late", UserID: "usr-1", Points: 60, ExpiryDate: fixedNow.AddDate(0, 6, 0)},
		{ID: "rwd-soon", UserID: "usr-1", Points: 40, ExpiryDate: fixedNow.AddDate(0, 1, 0)},
	}

	err := svc.RecordRedemption(context.Background(), RedemptionCommand{
		OrderID: "ord-1",
		UserID:  "usr-1",
		Points:  50,
	})
	if err != nil {
		t.Fatalf("RecordRedemption: %v", err)
	}

	// 40 from the soonest expiry does not cover 50, so the later entry is
	// consumed in full as well.
	soon, _ := ledger.entryByID("rwd-soon")
	late, _ := ledger.entryByID("rwd-late")
	if !soon.IsUsed {
		t.Errorf("soonest-expiry entry should be consumed first")
	}
	if !late.IsUsed {
		t.Errorf("covering entry should be fully consumed even past the need")
	}
	if soon.UsedOrderID == nil || *soon.UsedOrderID != "ord-1" {
		t.Errorf("consumed entry should reference the redeeming order")
	}

	var debits int
	for _, entry := range ledger.entries {
		if entry.Points == -50 {
			debits++
		}
	}
	if debits != 1 {
		t.Errorf("expected exactly one -50 entry, ledger: %+v", ledger.entries)
	}
}

func TestRedemptionStopsOnceCovered(t *testing.T) {
	svc, ledger := newRewardFixture(t, nil)
	ledger.entries = []domain.RewardPointEntry{
		{ID: "rwd-1", UserID: "usr-1", Points: 100, ExpiryDate: fixedNow.AddDate(0, 1, 0)},
		{ID: "rwd-2", UserID: "usr-1", Points: 100, ExpiryDate: fixedNow.AddDate(0, 2, 0)},
	}

	if err := svc.RecordRedemption(context.Background(), RedemptionCommand{OrderID: "ord-1", UserID: "usr-1", Points: 80}); err != nil {
		t.Fatalf("RecordRedemption: %v", err)
	}

	first, _ := ledger.entryByID("rwd-1")
	second, _ := ledger.entryByID("rwd-2")
	if !first.IsUsed {
		t.Errorf("first entry should be consumed")
	}
	if second.IsUsed {
		t.Errorf("second entry should be untouched once the need is covered")
	}
}

func TestRedemptionExceedsBalance(t *testing.T) {
	svc, ledger := newRewardFixture(t, nil)
	ledger.entries = []domain.RewardPointEntry{
		{ID: "rwd-1", UserID: "usr-1", Points: 30, ExpiryDate: fixedNow.AddDate(0, 1, 0)},
	}

	err := svc.RecordRedemption(context.Background(), RedemptionCommand{OrderID: "ord-1", UserID: "usr-1", Points: 31})
	if !errors.Is(err, ErrRedemptionExceedsBalance) {
		t.Fatalf("err = %v, want ErrRedemptionExceedsBalance", err)
	}
	if len(ledger.entries) != 1 {
		t.Errorf("rejected redemption must not append entries")
	}
	entry, _ := ledger.entryByID("rwd-1")
	if entry.IsUsed {
		t.Errorf("rejected redemption must not consume entries")
	}
}

func TestRedemptionIgnoresExpiredEntries(t *testing.T) {
	svc, ledger := newRewardFixture(t, nil)
	ledger.entries = []domain.RewardPointEntry{
		{ID: "rwd-expired", UserID: "usr-1", Points: 100, ExpiryDate: fixedNow.AddDate(0, 0, -1)},
		{ID: "rwd-live", UserID: "usr-1", Points: 20, ExpiryDate: fixedNow.AddDate(0, 1, 0)},
	}

	err := svc.RecordRedemption(context.Background(), RedemptionCommand{OrderID: "ord-1", UserID: "usr-1", Points: 50})
	if !errors.Is(err, ErrRedemptionExceedsBalance) {
		t.Fatalf("err = %v, want ErrRedemptionExceedsBalance", err)
	}
}

func TestRedemptionZeroPointsIsNoop(t *testing.T) {
	svc, ledger := newRewardFixture(t, nil)

	if err := svc.RecordRedemption(context.Background(), RedemptionCommand{OrderID: "ord-1", UserID: "usr-1"}); err != nil {
		t.Fatalf("RecordRedemption: %v", err)
	}
	if len(ledger.entries) != 0 {
		t.Errorf("zero redemption must not write entries")
	}
}

func TestAvailableBalanceFloorsAtZero(t *testing.T) {
	svc, ledger := newRewardFixture(t, nil)
	ledger.entries = []domain.RewardPointEntry{
		{ID: "rwd-1", UserID: "usr-1", Points: -40},
	}

	balance, err := svc.AvailableBalance(context.Background(), "usr-1")
	if err != nil {
		t.Fatalf("AvailableBalance: %v", err)
	}
	if balance != 0 {
		t.Errorf("balance = %d, want 0", balance)
	}
}

func TestSummaryCombinesBalanceAndHistory(t *testing.T) {
	svc, ledger := newRewardFixture(t, nil)
	ledger.entries = []domain.RewardPointEntry{
		{ID: "rwd-1", UserID: "usr-1", Points: 30, ExpiryDate: fixedNow.AddDate(0, 1, 0)},
		{ID: "rwd-2", UserID: "usr-1", Points: -10},
	}

	summary, err := svc.Summary(context.Background(), "usr-1", domain.Pagination{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.AvailablePoints != 20 {
		t.Errorf("available = %d, want 20", summary.AvailablePoints)
	}
	if len(summary.History.Items) != 2 {
		t.Errorf("history items = %d, want 2", len(summary.History.Items))
	}
}
