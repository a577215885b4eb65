package ledger

import (
	"path/filepath"
	"testing"
	"time"

	"MatchingPool/internal/model"
)

func newTestLedger(t *testing.T) *SQLiteLedger {
	t.Helper()
	l, err := NewSQLiteLedger(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func intent(id string, amount int64) model.TransferIntent {
	return model.TransferIntent{
		ID:        id,
		Kind:      model.IntentFund,
		Amount:    amount,
		From:      "ST1TEST",
		To:        model.PoolAccount,
		CreatedAt: time.Now(),
	}
}

func TestSettlementCycle(t *testing.T) {
	l := newTestLedger(t)

	for i, id := range []string{"a", "b", "c"} {
		if err := l.RecordIntent(&IntentRecord{Intent: intent(id, int64(100*(i+1))), Seq: int64(i + 1)}); err != nil {
			t.Fatalf("record intent %s: %v", id, err)
		}
	}

	recs, err := l.UnsettledIntents(10)
	if err != nil {
		t.Fatalf("unsettled: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("unsettled = %d, want 3", len(recs))
	}
	if recs[0].Intent.Kind != model.IntentFund || recs[0].Intent.To != model.PoolAccount {
		t.Errorf("round-tripped intent = %+v", recs[0].Intent)
	}

	if err := l.MarkSettled([]string{"a", "c"}); err != nil {
		t.Fatalf("mark settled: %v", err)
	}
	recs, err = l.UnsettledIntents(10)
	if err != nil {
		t.Fatalf("unsettled after settle: %v", err)
	}
	if len(recs) != 1 || recs[0].Intent.ID != "b" {
		t.Errorf("remaining unsettled = %+v, want only b", recs)
	}

	// Empty settle batch is a no-op
	if err := l.MarkSettled(nil); err != nil {
		t.Errorf("empty mark settled: %v", err)
	}
}

func TestUnsettledIntents_Limit(t *testing.T) {
	l := newTestLedger(t)
	for _, id := range []string{"a", "b", "c", "d"} {
		if err := l.RecordIntent(&IntentRecord{Intent: intent(id, 50), Seq: 1}); err != nil {
			t.Fatalf("record intent: %v", err)
		}
	}
	recs, err := l.UnsettledIntents(2)
	if err != nil {
		t.Fatalf("unsettled: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("unsettled = %d, want 2 (limit)", len(recs))
	}
}

func TestRecordEvents(t *testing.T) {
	l := newTestLedger(t)

	if err := l.RecordMatch(&MatchEvent{
		CampaignID: 0, Caller: "ST1TEST", DonationAmount: 1000, MatchAmount: 2000,
		Ratio: 2, PoolBefore: 10000, PoolAfter: 8000, TotalMatched: 2000, Seq: 4,
	}); err != nil {
		t.Errorf("record match: %v", err)
	}
	if err := l.RecordCampaign(&CampaignEvent{
		CampaignID: 0, Name: "Campaign1", Creator: "ST1TEST",
		PoolType: model.PoolCharity, Currency: model.CurrencySTX, Location: "LocationX",
		MinDeposit: 50, MaxDeposit: 1000, AdminFee: 100, Seq: 2,
	}); err != nil {
		t.Errorf("record campaign: %v", err)
	}
	if err := l.RecordParamUpdate(&ParamEvent{
		Ratio: 3, Cap: 500, AdminFee: 100, Updater: "ST2TEST", Seq: 5,
	}); err != nil {
		t.Errorf("record param update: %v", err)
	}
}
