package ledger

import "MatchingPool/internal/model"

// IntentRecord is a transfer intent together with the sequence value of
// the operation that produced it. Settled marks whether the external
// settlement mechanism has confirmed the movement.
type IntentRecord struct {
	Intent  model.TransferIntent
	Seq     int64
	Settled bool
}

// MatchEvent records a successful donation match.
type MatchEvent struct {
	CampaignID     int64
	Caller         model.Principal
	DonationAmount int64
	MatchAmount    int64
	Ratio          int64
	PoolBefore     int64
	PoolAfter      int64
	TotalMatched   int64
	Seq            int64
}

// CampaignEvent records a campaign registration.
type CampaignEvent struct {
	CampaignID int64
	Name       string
	Creator    model.Principal
	PoolType   model.PoolType
	Currency   model.Currency
	Location   string
	MinDeposit int64
	MaxDeposit int64
	AdminFee   int64
	Seq        int64
}

// ParamEvent records a matching-parameter or fee change.
type ParamEvent struct {
	Ratio    int64
	Cap      int64
	AdminFee int64
	Updater  model.Principal
	Seq      int64
}

// Ledger persists the pool's history and the settlement queue.
type Ledger interface {
	RecordIntent(rec *IntentRecord) error
	RecordMatch(evt *MatchEvent) error
	RecordCampaign(evt *CampaignEvent) error
	RecordParamUpdate(evt *ParamEvent) error
	UnsettledIntents(limit int) ([]IntentRecord, error)
	MarkSettled(ids []string) error
	Close() error
}
