package ledger

// NoopLedger is a no-op implementation used when SQLite is not configured.
type NoopLedger struct{}

func NewNoopLedger() *NoopLedger { return &NoopLedger{} }

func (n *NoopLedger) RecordIntent(_ *IntentRecord) error             { return nil }
func (n *NoopLedger) RecordMatch(_ *MatchEvent) error                { return nil }
func (n *NoopLedger) RecordCampaign(_ *CampaignEvent) error          { return nil }
func (n *NoopLedger) RecordParamUpdate(_ *ParamEvent) error          { return nil }
func (n *NoopLedger) UnsettledIntents(_ int) ([]IntentRecord, error) { return nil, nil }
func (n *NoopLedger) MarkSettled(_ []string) error                   { return nil }
func (n *NoopLedger) Close() error                                   { return nil }
