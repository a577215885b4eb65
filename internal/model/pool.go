package model

import "time"

// Principal identifies an account taking part in pool operations.
// Principals are opaque: the core only ever compares them for equality.
type Principal string

// PoolAccount is the reserved principal for the pool treasury itself,
// used as the counterparty on fund/match/withdraw transfer intents.
const PoolAccount Principal = "pool"

// PoolType classifies a campaign.
type PoolType string

const (
	PoolCharity PoolType = "charity"
	PoolGrant   PoolType = "grant"
	PoolFund    PoolType = "fund"
)

// Valid reports whether pt is one of the known pool types.
func (pt PoolType) Valid() bool {
	switch pt {
	case PoolCharity, PoolGrant, PoolFund:
		return true
	}
	return false
}

// Currency tags the currency a campaign collects in.
type Currency string

const (
	CurrencySTX Currency = "STX"
	CurrencyUSD Currency = "USD"
	CurrencyBTC Currency = "BTC"
)

// Valid reports whether c is one of the known currencies.
func (c Currency) Valid() bool {
	switch c {
	case CurrencySTX, CurrencyUSD, CurrencyBTC:
		return true
	}
	return false
}

// CampaignMatch is a registered campaign and its cumulative matching
// counters. Campaigns are never deleted; deactivation flips IsActive
// and Status, which stay in lockstep.
type CampaignMatch struct {
	ID             int64    `json:"id"`
	MatchedAmount  int64    `json:"matched_amount"`
	TotalDonations int64    `json:"total_donations"`
	IsActive       bool     `json:"is_active"`
	Timestamp      int64    `json:"timestamp"` // sequence value of creation or last match
	PoolType       PoolType `json:"pool_type"`
	Interest       int64    `json:"interest"`
	Grace          int64    `json:"grace"`
	Location       string   `json:"location"`
	Currency       Currency `json:"currency"`
	Status         bool     `json:"status"`
	MinDeposit     int64    `json:"min_deposit"`
	MaxDeposit     int64    `json:"max_deposit"`
}

// PoolUpdate records a matching-parameter change.
type PoolUpdate struct {
	Ratio     int64     `json:"ratio"`
	Cap       int64     `json:"cap"`
	Timestamp int64     `json:"timestamp"`
	Updater   Principal `json:"updater"`
}

// PoolState is the full persistent state of the matching pool.
type PoolState struct {
	PoolBalance    int64     `json:"pool_balance"`
	TotalMatched   int64     `json:"total_matched"`
	NextPoolID     int64     `json:"next_pool_id"`
	MaxPools       int64     `json:"max_pools"`
	AdminFee       int64     `json:"admin_fee"`
	Authority      Principal `json:"authority"` // empty until bound, then write-once
	MatchingRatio  int64     `json:"matching_ratio"`
	MaxMatchingCap int64     `json:"max_matching_cap"`
	PenaltyRate    int64     `json:"penalty_rate"`

	Campaigns map[int64]*CampaignMatch `json:"campaigns"`
	Names     map[string]int64         `json:"names"` // campaign name -> id, entries never removed
	Updates   []PoolUpdate             `json:"updates"`

	// LastSeq is the highest sequence value handed to a mutating
	// operation, persisted so the host counter survives restarts.
	LastSeq   int64     `json:"last_seq"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IntentKind labels why a transfer intent was recorded.
type IntentKind string

const (
	IntentFund     IntentKind = "FUND"
	IntentAdminFee IntentKind = "ADMIN_FEE"
	IntentMatch    IntentKind = "MATCH"
	IntentWithdraw IntentKind = "WITHDRAW"
)

// TransferIntent is a recorded value movement. Settlement happens
// outside this process; the intent only captures amount and endpoints.
type TransferIntent struct {
	ID        string     `json:"id"`
	Kind      IntentKind `json:"kind"`
	Amount    int64      `json:"amount"`
	From      Principal  `json:"from"`
	To        Principal  `json:"to"`
	CreatedAt time.Time  `json:"created_at"`
}
