package pool

import (
	"log"
	"math"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"MatchingPool/internal/model"
)

// Fresh-state parameters. A pool whose MaxPools is zero has never been
// initialized and gets these on construction.
const (
	DefaultMaxPools       = 100
	DefaultAdminFee       = 100
	DefaultMatchingRatio  = 2
	DefaultMaxMatchingCap = 1000000000
	DefaultPenaltyRate    = 5
)

const maxLocationLen = 100

// Pool owns the matching-pool state and implements every transition on
// it. Each operation validates fully before writing anything, so a
// rejected call leaves the state exactly as it found it.
type Pool struct {
	mu       sync.Mutex
	state    *model.PoolState
	filePath string
}

// CampaignParams carries the caller-supplied fields of a new campaign.
type CampaignParams struct {
	Name       string
	PoolType   model.PoolType
	Interest   int64
	Grace      int64
	Location   string
	Currency   model.Currency
	MinDeposit int64
	MaxDeposit int64
}

// New creates a Pool, loading or initializing state from disk.
func New(filePath string) (*Pool, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, err
	}

	// Initialize if fresh state
	if state.MaxPools == 0 {
		state.MaxPools = DefaultMaxPools
		state.AdminFee = DefaultAdminFee
		state.MatchingRatio = DefaultMatchingRatio
		state.MaxMatchingCap = DefaultMaxMatchingCap
		state.PenaltyRate = DefaultPenaltyRate
		state.Campaigns = make(map[int64]*model.CampaignMatch)
		state.Names = make(map[string]int64)
	}

	p := &Pool{state: state, filePath: filePath}
	if err := p.save(); err != nil {
		return nil, err
	}
	return p, nil
}

// BindAuthority sets the pool authority. The binding is write-once: a
// second call fails and leaves the original binding unchanged. The
// caller may not bind itself, and the candidate must be a non-empty
// principal (the empty string is the unbound sentinel).
func (p *Pool) BindAuthority(caller, candidate model.Principal, nowSeq int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if candidate == "" {
		return ErrInvalidAuthority
	}
	if candidate == caller {
		return ErrSelfBinding
	}
	if p.state.Authority != "" {
		return ErrAlreadyBound
	}
	p.state.Authority = candidate
	p.advanceSeq(nowSeq)
	p.persist()
	return nil
}

// RequireAuthority succeeds only when an authority is bound and caller
// is that authority.
func (p *Pool) RequireAuthority(caller model.Principal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requireAuthority(caller)
}

func (p *Pool) requireAuthority(caller model.Principal) error {
	if p.state.Authority == "" {
		return ErrAuthorityNotSet
	}
	if caller != p.state.Authority {
		return ErrNotAuthorized
	}
	return nil
}

// SetAdminFee sets the per-campaign registration fee. Any caller may do
// this once an authority is bound; the contract never restricted it to
// the authority itself.
func (p *Pool) SetAdminFee(caller model.Principal, newFee, nowSeq int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.Authority == "" {
		return ErrAuthorityNotSet
	}
	if newFee < 0 {
		return ErrInvalidAmount
	}
	p.state.AdminFee = newFee
	p.advanceSeq(nowSeq)
	p.persist()
	return nil
}

// Fund moves amount from the caller into the pool treasury. Deposits
// that would carry the balance past the int64 range are rejected so
// the balance can never wrap negative.
func (p *Pool) Fund(caller model.Principal, amount, nowSeq int64) (*model.TransferIntent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if amount > math.MaxInt64-p.state.PoolBalance {
		return nil, ErrInvalidAmount
	}
	intent := newIntent(model.IntentFund, amount, caller, model.PoolAccount)
	p.state.PoolBalance += amount
	p.advanceSeq(nowSeq)
	p.persist()
	return intent, nil
}

// Withdraw moves amount from the pool treasury to the caller. Only the
// bound authority may withdraw.
func (p *Pool) Withdraw(caller model.Principal, amount, nowSeq int64) (*model.TransferIntent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.Authority == "" || caller != p.state.Authority {
		return nil, ErrNotAuthorized
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if amount > p.state.PoolBalance {
		return nil, ErrInsufficientPool
	}
	intent := newIntent(model.IntentWithdraw, amount, model.PoolAccount, caller)
	p.state.PoolBalance -= amount
	p.advanceSeq(nowSeq)
	p.persist()
	return intent, nil
}

// RegisterCampaign validates and creates a new campaign, charging the
// admin fee from the caller to the authority. Checks run in a fixed
// order; the first failing one decides the error.
func (p *Pool) RegisterCampaign(caller model.Principal, params CampaignParams, nowSeq int64) (int64, *model.TransferIntent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.NextPoolID >= p.state.MaxPools {
		return 0, nil, ErrMaxPoolsExceeded
	}
	if !params.PoolType.Valid() {
		return 0, nil, ErrInvalidPoolType
	}
	if params.Interest < 0 || params.Interest > 20 {
		return 0, nil, ErrInvalidInterest
	}
	if params.Grace < 0 || params.Grace > 30 {
		return 0, nil, ErrInvalidGrace
	}
	if params.Location == "" || utf8.RuneCountInString(params.Location) > maxLocationLen {
		return 0, nil, ErrInvalidLocation
	}
	if !params.Currency.Valid() {
		return 0, nil, ErrInvalidCurrency
	}
	if params.MinDeposit <= 0 {
		return 0, nil, ErrInvalidMinDeposit
	}
	if params.MaxDeposit <= 0 {
		return 0, nil, ErrInvalidMaxDeposit
	}
	if _, exists := p.state.Names[params.Name]; exists || params.Name == "" {
		return 0, nil, ErrInvalidCampaign
	}
	if p.state.Authority == "" {
		return 0, nil, ErrAuthorityNotSet
	}

	intent := newIntent(model.IntentAdminFee, p.state.AdminFee, caller, p.state.Authority)

	id := p.state.NextPoolID
	p.state.Campaigns[id] = &model.CampaignMatch{
		ID:         id,
		IsActive:   true,
		Timestamp:  nowSeq,
		PoolType:   params.PoolType,
		Interest:   params.Interest,
		Grace:      params.Grace,
		Location:   params.Location,
		Currency:   params.Currency,
		Status:     true,
		MinDeposit: params.MinDeposit,
		MaxDeposit: params.MaxDeposit,
	}
	p.state.Names[params.Name] = id
	p.state.NextPoolID++
	p.advanceSeq(nowSeq)
	p.persist()
	return id, intent, nil
}

// MatchResult reports a successful donation match. The fields are
// captured inside the critical section, so before/after balances and
// the ratio in effect are exact even under concurrent callers.
type MatchResult struct {
	MatchAmount  int64
	Ratio        int64
	PoolBefore   int64
	PoolAfter    int64
	TotalMatched int64
	Intent       *model.TransferIntent
}

// MatchDonation matches a donation against a campaign at the current
// ratio and pays the match from the pool to the caller. Guards run
// cheapest first: existence, activity, input sanity, cap, liquidity.
// MinDeposit/MaxDeposit are stored bounds only; donations are not
// checked against them, matching the contract.
func (p *Pool) MatchDonation(caller model.Principal, campaignID, donationAmount, nowSeq int64) (*MatchResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	campaign, ok := p.state.Campaigns[campaignID]
	if !ok {
		return nil, ErrInvalidCampaign
	}
	if !campaign.IsActive {
		return nil, ErrCampaignInactive
	}
	if donationAmount <= 0 {
		return nil, ErrInvalidAmount
	}
	// Compare against cap/ratio instead of multiplying first: an
	// oversized donation would overflow int64 and slip past the cap
	// and liquidity guards as a negative product.
	if donationAmount > p.state.MaxMatchingCap/p.state.MatchingRatio {
		return nil, ErrCapExceeded
	}
	matchAmount := donationAmount * p.state.MatchingRatio
	if matchAmount > p.state.PoolBalance {
		return nil, ErrInsufficientPool
	}

	poolBefore := p.state.PoolBalance
	intent := newIntent(model.IntentMatch, matchAmount, model.PoolAccount, caller)
	p.state.PoolBalance -= matchAmount
	p.state.TotalMatched += matchAmount
	campaign.MatchedAmount += matchAmount
	campaign.TotalDonations += donationAmount
	campaign.Timestamp = nowSeq
	p.advanceSeq(nowSeq)
	p.persist()
	return &MatchResult{
		MatchAmount:  matchAmount,
		Ratio:        p.state.MatchingRatio,
		PoolBefore:   poolBefore,
		PoolAfter:    p.state.PoolBalance,
		TotalMatched: p.state.TotalMatched,
		Intent:       intent,
	}, nil
}

// UpdateMatchingRatio sets the donation multiplier, valid range 1-10,
// and appends the change to the update history.
func (p *Pool) UpdateMatchingRatio(caller model.Principal, newRatio, nowSeq int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.Authority == "" {
		return ErrAuthorityNotSet
	}
	if newRatio <= 0 || newRatio > 10 {
		return ErrInvalidRatio
	}
	p.state.MatchingRatio = newRatio
	p.recordUpdate(caller, nowSeq)
	p.persist()
	return nil
}

// UpdateMatchingCap sets the per-match payout ceiling and appends the
// change to the update history.
func (p *Pool) UpdateMatchingCap(caller model.Principal, newCap, nowSeq int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.Authority == "" {
		return ErrAuthorityNotSet
	}
	if newCap <= 0 {
		return ErrInvalidCap
	}
	p.state.MaxMatchingCap = newCap
	p.recordUpdate(caller, nowSeq)
	p.persist()
	return nil
}

// DeactivateCampaign takes a campaign out of matching. Only the bound
// authority may deactivate, and there is no reactivation path.
func (p *Pool) DeactivateCampaign(caller model.Principal, campaignID, nowSeq int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	campaign, ok := p.state.Campaigns[campaignID]
	if !ok {
		return ErrInvalidCampaign
	}
	if p.state.Authority == "" || caller != p.state.Authority {
		return ErrNotAuthorized
	}
	campaign.IsActive = false
	campaign.Status = false
	p.advanceSeq(nowSeq)
	p.persist()
	return nil
}

// PoolCount returns the number of campaigns ever created.
func (p *Pool) PoolCount() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.NextPoolID
}

// CampaignExists reports whether a campaign name is registered.
func (p *Pool) CampaignExists(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.state.Names[name]
	return ok
}

// LookupCampaign resolves a campaign name to its id.
func (p *Pool) LookupCampaign(name string) (int64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id, ok := p.state.Names[name]
	return id, ok
}

// Campaign returns a copy of the campaign record for id.
func (p *Pool) Campaign(id int64) (model.CampaignMatch, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	campaign, ok := p.state.Campaigns[id]
	if !ok {
		return model.CampaignMatch{}, false
	}
	return *campaign, true
}

// Snapshot returns a deep copy of the current pool state.
func (p *Pool) Snapshot() model.PoolState {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := *p.state
	snap.Campaigns = make(map[int64]*model.CampaignMatch, len(p.state.Campaigns))
	for id, c := range p.state.Campaigns {
		cc := *c
		snap.Campaigns[id] = &cc
	}
	snap.Names = make(map[string]int64, len(p.state.Names))
	for name, id := range p.state.Names {
		snap.Names[name] = id
	}
	snap.Updates = append([]model.PoolUpdate(nil), p.state.Updates...)
	return snap
}

func (p *Pool) recordUpdate(caller model.Principal, nowSeq int64) {
	p.state.Updates = append(p.state.Updates, model.PoolUpdate{
		Ratio:     p.state.MatchingRatio,
		Cap:       p.state.MaxMatchingCap,
		Timestamp: nowSeq,
		Updater:   caller,
	})
	p.advanceSeq(nowSeq)
}

func (p *Pool) advanceSeq(nowSeq int64) {
	if nowSeq > p.state.LastSeq {
		p.state.LastSeq = nowSeq
	}
}

// LastSeq returns the highest sequence value seen so far.
func (p *Pool) LastSeq() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.LastSeq
}

func (p *Pool) persist() {
	if err := p.save(); err != nil {
		log.Printf("[ERROR] failed to save pool state: %v", err)
	}
}

func (p *Pool) save() error {
	return SaveState(p.filePath, p.state)
}

func newIntent(kind model.IntentKind, amount int64, from, to model.Principal) *model.TransferIntent {
	return &model.TransferIntent{
		ID:        uuid.NewString(),
		Kind:      kind,
		Amount:    amount,
		From:      from,
		To:        to,
		CreatedAt: time.Now(),
	}
}
