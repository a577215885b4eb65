package pool

// Error is a rejected transition. Code carries the contract-level
// numeric error code so ledger rows and API responses stay comparable
// with the on-chain contract.
type Error struct {
	Code int
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

var (
	ErrNotAuthorized     = &Error{Code: 100, Msg: "caller is not the pool authority"}
	ErrInsufficientPool  = &Error{Code: 101, Msg: "pool balance is insufficient"}
	ErrInvalidCampaign   = &Error{Code: 102, Msg: "unknown or duplicate campaign"}
	ErrInvalidAmount     = &Error{Code: 103, Msg: "amount must be positive"}
	ErrInvalidRatio      = &Error{Code: 104, Msg: "matching ratio must be between 1 and 10"}
	ErrInvalidCap        = &Error{Code: 105, Msg: "matching cap must be positive"}
	ErrCampaignInactive  = &Error{Code: 106, Msg: "campaign is not active"}
	ErrCapExceeded       = &Error{Code: 107, Msg: "match amount exceeds matching cap"}
	ErrAuthorityNotSet   = &Error{Code: 109, Msg: "pool authority is not set"}
	ErrSelfBinding       = &Error{Code: 110, Msg: "authority cannot be the binding caller"}
	ErrAlreadyBound      = &Error{Code: 111, Msg: "pool authority is already set"}
	ErrInvalidAuthority  = &Error{Code: 112, Msg: "authority principal must not be empty"}
	ErrMaxPoolsExceeded  = &Error{Code: 114, Msg: "maximum number of campaigns reached"}
	ErrInvalidPoolType   = &Error{Code: 115, Msg: "pool type must be charity, grant or fund"}
	ErrInvalidInterest   = &Error{Code: 116, Msg: "interest must be between 0 and 20"}
	ErrInvalidGrace      = &Error{Code: 117, Msg: "grace must be between 0 and 30"}
	ErrInvalidLocation   = &Error{Code: 118, Msg: "location must be 1-100 characters"}
	ErrInvalidCurrency   = &Error{Code: 119, Msg: "currency must be STX, USD or BTC"}
	ErrInvalidMinDeposit = &Error{Code: 121, Msg: "minimum deposit must be positive"}
	ErrInvalidMaxDeposit = &Error{Code: 122, Msg: "maximum deposit must be positive"}
)
