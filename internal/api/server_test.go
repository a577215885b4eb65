package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"MatchingPool/internal/ledger"
	"MatchingPool/internal/pool"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	p, err := pool.New(filepath.Join(t.TempDir(), "pool_state.json"))
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	return NewServer(p, ledger.NewNoopLedger(), nil)
}

func do(t *testing.T, s *Server, method, path, caller string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if caller != "" {
		req.Header.Set("X-Caller", caller)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	resp := map[string]any{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return w, resp
}

func registerBody(name string) map[string]any {
	return map[string]any{
		"name":        name,
		"pool_type":   "charity",
		"interest":    10,
		"grace":       7,
		"location":    "LocationX",
		"currency":    "STX",
		"min_deposit": 50,
		"max_deposit": 1000,
	}
}

func TestEndToEnd(t *testing.T) {
	s := newTestServer(t)

	w, _ := do(t, s, "POST", "/api/authority", "ST1TEST", map[string]any{"candidate": "ST2TEST"})
	if w.Code != http.StatusOK {
		t.Fatalf("bind authority: status %d, body %s", w.Code, w.Body.String())
	}

	w, resp := do(t, s, "POST", "/api/pool/fund", "ST1TEST", map[string]any{"amount": 10000})
	if w.Code != http.StatusOK {
		t.Fatalf("fund: status %d, body %s", w.Code, w.Body.String())
	}
	if resp["pool_balance"].(float64) != 10000 {
		t.Errorf("pool balance = %v, want 10000", resp["pool_balance"])
	}

	w, resp = do(t, s, "POST", "/api/campaigns", "ST1TEST", registerBody("Campaign1"))
	if w.Code != http.StatusOK {
		t.Fatalf("register: status %d, body %s", w.Code, w.Body.String())
	}
	if resp["id"].(float64) != 0 {
		t.Errorf("id = %v, want 0", resp["id"])
	}

	w, resp = do(t, s, "POST", "/api/campaigns/0/match", "ST1TEST", map[string]any{"amount": 1000})
	if w.Code != http.StatusOK {
		t.Fatalf("match: status %d, body %s", w.Code, w.Body.String())
	}
	if resp["match_amount"].(float64) != 2000 {
		t.Errorf("match amount = %v, want 2000", resp["match_amount"])
	}

	_, resp = do(t, s, "GET", "/api/pool", "", nil)
	if resp["pool_balance"].(float64) != 8000 || resp["total_matched"].(float64) != 2000 {
		t.Errorf("pool status = %v", resp)
	}

	_, resp = do(t, s, "GET", "/api/campaigns/exists?name=Campaign1", "", nil)
	if resp["exists"] != true {
		t.Errorf("exists = %v, want true", resp["exists"])
	}
	_, resp = do(t, s, "GET", "/api/campaigns/count", "", nil)
	if resp["count"].(float64) != 1 {
		t.Errorf("count = %v, want 1", resp["count"])
	}
}

func TestMissingCaller(t *testing.T) {
	s := newTestServer(t)
	w, resp := do(t, s, "POST", "/api/pool/fund", "", map[string]any{"amount": 100})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if resp["success"] != false {
		t.Errorf("success = %v, want false", resp["success"])
	}
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)

	// Register without a bound authority -> 403 with contract code 109
	w, resp := do(t, s, "POST", "/api/campaigns", "ST1TEST", registerBody("NoAuth"))
	if w.Code != http.StatusForbidden {
		t.Errorf("unbound register: status = %d, want 403", w.Code)
	}
	if resp["code"].(float64) != 109 {
		t.Errorf("code = %v, want 109", resp["code"])
	}

	// Match against an unknown campaign -> 404
	w, _ = do(t, s, "POST", "/api/campaigns/42/match", "ST1TEST", map[string]any{"amount": 100})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown campaign: status = %d, want 404", w.Code)
	}

	// Invalid amount -> 400 with contract code 103
	do(t, s, "POST", "/api/authority", "ST1TEST", map[string]any{"candidate": "ST2TEST"})
	w, resp = do(t, s, "POST", "/api/pool/fund", "ST1TEST", map[string]any{"amount": -5})
	if w.Code != http.StatusBadRequest {
		t.Errorf("negative fund: status = %d, want 400", w.Code)
	}
	if resp["code"].(float64) != 103 {
		t.Errorf("code = %v, want 103", resp["code"])
	}

	// Unknown campaign id on GET -> 404
	w, _ = do(t, s, "GET", "/api/campaigns/7", "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get unknown campaign: status = %d, want 404", w.Code)
	}
}

// matchCapture keeps the match events the handlers hand to the ledger
// so tests can check the recorded figures.
type matchCapture struct {
	*ledger.NoopLedger
	events []*ledger.MatchEvent
}

func (m *matchCapture) RecordMatch(evt *ledger.MatchEvent) error {
	m.events = append(m.events, evt)
	return nil
}

// The ledger row for a match must carry the ratio and balances in
// effect when the match committed, not a snapshot taken around it.
func TestMatchLedgerFigures(t *testing.T) {
	p, err := pool.New(filepath.Join(t.TempDir(), "pool_state.json"))
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	rec := &matchCapture{NoopLedger: ledger.NewNoopLedger()}
	s := NewServer(p, rec, nil)

	do(t, s, "POST", "/api/authority", "ST1TEST", map[string]any{"candidate": "ST2TEST"})
	do(t, s, "POST", "/api/pool/fund", "ST1TEST", map[string]any{"amount": 10000})
	do(t, s, "POST", "/api/campaigns", "ST1TEST", registerBody("Campaign1"))
	w, _ := do(t, s, "POST", "/api/campaigns/0/match", "ST1TEST", map[string]any{"amount": 1000})
	if w.Code != http.StatusOK {
		t.Fatalf("match: status %d, body %s", w.Code, w.Body.String())
	}

	if len(rec.events) != 1 {
		t.Fatalf("recorded %d match events, want 1", len(rec.events))
	}
	evt := rec.events[0]
	if evt.DonationAmount != 1000 || evt.MatchAmount != 2000 || evt.Ratio != 2 {
		t.Errorf("match figures = %+v", evt)
	}
	if evt.PoolBefore != 10000 || evt.PoolAfter != 8000 || evt.TotalMatched != 2000 {
		t.Errorf("balance figures = %+v", evt)
	}
}

// A server built over a reopened state file must continue the sequence
// counter past everything issued before the restart.
func TestSequenceSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pool_state.json")
	p, err := pool.New(path)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	s := NewServer(p, ledger.NewNoopLedger(), nil)

	do(t, s, "POST", "/api/authority", "ST1TEST", map[string]any{"candidate": "ST2TEST"})
	do(t, s, "POST", "/api/pool/fund", "ST1TEST", map[string]any{"amount": 5000})
	do(t, s, "POST", "/api/pool/withdraw", "ST2TEST", map[string]any{"amount": 1000})
	do(t, s, "POST", "/api/admin/fee", "ST2TEST", map[string]any{"fee": 200})

	issued := p.LastSeq()
	if issued != 4 {
		t.Fatalf("last seq = %d, want 4 after four mutations", issued)
	}

	p2, err := pool.New(path)
	if err != nil {
		t.Fatalf("reopen pool: %v", err)
	}
	s2 := NewServer(p2, ledger.NewNoopLedger(), nil)
	do(t, s2, "POST", "/api/pool/fund", "ST1TEST", map[string]any{"amount": 100})
	if got := p2.LastSeq(); got != issued+1 {
		t.Errorf("seq after restart = %d, want %d", got, issued+1)
	}
}
