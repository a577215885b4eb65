package pool

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"MatchingPool/internal/model"
)

func TestLoadState_MissingFile(t *testing.T) {
	state, err := LoadState(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if state.MaxPools != 0 || state.NextPoolID != 0 {
		t.Errorf("expected zero state, got %+v", state)
	}
}

func TestLoadState_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadState(path); err == nil {
		t.Error("expected error for corrupt state file")
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pool_state.json")

	p, err := New(path)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	if err := p.BindAuthority(donor, authority, 1); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if _, err := p.Fund(donor, 7777, 2); err != nil {
		t.Fatalf("fund: %v", err)
	}
	if _, _, err := p.RegisterCampaign(donor, validParams("Persisted"), 3); err != nil {
		t.Fatalf("register: %v", err)
	}

	// A second pool on the same file sees the committed state.
	p2, err := New(path)
	if err != nil {
		t.Fatalf("reopen pool: %v", err)
	}
	state := p2.Snapshot()
	if state.PoolBalance != 7777 {
		t.Errorf("pool balance = %d, want 7777", state.PoolBalance)
	}
	if state.Authority != authority {
		t.Errorf("authority = %q, want %q", state.Authority, authority)
	}
	if !p2.CampaignExists("Persisted") {
		t.Error("campaign lost across restart")
	}
	campaign, ok := p2.Campaign(0)
	if !ok || campaign.PoolType != model.PoolCharity {
		t.Errorf("reloaded campaign = %+v (ok=%v)", campaign, ok)
	}
	if state.LastSeq != 3 {
		t.Errorf("last seq = %d, want 3", state.LastSeq)
	}

	// Binding survives a restart: rebinding still fails.
	if err := p2.BindAuthority(donor, "ST9NEW", 9); !errors.Is(err, ErrAlreadyBound) {
		t.Errorf("rebind after restart: err = %v, want ErrAlreadyBound", err)
	}
}
