package pool

import (
	"encoding/json"
	"os"
	"time"

	"MatchingPool/internal/model"
)

// LoadState reads the pool state from a JSON file. Returns a zero state
// if the file doesn't exist.
func LoadState(filePath string) (*model.PoolState, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.PoolState{}, nil
		}
		return nil, err
	}
	var state model.PoolState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	if state.Campaigns == nil {
		state.Campaigns = make(map[int64]*model.CampaignMatch)
	}
	if state.Names == nil {
		state.Names = make(map[string]int64)
	}
	return &state, nil
}

// SaveState writes the pool state to a JSON file.
func SaveState(filePath string, state *model.PoolState) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}
