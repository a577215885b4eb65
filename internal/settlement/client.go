package settlement

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"MatchingPool/internal/ledger"
)

// Client submits recorded transfer intents to the external settlement
// gateway, which performs the actual value movement.
type Client struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewClient creates a settlement client with optional proxy support.
func NewClient(baseURL, apiKey, proxyURL string) *Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

// wireIntent is the JSON shape the gateway expects.
type wireIntent struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Amount    int64  `json:"amount"`
	From      string `json:"from"`
	To        string `json:"to"`
	CreatedAt int64  `json:"created_at"`
}

// Submit posts a batch of intents and returns the ids the gateway
// accepted for settlement.
func (c *Client) Submit(recs []ledger.IntentRecord) ([]string, error) {
	if len(recs) == 0 {
		return nil, nil
	}

	batch := make([]wireIntent, len(recs))
	for i, rec := range recs {
		batch[i] = wireIntent{
			ID:        rec.Intent.ID,
			Kind:      string(rec.Intent.Kind),
			Amount:    rec.Intent.Amount,
			From:      string(rec.Intent.From),
			To:        string(rec.Intent.To),
			CreatedAt: rec.Intent.CreatedAt.Unix(),
		}
	}
	body, err := json.Marshal(map[string]any{"intents": batch})
	if err != nil {
		return nil, fmt.Errorf("marshal batch: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/v1/transfers", c.BaseURL)
	req, err := http.NewRequest("POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit intents: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("submit intents: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Accepted []string `json:"accepted"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode settlement response: %w", err)
	}
	return result.Accepted, nil
}
